/*
 * Copyright 2025 The RowPipe Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package graph

import (
	"fmt"
)

// OperatorKind enumerates the stream-processing operator types a plan can
// contain.
type OperatorKind int

const (
	KindIngest OperatorKind = iota
	KindRangeSample
	KindTypeCoercion
	KindConstant
	KindFilter
	KindDerivedField
	KindCollector
	KindDateFormat
	KindFieldRemoval
	KindAggregate
	KindSort
	KindDedup
	KindProject
)

// String returns the kind name used in explain output and logs.
func (k OperatorKind) String() string {
	switch k {
	case KindIngest:
		return "ingest"
	case KindRangeSample:
		return "range-sample"
	case KindTypeCoercion:
		return "type-coercion"
	case KindConstant:
		return "constant"
	case KindFilter:
		return "filter"
	case KindDerivedField:
		return "derived-field"
	case KindCollector:
		return "collector"
	case KindDateFormat:
		return "date-format"
	case KindFieldRemoval:
		return "field-removal"
	case KindAggregate:
		return "aggregate"
	case KindSort:
		return "sort"
	case KindDedup:
		return "dedup"
	case KindProject:
		return "project"
	default:
		return "unknown"
	}
}

// Operator is one node of a pipeline plan. Its configuration is
// kind-specific; X and Y are cosmetic diagram coordinates assigned by
// Layout, never during compilation.
type Operator struct {
	Kind   OperatorKind
	Name   string
	Config Config

	X, Y int
}

// Hop is a directed row-flow edge between two operators.
type Hop struct {
	From string
	To   string
}

// Graph is the directed acyclic operator graph a query compiles to. It owns
// all of its operators; no operator is shared across graphs.
type Graph struct {
	name      string
	operators []*Operator
	index     map[string]*Operator
	hops      []Hop

	entryName  string
	resultName string
}

// New creates an empty graph with the given display name.
func New(name string) *Graph {
	return &Graph{
		name:  name,
		index: make(map[string]*Operator),
	}
}

// Name returns the graph's display name.
func (g *Graph) Name() string {
	return g.name
}

// Add inserts an operator. Operator names are unique within a graph.
func (g *Graph) Add(op *Operator) error {
	if op.Name == "" {
		return fmt.Errorf("operator of kind %s has no name", op.Kind)
	}
	if _, exists := g.index[op.Name]; exists {
		return fmt.Errorf("duplicate operator name: %s", op.Name)
	}
	g.operators = append(g.operators, op)
	g.index[op.Name] = op
	return nil
}

// AddHop wires a directed edge from one operator to another.
func (g *Graph) AddHop(from, to *Operator) {
	g.hops = append(g.hops, Hop{From: from.Name, To: to.Name})
}

// Find returns the operator with the given name, or nil.
func (g *Graph) Find(name string) *Operator {
	return g.index[name]
}

// Operators returns the operators in insertion order.
func (g *Graph) Operators() []*Operator {
	return g.operators
}

// Hops returns the edges in insertion order.
func (g *Graph) Hops() []Hop {
	return g.hops
}

// Size returns the number of operators.
func (g *Graph) Size() int {
	return len(g.operators)
}

// SetEntryName records which operator the runtime feeds rows into.
func (g *Graph) SetEntryName(name string) {
	g.entryName = name
}

// EntryName is the handle of the operator the runtime feeds rows into.
func (g *Graph) EntryName() string {
	return g.entryName
}

// SetResultName records which operator the runtime reads results from.
func (g *Graph) SetResultName(name string) {
	g.resultName = name
}

// ResultName is the handle of the operator the runtime reads results from.
func (g *Graph) ResultName() string {
	return g.resultName
}

// KindSequence returns the operator kinds in insertion order.
func (g *Graph) KindSequence() []OperatorKind {
	kinds := make([]OperatorKind, len(g.operators))
	for i, op := range g.operators {
		kinds[i] = op.Kind
	}
	return kinds
}

// Incoming returns the number of edges into the named operator.
func (g *Graph) Incoming(name string) int {
	n := 0
	for _, h := range g.hops {
		if h.To == name {
			n++
		}
	}
	return n
}

// Outgoing returns the number of edges out of the named operator.
func (g *Graph) Outgoing(name string) int {
	n := 0
	for _, h := range g.hops {
		if h.From == name {
			n++
		}
	}
	return n
}

// Validate checks the structural invariants of a finished plan: exactly one
// entry (no incoming edges), exactly one terminal (no outgoing edges), every
// operator reachable from the entry, and no cycles.
func (g *Graph) Validate() error {
	if len(g.operators) == 0 {
		return fmt.Errorf("graph %q has no operators", g.name)
	}

	var entries, terminals []string
	for _, op := range g.operators {
		if g.Incoming(op.Name) == 0 {
			entries = append(entries, op.Name)
		}
		if g.Outgoing(op.Name) == 0 {
			terminals = append(terminals, op.Name)
		}
	}
	if len(entries) != 1 {
		return fmt.Errorf("graph %q must have exactly one entry operator, found %d", g.name, len(entries))
	}
	if len(terminals) != 1 {
		return fmt.Errorf("graph %q must have exactly one terminal operator, found %d", g.name, len(terminals))
	}

	// Depth-first walk from the entry, detecting back edges.
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(g.operators))
	next := make(map[string][]string, len(g.operators))
	for _, h := range g.hops {
		next[h.From] = append(next[h.From], h.To)
	}

	var walk func(name string) error
	walk = func(name string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("graph %q contains a cycle through %s", g.name, name)
		case done:
			return nil
		}
		state[name] = visiting
		for _, to := range next[name] {
			if err := walk(to); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}
	if err := walk(entries[0]); err != nil {
		return err
	}

	for _, op := range g.operators {
		if state[op.Name] != done {
			return fmt.Errorf("operator %s is not reachable from the entry", op.Name)
		}
	}
	return nil
}
