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

// Builder accumulates a graph as a chain of operators. Append wires each new
// operator after the current frontier; AppendAfter supports the non-linear
// branch cases.
type Builder struct {
	g    *Graph
	last *Operator
}

// NewBuilder creates a builder owning a fresh graph.
func NewBuilder(name string) *Builder {
	return &Builder{g: New(name)}
}

// Append adds the operator, wires it after the current frontier, and makes
// it the new frontier. The first appended operator becomes the graph entry.
func (b *Builder) Append(op *Operator) (*Operator, error) {
	if err := b.g.Add(op); err != nil {
		return nil, err
	}
	if b.last != nil {
		b.g.AddHop(b.last, op)
	}
	b.last = op
	return op, nil
}

// AppendAfter adds the operator wired after an explicit upstream operator
// instead of the frontier, and makes it the new frontier.
func (b *Builder) AppendAfter(op, from *Operator) (*Operator, error) {
	if err := b.g.Add(op); err != nil {
		return nil, err
	}
	b.g.AddHop(from, op)
	b.last = op
	return op, nil
}

// Join adds an extra edge between two existing operators, for merging a
// side branch back into the chain.
func (b *Builder) Join(from, to *Operator) {
	b.g.AddHop(from, to)
}

// Last returns the current frontier operator.
func (b *Builder) Last() *Operator {
	return b.last
}

// Graph returns the graph under construction.
func (b *Builder) Graph() *Graph {
	return b.g
}
