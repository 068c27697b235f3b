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

package rowpipe

import (
	"github.com/rowpipe/rowpipe/graph"
	"github.com/rowpipe/rowpipe/planner"
	"github.com/rowpipe/rowpipe/query"
	"github.com/rowpipe/rowpipe/schema"
)

// Generator is the top-level entry point: it compiles one structured query
// over a service schema into an executable pipeline graph.
//
// Usage:
//
//	gen := rowpipe.New(q, fields, rowpipe.WithPreviewRowLimit(1000))
//	g, err := gen.Generate()
//	// feed rows into g at gen.EntryName(), read from gen.ResultName()
type Generator struct {
	query  *query.Query
	fields schema.Schema

	previewRowLimit int64
	sourceRowLimit  int64

	planner *planner.Planner
}

// New creates a Generator for the query against the service fields.
func New(q *query.Query, fields schema.Schema, options ...Option) *Generator {
	g := &Generator{query: q, fields: fields}
	for _, option := range options {
		option(g)
	}
	return g
}

// Generate compiles the query into a pipeline graph.
func (g *Generator) Generate() (*graph.Graph, error) {
	p := planner.New(g.query, g.fields)
	p.SetPreviewRowLimit(g.previewRowLimit)
	p.SetSourceRowLimit(g.sourceRowLimit)
	compiled, err := p.Plan()
	if err != nil {
		return nil, err
	}
	g.planner = p
	return compiled, nil
}

// EntryName is the handle of the operator the runtime feeds rows into,
// available after Generate.
func (g *Generator) EntryName() string {
	if g.planner == nil {
		return ""
	}
	return g.planner.EntryName()
}

// ResultName is the handle of the operator the runtime reads results from,
// available after Generate.
func (g *Generator) ResultName() string {
	if g.planner == nil {
		return ""
	}
	return g.planner.ResultName()
}

// PreviewRowLimit returns the configured preview cap.
func (g *Generator) PreviewRowLimit() int64 {
	return g.previewRowLimit
}

// SourceRowLimit returns the configured source input cap.
func (g *Generator) SourceRowLimit() int64 {
	return g.sourceRowLimit
}
