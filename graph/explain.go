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
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Explain renders the plan as a table: one row per operator in insertion
// order, with its kind, configuration summary and downstream targets.
func Explain(w io.Writer, g *Graph) {
	targets := make(map[string][]string, g.Size())
	for _, h := range g.Hops() {
		targets[h.From] = append(targets[h.From], h.To)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Operator", "Kind", "Config", "Next"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for i, op := range g.Operators() {
		summary := ""
		if op.Config != nil {
			summary = op.Config.Summary()
		}
		table.Append([]string{
			strconv.Itoa(i + 1),
			op.Name,
			op.Kind.String(),
			summary,
			strings.Join(targets[op.Name], ", "),
		})
	}
	table.Render()
}
