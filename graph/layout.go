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

const (
	layoutOriginX = 50
	layoutOriginY = 50
	layoutStepX   = 100
	layoutBranchY = 150
)

// Layout assigns diagram coordinates to a finished graph. Coordinates are
// purely cosmetic: operators advance left to right by rank, and the false
// branch of a forking filter drops to a second row. Layout is a post-pass
// over the finished graph and never runs during compilation.
func Layout(g *Graph) {
	rank := make(map[string]int, g.Size())

	// Rank by longest incoming path, walking in insertion order; the
	// builder only ever wires forward, so a single pass settles.
	for _, op := range g.operators {
		r := 0
		for _, h := range g.hops {
			if h.To == op.Name {
				if upstream, ok := rank[h.From]; ok && upstream+1 > r {
					r = upstream + 1
				}
			}
		}
		rank[op.Name] = r
	}

	falseBranch := make(map[string]bool)
	for _, op := range g.operators {
		if fc, ok := op.Config.(*FilterConfig); ok && fc.FalseTarget != "" {
			falseBranch[fc.FalseTarget] = true
		}
	}

	for _, op := range g.operators {
		op.X = layoutOriginX + layoutStepX*rank[op.Name]
		if falseBranch[op.Name] {
			op.Y = layoutBranchY
		} else {
			op.Y = layoutOriginY
		}
	}
}
