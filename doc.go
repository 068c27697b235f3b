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

/*
Package rowpipe compiles SQL queries against a data service into executable
dataflow plans.

A service exposes its output as a virtual, queryable relation. Given a
structured query (parsing is an external concern) and the service's row
schema, rowpipe emits a directed graph of stream-processing operators that,
when run by a pipeline runtime, produces the query's result set: projection,
filtering, conditional expressions, aggregation, ordering, de-duplication
and row limiting, in SQL order.

For continuous queries the window package additionally resolves the
effective streaming window parameters, clamping requested values against
configured ceilings and deriving a deterministic cache key for plan reuse.

Compiling a plan:

	q := &query.Query{
		ServiceName: "sales",
		Statement:   "SELECT state, SUM(amount) AS total FROM sales GROUP BY state",
		Fields: []query.SelectField{
			{Name: "state"},
			{Name: "amount", Aggregation: query.Sum, Alias: "total"},
		},
		GroupBy: []string{"state"},
	}
	gen := rowpipe.New(q, fields)
	g, err := gen.Generate()

The graph's entry and result operator names tell the runtime where to feed
rows in and read results out.
*/
package rowpipe
