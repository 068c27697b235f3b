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

// Package query models a parsed SQL query against a data service: the select
// list with its plain, constant, aggregate and conditional variants, WHERE
// and HAVING predicates, grouping, ordering, limit and distinct. The SQL
// parser that produces this structure is an external collaborator; queries
// can also be declared directly (for example from YAML) for testing and
// tooling.
package query
