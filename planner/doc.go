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

// Package planner compiles a structured query against a service schema into
// a pipeline graph: projection, filtering, conditional expressions,
// aggregation, ordering, de-duplication and row limiting, emitted in the
// order SQL semantics require. The planner only emits a plan; executing it
// against live rows is the job of an external runtime, which receives the
// graph together with its entry and result operator handles.
package planner
