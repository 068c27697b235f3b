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

// Package condition compiles boolean predicate expressions for filter
// operators. Expressions use expr-lang syntax and are compiled once at plan
// time, both to validate them early and to hand the runtime a ready-to-run
// program. SQL LIKE matching and date-to-string conversions are supported on
// top of the expression language.
package condition
