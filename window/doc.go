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

// Package window resolves the effective parameters of a streaming window:
// size, advance interval and the row/time caps that bound downstream
// resource use. Requested values are clamped against configured ceilings,
// and every valid resolution has a deterministic cache key so previously
// prepared plans can be reused. An invalid request (non-positive size) is an
// expected outcome, reported as an absent result rather than an error.
package window
