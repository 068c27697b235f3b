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

package window

import "fmt"

// Mode selects how a streaming window is measured.
type Mode string

const (
	// RowBased windows are measured in row counts.
	RowBased Mode = "ROW_BASED"
	// TimeBased windows are measured in milliseconds.
	TimeBased Mode = "TIME_BASED"
)

// Request is a streaming window request for one query against one service.
type Request struct {
	// Query is the raw query text; it takes part in the cache identity.
	Query string
	// Mode selects row-count or time-duration windowing.
	Mode Mode
	// Size is the requested window size (rows or milliseconds, per Mode).
	Size int64
	// Every is the requested advance interval; zero means no explicit
	// advance override, negative values are treated as zero.
	Every int64
	// WindowLimit is an optional per-request cap on the dimension the
	// mode does not govern: milliseconds for row-based windows, rows for
	// time-based windows. Zero or negative means unset.
	WindowLimit int64
	// ServiceID identifies the service/session the window belongs to.
	ServiceID int64
}

// Limits are the configured ceilings a window request clamps against.
type Limits struct {
	// MaxRows caps how many rows a window may buffer.
	MaxRows int64 `yaml:"maxRows"`
	// MaxTime caps how many milliseconds a window may span.
	MaxTime int64 `yaml:"maxTime"`
}

// Resolved carries the effective window settings after clamping.
type Resolved struct {
	Size    int64
	Every   int64
	MaxRows int64
	MaxTime int64
}

// WindowSize clamps a requested window size against the mode-selected
// ceiling: maxRows for row-based windows, maxTime for time-based ones.
func WindowSize(size int64, timeBased bool, maxRows, maxTime int64) int64 {
	if timeBased {
		return min64(size, maxTime)
	}
	return min64(size, maxRows)
}

// WindowEvery clamps a requested advance interval the same way WindowSize
// clamps the size.
func WindowEvery(every int64, timeBased bool, maxRows, maxTime int64) int64 {
	if timeBased {
		return min64(every, maxTime)
	}
	return min64(every, maxRows)
}

// MaxRows computes the effective row cap. A row-based window is already
// row-bounded by its size, so the configured ceiling passes through; a
// time-based window additionally honors the per-request limit.
func MaxRows(maxRows, windowLimit int64, timeBased bool) int64 {
	if timeBased && windowLimit > 0 {
		return min64(maxRows, windowLimit)
	}
	return maxRows
}

// MaxTime computes the effective time cap, the mirror image of MaxRows: the
// per-request limit applies only to row-based windows.
func MaxTime(maxTime, windowLimit int64, rowBased bool) int64 {
	if rowBased && windowLimit > 0 {
		return min64(maxTime, windowLimit)
	}
	return maxTime
}

// Resolve computes the effective window settings for a request, or reports
// false for a request with a non-positive window size: no window can exist
// without a size. A negative advance interval is normalized to zero.
//
// The clamp pairing is asymmetric on purpose: size and every clamp against
// the ceiling of their own mode, while the row/time caps clamp against the
// per-request WindowLimit, which bounds the opposite dimension.
func Resolve(req Request, limits Limits) (Resolved, bool) {
	if req.Size <= 0 {
		return Resolved{}, false
	}
	every := req.Every
	if every < 0 {
		every = 0
	}
	timeBased := req.Mode == TimeBased

	return Resolved{
		Size:    WindowSize(req.Size, timeBased, limits.MaxRows, limits.MaxTime),
		Every:   WindowEvery(every, timeBased, limits.MaxRows, limits.MaxTime),
		MaxRows: MaxRows(limits.MaxRows, req.WindowLimit, timeBased),
		MaxTime: MaxTime(limits.MaxTime, req.WindowLimit, !timeBased),
	}, true
}

// CacheKey produces the deterministic identity of a resolved window, used to
// reuse previously prepared plans. Requests resolving to the same settings
// for the same query and service yield byte-identical keys; false is
// returned for an invalid request.
func CacheKey(req Request, limits Limits) (string, bool) {
	resolved, ok := Resolve(req, limits)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%d-%s%s-%d-%d-%d-%d",
		req.ServiceID, req.Query, req.Mode,
		resolved.Size, resolved.Every, resolved.MaxRows, resolved.MaxTime), true
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
