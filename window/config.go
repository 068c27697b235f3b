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

import (
	"fmt"
	"os"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultMaxRows is the fallback row ceiling for streaming windows.
	DefaultMaxRows int64 = 5000
	// DefaultMaxTime is the fallback time ceiling in milliseconds.
	DefaultMaxTime int64 = 10000

	// EnvMaxRows and EnvMaxTime override the defaults from the
	// environment.
	EnvMaxRows = "ROWPIPE_STREAMING_ROW_LIMIT"
	EnvMaxTime = "ROWPIPE_STREAMING_TIME_LIMIT"
)

// DefaultLimits returns the built-in streaming ceilings.
func DefaultLimits() Limits {
	return Limits{MaxRows: DefaultMaxRows, MaxTime: DefaultMaxTime}
}

// LimitsFromEnv resolves the streaming ceilings from the environment,
// falling back to the defaults for unset or non-positive values.
func LimitsFromEnv() Limits {
	limits := DefaultLimits()
	if v := cast.ToInt64(os.Getenv(EnvMaxRows)); v > 0 {
		limits.MaxRows = v
	}
	if v := cast.ToInt64(os.Getenv(EnvMaxTime)); v > 0 {
		limits.MaxTime = v
	}
	return limits
}

// LoadLimits reads streaming ceilings from a YAML file. Values missing from
// the file keep their defaults.
func LoadLimits(path string) (Limits, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Limits{}, fmt.Errorf("read limits file: %w", err)
	}
	limits := DefaultLimits()
	if err := yaml.Unmarshal(data, &limits); err != nil {
		return Limits{}, fmt.Errorf("parse limits file %s: %w", path, err)
	}
	if limits.MaxRows <= 0 {
		limits.MaxRows = DefaultMaxRows
	}
	if limits.MaxTime <= 0 {
		limits.MaxTime = DefaultMaxTime
	}
	return limits, nil
}
