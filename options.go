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
	"io"

	"github.com/rowpipe/rowpipe/logger"
)

// Option configures a Generator.
type Option func(*Generator)

// WithPreviewRowLimit caps how many result rows are surfaced to the caller.
// Unlike a SQL LIMIT it never aborts or truncates the underlying
// computation; it only restricts what the caller sees. Zero disables it.
func WithPreviewRowLimit(n int64) Option {
	return func(g *Generator) {
		g.previewRowLimit = n
	}
}

// WithSourceRowLimit caps how many raw input rows the pipeline consumes from
// the service, independent of the query's own LIMIT. Zero disables it.
func WithSourceRowLimit(n int64) Option {
	return func(g *Generator) {
		g.sourceRowLimit = n
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(g *Generator) {
		logger.SetDefault(log)
	}
}

// WithLogLevel sets the log level on the default logger.
func WithLogLevel(level logger.Level) Option {
	return func(g *Generator) {
		logger.GetDefault().SetLevel(level)
	}
}

// WithLogOutput directs logs to the given writer at the given level.
func WithLogOutput(output io.Writer, level logger.Level) Option {
	return func(g *Generator) {
		logger.SetDefault(logger.NewLogger(level, output))
	}
}

// WithDiscardLog disables log output.
func WithDiscardLog() Option {
	return func(g *Generator) {
		logger.SetDefault(logger.NewDiscardLogger())
	}
}
