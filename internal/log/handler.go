// Copyright 2026 The Panoptikon PQL Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"io"
	"log/slog"
)

// Logger is the context-aware logging surface used throughout this module,
// backed by either StdLogger or StructuredLogger depending on the
// configured format. Unlike the teacher's equivalent interface, this one
// drops SlogLogger(): nothing in this module multiplexes a bare *slog.Logger
// across the out/err split, every caller logs through the leveled methods
// directly.
type Logger interface {
	DebugContext(ctx context.Context, msg string, keysAndValues ...any)
	InfoContext(ctx context.Context, msg string, keysAndValues ...any)
	WarnContext(ctx context.Context, msg string, keysAndValues ...any)
	ErrorContext(ctx context.Context, msg string, keysAndValues ...any)
}

// NewValueTextHandler returns the slog.Handler used by StdLogger: a plain
// slog text handler over w with the given options. Records keep slog's
// standard time, level and msg keys.
func NewValueTextHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	return slog.NewTextHandler(w, opts)
}

// handlerWithSpanContext would normally enrich each record with the active
// OpenTelemetry span/trace IDs before handing it to h. This module does not
// carry the otel stack (nothing in it runs distributed across processes),
// so it is the identity function; every record passes through unchanged.
func handlerWithSpanContext(h slog.Handler) slog.Handler {
	return h
}
