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
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestNewLoggerRejectsUnknownFormat(t *testing.T) {
	if _, err := NewLogger("xml", Info, &bytes.Buffer{}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected an error for an unrecognized logging format")
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := NewLogger("standard", "TRACE", &bytes.Buffer{}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected an error for an unrecognized logging level")
	}
}

func TestStdLoggerSplitsOutAndErrByLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	logger, err := NewLogger("standard", Info, &out, &errOut)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	ctx := context.Background()
	logger.InfoContext(ctx, "compiled query", "params", 3)
	logger.ErrorContext(ctx, "search query execution failed", "error", "boom")

	if !strings.Contains(out.String(), "compiled query") {
		t.Errorf("expected the info record on out, got %q", out.String())
	}
	if strings.Contains(errOut.String(), "compiled query") {
		t.Errorf("did not expect the info record on err, got %q", errOut.String())
	}
	if !strings.Contains(errOut.String(), "search query execution failed") {
		t.Errorf("expected the error record on err, got %q", errOut.String())
	}
}

func TestStdLoggerFiltersBelowConfiguredLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	logger, err := NewLogger("standard", Warn, &out, &errOut)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	logger.DebugContext(context.Background(), "should not appear")
	if out.Len() != 0 || errOut.Len() != 0 {
		t.Errorf("expected a debug record to be filtered at warn level, got out=%q err=%q", out.String(), errOut.String())
	}
}

func TestStructuredLoggerEmitsCloudLogEntryFields(t *testing.T) {
	var out, errOut bytes.Buffer
	logger, err := NewLogger("json", Info, &out, &errOut)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	logger.InfoContext(context.Background(), "compiled query", "params", 3)

	got := out.String()
	for _, field := range []string{`"severity":"INFO"`, `"message":"compiled query"`} {
		if !strings.Contains(got, field) {
			t.Errorf("expected the JSON record to contain %s, got %s", field, got)
		}
	}
}

func TestSeverityToLevelRoundTripsKnownLevels(t *testing.T) {
	for _, level := range []string{Debug, Info, Warn, Error} {
		slogLevel, err := SeverityToLevel(level)
		if err != nil {
			t.Errorf("SeverityToLevel(%q): %v", level, err)
			continue
		}
		if back, err := levelToSeverity(slogLevel.String()); err != nil || back != level {
			t.Errorf("levelToSeverity(%q) = %q, %v; want %q", slogLevel.String(), back, err, level)
		}
	}
	if _, err := SeverityToLevel("nonsense"); err == nil {
		t.Errorf("expected an error for an unrecognized level")
	}
}
