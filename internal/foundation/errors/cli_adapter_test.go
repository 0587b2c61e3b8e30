package errors

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

type customError struct{ msg string }

func (e *customError) Error() string { return e.msg }

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("missing source").Build(), 2},
		{"not found", NotFoundError("source missing").Build(), 3},
		{"config", ConfigError("bad config").Build(), 7},
		{"content", ContentError("reserved key").Build(), 9},
		{"template", TemplateError("render failed").Build(), 11},
		{"filesystem", FileSystemError("copy failed").Build(), 11},
		{"wrapped content", fmt.Errorf("walk: %w", ContentError("dup").Build()), 9},
		{"internal", InternalError("boom").Build(), 10},
		{"unclassified error", &customError{msg: "unknown error"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	tests := []struct {
		name     string
		verbose  bool
		err      error
		contains string
	}{
		{"nil error", false, nil, ""},
		{"internal hidden", false, InternalError("internal issue").Build(), "use -v for details"},
		{"content shows message", false, ContentError("posts/a.md: reserved key").Build(), "posts/a.md: reserved key"},
		{"verbose shows category", true, TemplateError("render failed").Build(), "[template:fatal]"},
		{"unclassified", false, &customError{msg: "oops"}, "Error: oops"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := NewCLIErrorAdapter(tt.verbose, slog.Default())
			got := adapter.FormatError(tt.err)
			if !strings.Contains(got, tt.contains) {
				t.Errorf("FormatError() = %q, want substring %q", got, tt.contains)
			}
		})
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logs, out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	adapter := NewCLIErrorAdapter(false, logger)
	adapter.out = &out
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(ContentError("hello.md: reserved key").WithContext("file", "hello.md").Build())

	if code != 9 {
		t.Errorf("expected exit code 9, got %d", code)
	}
	if !strings.Contains(out.String(), "hello.md: reserved key") {
		t.Errorf("expected user message, got %q", out.String())
	}
	if !strings.Contains(logs.String(), "category=content") || !strings.Contains(logs.String(), "file=hello.md") {
		t.Errorf("expected structured log attrs, got %q", logs.String())
	}
}
