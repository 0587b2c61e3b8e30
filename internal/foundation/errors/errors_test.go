package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "sitejam.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "invalid configuration" {
			t.Errorf("expected message 'invalid configuration', got %s", err.Message())
		}

		file, exists := err.Context().GetString("file")
		if !exists || file != "sitejam.yaml" {
			t.Errorf("expected context file=sitejam.yaml, got %v", file)
		}
	})

	t.Run("Error detection", func(t *testing.T) {
		err := ContentError("reserved key").Build()

		if !IsClassified(err) {
			t.Error("expected error to be classified")
		}
		if !HasCategory(err, CategoryContent) {
			t.Error("expected error to have content category")
		}
		if !err.IsFatal() {
			t.Error("expected content error to be fatal")
		}
	})

	t.Run("Detection through wrapping", func(t *testing.T) {
		inner := TemplateError("render failed").Build()
		wrapped := fmt.Errorf("stage render: %w", inner)

		if !HasCategory(wrapped, CategoryTemplate) {
			t.Error("expected wrapped error to keep template category")
		}
		if GetCategory(errors.New("plain")) != CategoryInternal {
			t.Error("expected unclassified error to default to internal")
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	t.Run("Fluent API", func(t *testing.T) {
		originalErr := errors.New("permission denied")
		err := WrapError(originalErr, CategoryFileSystem, "create output directory").
			Warning().
			WithContext("path", "public/blog").
			Build()

		if err.Category() != CategoryFileSystem {
			t.Errorf("expected category %s, got %s", CategoryFileSystem, err.Category())
		}
		if err.Severity() != SeverityWarning {
			t.Errorf("expected severity %s, got %s", SeverityWarning, err.Severity())
		}
		if !errors.Is(err, originalErr) {
			t.Error("expected error to wrap original error")
		}
		if got := err.Error(); got != "[filesystem:warning] create output directory: permission denied" {
			t.Errorf("unexpected error string %q", got)
		}
	})

	t.Run("Convenience constructors", func(t *testing.T) {
		tests := []struct {
			name     string
			builder  *ErrorBuilder
			category ErrorCategory
		}{
			{"ConfigError", ConfigError("test"), CategoryConfig},
			{"ValidationError", ValidationError("test"), CategoryValidation},
			{"NotFoundError", NotFoundError("test"), CategoryNotFound},
			{"ContentError", ContentError("test"), CategoryContent},
			{"ContentErrorf", ContentErrorf("%s", "test"), CategoryContent},
			{"TemplateError", TemplateError("test"), CategoryTemplate},
			{"FileSystemError", FileSystemError("test"), CategoryFileSystem},
			{"BuildError", BuildError("test"), CategoryBuild},
			{"InternalError", InternalError("test"), CategoryInternal},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.builder.Build()
				if err.Category() != tt.category {
					t.Errorf("expected category %s, got %s", tt.category, err.Category())
				}
				if err.Severity() != SeverityFatal {
					t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
				}
			})
		}
	})
}

func TestErrorContext(t *testing.T) {
	t.Run("Context operations", func(t *testing.T) {
		ctx := make(ErrorContext)
		ctx = ctx.Set("key1", "value1")
		ctx = ctx.Set("key2", 42)

		value1, exists1 := ctx.GetString("key1")
		if !exists1 || value1 != "value1" {
			t.Errorf("expected key1=value1, got %v", value1)
		}

		value2, exists2 := ctx.Get("key2")
		if !exists2 || value2 != 42 {
			t.Errorf("expected key2=42, got %v", value2)
		}

		if _, exists3 := ctx.Get("nonexistent"); exists3 {
			t.Error("expected nonexistent key to not exist")
		}
	})

	t.Run("Context merge", func(t *testing.T) {
		ctx1 := ErrorContext{"key1": "value1", "shared": "original"}
		ctx2 := ErrorContext{"key2": "value2", "shared": "overridden"}

		merged := ctx1.Merge(ctx2)

		shared, _ := merged.GetString("shared")
		if shared != "overridden" {
			t.Errorf("expected shared=overridden, got %s", shared)
		}
		if _, ok := merged.Get("key1"); !ok {
			t.Error("expected key1 to survive merge")
		}
	})

	t.Run("WithContext does not mutate the original", func(t *testing.T) {
		base := ContentError("bad yaml").Build()
		derived := base.WithContext("file", "data.yml")

		if _, ok := base.Context().Get("file"); ok {
			t.Error("expected base context to stay untouched")
		}
		if f, _ := derived.Context().GetString("file"); f != "data.yml" {
			t.Errorf("expected derived file context, got %q", f)
		}
	})
}
