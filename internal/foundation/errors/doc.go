// Package errors provides foundational, type-safe error primitives used across sitejam.
//
// This package contains classified error types and helpers for robust error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (content, template, filesystem, config, etc.)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLI adapter for exit codes and error presentation
//
// A generation run is all-or-nothing, so every category built by the convenience
// constructors is fatal and nothing is retried.
//
// Example usage:
//
//	err := errors.ContentError("reserved front matter key").
//		WithContext("file", "blog/posts/hello.md").
//		WithContext("key", "body").
//		Build()
package errors
