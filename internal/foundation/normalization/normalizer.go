// Package normalization maps loosely written configuration strings onto typed
// enumerations.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Normalizer converts strings to an enum type after trimming and lowercasing.
type Normalizer[T comparable] struct {
	validValues  map[string]T
	defaultValue T
	validKeys    []string
}

// NewNormalizer creates a normalizer from valid string->value pairs. Keys are
// normalized the same way input is.
func NewNormalizer[T comparable](values map[string]T, defaultValue T) *Normalizer[T] {
	normalized := make(map[string]T, len(values))
	validKeys := make([]string, 0, len(values))
	for k, v := range values {
		key := normalize(k)
		normalized[key] = v
		validKeys = append(validKeys, key)
	}
	sort.Strings(validKeys)

	return &Normalizer[T]{
		validValues:  normalized,
		defaultValue: defaultValue,
		validKeys:    validKeys,
	}
}

// Normalize returns the enum value for raw, or the default when unrecognized.
func (n *Normalizer[T]) Normalize(raw string) T {
	if value, ok := n.validValues[normalize(raw)]; ok {
		return value
	}
	return n.defaultValue
}

// NormalizeWithError is Normalize but reports unrecognized input.
func (n *Normalizer[T]) NormalizeWithError(raw string) (T, error) {
	if value, ok := n.validValues[normalize(raw)]; ok {
		return value, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %v", raw, n.validKeys)
}

// ValidKeys returns all valid normalized keys, sorted.
func (n *Normalizer[T]) ValidKeys() []string {
	out := make([]string, len(n.validKeys))
	copy(out, n.validKeys)
	return out
}

// EnumNormalizer is a Normalizer that names its enum in errors.
type EnumNormalizer[T comparable] struct {
	*Normalizer[T]
	enumName string
}

// NewEnumNormalizer creates an enum normalizer with descriptive error messages.
func NewEnumNormalizer[T comparable](enumName string, values map[string]T, defaultValue T) *EnumNormalizer[T] {
	return &EnumNormalizer[T]{Normalizer: NewNormalizer(values, defaultValue), enumName: enumName}
}

// NormalizeWithValidation converts raw to the enum value or explains why it can't.
func (e *EnumNormalizer[T]) NormalizeWithValidation(raw string) (T, error) {
	v, err := e.NormalizeWithError(raw)
	if err != nil {
		return v, fmt.Errorf("invalid %s: %w", e.enumName, err)
	}
	return v, nil
}

// ValidValues returns all accepted spellings for help output.
func (e *EnumNormalizer[T]) ValidValues() []string {
	return e.ValidKeys()
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
