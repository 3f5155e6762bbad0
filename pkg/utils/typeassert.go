package utils

import (
	"errors"
	"fmt"
)

var (
	// ErrFieldMissing is returned by GetMapField when the key is absent.
	ErrFieldMissing = errors.New("field not found")
	// ErrFieldType is returned by GetMapField when the value has another type.
	ErrFieldType = errors.New("field has unexpected type")
)

// SafeAssert is a comma-ok type assertion usable in generic code.
func SafeAssert[T any](value any) (T, bool) {
	v, ok := value.(T)
	return v, ok
}

// GetMapField reads key from m as a T. A nil map behaves like an empty one.
func GetMapField[T any](m map[string]any, key string) (T, error) {
	raw, ok := m[key]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %q", ErrFieldMissing, key)
	}
	v, ok := SafeAssert[T](raw)
	if !ok {
		return v, fmt.Errorf("%w: %q is %T, want %T", ErrFieldType, key, raw, v)
	}
	return v, nil
}

// GetMapFieldOr reads key from m as a T, or returns fallback.
func GetMapFieldOr[T any](m map[string]any, key string, fallback T) T {
	if v, ok := SafeAssert[T](m[key]); ok {
		return v
	}
	return fallback
}
