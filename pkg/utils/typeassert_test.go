package utils

import (
	"errors"
	"testing"
)

func TestGetMapField(t *testing.T) {
	m := map[string]any{"id": "A1", "changed": true, "turn": 3}

	if got, err := GetMapField[string](m, "id"); err != nil || got != "A1" {
		t.Errorf("GetMapField id = %q, %v", got, err)
	}
	if _, err := GetMapField[string](m, "turn"); !errors.Is(err, ErrFieldType) {
		t.Errorf("expected ErrFieldType for turn, got %v", err)
	}
	if _, err := GetMapField[bool](m, "missing"); !errors.Is(err, ErrFieldMissing) {
		t.Errorf("expected ErrFieldMissing, got %v", err)
	}
	if !GetMapFieldOr(m, "changed", false) {
		t.Error("GetMapFieldOr changed should be true")
	}
	if GetMapFieldOr(m, "missing", "fallback") != "fallback" {
		t.Error("GetMapFieldOr should fall back")
	}
	if got := GetMapFieldOr[map[string]any](nil, "x", nil); got != nil {
		t.Errorf("nil map should fall back, got %v", got)
	}
}

func TestSafeAssert(t *testing.T) {
	if v, ok := SafeAssert[int](42); !ok || v != 42 {
		t.Errorf("SafeAssert[int](42) = %v, %v", v, ok)
	}
	if _, ok := SafeAssert[string](42); ok {
		t.Error("SafeAssert[string](42) should fail")
	}
}
