package kv

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateKey(t *testing.T) {
	ok := []string{"a", "protect:abc:red_team", "game-1", "session:ff00", strings.Repeat("k", MaxKeyLength)}
	for _, v := range ok {
		if err := ValidateKey(v); err != nil {
			t.Fatalf("expected valid key %q: %v", v, err)
		}
	}
	bad := []string{"", "has space", "slash/key", "dot.key", "ключ", strings.Repeat("k", MaxKeyLength+1)}
	for _, v := range bad {
		err := ValidateKey(v)
		if err == nil {
			t.Fatalf("expected invalid key %q", v)
		}
		if !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("expected ErrInvalidKey for %q, got %v", v, err)
		}
	}
}

func TestValidateValue(t *testing.T) {
	if err := ValidateValue(""); err != nil {
		t.Fatalf("expected empty value to be valid: %v", err)
	}
	if err := ValidateValue(strings.Repeat("v", MaxValueSize)); err != nil {
		t.Fatalf("expected max size value to be valid: %v", err)
	}
	if err := ValidateValue(strings.Repeat("v", MaxValueSize+1)); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}
