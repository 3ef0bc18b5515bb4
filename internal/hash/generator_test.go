package hash

import (
	"strings"
	"testing"
)

func TestGenerateLength(t *testing.T) {
	for _, length := range []int{4, 6, 8, 12} {
		gen := New(length)
		code, err := gen.Generate()
		if err != nil {
			t.Fatalf("Generate() returned error: %v", err)
		}
		if len(code) != length {
			t.Errorf("expected code of length %d, got %q (len %d)", length, code, len(code))
		}
	}
}

func TestGenerateDefaultLength(t *testing.T) {
	for _, bad := range []int{0, -3} {
		gen := New(bad)
		code, err := gen.Generate()
		if err != nil {
			t.Fatalf("Generate() returned error: %v", err)
		}
		if len(code) != DefaultLength {
			t.Errorf("New(%d) should fall back to default length %d, got %d", bad, DefaultLength, len(code))
		}
	}
}

func TestGenerateCharset(t *testing.T) {
	gen := New(DefaultLength)
	for i := 0; i < 100; i++ {
		code, err := gen.Generate()
		if err != nil {
			t.Fatalf("Generate() returned error: %v", err)
		}
		for _, r := range code {
			if !strings.ContainsRune("0123456789abcdef", r) {
				t.Fatalf("code %q contains non-hex character %q", code, r)
			}
		}
	}
}

func TestGenerateDistinct(t *testing.T) {
	// With 16^6 possible codes, 1000 draws colliding would indicate a
	// broken entropy source rather than bad luck.
	gen := New(DefaultLength)
	seen := make(map[string]bool)
	collisions := 0
	for i := 0; i < 1000; i++ {
		code, err := gen.Generate()
		if err != nil {
			t.Fatalf("Generate() returned error: %v", err)
		}
		if seen[code] {
			collisions++
		}
		seen[code] = true
	}
	if collisions > 2 {
		t.Errorf("unexpectedly many collisions in 1000 draws: %d", collisions)
	}
}
