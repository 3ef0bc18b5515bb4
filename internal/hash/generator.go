// Package hash produces the short codes used in redirect URLs.
package hash

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// DefaultLength is the short code length used when none is configured.
const DefaultLength = 6

// Generator produces fixed-length short codes from a cryptographically secure
// random source. Codes are hex-encoded random bytes truncated to the configured
// length, so they are not predictable or enumerable. A Generator holds no state
// beyond its length and is safe for concurrent use.
type Generator struct {
	length int
}

// New creates a Generator producing codes of the given length.
// Non-positive lengths fall back to DefaultLength.
func New(length int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{length: length}
}

// Length returns the configured code length.
func (g *Generator) Length() int {
	return g.length
}

// Generate returns a new random short code.
// It reads length random bytes, hex-encodes them and truncates the result,
// which always yields exactly length characters from [0-9a-f].
func (g *Generator) Generate() (string, error) {
	buf := make([]byte, g.length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf)[:g.length], nil
}
