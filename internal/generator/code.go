package generator

import (
	"math/rand"
	"sync"
)

const (
	// CodeLength is the length of every short code.
	CodeLength = 6

	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// CodeGenerator produces random short codes from an injected PRNG.
// Codes are not guaranteed unique; callers resolve collisions.
type CodeGenerator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewCodeGenerator wraps rnd. The caller seeds rnd once per process.
func NewCodeGenerator(rnd *rand.Rand) *CodeGenerator {
	return &CodeGenerator{rnd: rnd}
}

// NewSeededCodeGenerator builds a generator over a source seeded with seed.
func NewSeededCodeGenerator(seed int64) *CodeGenerator {
	return NewCodeGenerator(rand.New(rand.NewSource(seed)))
}

// Generate returns CodeLength characters drawn uniformly from the 62-symbol alphabet.
func (g *CodeGenerator) Generate() string {
	b := make([]byte, CodeLength)

	g.mu.Lock()
	for i := range b {
		b[i] = alphabet[g.rnd.Intn(len(alphabet))]
	}
	g.mu.Unlock()

	return string(b)
}

// IsValidCode reports whether s has the shape of a generated code.
func IsValidCode(s string) bool {
	if len(s) != CodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
