package generator

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeGenerator_Generate(t *testing.T) {
	gen := NewSeededCodeGenerator(42)

	for i := 0; i < 1000; i++ {
		code := gen.Generate()
		require.Len(t, code, CodeLength)
		assert.True(t, IsValidCode(code), "unexpected code %q", code)
	}
}

func TestCodeGenerator_SameSeedSameSequence(t *testing.T) {
	g1 := NewCodeGenerator(rand.New(rand.NewSource(7)))
	g2 := NewCodeGenerator(rand.New(rand.NewSource(7)))

	for i := 0; i < 10; i++ {
		assert.Equal(t, g1.Generate(), g2.Generate())
	}
}

func TestCodeGenerator_CoversAlphabet(t *testing.T) {
	gen := NewSeededCodeGenerator(1)
	seen := make(map[rune]bool)

	for i := 0; i < 2000; i++ {
		for _, c := range gen.Generate() {
			seen[c] = true
		}
	}

	assert.Len(t, seen, len(alphabet))
}

func TestCodeGenerator_Concurrent(t *testing.T) {
	gen := NewSeededCodeGenerator(3)

	var wg sync.WaitGroup
	codes := make(chan string, 800)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				codes <- gen.Generate()
			}
		}()
	}
	wg.Wait()
	close(codes)

	for code := range codes {
		assert.True(t, IsValidCode(code))
	}
}

func TestIsValidCode(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{name: "valid", code: "aZ09bY", want: true},
		{name: "too short", code: "abc", want: false},
		{name: "too long", code: "abcdefg", want: false},
		{name: "symbol", code: "abc-de", want: false},
		{name: "non ascii", code: "abcdé", want: false},
		{name: "empty", code: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidCode(tt.code))
		})
	}
}
