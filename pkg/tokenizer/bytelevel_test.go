package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByteToRune_CanonicalTable(t *testing.T) {
	// Printable ranges map to themselves.
	assert.Equal(t, '!', byteToRune[33])
	assert.Equal(t, 'A', byteToRune[65])
	assert.Equal(t, '~', byteToRune[126])
	assert.Equal(t, rune(0xA1), byteToRune[0xA1])
	assert.Equal(t, rune(0xFF), byteToRune[0xFF])

	// Non-printables get the dense allocation from 256 up: bytes 0..32 are
	// all non-printable, so space lands on U+0120 and newline on U+010A.
	assert.Equal(t, 'Ġ', byteToRune[' '])
	assert.Equal(t, 'Ċ', byteToRune['\n'])
	assert.Equal(t, rune(256), byteToRune[0])
}

func TestByteToRune_Bijective(t *testing.T) {
	seen := map[rune]bool{}
	for _, r := range byteToRune {
		assert.False(t, seen[r])
		seen[r] = true
	}
	assert.Len(t, seen, 256)
}

func TestVisibleBytes(t *testing.T) {
	assert.Equal(t, "Ġhi", visibleBytes(" hi"))
	assert.Equal(t, "abc", visibleBytes("abc"))
	// Multi-byte runes are mapped byte by byte.
	assert.Equal(t, "Ã©", visibleBytes("é"))
}
