package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit_SingleLinePerChunk(t *testing.T) {
	chunks := Split("a\nb\nc", 1)
	assert.Equal(t, []string{"a", "b", "c"}, chunks)
}

func TestSplit_GroupsLines(t *testing.T) {
	chunks := Split("a\nb\nc\nd\ne", 2)
	assert.Equal(t, []string{"a\nb", "c\nd", "e"}, chunks)
}

func TestSplit_TrailingNewlineIgnored(t *testing.T) {
	assert.Equal(t, Split("a\nb", 1), Split("a\nb\n", 1))
}

func TestSplit_Empty(t *testing.T) {
	assert.Nil(t, Split("", 3))
}

func TestSplit_NonPositiveSizeActsAsOne(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Split("a\nb", 0))
}

func TestSplit_RoundTrip(t *testing.T) {
	input := "one\ntwo\nthree\nfour\nfive\nsix\nseven"
	for _, size := range []int{1, 2, 3, 7, 100} {
		chunks := Split(input, size)
		assert.Equal(t, input, strings.Join(chunks, "\n"), "size %d", size)
	}
}

func TestSplit_PreservesBlankLines(t *testing.T) {
	chunks := Split("a\n\nb", 1)
	assert.Equal(t, []string{"a", "", "b"}, chunks)
}
