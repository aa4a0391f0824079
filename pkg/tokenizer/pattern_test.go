package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewritePattern(t *testing.T) {
	assert.Equal(t, "[abc]+x", rewritePattern("(?:[abc])+x"))
	assert.Equal(t, "[a\\]b]", rewritePattern("(?:[a\\]b])"))
	// Non-class groups stay untouched.
	assert.Equal(t, "(?:ab)", rewritePattern("(?:ab)"))
	assert.Equal(t, "plain", rewritePattern("plain"))
}

func TestPattern_SplitLiteral(t *testing.T) {
	p, err := compilePattern(&PatternConfig{String: ","})
	require.NoError(t, err)

	got, err := p.split("a,b,c", "removed", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	got, err = p.split("a,b", "isolated", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", ",", "b"}, got)
}

func TestPattern_SplitInvert(t *testing.T) {
	// Inverted, the pattern matches the tokens themselves.
	p, err := compilePattern(&PatternConfig{Regex: `\w+`})
	require.NoError(t, err)

	got, err := p.split("ab cd", "removed", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"ab", "cd"}, got)
}

func TestPattern_SplitNoMatch(t *testing.T) {
	p, err := compilePattern(&PatternConfig{String: "|"})
	require.NoError(t, err)

	got, err := p.split("abc", "removed", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"abc"}, got)

	got, err = p.split("", "removed", false)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Inverted with nothing matching, everything is separator.
	got, err = p.split("abc", "removed", true)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPattern_SpansAreRuneBased(t *testing.T) {
	p, err := compilePattern(&PatternConfig{Regex: `é`})
	require.NoError(t, err)

	got, err := p.split("aébé", "removed", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestPattern_ReplaceAll(t *testing.T) {
	lit, err := compilePattern(&PatternConfig{String: "\t"})
	require.NoError(t, err)
	got, err := lit.replaceAll("a\tb", " ")
	require.NoError(t, err)
	assert.Equal(t, "a b", got)

	re, err := compilePattern(&PatternConfig{Regex: `\s+`})
	require.NoError(t, err)
	got, err = re.replaceAll("a  b", "$")
	require.NoError(t, err)
	assert.Equal(t, "a$b", got)
}

func TestCompilePattern_Nil(t *testing.T) {
	p, err := compilePattern(nil)
	require.NoError(t, err)
	assert.Nil(t, p)
}
