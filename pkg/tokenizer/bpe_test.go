package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newModel(t *testing.T, cfg ModelConfig) *bpeModel {
	t.Helper()
	m, err := newBPEModel(&cfg)
	require.NoError(t, err)
	return m
}

func TestBPE_NoMergesYieldsGraphemes(t *testing.T) {
	m := newModel(t, ModelConfig{Vocab: map[string]int{}})
	assert.Equal(t, []string{"a", "b", "c"}, m.Tokenize("abc"))
	assert.Nil(t, m.Tokenize(""))
}

func TestBPE_CombiningMarksStayOneGrapheme(t *testing.T) {
	m := newModel(t, ModelConfig{Vocab: map[string]int{}})
	// e + combining acute is a single grapheme cluster.
	assert.Equal(t, []string{"é"}, m.Tokenize("é"))
}

func TestBPE_MergesFollowRankOrder(t *testing.T) {
	m := newModel(t, ModelConfig{
		Vocab:  map[string]int{},
		Merges: []byte(`["a b", "c d", "ab cd"]`),
	})
	assert.Equal(t, []string{"abcd"}, m.Tokenize("abcd"))
}

func TestBPE_PairFormMerges(t *testing.T) {
	m := newModel(t, ModelConfig{
		Vocab:  map[string]int{},
		Merges: []byte(`[["a","b"]]`),
	})
	assert.Equal(t, []string{"ab", "c"}, m.Tokenize("abc"))
}

func TestBPE_RankTiesResolveLeftmost(t *testing.T) {
	m := newModel(t, ModelConfig{
		Vocab:  map[string]int{},
		Merges: []byte(`["a a"]`),
	})
	assert.Equal(t, []string{"aa", "aa"}, m.Tokenize("aaaa"))
	assert.Equal(t, []string{"aa", "a"}, m.Tokenize("aaa"))
}

func TestBPE_EndOfWordSuffix(t *testing.T) {
	m := newModel(t, ModelConfig{
		Vocab:           map[string]int{},
		Merges:          []byte(`["a b</w>"]`),
		EndOfWordSuffix: "</w>",
	})
	assert.Equal(t, []string{"ab</w>"}, m.Tokenize("ab"))
}

func TestBPE_ContinuingSubwordSuffix(t *testing.T) {
	m := newModel(t, ModelConfig{
		Vocab:                   map[string]int{},
		ContinuingSubwordSuffix: "##",
	})
	assert.Equal(t, []string{"a##", "b##", "c"}, m.Tokenize("abc"))
}

func TestBPE_CacheReturnsSameSplit(t *testing.T) {
	m := newModel(t, ModelConfig{
		Vocab:  map[string]int{},
		Merges: []byte(`["h i"]`),
	})
	first := m.Tokenize("hi")
	second := m.Tokenize("hi")
	assert.Equal(t, first, second)
	_, cached := m.cache.Get("hi")
	assert.True(t, cached)
}

func TestCountSubword_VocabHit(t *testing.T) {
	m := newModel(t, ModelConfig{Vocab: map[string]int{"hi": 7}})
	assert.Equal(t, 1, m.countSubword("hi"))
}

func TestCountSubword_ByteFallback(t *testing.T) {
	m := newModel(t, ModelConfig{
		Vocab:        map[string]int{"<0xC2>": 1, "<0xA2>": 2},
		ByteFallback: true,
	})
	// The cent sign is two UTF-8 bytes, both priced individually.
	assert.Equal(t, 2, m.countSubword("¢"))
}

func TestCountSubword_ByteFallbackNeedsFullCoverage(t *testing.T) {
	m := newModel(t, ModelConfig{
		Vocab:        map[string]int{"<0xC2>": 1},
		ByteFallback: true,
		UnkToken:     "<unk>",
	})
	// Second byte has no entry, so the whole subword collapses to unk.
	assert.Equal(t, 1, m.countSubword("¢"))
}

func TestCountSubword_UnkToken(t *testing.T) {
	m := newModel(t, ModelConfig{Vocab: map[string]int{}, UnkToken: "<unk>"})
	assert.Equal(t, 1, m.countSubword("zzz"))
}

func TestCountSubword_CharacterFallback(t *testing.T) {
	m := newModel(t, ModelConfig{Vocab: map[string]int{}})
	assert.Equal(t, 3, m.countSubword("abc"))
	assert.Equal(t, 1, m.countSubword("é"))
}

func TestMergePairs_BothSerializations(t *testing.T) {
	strings := ModelConfig{Merges: []byte(`["a b", "x y z"]`)}
	pairs, err := strings.MergePairs()
	require.NoError(t, err)
	// Only the first space splits; the remainder stays in the right side.
	assert.Equal(t, [][2]string{{"a", "b"}, {"x", "y z"}}, pairs)

	tuples := ModelConfig{Merges: []byte(`[["a","b"]]`)}
	pairs, err = tuples.MergePairs()
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"a", "b"}}, pairs)

	empty := ModelConfig{}
	pairs, err = empty.MergePairs()
	require.NoError(t, err)
	assert.Nil(t, pairs)
}
