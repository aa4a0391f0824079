package tokenizer

import (
	"container/heap"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rivo/uniseg"
)

// bpeCacheSize bounds the per-model word cache.
const bpeCacheSize = 8192

// maxCacheableWordRunes keeps pathological inputs out of the cache.
const maxCacheableWordRunes = 256

// bpeModel is the merge engine: vocab for membership tests, ranked merge
// pairs, optional suffixes and byte fallback.
type bpeModel struct {
	vocab                   map[string]int
	ranks                   map[[2]string]int
	unkToken                string
	byteFallback            bool
	endOfWordSuffix         string
	continuingSubwordSuffix string

	cache *lru.Cache[string, []string]
}

func newBPEModel(cfg *ModelConfig) (*bpeModel, error) {
	pairs, err := cfg.MergePairs()
	if err != nil {
		return nil, err
	}
	ranks := make(map[[2]string]int, len(pairs))
	for i, p := range pairs {
		ranks[p] = i
	}

	cache, err := lru.New[string, []string](bpeCacheSize)
	if err != nil {
		return nil, err
	}

	return &bpeModel{
		vocab:                   cfg.Vocab,
		ranks:                   ranks,
		unkToken:                cfg.UnkToken,
		byteFallback:            cfg.ByteFallback,
		endOfWordSuffix:         cfg.EndOfWordSuffix,
		continuingSubwordSuffix: cfg.ContinuingSubwordSuffix,
		cache:                   cache,
	}, nil
}

// position is one live node of the doubly-linked merge list. Versions
// invalidate heap entries that were enqueued before a merge touched the
// node.
type position struct {
	text       string
	prev, next int
	version    int
	alive      bool
}

// mergeCandidate is one heap entry. ordinal breaks rank ties towards the
// leftmost pair; stale versions are skipped on pop.
type mergeCandidate struct {
	rank         int
	ordinal      int
	left, right  int
	leftVersion  int
	rightVersion int
}

type candidateHeap []mergeCandidate

func (h candidateHeap) Len() int { return len(h) }
func (h candidateHeap) Less(i, j int) bool {
	if h[i].rank != h[j].rank {
		return h[i].rank < h[j].rank
	}
	return h[i].ordinal < h[j].ordinal
}
func (h candidateHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x any)        { *h = append(*h, x.(mergeCandidate)) }
func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Tokenize splits one pre-token into BPE subwords. Words absent from the
// merges table come back as their grapheme split.
func (m *bpeModel) Tokenize(word string) []string {
	if word == "" {
		return nil
	}
	cacheable := utf8.RuneCountInString(word) < maxCacheableWordRunes
	if cacheable {
		if cached, ok := m.cache.Get(word); ok {
			return cached
		}
	}

	positions := m.seed(word)
	if len(positions) == 0 {
		return nil
	}

	h := &candidateHeap{}
	for i := 0; i+1 < len(positions); i++ {
		m.propose(h, positions, i, i+1)
	}
	heap.Init(h)

	for h.Len() > 0 {
		c := heap.Pop(h).(mergeCandidate)
		l, r := &positions[c.left], &positions[c.right]
		if !l.alive || !r.alive || l.version != c.leftVersion || r.version != c.rightVersion {
			continue
		}

		l.text += r.text
		l.version++
		r.alive = false
		l.next = r.next
		if r.next >= 0 {
			positions[r.next].prev = c.left
		}

		if l.prev >= 0 {
			m.propose(h, positions, l.prev, c.left)
		}
		if l.next >= 0 {
			m.propose(h, positions, c.left, l.next)
		}
	}

	var subwords []string
	for i := 0; i >= 0; i = positions[i].next {
		subwords = append(subwords, positions[i].text)
	}
	if m.continuingSubwordSuffix != "" {
		for i := 0; i < len(subwords)-1; i++ {
			subwords[i] += m.continuingSubwordSuffix
		}
	}

	if cacheable {
		m.cache.Add(word, subwords)
	}
	return subwords
}

// seed builds the initial grapheme list with the end-of-word suffix on
// the final grapheme.
func (m *bpeModel) seed(word string) []position {
	var graphemes []string
	state := -1
	for len(word) > 0 {
		var g string
		g, word, _, state = uniseg.FirstGraphemeClusterInString(word, state)
		graphemes = append(graphemes, g)
	}
	if m.endOfWordSuffix != "" && len(graphemes) > 0 {
		graphemes[len(graphemes)-1] += m.endOfWordSuffix
	}

	positions := make([]position, len(graphemes))
	for i, g := range graphemes {
		positions[i] = position{text: g, prev: i - 1, next: i + 1, alive: true}
	}
	positions[len(positions)-1].next = -1
	return positions
}

// propose enqueues the (left,right) pair when the merges table ranks it.
func (m *bpeModel) propose(h *candidateHeap, positions []position, left, right int) {
	rank, ok := m.ranks[[2]string{positions[left].text, positions[right].text}]
	if !ok {
		return
	}
	ordinal := left
	if right < left {
		ordinal = right
	}
	heap.Push(h, mergeCandidate{
		rank:         rank,
		ordinal:      ordinal,
		left:         left,
		right:        right,
		leftVersion:  positions[left].version,
		rightVersion: positions[right].version,
	})
}

// countSubword prices one subword: vocab hit is one token, otherwise byte
// fallback when every byte has a <0xNN> entry, otherwise the unk token,
// otherwise one per character.
func (m *bpeModel) countSubword(sw string) int {
	if _, ok := m.vocab[sw]; ok {
		return 1
	}
	if m.byteFallback && m.allBytesInVocab(sw) {
		return len(sw)
	}
	if m.unkToken != "" {
		return 1
	}
	return utf8.RuneCountInString(sw)
}

var hexDigits = "0123456789ABCDEF"

func (m *bpeModel) allBytesInVocab(sw string) bool {
	for i := 0; i < len(sw); i++ {
		b := sw[i]
		token := "<0x" + string(hexDigits[b>>4]) + string(hexDigits[b&0xF]) + ">"
		if _, ok := m.vocab[token]; !ok {
			return false
		}
	}
	return true
}
