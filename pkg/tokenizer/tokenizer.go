package tokenizer

import (
	"sort"
)

// Tokenizer counts tokens the way the serialized artifact dictates. It is
// immutable after construction and safe for concurrent use except for the
// BPE cache, which is internally synchronized.
type Tokenizer struct {
	def        *Definition
	cfg        *Config
	normalizer Normalizer
	pretok     PreTokenizer
	model      *bpeModel
	added      *addedMatcher
	// specials holds every content valid as a special token: vocab
	// entries and added tokens.
	specials map[string]bool
}

// New parses the two artifact buffers into a ready tokenizer.
func New(defRaw, cfgRaw []byte) (*Tokenizer, error) {
	var def Definition
	if err := json.Unmarshal(defRaw, &def); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if len(cfgRaw) > 0 {
		if err := json.Unmarshal(cfgRaw, cfg); err != nil {
			return nil, err
		}
	}

	normalizer, err := buildNormalizer(def.Normalizer)
	if err != nil {
		return nil, err
	}
	pretok, err := buildPreTokenizer(def.PreTokenizer)
	if err != nil {
		return nil, err
	}
	model, err := newBPEModel(&def.Model)
	if err != nil {
		return nil, err
	}

	contents := make([]string, 0, len(def.AddedTokens))
	specials := make(map[string]bool, len(def.AddedTokens))
	for _, t := range def.AddedTokens {
		contents = append(contents, t.Content)
		specials[t.Content] = true
	}
	// Longest first, so equal-start matches prefer the longer token.
	sort.Slice(contents, func(i, j int) bool { return len(contents[i]) > len(contents[j]) })

	return &Tokenizer{
		def:        &def,
		cfg:        cfg,
		normalizer: normalizer,
		pretok:     pretok,
		model:      model,
		added:      newAddedMatcher(contents),
		specials:   specials,
	}, nil
}

// Count returns the token count of text, optionally including the
// special tokens the artifact's template (or bos/eos config) would add.
func (t *Tokenizer) Count(text string, addSpecialTokens bool) int {
	base := t.countText(text)
	if !addSpecialTokens {
		return base
	}

	if pp := t.def.PostProcessor; pp != nil && pp.Type == "TemplateProcessing" && len(pp.Single) > 0 {
		total := 0
		for _, piece := range pp.Single {
			switch {
			case piece.SpecialToken != nil:
				if t.isSpecial(piece.SpecialToken.ID) {
					total++
				}
			case piece.Sequence != nil:
				if piece.Sequence.ID == "A" {
					total += base
				}
				// A single text has no B sequence.
			}
		}
		return total
	}

	total := base
	if t.isSpecial(t.cfg.BosToken.Content) {
		total++
	}
	if t.isSpecial(t.cfg.EosToken.Content) {
		total++
	}
	// The sep token only applies to sentence pairs.
	return total
}

// countText runs added-token matching over the raw text, then the
// normalize / pre-tokenize / BPE pipeline over the unmatched spans.
func (t *Tokenizer) countText(text string) int {
	count := 0
	prev := 0
	for _, sp := range t.added.FindAll(text) {
		count += t.countSpan(text[prev:sp.start])
		count++ // the added token itself
		prev = sp.end
	}
	count += t.countSpan(text[prev:])
	return count
}

func (t *Tokenizer) countSpan(text string) int {
	if text == "" {
		return 0
	}
	pieces := t.pretok.Apply([]string{t.normalizer.Normalize(text)})
	count := 0
	for _, piece := range pieces {
		for _, sw := range t.model.Tokenize(piece) {
			count += t.model.countSubword(sw)
		}
	}
	return count
}

func (t *Tokenizer) isSpecial(content string) bool {
	if content == "" {
		return false
	}
	if t.specials[content] {
		return true
	}
	_, ok := t.def.Model.Vocab[content]
	return ok
}
