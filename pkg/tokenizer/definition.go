// Package tokenizer implements a BPE token counter compatible with the
// common tokenizer.json artifact layout: a normalizer chain, a
// pre-tokenizer chain, a BPE vocab+merges model, added-token matching and
// template-aware special-token accounting.
package tokenizer

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Definition mirrors the relevant parts of a serialized tokenizer
// artifact. Immutable after load; shared read-only across pool workers.
type Definition struct {
	Normalizer    *NormalizerConfig    `json:"normalizer"`
	PreTokenizer  *PreTokenizerConfig  `json:"pre_tokenizer"`
	Model         ModelConfig          `json:"model"`
	PostProcessor *PostProcessorConfig `json:"post_processor"`
	AddedTokens   []AddedToken         `json:"added_tokens"`
}

// ModelConfig is the BPE model section.
type ModelConfig struct {
	Type                    string              `json:"type"`
	Vocab                   map[string]int      `json:"vocab"`
	Merges                  jsoniter.RawMessage `json:"merges"`
	UnkToken                string              `json:"unk_token"`
	ByteFallback            bool                `json:"byte_fallback"`
	EndOfWordSuffix         string              `json:"end_of_word_suffix"`
	ContinuingSubwordSuffix string              `json:"continuing_subword_suffix"`
}

// MergePairs decodes the merges list, which ships either as "left right"
// strings or as [left, right] pairs depending on the serializer version.
func (m *ModelConfig) MergePairs() ([][2]string, error) {
	if len(m.Merges) == 0 {
		return nil, nil
	}

	var asStrings []string
	if err := json.Unmarshal(m.Merges, &asStrings); err == nil {
		pairs := make([][2]string, 0, len(asStrings))
		for _, s := range asStrings {
			for i := 0; i < len(s); i++ {
				if s[i] == ' ' {
					pairs = append(pairs, [2]string{s[:i], s[i+1:]})
					break
				}
			}
		}
		return pairs, nil
	}

	var asPairs [][2]string
	if err := json.Unmarshal(m.Merges, &asPairs); err != nil {
		return nil, fmt.Errorf("merges are neither strings nor pairs: %w", err)
	}
	return asPairs, nil
}

// AddedToken is one entry of the added_tokens list.
type AddedToken struct {
	ID      int    `json:"id"`
	Content string `json:"content"`
	Special bool   `json:"special"`
}

// PatternConfig is the tagged pattern union: a literal string or a regex
// source.
type PatternConfig struct {
	String string `json:"String"`
	Regex  string `json:"Regex"`
}

// NormalizerConfig is one node of the normalizer chain.
type NormalizerConfig struct {
	Type        string             `json:"type"`
	Normalizers []NormalizerConfig `json:"normalizers"`
	Pattern     *PatternConfig     `json:"pattern"`
	Content     string             `json:"content"`
}

// PreTokenizerConfig is one node of the pre-tokenizer chain.
type PreTokenizerConfig struct {
	Type           string               `json:"type"`
	PreTokenizers  []PreTokenizerConfig `json:"pretokenizers"`
	Pattern        *PatternConfig       `json:"pattern"`
	Behavior       string               `json:"behavior"`
	Invert         bool                 `json:"invert"`
	AddPrefixSpace bool                 `json:"add_prefix_space"`
	UseRegex       bool                 `json:"use_regex"`
}

// TemplateRef names a special token or an input sequence inside a
// TemplateProcessing template.
type TemplateRef struct {
	ID string `json:"id"`
}

// TemplatePiece is the tagged union of template entries.
type TemplatePiece struct {
	SpecialToken *TemplateRef `json:"SpecialToken"`
	Sequence     *TemplateRef `json:"Sequence"`
}

// PostProcessorConfig carries the TemplateProcessing single/pair
// sequences. Other post-processor types are ignored.
type PostProcessorConfig struct {
	Type   string          `json:"type"`
	Single []TemplatePiece `json:"single"`
	Pair   []TemplatePiece `json:"pair"`
}

// Config mirrors the companion <name>_config.json with the bos/eos/sep
// references used when no template is present.
type Config struct {
	BosToken TokenRef `json:"bos_token"`
	EosToken TokenRef `json:"eos_token"`
	SepToken TokenRef `json:"sep_token"`
}

// TokenRef decodes a token reference that is either a plain string or an
// object with a content field.
type TokenRef struct {
	Content string
}

func (t *TokenRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.Content = s
		return nil
	}
	var obj struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		// null and other shapes mean: not configured
		t.Content = ""
		return nil
	}
	t.Content = obj.Content
	return nil
}
