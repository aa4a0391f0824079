package tokenizer

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// PreTokenizer cuts normalized text into pieces; each piece then goes
// through the BPE model independently.
type PreTokenizer interface {
	Apply(pieces []string) []string
}

type identityPreTokenizer struct{}

func (identityPreTokenizer) Apply(pieces []string) []string { return pieces }

type sequencePreTokenizer struct{ chain []PreTokenizer }

func (p sequencePreTokenizer) Apply(pieces []string) []string {
	for _, c := range p.chain {
		pieces = c.Apply(pieces)
	}
	return pieces
}

type splitPreTokenizer struct {
	pat      *pattern
	behavior string
	invert   bool
}

func (p splitPreTokenizer) Apply(pieces []string) []string {
	var out []string
	for _, piece := range pieces {
		parts, err := p.pat.split(piece, p.behavior, p.invert)
		if err != nil {
			out = append(out, piece)
			continue
		}
		out = append(out, parts...)
	}
	return out
}

// gpt2SplitRegex is the contraction-aware word splitter used by byte-level
// tokenizers. The trailing-whitespace lookahead needs a backtracking
// engine.
var gpt2SplitRegex = regexp2.MustCompile(
	`'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`,
	regexp2.Unicode,
)

type byteLevelPreTokenizer struct {
	addPrefixSpace bool
	useRegex       bool
}

func (p byteLevelPreTokenizer) Apply(pieces []string) []string {
	var out []string
	for _, piece := range pieces {
		if p.addPrefixSpace && !strings.HasPrefix(piece, " ") {
			piece = " " + piece
		}
		if p.useRegex {
			pat := &pattern{re: gpt2SplitRegex}
			words, err := pat.split(piece, "removed", true)
			if err != nil {
				words = []string{piece}
			}
			for _, w := range words {
				out = append(out, visibleBytes(w))
			}
			continue
		}
		out = append(out, visibleBytes(piece))
	}
	return out
}

// buildPreTokenizer compiles a pre-tokenizer config. Metaspace,
// Whitespace, BertPreTokenizer, Replace and Precompiled are accepted as
// identity: counting does not depend on their finer splits, only on what
// the BPE model does afterwards.
func buildPreTokenizer(cfg *PreTokenizerConfig) (PreTokenizer, error) {
	if cfg == nil {
		return identityPreTokenizer{}, nil
	}
	switch cfg.Type {
	case "Sequence":
		chain := make([]PreTokenizer, 0, len(cfg.PreTokenizers))
		for i := range cfg.PreTokenizers {
			p, err := buildPreTokenizer(&cfg.PreTokenizers[i])
			if err != nil {
				return nil, err
			}
			chain = append(chain, p)
		}
		return sequencePreTokenizer{chain: chain}, nil
	case "Split":
		pat, err := compilePattern(cfg.Pattern)
		if err != nil {
			return nil, err
		}
		if pat == nil {
			return identityPreTokenizer{}, nil
		}
		return splitPreTokenizer{pat: pat, behavior: cfg.Behavior, invert: cfg.Invert}, nil
	case "ByteLevel":
		return byteLevelPreTokenizer{
			addPrefixSpace: cfg.AddPrefixSpace,
			useRegex:       cfg.UseRegex,
		}, nil
	default:
		return identityPreTokenizer{}, nil
	}
}
