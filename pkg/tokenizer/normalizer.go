package tokenizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalizer transforms text before pre-tokenization.
type Normalizer interface {
	Normalize(s string) string
}

type identityNormalizer struct{}

func (identityNormalizer) Normalize(s string) string { return s }

type formNormalizer struct{ form norm.Form }

func (n formNormalizer) Normalize(s string) string { return n.form.String(s) }

type lowercaseNormalizer struct{}

func (lowercaseNormalizer) Normalize(s string) string { return strings.ToLower(s) }

// stripAccentsNormalizer decomposes and drops combining marks.
type stripAccentsNormalizer struct{}

func (stripAccentsNormalizer) Normalize(s string) string {
	var sb strings.Builder
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

type replaceNormalizer struct {
	pat     *pattern
	content string
}

func (n replaceNormalizer) Normalize(s string) string {
	out, err := n.pat.replaceAll(s, n.content)
	if err != nil {
		return s
	}
	return out
}

type sequenceNormalizer struct{ chain []Normalizer }

func (n sequenceNormalizer) Normalize(s string) string {
	for _, c := range n.chain {
		s = c.Normalize(s)
	}
	return s
}

// buildNormalizer compiles a normalizer config into a chain. Unknown
// variants are identity, so unfamiliar artifacts still count reasonably.
func buildNormalizer(cfg *NormalizerConfig) (Normalizer, error) {
	if cfg == nil {
		return identityNormalizer{}, nil
	}
	switch cfg.Type {
	case "NFC":
		return formNormalizer{norm.NFC}, nil
	case "NFD":
		return formNormalizer{norm.NFD}, nil
	case "NFKC":
		return formNormalizer{norm.NFKC}, nil
	case "NFKD":
		return formNormalizer{norm.NFKD}, nil
	case "Lowercase":
		return lowercaseNormalizer{}, nil
	case "StripAccents":
		return stripAccentsNormalizer{}, nil
	case "Replace":
		pat, err := compilePattern(cfg.Pattern)
		if err != nil {
			return nil, err
		}
		if pat == nil {
			return identityNormalizer{}, nil
		}
		return replaceNormalizer{pat: pat, content: cfg.Content}, nil
	case "Sequence":
		chain := make([]Normalizer, 0, len(cfg.Normalizers))
		for i := range cfg.Normalizers {
			n, err := buildNormalizer(&cfg.Normalizers[i])
			if err != nil {
				return nil, err
			}
			chain = append(chain, n)
		}
		return sequenceNormalizer{chain: chain}, nil
	default:
		return identityNormalizer{}, nil
	}
}
