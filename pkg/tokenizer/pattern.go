package tokenizer

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// pattern is the compiled form of a PatternConfig: a literal string or a
// regex. Regex offsets are rune-based, so span computation works on runes
// throughout.
type pattern struct {
	literal string
	re      *regexp2.Regexp
}

func compilePattern(cfg *PatternConfig) (*pattern, error) {
	if cfg == nil {
		return nil, nil
	}
	if cfg.Regex == "" {
		return &pattern{literal: cfg.String}, nil
	}
	re, err := regexp2.Compile(rewritePattern(cfg.Regex), regexp2.Unicode)
	if err != nil {
		return nil, err
	}
	return &pattern{re: re}, nil
}

// rewritePattern normalizes regex constructs that some serializers emit
// for engines without inline groups. The regex engine here handles inline
// case-insensitive groups natively, so only the redundant non-capturing
// wrapper around a bare character class needs unwrapping.
func rewritePattern(src string) string {
	var sb strings.Builder
	for i := 0; i < len(src); {
		if strings.HasPrefix(src[i:], "(?:[") {
			if end := classGroupEnd(src, i+3); end > 0 {
				sb.WriteString(src[i+3 : end])
				i = end + 1 // skip the closing paren
				continue
			}
		}
		sb.WriteByte(src[i])
		i++
	}
	return sb.String()
}

// classGroupEnd returns the index past the "]" when src[start:] is a
// character class immediately followed by ")", else -1.
func classGroupEnd(src string, start int) int {
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case ']':
			if i+1 < len(src) && src[i+1] == ')' {
				return i + 1
			}
			return -1
		}
	}
	return -1
}

// spans returns the match spans over runes, in order, non-overlapping.
func (p *pattern) spans(runes []rune) ([][2]int, error) {
	if p.re == nil {
		return literalSpans(runes, []rune(p.literal)), nil
	}

	var out [][2]int
	m, err := p.re.FindRunesMatch(runes)
	for m != nil && err == nil {
		if m.Length == 0 {
			break
		}
		out = append(out, [2]int{m.Index, m.Index + m.Length})
		m, err = p.re.FindNextMatch(m)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func literalSpans(runes, lit []rune) [][2]int {
	if len(lit) == 0 {
		return nil
	}
	var out [][2]int
	for i := 0; i+len(lit) <= len(runes); {
		if equalRunes(runes[i:i+len(lit)], lit) {
			out = append(out, [2]int{i, i + len(lit)})
			i += len(lit)
			continue
		}
		i++
	}
	return out
}

func equalRunes(a, b []rune) bool {
	for i := range b {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// split cuts s around the pattern. Without invert the pattern matches
// separators; with invert it matches the tokens. Behavior "removed" drops
// the separators, "isolated" (and anything else) keeps them as siblings.
func (p *pattern) split(s, behavior string, invert bool) ([]string, error) {
	runes := []rune(s)
	spans, err := p.spans(runes)
	if err != nil {
		return nil, err
	}
	if len(spans) == 0 {
		if s == "" {
			return nil, nil
		}
		if invert && behavior == "removed" {
			return nil, nil
		}
		return []string{s}, nil
	}

	var out []string
	emit := func(seg []rune, isMatch bool) {
		if len(seg) == 0 {
			return
		}
		separator := isMatch != invert
		if behavior == "removed" && separator {
			return
		}
		out = append(out, string(seg))
	}

	prev := 0
	for _, sp := range spans {
		emit(runes[prev:sp[0]], false)
		emit(runes[sp[0]:sp[1]], true)
		prev = sp[1]
	}
	emit(runes[prev:], false)
	return out, nil
}

// replaceAll substitutes every occurrence with the literal content.
func (p *pattern) replaceAll(s, content string) (string, error) {
	if p.re == nil {
		if p.literal == "" {
			return s, nil
		}
		return strings.ReplaceAll(s, p.literal, content), nil
	}
	// Dollars in the content must stay literal.
	return p.re.Replace(s, strings.ReplaceAll(content, "$", "$$"), -1, -1)
}
