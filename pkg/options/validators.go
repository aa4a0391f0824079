package options

import (
	"math"
	"regexp"
	"strings"

	"textflux/pkg/faults"
)

// kindName converts an external option key to its error-kind suffix:
// "maxAttempts" -> "MAX_ATTEMPTS", "top_p" -> "TOP_P".
func kindName(key string) string {
	var sb strings.Builder
	for i, r := range key {
		if r >= 'A' && r <= 'Z' && i > 0 {
			sb.WriteByte('_')
		}
		sb.WriteRune(r)
	}
	return strings.ToUpper(sb.String())
}

func invalid(key, format string, args ...any) error {
	return faults.New(faults.Invalid(kindName(key)), format, args...)
}

// numRule validates numeric options. Constraints compose by chaining;
// check runs them all.
type numRule struct {
	key              string
	min, max         float64
	hasMin, hasMax   bool
	exclMin, exclMax bool
	integer          bool
}

func num(key string) *numRule {
	return &numRule{key: key}
}

func (r *numRule) Min(v float64) *numRule { r.min, r.hasMin = v, true; return r }
func (r *numRule) Max(v float64) *numRule { r.max, r.hasMax = v, true; return r }
func (r *numRule) ExclusiveMin() *numRule { r.exclMin = true; return r }
func (r *numRule) Integer() *numRule      { r.integer = true; return r }

func (r *numRule) check(v any) (float64, error) {
	f, ok := toFloat(v)
	if !ok {
		return 0, invalid(r.key, "'%s' must be a number, got %T", r.key, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, invalid(r.key, "'%s' must be finite", r.key)
	}
	if r.integer && f != math.Trunc(f) {
		return 0, invalid(r.key, "'%s' must be an integer, got %v", r.key, f)
	}
	if r.hasMin {
		if r.exclMin && f <= r.min {
			return 0, invalid(r.key, "'%s' must be greater than %v, got %v", r.key, r.min, f)
		}
		if !r.exclMin && f < r.min {
			return 0, invalid(r.key, "'%s' must be at least %v, got %v", r.key, r.min, f)
		}
	}
	if r.hasMax {
		if r.exclMax && f >= r.max {
			return 0, invalid(r.key, "'%s' must be less than %v, got %v", r.key, r.max, f)
		}
		if !r.exclMax && f > r.max {
			return 0, invalid(r.key, "'%s' must be at most %v, got %v", r.key, r.max, f)
		}
	}
	return f, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	}
	return 0, false
}

// strRule validates string options.
type strRule struct {
	key      string
	nonEmpty bool
	pattern  *regexp.Regexp
	desc     string
}

func str(key string) *strRule {
	return &strRule{key: key}
}

func (r *strRule) NonEmpty() *strRule { r.nonEmpty = true; return r }

// Pattern constrains the value to match re; desc names the expected shape
// in the error message.
func (r *strRule) Pattern(re, desc string) *strRule {
	r.pattern = regexp.MustCompile(re)
	r.desc = desc
	return r
}

func (r *strRule) check(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", invalid(r.key, "'%s' must be a string, got %T", r.key, v)
	}
	if r.nonEmpty && s == "" {
		return "", invalid(r.key, "'%s' must not be empty", r.key)
	}
	if r.pattern != nil && !r.pattern.MatchString(s) {
		return "", invalid(r.key, "'%s' must be %s, got %q", r.key, r.desc, s)
	}
	return s, nil
}

// checkBool accepts strictly true or false.
func checkBool(key string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, invalid(key, "'%s' must be true or false, got %T", key, v)
	}
	return b, nil
}

// checkEnum accepts one of the allowed string members.
func checkEnum(key string, v any, allowed ...string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", invalid(key, "'%s' must be a string, got %T", key, v)
	}
	for _, a := range allowed {
		if s == a {
			return s, nil
		}
	}
	return "", invalid(key, "'%s' must be one of %v, got %q", key, allowed, s)
}
