package options

import (
	"textflux/pkg/utils"
)

// entry describes how one external option key resolves onto Options:
// extract the raw value (for knob tuples, the second slot), validate the
// constraints, store the result. Structured options inline the whole
// pipeline in their assign func.
type entry struct {
	assign func(o *Options, raw any) error
}

// knobValue unpacks a [enabled, value] tuple; a bare value counts as
// enabled.
func knobValue(raw any) (bool, any) {
	tuple, ok := raw.([]any)
	if !ok {
		return true, raw
	}
	if len(tuple) == 0 {
		return false, nil
	}
	enabled, _ := tuple[0].(bool)
	var v any
	if len(tuple) > 1 {
		v = tuple[1]
	}
	return enabled, v
}

// promptValue unpacks a [enabled, text, role, isDefault] tuple; a bare
// string becomes an enabled prompt with the default role.
func promptValue(key string, raw any, defaults PromptKnob) (PromptKnob, error) {
	p := defaults
	switch t := raw.(type) {
	case string:
		p.Enabled = true
		p.Text = t
		p.Default = false
		return p, nil
	case []any:
		slots := []func(any) bool{
			func(v any) bool { b, ok := v.(bool); p.Enabled = b; return ok },
			func(v any) bool { s, ok := v.(string); p.Text = s; return ok },
			func(v any) bool { s, ok := v.(string); p.Role = s; return ok },
			func(v any) bool { b, ok := v.(bool); p.Default = b; return ok },
		}
		for i, v := range t {
			if i >= len(slots) {
				break
			}
			if !slots[i](v) {
				return p, invalid(key, "'%s' tuple slot %d has the wrong type", key, i)
			}
		}
		if p.Role == "" {
			p.Role = defaults.Role
		}
		return p, nil
	default:
		return p, invalid(key, "'%s' must be a prompt tuple or string, got %T", key, raw)
	}
}

func numericKnob[T any](key string, rule *numRule, conv func(float64) T, set func(o *Options, k Knob[T])) entry {
	return entry{
		assign: func(o *Options, raw any) error {
			enabled, v := knobValue(raw)
			if !enabled {
				set(o, Knob[T]{})
				return nil
			}
			f, err := rule.check(v)
			if err != nil {
				return err
			}
			set(o, On(conv(f)))
			return nil
		},
	}
}

var entries = map[string]entry{
	"url": {assign: func(o *Options, raw any) error {
		s, err := str("url").NonEmpty().Pattern(`^https?://`, "an http:// or https:// URL").check(raw)
		if err != nil {
			return err
		}
		o.URL = s
		return nil
	}},
	"apiKey": {assign: func(o *Options, raw any) error {
		s, err := str("apiKey").check(raw)
		if err != nil {
			return err
		}
		o.APIKey = s
		return nil
	}},
	"delay": {assign: func(o *Options, raw any) error {
		f, err := num("delay").Min(0).check(raw)
		if err != nil {
			return err
		}
		o.DelayMs = f
		return nil
	}},
	"maxAttempts": {assign: func(o *Options, raw any) error {
		f, err := num("maxAttempts").Integer().Min(1).check(raw)
		if err != nil {
			return err
		}
		o.MaxAttempts = int(f)
		return nil
	}},
	"tempIncrement": {assign: func(o *Options, raw any) error {
		f, err := num("tempIncrement").Min(0).Max(2).check(raw)
		if err != nil {
			return err
		}
		o.TempIncrement = f
		return nil
	}},
	"timeout": {assign: func(o *Options, raw any) error {
		f, err := num("timeout").Min(0).ExclusiveMin().check(raw)
		if err != nil {
			return err
		}
		o.TimeoutMinutes = f
		return nil
	}},
	"chunkSize": {assign: func(o *Options, raw any) error {
		f, err := num("chunkSize").Integer().Min(0).ExclusiveMin().Max(200_000).check(raw)
		if err != nil {
			return err
		}
		o.ChunkSize = int(f)
		return nil
	}},
	"batchSize": {assign: func(o *Options, raw any) error {
		f, err := num("batchSize").Integer().Min(0).ExclusiveMin().Max(512).check(raw)
		if err != nil {
			return err
		}
		o.BatchSize = int(f)
		return nil
	}},
	"parallel": {assign: func(o *Options, raw any) error {
		f, err := num("parallel").Integer().Min(0).ExclusiveMin().Max(64).check(raw)
		if err != nil {
			return err
		}
		o.Parallel = int(f)
		return nil
	}},

	"model": {assign: func(o *Options, raw any) error {
		enabled, v := knobValue(raw)
		if !enabled {
			o.Model = Knob[string]{}
			return nil
		}
		s, err := str("model").NonEmpty().check(v)
		if err != nil {
			return err
		}
		o.Model = On(s)
		return nil
	}},
	"temperature": numericKnob("temperature", num("temperature").Min(0).Max(2),
		func(f float64) float64 { return f },
		func(o *Options, k Knob[float64]) { o.Temperature = k }),
	"top_p": numericKnob("top_p", num("top_p").Min(0).ExclusiveMin().Max(1),
		func(f float64) float64 { return f },
		func(o *Options, k Knob[float64]) { o.TopP = k }),
	"top_k": numericKnob("top_k", num("top_k").Integer().Min(0),
		func(f float64) int { return int(f) },
		func(o *Options, k Knob[int]) { o.TopK = k }),
	"presence_penalty": numericKnob("presence_penalty", num("presence_penalty").Min(-2).Max(2),
		func(f float64) float64 { return f },
		func(o *Options, k Knob[float64]) { o.PresencePenalty = k }),
	"seed": numericKnob("seed", num("seed").Integer(),
		func(f float64) int { return int(f) },
		func(o *Options, k Knob[int]) { o.Seed = k }),

	"systemPrompt": {assign: func(o *Options, raw any) error {
		p, err := promptValue("systemPrompt", raw, PromptKnob{Role: "system", Default: true})
		if err != nil {
			return err
		}
		o.SystemPrompt = p
		return nil
	}},
	"prependPrompt": {assign: func(o *Options, raw any) error {
		p, err := promptValue("prependPrompt", raw, PromptKnob{Role: "user", Default: true})
		if err != nil {
			return err
		}
		o.PrependPrompt = p
		return nil
	}},
	"prefill": {assign: func(o *Options, raw any) error {
		p, err := promptValue("prefill", raw, PromptKnob{Role: "assistant", Default: true})
		if err != nil {
			return err
		}
		o.Prefill = p
		return nil
	}},

	"images": {assign: func(o *Options, raw any) error {
		list, ok := raw.([]any)
		if !ok {
			if ss, ok := raw.([]string); ok {
				list = make([]any, len(ss))
				for i, s := range ss {
					list[i] = s
				}
			} else {
				return invalid("images", "'images' must be a list of data URLs, got %T", raw)
			}
		}
		urls := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return invalid("images", "'images[%d]' must be a string", i)
			}
			if _, _, err := utils.ParseDataURL(s); err != nil {
				return invalid("images", "'images[%d]' is not a valid data URL: %v", i, err)
			}
			urls = append(urls, s)
		}
		o.Images = urls
		return nil
	}},

	"reasoning_effort": {assign: func(o *Options, raw any) error {
		enabled, v := knobValue(raw)
		if !enabled {
			o.ReasoningEffort = Knob[string]{}
			return nil
		}
		s, err := checkEnum("reasoning_effort", v, "none", "low", "medium", "high", "xhigh")
		if err != nil {
			return err
		}
		o.ReasoningEffort = On(s)
		return nil
	}},
	"enable_thinking": {assign: func(o *Options, raw any) error {
		enabled, v := knobValue(raw)
		if !enabled {
			o.EnableThinking = Knob[bool]{}
			return nil
		}
		b, err := checkBool("enable_thinking", v)
		if err != nil {
			return err
		}
		o.EnableThinking = On(b)
		return nil
	}},
	"chat_template_kwargs": {assign: func(o *Options, raw any) error {
		enabled, v := knobValue(raw)
		if !enabled {
			o.ChatTemplateKwargs = Knob[map[string]any]{}
			return nil
		}
		m, ok := v.(map[string]any)
		if !ok {
			return invalid("chat_template_kwargs", "'chat_template_kwargs' must be an object, got %T", v)
		}
		o.ChatTemplateKwargs = On(m)
		return nil
	}},
	"reasoning": {assign: func(o *Options, raw any) error {
		enabled, v := knobValue(raw)
		if !enabled {
			o.Reasoning = Knob[map[string]any]{}
			return nil
		}
		m, ok := v.(map[string]any)
		if !ok {
			return invalid("reasoning", "'reasoning' must be an object, got %T", v)
		}
		o.Reasoning = On(m)
		return nil
	}},
}

// Apply resolves the caller-supplied option map onto o. Unknown keys are
// rejected so typos fail loudly at construction time. Validation errors are
// fatal and never retried.
func Apply(o *Options, raw map[string]any) error {
	for key, v := range raw {
		e, ok := entries[key]
		if !ok {
			return invalid("OPTION", "unknown option %q", key)
		}
		if err := e.assign(o, v); err != nil {
			return err
		}
	}
	return nil
}

// Resolve builds Options from defaults plus the caller-supplied map in a
// single pass.
func Resolve(raw map[string]any) (*Options, error) {
	o := Defaults()
	if err := Apply(o, raw); err != nil {
		return nil, err
	}
	return o, nil
}
