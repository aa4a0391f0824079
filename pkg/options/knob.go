package options

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Knob is an optional request parameter. A disabled knob is omitted from
// outgoing payloads entirely; emission sites check Enabled, never the value.
//
// The persisted form is the two-element tuple [enabled, value] so progress
// records written by earlier runs keep loading.
type Knob[T any] struct {
	Enabled bool
	Value   T
}

// On returns an enabled knob carrying v.
func On[T any](v T) Knob[T] {
	return Knob[T]{Enabled: true, Value: v}
}

// Get returns the value and whether the knob is enabled.
func (k Knob[T]) Get() (T, bool) {
	return k.Value, k.Enabled
}

func (k Knob[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{k.Enabled, k.Value})
}

func (k *Knob[T]) UnmarshalJSON(data []byte) error {
	var tuple []jsoniter.RawMessage
	if err := json.Unmarshal(data, &tuple); err == nil {
		if len(tuple) == 0 {
			*k = Knob[T]{}
			return nil
		}
		if err := json.Unmarshal(tuple[0], &k.Enabled); err != nil {
			return err
		}
		if len(tuple) > 1 {
			return json.Unmarshal(tuple[1], &k.Value)
		}
		return nil
	}
	// Bare scalar enables the knob.
	if err := json.Unmarshal(data, &k.Value); err != nil {
		return fmt.Errorf("knob is neither a tuple nor a bare value: %w", err)
	}
	k.Enabled = true
	return nil
}

// PromptKnob carries an optional prompt together with the role it is sent
// under. Default marks the built-in prompt text as opposed to a user override.
//
// Persisted form: [enabled, text, role, isDefault].
type PromptKnob struct {
	Enabled bool
	Text    string
	Role    string
	Default bool
}

func (p PromptKnob) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Enabled, p.Text, p.Role, p.Default})
}

func (p *PromptKnob) UnmarshalJSON(data []byte) error {
	var tuple []jsoniter.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	fields := []any{&p.Enabled, &p.Text, &p.Role, &p.Default}
	for i, raw := range tuple {
		if i >= len(fields) {
			break
		}
		if err := json.Unmarshal(raw, fields[i]); err != nil {
			return err
		}
	}
	return nil
}
