package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnob_MarshalTuple(t *testing.T) {
	raw, err := json.Marshal(On(0.85))
	require.NoError(t, err)
	assert.JSONEq(t, `[true, 0.85]`, string(raw))

	raw, err = json.Marshal(Knob[float64]{})
	require.NoError(t, err)
	assert.JSONEq(t, `[false, 0]`, string(raw))
}

func TestKnob_UnmarshalTuple(t *testing.T) {
	var k Knob[float64]
	require.NoError(t, json.Unmarshal([]byte(`[true, 0.5]`), &k))
	v, ok := k.Get()
	assert.True(t, ok)
	assert.Equal(t, 0.5, v)

	require.NoError(t, json.Unmarshal([]byte(`[false, 0.5]`), &k))
	_, ok = k.Get()
	assert.False(t, ok)
}

func TestKnob_UnmarshalBareScalarEnables(t *testing.T) {
	var k Knob[int]
	require.NoError(t, json.Unmarshal([]byte(`42`), &k))
	v, ok := k.Get()
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestKnob_RoundTrip(t *testing.T) {
	orig := On("llama3")
	raw, err := json.Marshal(orig)
	require.NoError(t, err)

	var back Knob[string]
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, orig, back)
}

func TestPromptKnob_MarshalTuple(t *testing.T) {
	p := PromptKnob{Enabled: true, Text: "be brief", Role: "system", Default: false}
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `[true, "be brief", "system", false]`, string(raw))
}

func TestPromptKnob_UnmarshalShortTuple(t *testing.T) {
	var p PromptKnob
	require.NoError(t, json.Unmarshal([]byte(`[true, "hi"]`), &p))
	assert.True(t, p.Enabled)
	assert.Equal(t, "hi", p.Text)
	assert.Equal(t, "", p.Role)
}

func TestOptions_RecordRoundTrip(t *testing.T) {
	o := Defaults()
	o.Model = On("qwen3")
	o.Temperature = On(0.9)
	o.SystemPrompt = PromptKnob{Enabled: true, Text: "sys", Role: "system"}

	raw, err := json.Marshal(o)
	require.NoError(t, err)

	var back Options
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, *o, back)
}
