package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textflux/pkg/faults"
)

func TestResolve_Defaults(t *testing.T) {
	o, err := Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/v1/chat/completions", o.URL)
	assert.Equal(t, 7, o.MaxAttempts)
	assert.Equal(t, 0.15, o.TempIncrement)
	assert.Equal(t, 1, o.ChunkSize)
	assert.Equal(t, 1, o.BatchSize)
	assert.Equal(t, 1, o.Parallel)
	_, enabled := o.Temperature.Get()
	assert.False(t, enabled)
}

func TestResolve_FullConfig(t *testing.T) {
	o, err := Resolve(map[string]any{
		"url":         "https://api.example.com/v1/chat/completions",
		"apiKey":      "sk-test",
		"maxAttempts": float64(3),
		"chunkSize":   float64(20),
		"batchSize":   float64(4),
		"parallel":    float64(2),
		"temperature": []any{true, 0.6},
		"model":       []any{true, "qwen3"},
	})
	require.NoError(t, err)
	assert.Equal(t, "sk-test", o.APIKey)
	assert.Equal(t, 3, o.MaxAttempts)
	assert.Equal(t, 20, o.ChunkSize)

	temp, ok := o.Temperature.Get()
	assert.True(t, ok)
	assert.Equal(t, 0.6, temp)

	model, ok := o.Model.Get()
	assert.True(t, ok)
	assert.Equal(t, "qwen3", model)
}

func TestResolve_UnknownKeyRejected(t *testing.T) {
	_, err := Resolve(map[string]any{"chunkSzie": float64(1)})
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.Invalid("OPTION")))
}

func TestResolve_URLSchemeRequired(t *testing.T) {
	_, err := Resolve(map[string]any{"url": "ftp://example.com"})
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.Invalid("URL")))
}

func TestResolve_ChunkSizeBounds(t *testing.T) {
	_, err := Resolve(map[string]any{"chunkSize": float64(0)})
	assert.True(t, faults.Is(err, faults.Invalid("CHUNK_SIZE")))

	_, err = Resolve(map[string]any{"chunkSize": float64(200_001)})
	assert.True(t, faults.Is(err, faults.Invalid("CHUNK_SIZE")))

	_, err = Resolve(map[string]any{"chunkSize": 1.5})
	assert.True(t, faults.Is(err, faults.Invalid("CHUNK_SIZE")))

	o, err := Resolve(map[string]any{"chunkSize": float64(200_000)})
	require.NoError(t, err)
	assert.Equal(t, 200_000, o.ChunkSize)
}

func TestResolve_BatchAndParallelBounds(t *testing.T) {
	_, err := Resolve(map[string]any{"batchSize": float64(513)})
	assert.True(t, faults.Is(err, faults.Invalid("BATCH_SIZE")))

	_, err = Resolve(map[string]any{"parallel": float64(65)})
	assert.True(t, faults.Is(err, faults.Invalid("PARALLEL")))
}

func TestResolve_MaxAttemptsKindName(t *testing.T) {
	_, err := Resolve(map[string]any{"maxAttempts": float64(0)})
	assert.True(t, faults.Is(err, faults.Invalid("MAX_ATTEMPTS")))
}

func TestResolve_ReasoningEffortEnum(t *testing.T) {
	for _, v := range []string{"none", "low", "medium", "high", "xhigh"} {
		o, err := Resolve(map[string]any{"reasoning_effort": []any{true, v}})
		require.NoError(t, err)
		got, ok := o.ReasoningEffort.Get()
		assert.True(t, ok)
		assert.Equal(t, v, got)
	}

	_, err := Resolve(map[string]any{"reasoning_effort": []any{true, "extreme"}})
	assert.True(t, faults.Is(err, faults.Invalid("REASONING_EFFORT")))
}

func TestResolve_DisabledKnobTuple(t *testing.T) {
	o, err := Resolve(map[string]any{"temperature": []any{false, 0.9}})
	require.NoError(t, err)
	_, ok := o.Temperature.Get()
	assert.False(t, ok)
}

func TestResolve_PromptTuple(t *testing.T) {
	o, err := Resolve(map[string]any{
		"systemPrompt": []any{true, "be brief", "system", false},
		"prefill":      "Sure, here is",
	})
	require.NoError(t, err)
	assert.True(t, o.SystemPrompt.Enabled)
	assert.Equal(t, "be brief", o.SystemPrompt.Text)
	assert.True(t, o.Prefill.Enabled)
	assert.Equal(t, "assistant", o.Prefill.Role)
}

func TestResolve_ImagesValidated(t *testing.T) {
	o, err := Resolve(map[string]any{
		"images": []any{"data:image/png;base64,aGVsbG8="},
	})
	require.NoError(t, err)
	assert.Len(t, o.Images, 1)

	_, err = Resolve(map[string]any{"images": []any{"http://not-a-data-url"}})
	assert.True(t, faults.Is(err, faults.Invalid("IMAGES")))
}

func TestResolve_EnableThinkingStrictBool(t *testing.T) {
	_, err := Resolve(map[string]any{"enable_thinking": []any{true, "yes"}})
	assert.True(t, faults.Is(err, faults.Invalid("ENABLE_THINKING")))
}
