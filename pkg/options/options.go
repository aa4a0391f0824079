package options

// Options is the resolved per-job configuration shared by the LLM client
// and the batch processor. The same shape is persisted inside the progress
// record, so a resumed job reconstructs its configuration from disk and
// ignores freshly supplied values.
type Options struct {
	// URL of the inference endpoint. The path suffix selects the dialect:
	// "/responses" for the responses dialect, "/completions" (but not
	// "/chat/completions") for the legacy dialect, chat-completions
	// otherwise.
	URL string `json:"url"`
	// APIKey is sent as "Authorization: Bearer <key>".
	APIKey string `json:"apiKey"`
	// DelayMs is the minimum gap between batch starts, in milliseconds.
	DelayMs float64 `json:"delay"`
	// MaxAttempts bounds the per-chunk retry loop.
	MaxAttempts int `json:"maxAttempts"`
	// TempIncrement is added to the temperature from the third failed
	// attempt onward, capped at 1.0.
	TempIncrement float64 `json:"tempIncrement"`
	// TimeoutMinutes is the per-request timer. Zero means: use the
	// engine-level system config value.
	TimeoutMinutes float64 `json:"timeout"`
	// ChunkSize is the number of source lines per chunk.
	ChunkSize int `json:"chunkSize"`
	// BatchSize is the number of chunks per batch.
	BatchSize int `json:"batchSize"`
	// Parallel is the number of in-flight LLM calls per batch.
	Parallel int `json:"parallel"`

	Model           Knob[string]  `json:"model"`
	Temperature     Knob[float64] `json:"temperature"`
	TopP            Knob[float64] `json:"top_p"`
	TopK            Knob[int]     `json:"top_k"`
	PresencePenalty Knob[float64] `json:"presence_penalty"`
	Seed            Knob[int]     `json:"seed"`

	SystemPrompt  PromptKnob `json:"systemPrompt"`
	PrependPrompt PromptKnob `json:"prependPrompt"`
	Prefill       PromptKnob `json:"prefill"`

	// Images are data URLs ("data:<mime>;base64,...") injected into the
	// user message as image parts.
	Images []string `json:"images,omitempty"`

	// Dialect-specific reasoning knobs, passed through to the payload
	// under the same key.
	ReasoningEffort    Knob[string]         `json:"reasoning_effort"`
	EnableThinking     Knob[bool]           `json:"enable_thinking"`
	ChatTemplateKwargs Knob[map[string]any] `json:"chat_template_kwargs"`
	Reasoning          Knob[map[string]any] `json:"reasoning"`
}

// Defaults returns an Options with the documented default values. Knobs
// start disabled; prompt roles carry their conventional defaults even when
// disabled so enabling one later does not need a role.
func Defaults() *Options {
	return &Options{
		URL:           "http://localhost:8080/v1/chat/completions",
		DelayMs:       60_000,
		MaxAttempts:   7,
		TempIncrement: 0.15,
		ChunkSize:     1,
		BatchSize:     1,
		Parallel:      1,
		SystemPrompt:  PromptKnob{Role: "system"},
		PrependPrompt: PromptKnob{Role: "user"},
		Prefill:       PromptKnob{Role: "assistant"},
	}
}
