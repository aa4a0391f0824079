package chatcomp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textflux/pkg/llm"
	"textflux/pkg/options"
)

func buildMap(t *testing.T, messages []llm.Message, req *llm.Request) map[string]any {
	t.Helper()
	raw, err := (&ChatStrategy{}).BuildPayload(messages, req)
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	return payload
}

func TestBuildPayload_Basic(t *testing.T) {
	opts := options.Defaults()
	opts.Model = options.On("qwen3")

	payload := buildMap(t, []llm.Message{
		llm.NewTextMessage(llm.RoleSystem, "sys"),
		llm.NewTextMessage(llm.RoleUser, "hello"),
	}, &llm.Request{Opts: opts})

	assert.Equal(t, true, payload["stream"])
	assert.Equal(t, "qwen3", payload["model"])

	msgs := payload["messages"].([]any)
	require.Len(t, msgs, 2)
	first := msgs[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
	assert.Equal(t, "sys", first["content"])
}

func TestBuildPayload_ImagesUseContentArray(t *testing.T) {
	opts := options.Defaults()
	msg := llm.Message{Role: llm.RoleUser, Parts: []llm.Part{
		llm.NewTextPart("look"),
		llm.NewImagePart("data:image/png;base64,xx"),
	}}

	payload := buildMap(t, []llm.Message{msg}, &llm.Request{Opts: opts})
	msgs := payload["messages"].([]any)
	content := msgs[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)

	text := content[0].(map[string]any)
	assert.Equal(t, "text", text["type"])
	assert.Equal(t, "look", text["text"])

	img := content[1].(map[string]any)
	assert.Equal(t, "image_url", img["type"])
	assert.Equal(t, "data:image/png;base64,xx", img["image_url"].(map[string]any)["url"])
}

func TestBuildPayload_PrefillAppended(t *testing.T) {
	opts := options.Defaults()
	opts.Prefill = options.PromptKnob{Enabled: true, Text: "Sure:", Role: "assistant"}

	payload := buildMap(t, []llm.Message{llm.NewTextMessage(llm.RoleUser, "q")}, &llm.Request{Opts: opts})
	msgs := payload["messages"].([]any)
	require.Len(t, msgs, 2)
	last := msgs[1].(map[string]any)
	assert.Equal(t, "assistant", last["role"])
	assert.Equal(t, "Sure:", last["content"])
}

func TestBuildPayload_PriorReasoningOnAssistant(t *testing.T) {
	opts := options.Defaults()
	opts.Prefill = options.PromptKnob{Enabled: true, Text: "Sure:", Role: "assistant"}
	req := &llm.Request{
		Opts:     opts,
		ChatMode: true,
		PriorReasoning: &llm.ReasoningState{
			Text:          "earlier thoughts",
			EncryptedBlob: "opaque==",
		},
	}

	payload := buildMap(t, []llm.Message{llm.NewTextMessage(llm.RoleUser, "q")}, req)
	msgs := payload["messages"].([]any)
	last := msgs[len(msgs)-1].(map[string]any)
	assert.Equal(t, "earlier thoughts", last["reasoning_content"])
	assert.Equal(t, "opaque==", last["encrypted_reasoning"])
}

func TestBuildPayload_NoReasoningOutsideChatMode(t *testing.T) {
	opts := options.Defaults()
	opts.Prefill = options.PromptKnob{Enabled: true, Text: "Sure:", Role: "assistant"}
	req := &llm.Request{
		Opts:           opts,
		PriorReasoning: &llm.ReasoningState{Text: "earlier"},
	}

	payload := buildMap(t, []llm.Message{llm.NewTextMessage(llm.RoleUser, "q")}, req)
	msgs := payload["messages"].([]any)
	last := msgs[len(msgs)-1].(map[string]any)
	_, has := last["reasoning_content"]
	assert.False(t, has)
}

func TestParseEvent_Delta(t *testing.T) {
	s := &ChatStrategy{}
	tracker := &llm.ReasoningState{}

	deltas := s.ParseEvent([]byte(`{"choices":[{"delta":{"content":"hel"}}]}`), tracker)
	require.Len(t, deltas, 1)
	assert.Equal(t, "hel", deltas[0].Text)
	assert.Equal(t, llm.KindDelta, deltas[0].Kind)
}

func TestParseEvent_ReasoningGoesToTracker(t *testing.T) {
	s := &ChatStrategy{}
	tracker := &llm.ReasoningState{}

	deltas := s.ParseEvent([]byte(`{"choices":[{"delta":{"reasoning_content":"thinking"}}]}`), tracker)
	assert.Empty(t, deltas)
	assert.Equal(t, "thinking", tracker.Text)
}

func TestParseEvent_FullMessageIsConditional(t *testing.T) {
	s := &ChatStrategy{}
	tracker := &llm.ReasoningState{}

	deltas := s.ParseEvent([]byte(`{"choices":[{"message":{"content":"whole answer","reasoning_content":"r"}}]}`), tracker)
	require.Len(t, deltas, 1)
	assert.Equal(t, "whole answer", deltas[0].Text)
	assert.Equal(t, llm.KindConditional, deltas[0].Kind)
	assert.Equal(t, "r", tracker.Text)
}

func TestParseEvent_MalformedNeverFatal(t *testing.T) {
	s := &ChatStrategy{}
	tracker := &llm.ReasoningState{}
	assert.Nil(t, s.ParseEvent([]byte(`{nope`), tracker))
	assert.Nil(t, s.ParseEvent([]byte(`{"choices":[]}`), tracker))
	assert.Nil(t, s.ParseEvent([]byte(`{"object":"ping"}`), tracker))
}

func TestFactory_Registered(t *testing.T) {
	factory, ok := llm.GetStrategyFactory(llm.DialectChat)
	require.True(t, ok)
	assert.Equal(t, llm.DialectChat, factory().Name())
}
