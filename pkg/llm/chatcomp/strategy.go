package chatcomp

import (
	jsoniter "github.com/json-iterator/go"

	"textflux/pkg/llm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ChatStrategy speaks the chat-completions wire format: a messages array in,
// choices[0].delta fragments out.
type ChatStrategy struct{}

func (s *ChatStrategy) Name() string { return llm.DialectChat }

// BuildPayload serializes the message list as {messages, stream:true, knobs}.
// An enabled prefill prompt is appended as a trailing assistant message;
// prior reasoning state rides on that assistant message when chat mode is on.
func (s *ChatStrategy) BuildPayload(messages []llm.Message, req *llm.Request) ([]byte, error) {
	wire := make([]map[string]any, 0, len(messages)+1)
	for _, m := range messages {
		wire = append(wire, wireMessage(m))
	}

	if p := req.Opts.Prefill; p.Enabled {
		wire = append(wire, map[string]any{"role": p.Role, "content": p.Text})
	}

	if req.ChatMode && !req.PriorReasoning.Empty() {
		if last := lastAssistant(wire); last != nil {
			attachReasoning(last, req.PriorReasoning)
		}
	}

	payload := map[string]any{
		"messages": wire,
		"stream":   true,
	}
	llm.ApplyKnobs(payload, req)
	return json.Marshal(payload)
}

// wireMessage flattens a message into the chat-completions shape: a plain
// content string unless images force the typed content array.
func wireMessage(m llm.Message) map[string]any {
	if !m.HasImages() {
		return map[string]any{"role": m.Role, "content": m.TextContent()}
	}

	parts := make([]map[string]any, 0, len(m.Parts))
	for _, p := range m.Parts {
		switch p.Type {
		case llm.PartTypeText:
			parts = append(parts, map[string]any{"type": "text", "text": p.Text})
		case llm.PartTypeImage:
			parts = append(parts, map[string]any{
				"type":      "image_url",
				"image_url": map[string]any{"url": p.URL},
			})
		}
	}
	return map[string]any{"role": m.Role, "content": parts}
}

func lastAssistant(wire []map[string]any) map[string]any {
	for i := len(wire) - 1; i >= 0; i-- {
		if wire[i]["role"] == llm.RoleAssistant {
			return wire[i]
		}
	}
	return nil
}

func attachReasoning(msg map[string]any, prior *llm.ReasoningState) {
	if prior.Text != "" {
		msg["reasoning_content"] = prior.Text
	}
	if prior.EncryptedBlob != "" {
		msg["encrypted_reasoning"] = prior.EncryptedBlob
	}
}

type chatEvent struct {
	Choices []struct {
		Delta struct {
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
		} `json:"delta"`
		Message struct {
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
		} `json:"message"`
	} `json:"choices"`
}

// ParseEvent extracts output text from one stream event. Incremental
// delta.content is emitted as a delta; a full message.content is conditional,
// so endpoints that send both never double-emit. Reasoning content goes to
// the tracker only.
func (s *ChatStrategy) ParseEvent(data []byte, tracker *llm.ReasoningState) []llm.Delta {
	var ev chatEvent
	if err := json.Unmarshal(data, &ev); err != nil || len(ev.Choices) == 0 {
		return nil
	}
	c := ev.Choices[0]

	tracker.AddText(c.Delta.ReasoningContent)
	tracker.AddText(c.Message.ReasoningContent)

	var out []llm.Delta
	if c.Delta.Content != "" {
		out = append(out, llm.Delta{Text: c.Delta.Content, Kind: llm.KindDelta})
	}
	if c.Message.Content != "" {
		out = append(out, llm.Delta{Text: c.Message.Content, Kind: llm.KindConditional})
	}
	return out
}
