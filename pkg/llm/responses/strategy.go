package responses

import (
	"strings"

	jsoniter "github.com/json-iterator/go"

	"textflux/pkg/llm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ResponsesStrategy speaks the responses wire format: typed input items in,
// typed stream events (response.output_text.delta and friends) out.
type ResponsesStrategy struct{}

func (s *ResponsesStrategy) Name() string { return llm.DialectResponses }

// BuildPayload lifts system messages into a top-level instructions string
// and converts the rest into message items with typed content arrays. In
// chat mode the include list asks for encrypted reasoning back, and prior
// reasoning state rides on the trailing assistant item.
func (s *ResponsesStrategy) BuildPayload(messages []llm.Message, req *llm.Request) ([]byte, error) {
	var instructions []string
	var input []map[string]any

	for _, m := range messages {
		if m.Role == llm.RoleSystem {
			instructions = append(instructions, m.TextContent())
			continue
		}
		input = append(input, messageItem(m))
	}

	if p := req.Opts.Prefill; p.Enabled {
		input = append(input, map[string]any{
			"type":    "message",
			"role":    p.Role,
			"content": []map[string]any{contentPart(p.Role, llm.NewTextPart(p.Text))},
		})
	}

	if req.ChatMode && !req.PriorReasoning.Empty() {
		last := lastAssistantItem(input)
		if last == nil {
			last = map[string]any{
				"type":    "message",
				"role":    llm.RoleAssistant,
				"content": []map[string]any{},
			}
			input = append(input, last)
		}
		if req.PriorReasoning.Text != "" {
			last["reasoning_content"] = req.PriorReasoning.Text
		}
		if req.PriorReasoning.EncryptedBlob != "" {
			last["encrypted_reasoning"] = req.PriorReasoning.EncryptedBlob
		}
	}

	payload := map[string]any{
		"input":  input,
		"stream": true,
	}
	if len(instructions) > 0 {
		payload["instructions"] = strings.Join(instructions, "\n")
	}
	if req.ChatMode {
		payload["include"] = []string{"reasoning.encrypted_content", "reasoning"}
	}
	llm.ApplyKnobs(payload, req)
	return json.Marshal(payload)
}

// messageItem converts one message into a {type:"message"} input item.
// Assistant history uses output_text parts, everything else input_text and
// input_image.
func messageItem(m llm.Message) map[string]any {
	parts := make([]map[string]any, 0, len(m.Parts))
	for _, p := range m.Parts {
		parts = append(parts, contentPart(m.Role, p))
	}
	return map[string]any{
		"type":    "message",
		"role":    m.Role,
		"content": parts,
	}
}

func contentPart(role string, p llm.Part) map[string]any {
	if p.Type == llm.PartTypeImage {
		return map[string]any{"type": "input_image", "image_url": p.URL}
	}
	textType := "input_text"
	if role == llm.RoleAssistant {
		textType = "output_text"
	}
	return map[string]any{"type": textType, "text": p.Text}
}

func lastAssistantItem(input []map[string]any) map[string]any {
	for i := len(input) - 1; i >= 0; i-- {
		if input[i]["role"] == llm.RoleAssistant {
			return input[i]
		}
	}
	return nil
}

//----------------------------------------------------------------
// Stream event parsing
//----------------------------------------------------------------

type outputItem struct {
	Type             string `json:"type"`
	EncryptedContent string `json:"encrypted_content"`
	Summary          []struct {
		Text string `json:"text"`
	} `json:"summary"`
	Content []struct {
		Type    string `json:"type"`
		Text    string `json:"text"`
		Refusal string `json:"refusal"`
	} `json:"content"`
}

type responsesEvent struct {
	Type     string      `json:"type"`
	Delta    string      `json:"delta"`
	Text     string      `json:"text"`
	Refusal  string      `json:"refusal"`
	Item     *outputItem `json:"item"`
	Response *struct {
		Output []outputItem `json:"output"`
	} `json:"response"`
}

// ParseEvent dispatches on the typed event name. Incremental output and
// refusal text are deltas; reasoning text deltas are captured and emitted;
// done events are conditional duplicates of the deltas; output items (both
// streamed and in the terminal bulk output array) are walked for message
// text and reasoning state.
func (s *ResponsesStrategy) ParseEvent(data []byte, tracker *llm.ReasoningState) []llm.Delta {
	var ev responsesEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil
	}

	switch ev.Type {
	case "response.output_text.delta", "response.refusal.delta":
		if ev.Delta == "" {
			return nil
		}
		return []llm.Delta{{Text: ev.Delta, Kind: llm.KindDelta}}

	case "response.reasoning_text.delta":
		tracker.AddText(ev.Delta)
		if ev.Delta == "" {
			return nil
		}
		return []llm.Delta{{Text: ev.Delta, Kind: llm.KindDelta}}

	case "response.reasoning_summary_text.delta":
		tracker.AddSummary(ev.Delta)
		return nil

	case "response.output_text.done":
		if ev.Text == "" {
			return nil
		}
		return []llm.Delta{{Text: ev.Text, Kind: llm.KindConditional}}

	case "response.refusal.done":
		if ev.Refusal == "" {
			return nil
		}
		return []llm.Delta{{Text: ev.Refusal, Kind: llm.KindConditional}}

	case "response.output_item.added", "response.output_item.done":
		if ev.Item == nil {
			return nil
		}
		return walkItem(*ev.Item, tracker)

	default:
		// Terminal events (response.completed and friends) repeat the run
		// as a bulk output array.
		if ev.Response == nil {
			return nil
		}
		var out []llm.Delta
		for _, item := range ev.Response.Output {
			out = append(out, walkItem(item, tracker)...)
		}
		return out
	}
}

// walkItem extracts message text from one output item as output-kind deltas
// and records reasoning items on the tracker.
func walkItem(item outputItem, tracker *llm.ReasoningState) []llm.Delta {
	if item.Type == "reasoning" {
		tracker.SetEncrypted(item.EncryptedContent)
		for _, s := range item.Summary {
			tracker.AddSummary(s.Text)
		}
		return nil
	}
	if item.Type != "message" {
		return nil
	}

	var out []llm.Delta
	for _, c := range item.Content {
		switch c.Type {
		case "output_text":
			if c.Text != "" {
				out = append(out, llm.Delta{Text: c.Text, Kind: llm.KindOutput})
			}
		case "refusal":
			if c.Refusal != "" {
				out = append(out, llm.Delta{Text: c.Refusal, Kind: llm.KindOutput})
			}
		}
	}
	return out
}
