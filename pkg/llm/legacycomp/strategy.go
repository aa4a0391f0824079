package legacycomp

import (
	"strings"

	jsoniter "github.com/json-iterator/go"

	"textflux/pkg/llm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// LegacyStrategy speaks the pre-chat completions wire format: a single
// prompt string in, choices[0].text fragments out. Images have no
// representation here and are dropped.
type LegacyStrategy struct{}

func (s *LegacyStrategy) Name() string { return llm.DialectLegacy }

// BuildPayload flattens every text part in message order into one prompt
// string, messages separated by a blank line. An enabled prefill is appended
// directly so it acts as a response prefix.
func (s *LegacyStrategy) BuildPayload(messages []llm.Message, req *llm.Request) ([]byte, error) {
	var segments []string
	for _, m := range messages {
		if t := m.TextContent(); t != "" {
			segments = append(segments, t)
		}
	}
	prompt := strings.Join(segments, "\n\n")

	if p := req.Opts.Prefill; p.Enabled {
		prompt += p.Text
	}

	payload := map[string]any{
		"prompt": prompt,
		"stream": true,
	}
	llm.ApplyKnobs(payload, req)
	return json.Marshal(payload)
}

type legacyEvent struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

// ParseEvent emits choices[0].text as a delta. This dialect carries no
// reasoning channel.
func (s *LegacyStrategy) ParseEvent(data []byte, _ *llm.ReasoningState) []llm.Delta {
	var ev legacyEvent
	if err := json.Unmarshal(data, &ev); err != nil || len(ev.Choices) == 0 {
		return nil
	}
	if ev.Choices[0].Text == "" {
		return nil
	}
	return []llm.Delta{{Text: ev.Choices[0].Text, Kind: llm.KindDelta}}
}
