package llm

import "strings"

//----------------------------------------------------------------
// Message - dialect-neutral message structure
//----------------------------------------------------------------

// Message is one turn of input to the endpoint. Content is an ordered list
// of parts; the strategies flatten it into whatever shape their dialect
// wants (plain string, typed content array, single prompt).
type Message struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Part is a single content part: text or an image data URL.
type Part struct {
	Type string `json:"type"` // "text" | "image_url"
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

// NewTextMessage builds a single-part text message.
func NewTextMessage(role, text string) Message {
	return Message{
		Role:  role,
		Parts: []Part{{Type: PartTypeText, Text: text}},
	}
}

// NewTextPart builds a text part.
func NewTextPart(text string) Part {
	return Part{Type: PartTypeText, Text: text}
}

// NewImagePart builds an image part carrying a data URL.
func NewImagePart(url string) Part {
	return Part{Type: PartTypeImage, URL: url}
}

// TextContent joins all text parts in order.
func (m Message) TextContent() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if p.Type == PartTypeText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// HasImages reports whether the message carries any image part.
func (m Message) HasImages() bool {
	for _, p := range m.Parts {
		if p.Type == PartTypeImage {
			return true
		}
	}
	return false
}

//----------------------------------------------------------------
// Delta - parsed stream increments
//----------------------------------------------------------------

// DeltaKind classifies a parsed stream event fragment.
type DeltaKind int

const (
	// KindDelta is incremental text, emitted immediately.
	KindDelta DeltaKind = iota
	// KindOutput is a complete output item, emitted only when the stream
	// produced no incremental deltas first.
	KindOutput
	// KindConditional is a terminal full-message duplicate, likewise
	// suppressed once any delta was seen.
	KindConditional
)

// Delta is one text fragment extracted from a stream event.
type Delta struct {
	Text string
	Kind DeltaKind
}
