package llm

// ReasoningState accumulates reasoning content extracted from a stream and
// can be fed back into the next request so the provider keeps its
// chain-of-thought across turns. One tracker per request; the client owns
// it and hands the final state to callers that want the round-trip.
type ReasoningState struct {
	// EncryptedBlob is the provider-opaque encrypted reasoning payload
	// (responses dialect, reasoning.encrypted_content).
	EncryptedBlob string
	// Text is the plain reasoning text, accumulated across deltas.
	Text string
	// Summary is the provider-generated reasoning summary, if any.
	Summary string
}

// Empty reports whether nothing was captured.
func (r *ReasoningState) Empty() bool {
	return r == nil || (r.EncryptedBlob == "" && r.Text == "" && r.Summary == "")
}

// AddText appends a reasoning text delta.
func (r *ReasoningState) AddText(s string) {
	if s != "" {
		r.Text += s
	}
}

// AddSummary appends a reasoning summary delta.
func (r *ReasoningState) AddSummary(s string) {
	if s != "" {
		r.Summary += s
	}
}

// SetEncrypted records the encrypted blob, keeping the last one seen.
func (r *ReasoningState) SetEncrypted(blob string) {
	if blob != "" {
		r.EncryptedBlob = blob
	}
}
