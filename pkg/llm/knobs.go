package llm

// ApplyKnobs copies every enabled sampling/reasoning knob into the outgoing
// payload under its wire key. Disabled knobs are omitted entirely; the
// temperature override from the retry loop wins over the configured knob.
func ApplyKnobs(payload map[string]any, req *Request) {
	o := req.Opts

	if v, ok := o.Model.Get(); ok {
		payload["model"] = v
	}
	if v, ok := req.Temperature(); ok {
		payload["temperature"] = v
	}
	if v, ok := o.TopP.Get(); ok {
		payload["top_p"] = v
	}
	if v, ok := o.TopK.Get(); ok {
		payload["top_k"] = v
	}
	if v, ok := o.PresencePenalty.Get(); ok {
		payload["presence_penalty"] = v
	}
	if v, ok := o.Seed.Get(); ok {
		payload["seed"] = v
	}
	if v, ok := o.ReasoningEffort.Get(); ok {
		payload["reasoning_effort"] = v
	}
	if v, ok := o.EnableThinking.Get(); ok {
		payload["enable_thinking"] = v
	}
	if v, ok := o.ChatTemplateKwargs.Get(); ok {
		payload["chat_template_kwargs"] = v
	}
	if v, ok := o.Reasoning.Get(); ok {
		payload["reasoning"] = v
	}
}
