package llm

import (
	"strings"

	"textflux/pkg/options"
)

// Request bundles everything a strategy needs beyond the message list.
type Request struct {
	Opts *options.Options
	// TemperatureOverride replaces the configured temperature knob for
	// this call; the retry loop uses it for escalation.
	TemperatureOverride *float64
	// ChatMode enables reasoning round-tripping: prior reasoning state is
	// attached to the outgoing payload and encrypted reasoning is
	// requested back from the provider.
	ChatMode bool
	// PriorReasoning is the state captured from the previous turn, fed
	// back when ChatMode is on.
	PriorReasoning *ReasoningState
}

// Strategy adapts the engine to one backend dialect: it builds the request
// payload and parses stream events into output deltas.
type Strategy interface {
	Name() string

	// BuildPayload serializes the outgoing request body.
	BuildPayload(messages []Message, req *Request) ([]byte, error)

	// ParseEvent extracts zero or more deltas from one SSE event payload
	// and records reasoning content on the tracker. Malformed events
	// yield nil and are never fatal.
	ParseEvent(data []byte, tracker *ReasoningState) []Delta
}

//----------------------------------------------------------------
// Strategy registry
//----------------------------------------------------------------

// StrategyFactory constructs a strategy instance for a client.
type StrategyFactory func() Strategy

var strategyRegistry = make(map[string]StrategyFactory)

// RegisterStrategy registers a dialect factory. Called from the dialect
// packages' init via the autoload import.
func RegisterStrategy(name string, factory StrategyFactory) {
	strategyRegistry[name] = factory
}

// GetStrategyFactory returns the factory for a dialect name.
func GetStrategyFactory(name string) (StrategyFactory, bool) {
	f, ok := strategyRegistry[name]
	return f, ok
}

// DialectFor chooses the dialect from the endpoint URL suffix:
// "/responses" selects the responses dialect, "/completions" without
// "/chat/completions" selects legacy completions, anything else is
// chat-completions.
func DialectFor(url string) string {
	path := url
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimSuffix(path, "/")
	switch {
	case strings.HasSuffix(path, "/responses"):
		return DialectResponses
	case strings.HasSuffix(path, "/completions") && !strings.HasSuffix(path, "/chat/completions"):
		return DialectLegacy
	default:
		return DialectChat
	}
}

// Temperature resolves the effective temperature knob for the request,
// applying the override when present.
func (r *Request) Temperature() (float64, bool) {
	if r.TemperatureOverride != nil {
		return *r.TemperatureOverride, true
	}
	return r.Opts.Temperature.Get()
}
