package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"textflux/pkg/faults"
	"textflux/pkg/options"
	"textflux/pkg/sse"
	"textflux/pkg/version"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// errRequestTimeout marks a per-request timer expiry so it can be told
// apart from a caller-initiated abort.
var errRequestTimeout = errors.New("per-request timer fired")

// Client drives one endpoint through its dialect strategy. Concurrent
// Complete calls are safe; the Reasoning field is only written by
// chat-mode calls, which come from single-conversation callers.
type Client struct {
	opts             *options.Options
	strategy         Strategy
	httpClient       *http.Client
	timeout          time.Duration
	disableKeepAlive bool
	debugChunks      bool

	// Reasoning is the state captured from the last completed request.
	// Chat-mode callers feed it back via CallOptions on the next turn.
	Reasoning ReasoningState
}

// ClientConfig carries construction parameters for a Client.
type ClientConfig struct {
	Options *options.Options
	// Timeout is the per-request timer: a hard wall-clock bound in quiet
	// mode, an idle bound between reads in verbose mode.
	Timeout          time.Duration
	DisableKeepAlive bool
	DebugChunks      bool
}

// NewClient picks the dialect strategy from the URL suffix and builds the
// HTTP client. Streaming responses can stay open far longer than any
// sensible client-level timeout, so the transport imposes none; the
// per-request timer governs instead.
func NewClient(cfg ClientConfig) (*Client, error) {
	dialect := DialectFor(cfg.Options.URL)
	factory, ok := GetStrategyFactory(dialect)
	if !ok {
		return nil, fmt.Errorf("no strategy registered for dialect %q (missing autoload import?)", dialect)
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 0,
		DisableKeepAlives:     cfg.DisableKeepAlive,
	}

	return &Client{
		opts:             cfg.Options,
		strategy:         factory(),
		httpClient:       &http.Client{Transport: transport, Timeout: 0},
		timeout:          cfg.Timeout,
		disableKeepAlive: cfg.DisableKeepAlive,
		debugChunks:      cfg.DebugChunks,
	}, nil
}

// Dialect returns the name of the active strategy.
func (c *Client) Dialect() string { return c.strategy.Name() }

// CallOptions tune a single Complete call.
type CallOptions struct {
	// Verbose receives each text fragment as it streams in. Setting it
	// switches the request timer from hard to idle mode.
	Verbose func(fragment string)
	// TemperatureOverride replaces the configured temperature for this
	// call only.
	TemperatureOverride *float64
	// ChatMode enables the reasoning round-trip.
	ChatMode bool
}

// Complete sends the messages and returns the fully aggregated response
// text. Partial streamed text is never returned on error.
func (c *Client) Complete(ctx context.Context, messages []Message, call CallOptions) (string, error) {
	if err := validateMessages(messages); err != nil {
		return "", err
	}

	var prior *ReasoningState
	if call.ChatMode && !c.Reasoning.Empty() {
		prior = &c.Reasoning
	}
	req := &Request{
		Opts:                c.opts,
		TemperatureOverride: call.TemperatureOverride,
		ChatMode:            call.ChatMode,
		PriorReasoning:      prior,
	}

	payload, err := c.strategy.BuildPayload(messages, req)
	if err != nil {
		return "", err
	}

	slog.DebugContext(ctx, "LLM request",
		"dialect", c.strategy.Name(),
		"url", c.opts.URL,
		"api_key", c.redactedKey(),
		"bytes", len(payload),
	)

	// One timer per request. In quiet mode it never resets, giving a hard
	// wall-clock bound; in verbose mode every body read pushes it back,
	// so it only fires after a stretch of silence.
	reqCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	idle := time.AfterFunc(c.timeout, func() { cancel(errRequestTimeout) })
	defer idle.Stop()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.opts.URL, bytes.NewReader(payload))
	if err != nil {
		return "", faults.Wrap(faults.KindNetwork, err, "building request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	httpReq.Header.Set("User-Agent", "textflux/"+version.Version)
	if c.disableKeepAlive {
		httpReq.Header.Set("Connection", "close")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", c.classify(reqCtx, err)
	}
	if resp.Body == nil {
		return "", faults.New(faults.KindNullResponseBody, "response carried no body")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apiError(resp)
	}

	var body io.Reader = resp.Body
	if call.Verbose != nil {
		body = &resetReader{r: resp.Body, onRead: func() { idle.Reset(c.timeout) }}
	}

	debugger := NewStreamDebugger(c.strategy.Name(), c.debugChunks)
	defer debugger.Close()

	return c.consume(reqCtx, body, call, debugger)
}

// consume drains the SSE stream, applying the delta/conditional emission
// rules and collecting reasoning state.
func (c *Client) consume(reqCtx context.Context, body io.Reader, call CallOptions, debugger *StreamDebugger) (string, error) {
	reader := sse.NewReader(body)
	tracker := &ReasoningState{}
	var sb strings.Builder
	sawDelta := false

	emit := func(text string) {
		sb.WriteString(text)
		if call.Verbose != nil {
			call.Verbose(text)
		}
	}

	for {
		if reqCtx.Err() != nil {
			return "", c.classify(reqCtx, context.Cause(reqCtx))
		}

		data, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if reqCtx.Err() != nil {
				return "", c.classify(reqCtx, err)
			}
			if errors.Is(err, sse.ErrPrematureEnd) {
				return "", faults.Wrap(faults.KindStreamPrematureEnd, err, "stream ended before terminator")
			}
			return "", faults.Wrap(faults.KindNetwork, err, "reading stream: %v", err)
		}

		debugger.WriteString(data)

		deltas := c.strategy.ParseEvent([]byte(data), tracker)
		var held []Delta
		for _, d := range deltas {
			if d.Kind == KindDelta {
				sawDelta = true
				emit(d.Text)
			} else {
				held = append(held, d)
			}
		}
		// Conditional/output fragments only count when the endpoint never
		// streamed deltas; otherwise they duplicate what was emitted.
		if len(held) > 0 && !sawDelta {
			for _, d := range held {
				emit(d.Text)
			}
			sawDelta = true
		}
	}

	// Only chat mode reads the state back, and chat callers are serial.
	// Batch runs share one client across parallel Completes; writing here
	// unconditionally would race.
	if call.ChatMode {
		c.Reasoning = *tracker
	}
	return sb.String(), nil
}

// classify translates transport-level failures into the stable taxonomy.
func (c *Client) classify(reqCtx context.Context, err error) error {
	cause := context.Cause(reqCtx)
	switch {
	case errors.Is(cause, errRequestTimeout):
		return faults.Wrap(faults.KindTimeout, err, "no response within %s", c.timeout)
	case reqCtx.Err() != nil:
		return faults.Wrap(faults.KindAborted, cause, "request aborted: %v", cause)
	default:
		return faults.Wrap(faults.KindNetwork, err, "network failure: %v", err)
	}
}

// apiError reads a non-2xx body and surfaces the provider's nested
// error.message when the body decodes as JSON.
func apiError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	message := strings.TrimSpace(string(raw))

	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}
	if message == "" {
		message = resp.Status
	}

	return &faults.Error{
		Kind:    faults.KindLLMAPIError,
		Status:  resp.StatusCode,
		Message: message,
	}
}

func validateMessages(messages []Message) error {
	for _, m := range messages {
		if m.Role != RoleSystem {
			return nil
		}
	}
	return faults.New(faults.Invalid("MESSAGES"), "need at least one non-system message")
}

func (c *Client) redactedKey() string {
	if c.debugChunks {
		return c.opts.APIKey
	}
	if c.opts.APIKey == "" {
		return ""
	}
	return "***"
}

// resetReader pokes the idle timer on every successful body read.
type resetReader struct {
	r      io.Reader
	onRead func()
}

func (t *resetReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if n > 0 {
		t.onRead()
	}
	return n, err
}
