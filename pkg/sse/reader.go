// Package sse reads server-sent-event frames off a streaming HTTP body.
package sse

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// ErrPrematureEnd is returned when the body ends before a terminating
// "[DONE]" event. Callers whose dialect never sends a terminator may treat
// it as a clean end.
var ErrPrematureEnd = errors.New("stream ended before [DONE]")

// Reader yields one event payload per complete SSE frame. Frames are
// delimited by a blank line; comment lines (leading ':') are dropped;
// multiple data: lines within one frame concatenate with '\n'.
type Reader struct {
	scanner *bufio.Scanner
	done    bool
}

// NewReader wraps a streaming response body. The line buffer allows events
// up to 1 MiB, matching what chat endpoints emit for bulk output arrays.
func NewReader(body io.Reader) *Reader {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sc.Split(scanLinesLF)
	return &Reader{scanner: sc}
}

// scanLinesLF splits on LF and strips a trailing CR, so CR and CRLF line
// endings normalize to LF before frame assembly.
func scanLinesLF(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i, b := range data {
		if b == '\n' || b == '\r' {
			// Treat CRLF as one terminator.
			if b == '\r' && i+1 < len(data) && data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			if b == '\r' && i+1 == len(data) && !atEOF {
				// Might be half of a CRLF; wait for more input.
				return 0, nil, nil
			}
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Next returns the data payload of the next complete event. It returns
// io.EOF after a "[DONE]" terminator and ErrPrematureEnd when the body
// ends without one.
func (r *Reader) Next() (string, error) {
	if r.done {
		return "", io.EOF
	}

	var data []string
	flush := func() (string, bool) {
		if len(data) == 0 {
			return "", false
		}
		payload := strings.Join(data, "\n")
		data = data[:0]
		if payload == "[DONE]" {
			r.done = true
			return "", false
		}
		return payload, true
	}

	for r.scanner.Scan() {
		line := r.scanner.Text()

		if line == "" {
			// Frame boundary.
			if payload, ok := flush(); ok {
				return payload, nil
			}
			if r.done {
				return "", io.EOF
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		if value, ok := strings.CutPrefix(line, "data:"); ok {
			data = append(data, strings.TrimPrefix(value, " "))
		}
		// Other fields (event:, id:, retry:) carry nothing we use.
	}

	if err := r.scanner.Err(); err != nil {
		return "", err
	}

	// Body ended. A dangling frame without its blank line still counts.
	if payload, ok := flush(); ok {
		return payload, nil
	}
	if r.done {
		return "", io.EOF
	}
	return "", ErrPrematureEnd
}
