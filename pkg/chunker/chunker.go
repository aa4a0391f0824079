// Package chunker splits source text into ordered groups of lines. The
// split is stable and content-preserving: concatenating the chunks with LF
// reproduces the input up to a trailing newline.
package chunker

import "strings"

// Split cuts text on LF and groups linesPerChunk lines per chunk, rejoined
// with LF. The final chunk may be shorter. A non-positive linesPerChunk is
// treated as 1. Encoding is irrelevant; only 0x0A bytes matter.
func Split(text string, linesPerChunk int) []string {
	if text == "" {
		return nil
	}
	if linesPerChunk < 1 {
		linesPerChunk = 1
	}

	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")

	chunks := make([]string, 0, (len(lines)+linesPerChunk-1)/linesPerChunk)
	for i := 0; i < len(lines); i += linesPerChunk {
		end := i + linesPerChunk
		if end > len(lines) {
			end = len(lines)
		}
		chunks = append(chunks, strings.Join(lines[i:end], "\n"))
	}
	return chunks
}
