// Package sse scans a text/event-stream body down to its raw "data:" payload
// lines, leaving interpretation of each payload to the caller — providers
// decode it into whatever wire chunk shape their API actually uses.
package sse

import (
	"bufio"
	"io"
	"strings"
)

// ScanLines reads r as an SSE stream, joining each event's "data:" lines
// (SSE allows an event to span several) and calling onData once per
// complete event, in the order they arrive. Comment lines (starting with
// ":") are ignored. onData is never called for an event with no data lines.
func ScanLines(r io.Reader, onData func(raw string) error) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var dataLines []string
	flush := func() error {
		if len(dataLines) == 0 {
			return nil
		}
		joined := strings.Join(dataLines, "\n")
		dataLines = dataLines[:0]
		if strings.TrimSpace(joined) == "" {
			return nil
		}
		return onData(joined)
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if err := flush(); err != nil {
				return err
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		if strings.HasPrefix(line, "data:") {
			dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return flush()
}
