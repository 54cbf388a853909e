package agent

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"agentwire/pkg/eventstream"
	"agentwire/pkg/message"
)

// ReplayConfig configures JSONL debug logging for a single agent run, one
// file per run under Dir.
type ReplayConfig struct {
	Dir string

	// Redact truncates long text content (system prompts, long message
	// bodies) before it is written to disk.
	Redact bool
}

var replaySeq atomic.Int64

// logEntry is one line of a run's JSONL debug log.
type logEntry struct {
	Timestamp    string     `json:"ts"`
	Type         string     `json:"type"` // "agent_start", "event", "agent_end"
	SystemPrompt string     `json:"systemPrompt,omitempty"`
	Kind         string     `json:"kind,omitempty"` // human-readable copy of Event.Kind
	Event        *wireEvent `json:"event,omitempty"`
	LatencyMs    int64      `json:"latencyMs,omitempty"`
	TotalMs      int64      `json:"totalMs,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// wireEvent is Event's JSON-safe shadow. Message fields are pre-encoded via
// message.MarshalMessage rather than marshaled through the bare interface
// (encoding/json cannot decode back into an interface without this), and Err
// is flattened to a string. Update is recorded as raw JSON for visibility
// only — it carries content blocks behind an interface slice that can't be
// unmarshaled back without a concrete type hint, so a replayed event never
// reconstructs it; tool-progress updates are not needed to rebuild the
// committed history from message_end events.
type wireEvent struct {
	Kind            Kind              `json:"kindValue"`
	KindName        string            `json:"kind,omitempty"`
	Message         json.RawMessage   `json:"message,omitempty"`
	ToolCallID      string            `json:"toolCallId,omitempty"`
	ToolName        string            `json:"toolName,omitempty"`
	Update          json.RawMessage   `json:"update,omitempty"`
	IsError         bool              `json:"isError,omitempty"`
	TurnToolResults []json.RawMessage `json:"turnToolResults,omitempty"`
	Err             string            `json:"err,omitempty"`
}

// MarshalEvent encodes ev as a single JSON line, the same wire shape LogRun
// writes to its "event" log entries — exported for callers (such as
// cmd/agentwire) that stream events to stdout as JSONL rather than through
// LogRun.
func MarshalEvent(ev Event) ([]byte, error) {
	return json.Marshal(encodeEvent(ev))
}

func encodeEvent(ev Event) *wireEvent {
	w := &wireEvent{
		Kind:       ev.Kind,
		KindName:   ev.Kind.String(),
		ToolCallID: ev.ToolCallID,
		ToolName:   ev.ToolName,
		IsError:    ev.IsError,
	}
	if ev.Err != nil {
		w.Err = ev.Err.Error()
	}
	if ev.Update != nil {
		if data, err := json.Marshal(ev.Update); err == nil {
			w.Update = data
		}
	}
	if ev.Message != nil {
		if data, err := message.MarshalMessage(ev.Message); err == nil {
			w.Message = data
		}
	}
	for _, r := range ev.TurnToolResults {
		if data, err := message.MarshalMessage(r); err == nil {
			w.TurnToolResults = append(w.TurnToolResults, data)
		}
	}
	return w
}

func decodeEvent(w wireEvent) (Event, error) {
	ev := Event{
		Kind:       w.Kind,
		ToolCallID: w.ToolCallID,
		ToolName:   w.ToolName,
		IsError:    w.IsError,
	}
	if w.Err != "" {
		ev.Err = fmt.Errorf("%s", w.Err)
	}
	if len(w.Message) > 0 {
		m, err := message.UnmarshalMessage(w.Message)
		if err != nil {
			return Event{}, err
		}
		ev.Message = m
	}
	for _, raw := range w.TurnToolResults {
		m, err := message.UnmarshalMessage(raw)
		if err != nil {
			return Event{}, err
		}
		tr, ok := m.(message.ToolResult)
		if !ok {
			return Event{}, fmt.Errorf("agent: replay: turn tool result decoded as %T, want message.ToolResult", m)
		}
		ev.TurnToolResults = append(ev.TurnToolResults, tr)
	}
	return ev, nil
}

// LogRun drains stream into onEvent while also appending every event (plus
// run-start/run-end bookends) to a JSONL file under cfg.Dir, and returns the
// run's final result once the stream ends — mirroring the teacher's
// WithLogger wrapper, fitted to this package's single-stream Send/Continue
// shape rather than a per-interface-method wrapper. If the log file can't be
// opened, the run still proceeds without logging.
func LogRun(ctx context.Context, stream *eventstream.Stream[Event, []message.Message], cfg ReplayConfig, systemPrompt string, onEvent func(Event)) ([]message.Message, error) {
	w, err := openLog(cfg.Dir)
	if err != nil {
		for ev := range stream.Events() {
			if onEvent != nil {
				onEvent(ev)
			}
		}
		return stream.Result(ctx)
	}
	defer w.Close()

	start := time.Now()
	writeLine(w, logEntry{
		Timestamp:    start.Format(time.RFC3339Nano),
		Type:         "agent_start",
		SystemPrompt: redactText(systemPrompt, cfg.Redact),
	})

	last := start
	for ev := range stream.Events() {
		now := time.Now()
		writeLine(w, logEntry{
			Timestamp: now.Format(time.RFC3339Nano),
			Type:      "event",
			Kind:      ev.Kind.String(),
			Event:     encodeEvent(redactEvent(ev, cfg.Redact)),
			LatencyMs: now.Sub(last).Milliseconds(),
		})
		last = now
		if onEvent != nil {
			onEvent(ev)
		}
	}

	final, resultErr := stream.Result(ctx)
	endEntry := logEntry{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Type:      "agent_end",
		TotalMs:   time.Since(start).Milliseconds(),
	}
	if resultErr != nil {
		endEntry.Error = resultErr.Error()
	}
	writeLine(w, endEntry)
	return final, resultErr
}

func redactEvent(ev Event, redact bool) Event {
	if !redact {
		return ev
	}
	if u, ok := ev.Message.(message.User); ok && u.Text != "" {
		u.Text = redactText(u.Text, true)
		ev.Message = u
	}
	return ev
}

// redactText keeps the first 20 chars and replaces the rest, matching the
// truncation shape the teacher uses for long instructions/context fields.
func redactText(s string, redact bool) string {
	if !redact || len(s) <= 20 {
		return s
	}
	return s[:20] + strings.Repeat("*", 10) + fmt.Sprintf(" [%d chars redacted]", len(s)-20)
}

func openLog(dir string) (*os.File, error) {
	if dir == "" {
		return nil, fmt.Errorf("agent: replay: empty log directory")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	seq := replaySeq.Add(1)
	name := fmt.Sprintf("run-%s-%03d.jsonl", time.Now().Format("2006-01-02"), seq)
	return os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
}

func writeLine(f *os.File, entry logEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	f.Write(data)
	f.Write([]byte("\n"))
}

// RunLog is a parsed JSONL debug log: the run's system prompt plus its full
// event sequence, suitable for offline inspection or replay.
type RunLog struct {
	SystemPrompt string
	Events       []Event
	Entries      []logEntry
}

// LoadLog reads a JSONL log file produced by LogRun.
func LoadLog(path string) (*RunLog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("agent: load log: %w", err)
	}
	defer f.Close()

	log := &RunLog{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	for scanner.Scan() {
		var entry logEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		log.Entries = append(log.Entries, entry)

		switch entry.Type {
		case "agent_start":
			log.SystemPrompt = entry.SystemPrompt
		case "event":
			if entry.Event == nil {
				continue
			}
			ev, err := decodeEvent(*entry.Event)
			if err != nil {
				continue
			}
			log.Events = append(log.Events, ev)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("agent: load log: scan: %w", err)
	}
	return log, nil
}

// ReplayStream replays a recorded run's events onto a fresh stream without
// touching a real provider, reconstructing the final committed history from
// each event's message_end payload — used by the provider-fake test harness
// to re-drive a previously captured run.
func ReplayStream(log *RunLog) *eventstream.Stream[Event, []message.Message] {
	out := eventstream.New[Event, []message.Message](len(log.Events) + 1)
	go func() {
		ctx := context.Background()
		var final []message.Message
		for _, ev := range log.Events {
			out.Push(ctx, ev)
			if ev.Kind == KindMessageEnd && ev.Message != nil {
				final = append(final, ev.Message)
			}
		}
		out.End(final)
	}()
	return out
}
