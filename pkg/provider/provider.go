// Package provider defines the provider-agnostic streaming contract that
// the chat-completions and messages wire protocols both implement: a single
// Stream call that returns an event stream terminating in the finalized
// assistant message.
package provider

import (
	"context"
	"errors"

	"agentwire/pkg/eventstream"
	"agentwire/pkg/message"
	"agentwire/pkg/model"
)

// ErrAborted names a stream cancelled before a natural stop. No provider in
// this module returns or wraps it; the providers report the outcome through
// the terminal assistant message's StopReason instead.
var ErrAborted = errors.New("provider: stream aborted")

// Options carries the per-call knobs a provider needs beyond the message
// context itself: reasoning effort, cache retention, and the caller's
// max-retry-delay hint. Neither provider retries a request; when
// MaxRetryDelayMS is set, each Stream call builds a fresh one-token limiter
// from it and waits on it once, which does not delay that request.
type Options struct {
	ReasoningEffort string
	CacheRetention  string // "", "none", "short", "long" — empty defers to the provider default
	MaxRetryDelayMS int
}

// Provider streams one assistant turn for the given model and context.
type Provider interface {
	// Stream starts a request and returns an event stream whose terminal
	// value is the finalized assistant message. The stream's Events channel
	// delivers unified partial-update events as they arrive.
	Stream(ctx context.Context, d model.Descriptor, mctx message.Context, opts Options) (*eventstream.Stream[Event, *message.Assistant], error)
}

// Kind identifies the unified event shape emitted by any provider, mirroring
// the harness event taxonomy but keyed to partial-message deltas instead of
// tool-loop semantics.
type Kind int

const (
	KindTextStart Kind = iota
	KindTextDelta
	KindTextEnd
	KindThinkingStart
	KindThinkingDelta
	KindThinkingEnd
	KindToolCallStart
	KindToolCallDelta
	KindToolCallEnd
	KindDone
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindTextStart:
		return "text_start"
	case KindTextDelta:
		return "text_delta"
	case KindTextEnd:
		return "text_end"
	case KindThinkingStart:
		return "thinking_start"
	case KindThinkingDelta:
		return "thinking_delta"
	case KindThinkingEnd:
		return "thinking_end"
	case KindToolCallStart:
		return "toolcall_start"
	case KindToolCallDelta:
		return "toolcall_delta"
	case KindToolCallEnd:
		return "toolcall_end"
	case KindDone:
		return "done"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a single partial update. Exactly one of the index-addressed
// fields is meaningful for a given Kind; Partial always reflects the
// accumulated assistant message as of this event.
type Event struct {
	Kind       Kind
	Index      int // content-block index this event applies to
	TextDelta  string
	ToolCallID string
	Err        error
	Partial    *message.Assistant
}
