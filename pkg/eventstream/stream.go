// Package eventstream implements a single-producer, single-consumer bounded
// queue with a one-shot terminal value: a producer pushes events and
// eventually ends the stream with a terminal value, while a consumer ranges
// over events and/or awaits the terminal value independently of iteration
// order.
//
// It is used both for provider-level streaming (Stream[ProviderEvent,
// *message.Assistant]) and for the agent's own output
// (Stream[agent.Event, []message.Message]).
package eventstream

import (
	"context"
	"errors"
	"sync"
)

// ErrNoResult is returned by Result when the stream ended without a
// terminal value ever being set.
var ErrNoResult = errors.New("eventstream: stream ended with no terminal value")

// Stream delivers events of type E to a single consumer in FIFO order, plus
// a one-shot terminal value of type T available via Result.
type Stream[E any, T any] struct {
	events chan E

	mu       sync.Mutex
	terminal T
	hasTerm  bool
	decided  bool          // a terminal decision (set or none) has been made
	done     chan struct{} // closed once a terminal decision has been made
	ended    bool          // End has been called; further Push is a no-op
}

// New creates a stream with the given event buffer size. A size of 0 yields
// an unbuffered channel (push blocks until the consumer is ready), matching
// the common case of a consumer actively draining events as they arrive.
func New[E any, T any](buffer int) *Stream[E, T] {
	return &Stream[E, T]{
		events: make(chan E, buffer),
		done:   make(chan struct{}),
	}
}

// Push enqueues an event. No-op after End has been called. Push may block if
// the channel is full and the consumer is not yet draining it.
func (s *Stream[E, T]) Push(ctx context.Context, event E) {
	s.mu.Lock()
	ended := s.ended
	s.mu.Unlock()
	if ended {
		return
	}
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// End sets the terminal value (first call wins) and closes the event
// channel so iteration stops. The terminal value is always visible to
// Result before the closing sentinel is observed by an iterator, because
// setTerminal runs, and done is closed, strictly before s.events is closed.
func (s *Stream[E, T]) End(terminal T) {
	s.setTerminal(terminal, true)
	s.closeEvents()
}

// EndWithoutResult closes the stream without ever setting a terminal value.
// A later Result call observes ErrNoResult. Used when a producer must abort
// before any terminal is known.
func (s *Stream[E, T]) EndWithoutResult() {
	s.setTerminal(*new(T), false)
	s.closeEvents()
}

func (s *Stream[E, T]) closeEvents() {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	s.mu.Unlock()
	close(s.events)
}

func (s *Stream[E, T]) setTerminal(terminal T, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.decided {
		return
	}
	s.decided = true
	if ok {
		s.terminal = terminal
		s.hasTerm = true
	}
	close(s.done)
}

// Result blocks until a terminal value has been decided (via End or
// EndWithoutResult), or ctx is cancelled. It may be called before, during,
// or after End. It returns ErrNoResult if the stream ended with no terminal
// ever set.
func (s *Stream[E, T]) Result(ctx context.Context) (T, error) {
	select {
	case <-s.done:
		s.mu.Lock()
		t, ok := s.terminal, s.hasTerm
		s.mu.Unlock()
		if !ok {
			var zero T
			return zero, ErrNoResult
		}
		return t, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Events returns the receive-only channel of events for ranging. The
// channel closes once End has been called and all buffered events have been
// drained — matching an iterator that "yields events in FIFO order until
// sentinel, then stops".
func (s *Stream[E, T]) Events() <-chan E {
	return s.events
}

// hasResult reports, without blocking, whether a terminal decision has
// already been made by End or EndWithoutResult; it is true even when the
// stream ended with no terminal value.
func (s *Stream[E, T]) hasResult() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
