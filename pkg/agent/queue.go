package agent

import (
	"sync"

	"agentwire/pkg/message"
)

// QueueMode selects how many queued messages a single Poll returns.
type QueueMode int

const (
	// QueueModeOneAtATime returns at most one message per poll; the rest
	// stay queued for the next poll.
	QueueModeOneAtATime QueueMode = iota
	// QueueModeAll drains the entire queue atomically on the next poll.
	QueueModeAll
)

// Queue is the steering/follow-up message queue: the agent loop dequeues
// only at its defined polling points (see runLoop); a caller may enqueue at
// any time, including concurrently with a run in progress.
type Queue struct {
	mu    sync.Mutex
	mode  QueueMode
	items []message.Message
}

// NewQueue returns an empty queue with the given drain mode.
func NewQueue(mode QueueMode) *Queue {
	return &Queue{mode: mode}
}

// Enqueue appends messages for the next eligible poll to pick up.
func (q *Queue) Enqueue(msgs ...message.Message) {
	if len(msgs) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, msgs...)
}

// Poll returns the next batch of queued messages per the queue's mode, or
// nil if empty.
func (q *Queue) Poll() []message.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	if q.mode == QueueModeAll {
		out := q.items
		q.items = nil
		return out
	}
	out := q.items[:1:1]
	q.items = q.items[1:]
	return out
}
