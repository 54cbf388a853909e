package eventstream_test

import (
	"context"
	"testing"
	"time"

	"agentwire/pkg/eventstream"
)

func TestPushThenEndOrdering(t *testing.T) {
	s := eventstream.New[string, string](4)
	ctx := context.Background()

	s.Push(ctx, "a")
	s.Push(ctx, "b")
	s.End("done")

	var got []string
	for ev := range s.Events() {
		got = append(got, ev)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("got %v", got)
	}

	result, err := s.Result(ctx)
	if err != nil || result != "done" {
		t.Fatalf("result = %q, err = %v", result, err)
	}
}

func TestResultVisibleBeforeSentinelObserved(t *testing.T) {
	// A concurrent Result() waiter must see the terminal value as soon as
	// it is set, regardless of whether it raced ahead of or behind the
	// producer's final push.
	s := eventstream.New[string, string](1)
	ctx := context.Background()

	resultCh := make(chan string, 1)
	go func() {
		r, err := s.Result(ctx)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		resultCh <- r
	}()

	go func() {
		s.Push(ctx, "event")
		<-s.Events()
		s.End("terminal-message")
	}()

	select {
	case r := <-resultCh:
		if r != "terminal-message" {
			t.Fatalf("got %q", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
	}
}

func TestEndWithoutResultYieldsError(t *testing.T) {
	s := eventstream.New[int, int](1)
	s.EndWithoutResult()
	_, err := s.Result(context.Background())
	if err != eventstream.ErrNoResult {
		t.Fatalf("want ErrNoResult, got %v", err)
	}
}

func TestFirstEndWins(t *testing.T) {
	s := eventstream.New[int, string](0)
	s.End("first")
	s.End("second")
	r, err := s.Result(context.Background())
	if err != nil || r != "first" {
		t.Fatalf("got %q, %v", r, err)
	}
}

func TestPushNoOpAfterEnd(t *testing.T) {
	s := eventstream.New[int, int](1)
	s.End(42)
	s.Push(context.Background(), 1) // must not panic or block
	count := 0
	for range s.Events() {
		count++
	}
	if count != 0 {
		t.Fatalf("expected no events after End, got %d", count)
	}
}

func TestResultCancelledByContext(t *testing.T) {
	s := eventstream.New[int, int](0)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := s.Result(ctx)
	if err != context.DeadlineExceeded {
		t.Fatalf("want DeadlineExceeded, got %v", err)
	}
}
