package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agentwire/internal/obslog"
	"agentwire/pkg/eventstream"
	"agentwire/pkg/message"
	"agentwire/pkg/model"
	"agentwire/pkg/provider"
	"agentwire/pkg/toolschema"
)

// ErrAlreadyStreaming is returned by Send/Continue when a run is already in
// progress on this Agent; re-invocation is only permitted after the prior
// run reaches agent_end.
var ErrAlreadyStreaming = errors.New("agent: already streaming")

// StreamFactory is the core's extensibility seam: a function that starts
// one provider turn and returns its event stream. chatcompletions.Client
// and messages.Client both satisfy provider.Provider, whose Stream method
// has this exact shape.
type StreamFactory func(ctx context.Context, d model.Descriptor, mctx message.Context, opts provider.Options) (*eventstream.Stream[provider.Event, *message.Assistant], error)

// Config is the input to New: the model/provider wiring, the tool set, and
// the steering/follow-up queues for a single Agent.
type Config struct {
	Model           model.Descriptor
	StreamFactory   StreamFactory
	ProviderOptions provider.Options
	SystemPrompt    string

	Tools     *ToolSet
	Validator *toolschema.Validator

	// Steering and Followup default to one-at-a-time queues when nil.
	Steering *Queue
	Followup *Queue

	// MaxTurns caps the number of TURN_START iterations in a single run; 0
	// means unlimited.
	MaxTurns int

	Logger  *obslog.Logger
	Metrics *Metrics
}

// Agent drives the turn-scheduling state machine described by the core
// spec: stream an assistant turn, dispatch its tool-calls, feed results
// back, and repeat until a turn produces no tool-calls and no follow-up is
// queued.
type Agent struct {
	cfg Config

	streaming chan struct{} // non-nil buffered(1) slot acts as a try-lock
}

// New returns an Agent ready to run. Config's Steering/Followup/Tools
// default to empty one-at-a-time queues and an empty tool set when nil.
func New(cfg Config) *Agent {
	if cfg.Steering == nil {
		cfg.Steering = NewQueue(QueueModeOneAtATime)
	}
	if cfg.Followup == nil {
		cfg.Followup = NewQueue(QueueModeOneAtATime)
	}
	if cfg.Tools == nil {
		cfg.Tools = NewToolSet()
	}
	a := &Agent{cfg: cfg, streaming: make(chan struct{}, 1)}
	a.streaming <- struct{}{}
	return a
}

// Steer enqueues a message to be injected into the current run at the next
// steering poll point. Safe to call at any time, including from another
// goroutine while a run is active.
func (a *Agent) Steer(msgs ...message.Message) { a.cfg.Steering.Enqueue(msgs...) }

// FollowUp enqueues a message to start the next run, if the current one
// ends without tool-calls and with no steering pending.
func (a *Agent) FollowUp(msgs ...message.Message) { a.cfg.Followup.Enqueue(msgs...) }

// Send starts a new run seeded with the given prompts on top of history.
func (a *Agent) Send(ctx context.Context, history []message.Message, prompts []message.Message) (*eventstream.Stream[Event, []message.Message], error) {
	return a.run(ctx, history, prompts)
}

// Continue starts a new run with no starting prompts; history's last
// message must not be an assistant message (there is nothing to respond
// to otherwise).
func (a *Agent) Continue(ctx context.Context, history []message.Message) (*eventstream.Stream[Event, []message.Message], error) {
	if len(history) > 0 {
		if _, ok := history[len(history)-1].(message.Assistant); ok {
			return nil, fmt.Errorf("agent: continue: last message is already an assistant message")
		}
	}
	return a.run(ctx, history, nil)
}

func (a *Agent) run(ctx context.Context, history []message.Message, prompts []message.Message) (*eventstream.Stream[Event, []message.Message], error) {
	select {
	case <-a.streaming:
	default:
		return nil, ErrAlreadyStreaming
	}

	out := eventstream.New[Event, []message.Message](32)
	go func() {
		defer func() { a.streaming <- struct{}{} }()
		final := a.runLoop(ctx, out, history, prompts)
		out.End(final)
	}()
	return out, nil
}

// runLoop is the single goroutine that owns this run end to end: it
// consumes provider events synchronously and pushes unified events to out,
// never fanning out into concurrent per-turn tasks.
func (a *Agent) runLoop(ctx context.Context, out *eventstream.Stream[Event, []message.Message], history []message.Message, prompts []message.Message) []message.Message {
	emit := func(ev Event) { out.Push(ctx, ev) }

	emit(Event{Kind: KindAgentStart})

	committed := append([]message.Message{}, history...)
	pending := append([]message.Message{}, prompts...)

	firstTurn := true
	turnIndex := 0
	for {
		if firstTurn {
			if steer := a.cfg.Steering.Poll(); len(steer) > 0 {
				pending = append(pending, steer...)
			}
			firstTurn = false
		}

		if a.cfg.MaxTurns > 0 && turnIndex >= a.cfg.MaxTurns {
			break
		}

		emit(Event{Kind: KindTurnStart})
		turnCtx, span := startTurnSpan(ctx, turnIndex)

		for _, m := range pending {
			committed = append(committed, m)
			emit(Event{Kind: KindMessageStart, Message: m})
			emit(Event{Kind: KindMessageEnd, Message: m})
		}
		pending = nil

		mctx := message.Context{
			SystemPrompt: a.cfg.SystemPrompt,
			Messages:     committed,
			Tools:        a.cfg.Tools.Definitions(),
		}

		assistant := a.streamTurn(turnCtx, mctx, emit)
		committed = append(committed, *assistant)
		a.cfg.Metrics.recordTurn(string(assistant.StopReason))

		if assistant.StopReason.TerminatesTurn() {
			emit(Event{Kind: KindTurnEnd})
			span.End()
			break
		}

		toolCalls := assistant.ToolCalls()
		if len(toolCalls) == 0 {
			emit(Event{Kind: KindTurnEnd})
			span.End()
			if followup := a.cfg.Followup.Poll(); len(followup) > 0 {
				pending = followup
				turnIndex++
				continue
			}
			break
		}

		results, steeringAfter := a.executeToolBatch(turnCtx, toolCalls, emit)
		for _, r := range results {
			committed = append(committed, r)
			emit(Event{Kind: KindMessageStart, Message: r})
			emit(Event{Kind: KindMessageEnd, Message: r})
		}
		emit(Event{Kind: KindTurnEnd, TurnToolResults: results})
		span.End()

		pending = steeringAfter
		turnIndex++
	}

	emit(Event{Kind: KindAgentEnd})
	return committed
}

// streamTurn delegates one assistant turn to the provider, re-emitting its
// partial updates as message_start/message_update/message_end. A provider
// error that never produces a result (Stream itself failing) is converted
// into an error assistant message rather than propagating, matching the
// "no exception escapes the stream" contract.
func (a *Agent) streamTurn(ctx context.Context, mctx message.Context, emit func(Event)) *message.Assistant {
	stream, err := a.cfg.StreamFactory(ctx, a.cfg.Model, mctx, a.cfg.ProviderOptions)
	if err != nil {
		a.cfg.Logger.Error("provider stream failed to start", "error", err.Error())
		final := abortOrError(ctx, a.cfg.Model, err)
		emit(Event{Kind: KindMessageStart, Message: message.Message(*final)})
		emit(Event{Kind: KindMessageEnd, Message: message.Message(*final)})
		return final
	}

	started := false
	for ev := range stream.Events() {
		if ev.Partial == nil {
			continue
		}
		if !started {
			started = true
			emit(Event{Kind: KindMessageStart, Message: message.Message(*ev.Partial)})
			continue
		}
		emit(Event{Kind: KindMessageUpdate, Message: message.Message(*ev.Partial)})
	}

	final, resultErr := stream.Result(ctx)
	if resultErr != nil {
		final = abortOrError(ctx, a.cfg.Model, resultErr)
	}
	if !started {
		emit(Event{Kind: KindMessageStart, Message: message.Message(*final)})
	}
	emit(Event{Kind: KindMessageEnd, Message: message.Message(*final)})
	return final
}

func abortOrError(ctx context.Context, d model.Descriptor, err error) *message.Assistant {
	stopReason := message.StopReasonError
	select {
	case <-ctx.Done():
		stopReason = message.StopReasonAborted
	default:
	}
	return &message.Assistant{
		API:          string(d.API),
		Provider:     d.Provider,
		Model:        d.ID,
		StopReason:   stopReason,
		ErrorMessage: err.Error(),
		Timestamp:    message.TimestampMillis(time.Now()),
	}
}
