package agent

import (
	"context"

	"agentwire/pkg/eventstream"
	"agentwire/pkg/message"
	"agentwire/pkg/model"
	"agentwire/pkg/provider"
)

// scriptedFactory is a StreamFactory that pops one scripted turn per call.
// Each turn is a sequence of partial assistant messages (the last one is
// the one returned by Result) plus an optional terminal error.
type scriptedFactory struct {
	turns []scriptedTurn
	calls int
}

type scriptedTurn struct {
	partials         []*message.Assistant
	err              error
	blockUntilCancel bool
}

func (f *scriptedFactory) factory(ctx context.Context, d model.Descriptor, mctx message.Context, opts provider.Options) (*eventstream.Stream[provider.Event, *message.Assistant], error) {
	idx := f.calls
	f.calls++
	if idx >= len(f.turns) {
		panic("scriptedFactory: no more scripted turns")
	}
	turn := f.turns[idx]

	out := eventstream.New[provider.Event, *message.Assistant](8)
	go func() {
		if turn.blockUntilCancel {
			<-ctx.Done()
			out.EndWithoutResult()
			return
		}
		var final *message.Assistant
		for _, p := range turn.partials {
			out.Push(ctx, provider.Event{Kind: provider.KindTextDelta, Partial: p})
			final = p
		}
		if turn.err != nil {
			out.EndWithoutResult()
			return
		}
		out.End(final)
	}()
	return out, nil
}

func textTurn(text string, stopReason message.StopReason) scriptedTurn {
	return scriptedTurn{partials: []*message.Assistant{
		{
			Content:    []message.AssistantContentBlock{message.TextBlock{Text: text}},
			StopReason: stopReason,
		},
	}}
}

func toolCallTurn(calls ...message.ToolCallBlock) scriptedTurn {
	blocks := make([]message.AssistantContentBlock, len(calls))
	for i, c := range calls {
		blocks[i] = c
	}
	return scriptedTurn{partials: []*message.Assistant{
		{Content: blocks, StopReason: message.StopReasonToolUse},
	}}
}

// fakeExecutor runs a scripted function per tool-call id.
type fakeExecutor struct {
	run func(toolCallID string, args map[string]any) (ToolOutput, error)
}

func (f *fakeExecutor) Execute(ctx context.Context, toolCallID string, args map[string]any, onUpdate func(ToolUpdate)) (ToolOutput, error) {
	return f.run(toolCallID, args)
}

func okExecutor(text string) *fakeExecutor {
	return &fakeExecutor{run: func(toolCallID string, args map[string]any) (ToolOutput, error) {
		return ToolOutput{Content: []message.UserContentBlock{message.TextBlock{Text: text}}}, nil
	}}
}
