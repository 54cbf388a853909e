package agent

import (
	"context"
	"fmt"
	"time"

	"agentwire/pkg/message"
)

// executeToolBatch runs an assistant turn's tool-calls serially (never
// concurrently — see runLoop's single-goroutine contract), polling the
// steering queue after each call finishes. A non-empty poll preempts the
// remaining calls in the batch: they are synthesized as skipped error
// results rather than invoked, and the steering messages are returned for
// the caller to prepend to the next turn.
func (a *Agent) executeToolBatch(ctx context.Context, calls []message.ToolCallBlock, emit func(Event)) ([]message.ToolResult, []message.Message) {
	results := make([]message.ToolResult, 0, len(calls))

	for i, call := range calls {
		emit(Event{Kind: KindToolExecutionStart, ToolCallID: call.ID, ToolName: call.Name})
		result := a.executeOne(ctx, call, emit)
		results = append(results, result)
		emit(Event{Kind: KindToolExecutionEnd, ToolCallID: call.ID, ToolName: call.Name, IsError: result.IsError})

		steer := a.cfg.Steering.Poll()
		if len(steer) == 0 {
			continue
		}
		for _, skipped := range calls[i+1:] {
			emit(Event{Kind: KindToolExecutionStart, ToolCallID: skipped.ID, ToolName: skipped.Name})
			skippedResult := message.ToolResult{
				ToolCallID: skipped.ID,
				ToolName:   skipped.Name,
				Content:    []message.UserContentBlock{message.TextBlock{Text: "Skipped due to queued user message."}},
				IsError:    true,
				Timestamp:  message.TimestampMillis(time.Now()),
			}
			results = append(results, skippedResult)
			emit(Event{Kind: KindToolExecutionEnd, ToolCallID: skipped.ID, ToolName: skipped.Name, IsError: true})
		}
		return results, steer
	}
	return results, nil
}

// executeOne resolves, validates, and invokes a single tool call, turning
// every failure mode (unknown tool, bad arguments, executor error) into an
// error tool-result rather than propagating — the turn always continues.
func (a *Agent) executeOne(ctx context.Context, call message.ToolCallBlock, emit func(Event)) message.ToolResult {
	base := message.ToolResult{
		ToolCallID: call.ID,
		ToolName:   call.Name,
		Timestamp:  message.TimestampMillis(time.Now()),
	}

	tool, ok := a.cfg.Tools.lookup(call.Name)
	if !ok {
		return errorResult(base, fmt.Sprintf("Tool %s not found", call.Name))
	}

	if a.cfg.Validator != nil {
		if err := a.cfg.Validator.Validate(call.Name, tool.def.Parameters, call.Arguments); err != nil {
			return errorResult(base, err.Error())
		}
	}

	toolCtx, span := startToolSpan(ctx, call.Name, call.ID)
	start := time.Now()
	output, err := tool.executor.Execute(toolCtx, call.ID, call.Arguments, func(u ToolUpdate) {
		emit(Event{Kind: KindToolExecutionUpdate, ToolCallID: call.ID, ToolName: call.Name, Update: &u})
	})
	span.End()
	isError := err != nil
	a.cfg.Metrics.recordToolDuration(call.Name, time.Since(start), isError)

	if isError {
		a.cfg.Logger.Warn("tool execution failed", "tool", call.Name, "error", err.Error())
		return errorResult(base, err.Error())
	}

	base.Content = output.Content
	base.Details = output.Details
	return base
}

func errorResult(base message.ToolResult, text string) message.ToolResult {
	base.IsError = true
	base.Content = []message.UserContentBlock{message.TextBlock{Text: text}}
	return base
}
