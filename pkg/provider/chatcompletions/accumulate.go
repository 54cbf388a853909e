package chatcompletions

import (
	"time"

	"agentwire/pkg/message"
	"agentwire/pkg/model"
	"agentwire/pkg/provider"
)

type toolCallState struct {
	contentIdx int
	id         string
	name       string
	rawArgs    string
}

// accumulator folds a sequence of chunks into a single partial (and
// eventually final) assistant message, mirroring the streaming JSON parser's
// running state.
type accumulator struct {
	d model.Descriptor

	content         []message.AssistantContentBlock
	textOpenIdx     int // -1 when no text block is currently open
	thinkingOpenIdx int // -1 when no thinking block is currently open
	reasoningField  string

	toolsByWireIndex map[int]*toolCallState

	usage message.Usage

	final *message.Assistant
	err   error
}

func newAccumulator(d model.Descriptor) *accumulator {
	return &accumulator{
		d:                d,
		textOpenIdx:      -1,
		thinkingOpenIdx:  -1,
		toolsByWireIndex: map[int]*toolCallState{},
	}
}

func (a *accumulator) partial(stopReason message.StopReason) *message.Assistant {
	content := make([]message.AssistantContentBlock, len(a.content))
	copy(content, a.content)
	return &message.Assistant{
		Content:    content,
		API:        string(model.APIChatCompletions),
		Provider:   a.d.Provider,
		Model:      a.d.ID,
		Usage:      a.usage,
		StopReason: stopReason,
		Timestamp:  message.TimestampMillis(time.Now()),
	}
}

func (a *accumulator) apply(c chunk) []provider.Event {
	var events []provider.Event

	if c.Usage != nil {
		input := c.Usage.PromptTokens - c.Usage.PromptTokensDetails.CachedTokens
		if input < 0 {
			input = 0
		}
		a.usage = message.Usage{
			Input:       input,
			Output:      c.Usage.CompletionTokens,
			CacheRead:   c.Usage.PromptTokensDetails.CachedTokens,
			TotalTokens: c.Usage.TotalTokens,
		}
		a.usage.Cost = computeCost(a.d.Cost, a.usage)
	}

	if len(c.Choices) == 0 {
		return events
	}
	choice := c.Choices[0]
	delta := choice.Delta

	if delta.Content != "" {
		idx := a.openText()
		block := a.content[idx].(message.TextBlock)
		block.Text += delta.Content
		a.content[idx] = block
		events = append(events, provider.Event{Kind: provider.KindTextDelta, Index: idx, TextDelta: delta.Content, Partial: a.partial("")})
	}

	if text, field := reasoningDelta(delta); text != "" {
		idx := a.openThinking()
		a.reasoningField = field
		block := a.content[idx].(message.ThinkingBlock)
		block.Text += text
		a.content[idx] = block
		events = append(events, provider.Event{Kind: provider.KindThinkingDelta, Index: idx, TextDelta: text, Partial: a.partial("")})
	}

	for _, tc := range delta.ToolCalls {
		st, ok := a.toolsByWireIndex[tc.Index]
		if !ok {
			a.closeOpenTextAndThinking(&events)
			idx := len(a.content)
			st = &toolCallState{contentIdx: idx, id: tc.ID, name: tc.Function.Name}
			a.toolsByWireIndex[tc.Index] = st
			a.content = append(a.content, message.ToolCallBlock{ID: tc.ID, Name: tc.Function.Name, Arguments: map[string]any{}})
			events = append(events, provider.Event{Kind: provider.KindToolCallStart, Index: idx, ToolCallID: tc.ID, Partial: a.partial("")})
		}
		if tc.ID != "" {
			st.id = tc.ID
		}
		if st.name == "" && tc.Function.Name != "" {
			st.name = tc.Function.Name
		}
		st.rawArgs += tc.Function.Arguments
		args := longestJSONPrefix(st.rawArgs)
		if args == nil {
			args = map[string]any{}
		}
		block := a.content[st.contentIdx].(message.ToolCallBlock)
		block.ID, block.Name, block.Arguments = st.id, st.name, args
		a.content[st.contentIdx] = block
		events = append(events, provider.Event{Kind: provider.KindToolCallDelta, Index: st.contentIdx, ToolCallID: st.id, TextDelta: tc.Function.Arguments, Partial: a.partial("")})
	}

	for _, rd := range delta.ReasoningDetails {
		if rd.Type != "reasoning.encrypted" {
			continue
		}
		for i, b := range a.content {
			if tc, ok := b.(message.ToolCallBlock); ok && tc.ID == rd.ID {
				tc.ThoughtSignature = rd.Data
				a.content[i] = tc
			}
		}
	}

	if choice.FinishReason != "" {
		a.closeOpenTextAndThinking(&events)
		stop := mapFinishReason(choice.FinishReason)
		a.finalize(stop)
	}

	return events
}

func (a *accumulator) openText() int {
	if a.textOpenIdx >= 0 {
		return a.textOpenIdx
	}
	a.thinkingOpenIdx = -1
	idx := len(a.content)
	a.content = append(a.content, message.TextBlock{})
	a.textOpenIdx = idx
	return idx
}

func (a *accumulator) openThinking() int {
	if a.thinkingOpenIdx >= 0 {
		return a.thinkingOpenIdx
	}
	a.textOpenIdx = -1
	idx := len(a.content)
	a.content = append(a.content, message.ThinkingBlock{})
	a.thinkingOpenIdx = idx
	return idx
}

func (a *accumulator) closeOpenTextAndThinking(events *[]provider.Event) {
	if a.textOpenIdx >= 0 {
		*events = append(*events, provider.Event{Kind: provider.KindTextEnd, Index: a.textOpenIdx, Partial: a.partial("")})
		a.textOpenIdx = -1
	}
	if a.thinkingOpenIdx >= 0 {
		*events = append(*events, provider.Event{Kind: provider.KindThinkingEnd, Index: a.thinkingOpenIdx, Partial: a.partial("")})
		a.thinkingOpenIdx = -1
	}
}

func (a *accumulator) finalize(stop message.StopReason) {
	if a.final != nil {
		return
	}
	a.final = a.partial(stop)
	if a.err != nil {
		a.final.ErrorMessage = a.err.Error()
	}
}

func mapFinishReason(reason string) message.StopReason {
	switch reason {
	case "stop":
		return message.StopReasonStop
	case "length":
		return message.StopReasonLength
	case "function_call", "tool_calls":
		return message.StopReasonToolUse
	case "content_filter":
		return message.StopReasonError
	default:
		return message.StopReasonStop
	}
}

func computeCost(rate model.Cost, u message.Usage) message.UsageCost {
	const perMillion = 1_000_000.0
	c := message.UsageCost{
		Input:      float64(u.Input) * rate.Input / perMillion,
		Output:     float64(u.Output) * rate.Output / perMillion,
		CacheRead:  float64(u.CacheRead) * rate.CacheRead / perMillion,
		CacheWrite: float64(u.CacheWrite) * rate.CacheWrite / perMillion,
	}
	c.Total = c.Input + c.Output + c.CacheRead + c.CacheWrite
	return c
}
