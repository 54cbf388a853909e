package messages

import (
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"agentwire/pkg/message"
	"agentwire/pkg/model"
	"agentwire/pkg/provider"
)

// accumulator folds a sequence of Anthropic stream events into a single
// partial (and eventually final) assistant message, keyed by the content
// block index the wire protocol assigns.
type accumulator struct {
	d     model.Descriptor
	oauth bool

	content   []message.AssistantContentBlock
	blockKind map[int]string // index -> "text" | "thinking" | "tool_use"
	toolArgs  map[int]string // index -> raw accumulated input_json_delta

	usage message.Usage

	final *message.Assistant
	err   error
}

func newAccumulator(d model.Descriptor, oauth bool) *accumulator {
	return &accumulator{
		d:         d,
		oauth:     oauth,
		blockKind: map[int]string{},
		toolArgs:  map[int]string{},
	}
}

func (a *accumulator) partial(stop message.StopReason) *message.Assistant {
	content := make([]message.AssistantContentBlock, len(a.content))
	copy(content, a.content)
	return &message.Assistant{
		Content:    content,
		API:        string(model.APIMessages),
		Provider:   a.d.Provider,
		Model:      a.d.ID,
		Usage:      a.usage,
		StopReason: stop,
		Timestamp:  message.TimestampMillis(time.Now()),
	}
}

func (a *accumulator) ensureIndex(idx int) {
	for len(a.content) <= idx {
		a.content = append(a.content, message.TextBlock{})
	}
}

func (a *accumulator) apply(event anthropic.MessageStreamEventUnion) []provider.Event {
	var events []provider.Event

	switch e := event.AsAny().(type) {
	case anthropic.MessageStartEvent:
		a.usage.Input = int(e.Message.Usage.InputTokens)
		a.usage.CacheRead = int(e.Message.Usage.CacheReadInputTokens)
		a.usage.CacheWrite = int(e.Message.Usage.CacheCreationInputTokens)
		a.usage.Cost = computeCost(a.d.Cost, a.usage)

	case anthropic.ContentBlockStartEvent:
		idx := int(e.Index)
		a.ensureIndex(idx)
		block := e.ContentBlock
		switch block.Type {
		case "text":
			a.blockKind[idx] = "text"
			a.content[idx] = message.TextBlock{}
			events = append(events, provider.Event{Kind: provider.KindTextStart, Index: idx, Partial: a.partial("")})
		case "thinking":
			a.blockKind[idx] = "thinking"
			a.content[idx] = message.ThinkingBlock{}
			events = append(events, provider.Event{Kind: provider.KindThinkingStart, Index: idx, Partial: a.partial("")})
		case "tool_use":
			tu := block.AsToolUse()
			a.blockKind[idx] = "tool_use"
			name := tu.Name
			if a.oauth {
				if mapped, ok := toolNameFromCLITable[name]; ok {
					name = mapped
				}
			}
			a.content[idx] = message.ToolCallBlock{ID: tu.ID, Name: name, Arguments: map[string]any{}}
			events = append(events, provider.Event{Kind: provider.KindToolCallStart, Index: idx, ToolCallID: tu.ID, Partial: a.partial("")})
		}

	case anthropic.ContentBlockDeltaEvent:
		idx := int(e.Index)
		a.ensureIndex(idx)
		delta := e.Delta
		switch delta.Type {
		case "text_delta":
			td := delta.AsTextDelta()
			block := a.content[idx].(message.TextBlock)
			block.Text += td.Text
			a.content[idx] = block
			events = append(events, provider.Event{Kind: provider.KindTextDelta, Index: idx, TextDelta: td.Text, Partial: a.partial("")})
		case "thinking_delta":
			thd := delta.AsThinkingDelta()
			block := a.content[idx].(message.ThinkingBlock)
			block.Text += thd.Thinking
			a.content[idx] = block
			events = append(events, provider.Event{Kind: provider.KindThinkingDelta, Index: idx, TextDelta: thd.Thinking, Partial: a.partial("")})
		case "signature_delta":
			sd := delta.AsSignatureDelta()
			block := a.content[idx].(message.ThinkingBlock)
			block.Signature += sd.Signature
			a.content[idx] = block
		case "input_json_delta":
			jd := delta.AsInputJSONDelta()
			a.toolArgs[idx] += jd.PartialJSON
			args := longestJSONPrefix(a.toolArgs[idx])
			if args == nil {
				args = map[string]any{}
			}
			block := a.content[idx].(message.ToolCallBlock)
			block.Arguments = args
			a.content[idx] = block
			events = append(events, provider.Event{Kind: provider.KindToolCallDelta, Index: idx, TextDelta: jd.PartialJSON, Partial: a.partial("")})
		}

	case anthropic.ContentBlockStopEvent:
		idx := int(e.Index)
		switch a.blockKind[idx] {
		case "text":
			events = append(events, provider.Event{Kind: provider.KindTextEnd, Index: idx, Partial: a.partial("")})
		case "thinking":
			events = append(events, provider.Event{Kind: provider.KindThinkingEnd, Index: idx, Partial: a.partial("")})
		case "tool_use":
			events = append(events, provider.Event{Kind: provider.KindToolCallEnd, Index: idx, Partial: a.partial("")})
		}

	case anthropic.MessageDeltaEvent:
		if e.Usage.OutputTokens > 0 {
			a.usage.Output = int(e.Usage.OutputTokens)
			a.usage.Cost = computeCost(a.d.Cost, a.usage)
		}
		if e.Delta.StopReason != "" {
			a.finalize(mapStopReason(string(e.Delta.StopReason)))
		}

	case anthropic.MessageStopEvent:
		a.finalize(message.StopReasonStop)
	}

	return events
}

// finalize is idempotent: the first stop reason set (from a message_delta
// carrying one, or the closing message_stop as a fallback) wins.
func (a *accumulator) finalize(stop message.StopReason) {
	if a.final != nil {
		return
	}
	a.final = a.partial(stop)
	if a.err != nil {
		a.final.ErrorMessage = a.err.Error()
	}
}

func mapStopReason(reason string) message.StopReason {
	switch reason {
	case "end_turn", "stop_sequence":
		return message.StopReasonStop
	case "max_tokens":
		return message.StopReasonLength
	case "tool_use":
		return message.StopReasonToolUse
	case "refusal", "sensitive":
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
