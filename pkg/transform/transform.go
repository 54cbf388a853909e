// Package transform normalizes a message history for handoff to a specific
// target model: it strips content a provider can't safely round-trip
// (mismatched thinking signatures, a tool call's signed thought blob) and
// remaps tool-call ids that a provider's grammar can't accept as-is, then
// synthesizes error tool results for any tool call left unanswered.
package transform

import (
	"time"

	"agentwire/pkg/message"
	"agentwire/pkg/model"
)

// IDNormalizer rewrites a tool-call id for the target model, returning the
// same id when no rewrite is needed. Different providers constrain tool-call
// ids differently (length, charset, prefix); see normalize.go for the
// per-provider variants.
type IDNormalizer func(id string, d model.Descriptor, source message.Assistant) string

// Messages rewrites msgs for a turn targeting d, applying normalizeID (if
// non-nil) to any tool-call id minted by a different model and inserting a
// synthetic error tool result for any tool call that was never answered.
func Messages(msgs []message.Message, d model.Descriptor, normalizeID IDNormalizer) []message.Message {
	idMap := map[string]string{}
	transformed := make([]message.Message, 0, len(msgs))

	for _, m := range msgs {
		switch v := m.(type) {
		case message.User:
			transformed = append(transformed, v)

		case message.ToolResult:
			if normalized, ok := idMap[v.ToolCallID]; ok && normalized != v.ToolCallID {
				v.ToolCallID = normalized
			}
			transformed = append(transformed, v)

		case message.Assistant:
			transformed = append(transformed, normalizeAssistant(v, d, normalizeID, idMap))

		default:
			transformed = append(transformed, m)
		}
	}

	return flushOrphanedToolCalls(transformed)
}

func sameModel(a message.Assistant, d model.Descriptor) bool {
	return a.Provider == d.Provider && a.API == string(d.API) && a.Model == d.ID
}

func normalizeAssistant(a message.Assistant, d model.Descriptor, normalizeID IDNormalizer, idMap map[string]string) message.Assistant {
	same := sameModel(a, d)

	content := make([]message.AssistantContentBlock, 0, len(a.Content))
	for _, b := range a.Content {
		switch blk := b.(type) {
		case message.ThinkingBlock:
			if same && blk.HasSignature() {
				content = append(content, blk)
				continue
			}
			if blk.Text == "" {
				continue
			}
			if same {
				content = append(content, blk)
			} else {
				content = append(content, message.TextBlock{Text: blk.Text})
			}

		case message.TextBlock:
			content = append(content, blk)

		case message.ToolCallBlock:
			tc := blk
			if !same && tc.ThoughtSignature != "" {
				tc = tc.WithoutSignature()
			}
			if !same && normalizeID != nil {
				if normalized := normalizeID(tc.ID, d, a); normalized != tc.ID {
					idMap[tc.ID] = normalized
					tc.ID = normalized
				}
			}
			content = append(content, tc)

		default:
			content = append(content, b)
		}
	}

	a.Content = content
	return a
}

// flushOrphanedToolCalls inserts a synthetic error ToolResult for any tool
// call an assistant message made that the history never answers before the
// next user message, the next assistant turn, or the end of the
// conversation.
func flushOrphanedToolCalls(msgs []message.Message) []message.Message {
	result := make([]message.Message, 0, len(msgs))
	var pending []message.ToolCallBlock
	answered := map[string]bool{}

	flush := func() {
		for _, tc := range pending {
			if !answered[tc.ID] {
				result = append(result, message.ToolResult{
					ToolCallID: tc.ID,
					ToolName:   tc.Name,
					Content:    []message.UserContentBlock{message.TextBlock{Text: "No result provided"}},
					IsError:    true,
					Timestamp:  message.TimestampMillis(time.Now()),
				})
			}
		}
		pending = nil
		answered = map[string]bool{}
	}

	for _, m := range msgs {
		switch v := m.(type) {
		case message.Assistant:
			if len(pending) > 0 {
				flush()
			}
			if v.StopReason.TerminatesTurn() {
				continue
			}
			if calls := v.ToolCalls(); len(calls) > 0 {
				pending = calls
			}
			result = append(result, v)

		case message.ToolResult:
			answered[v.ToolCallID] = true
			result = append(result, v)

		case message.User:
			if len(pending) > 0 {
				flush()
			}
			result = append(result, v)

		default:
			result = append(result, m)
		}
	}
	if len(pending) > 0 {
		flush()
	}

	return result
}
