package transform

import (
	"testing"

	"agentwire/pkg/message"
	"agentwire/pkg/model"
)

func TestInsertsToolResultForOrphanToolCall(t *testing.T) {
	assistant := message.Assistant{
		Content:    []message.AssistantContentBlock{message.ToolCallBlock{ID: "tool-1", Name: "echo", Arguments: map[string]any{"value": "hi"}}},
		StopReason: message.StopReasonToolUse,
	}
	user := message.User{Text: "follow up"}

	out := Messages([]message.Message{assistant, user}, model.Descriptor{}, nil)

	if len(out) != 3 {
		t.Fatalf("expected 3 messages, got %d: %+v", len(out), out)
	}
	if out[0].Role() != message.RoleAssistant || out[1].Role() != message.RoleToolResult || out[2].Role() != message.RoleUser {
		t.Fatalf("unexpected role order: %v %v %v", out[0].Role(), out[1].Role(), out[2].Role())
	}
	tr := out[1].(message.ToolResult)
	if !tr.IsError || tr.ToolCallID != "tool-1" {
		t.Fatalf("expected synthetic error tool result for tool-1, got %+v", tr)
	}
}

func TestToolCallIDNormalization(t *testing.T) {
	assistant := message.Assistant{
		Content:    []message.AssistantContentBlock{message.ToolCallBlock{ID: "orig", Name: "echo", Arguments: map[string]any{"value": "hi"}}},
		StopReason: message.StopReasonToolUse,
		Provider:   "openai",
	}
	toolResult := message.ToolResult{ToolCallID: "orig", ToolName: "echo", Content: []message.UserContentBlock{message.TextBlock{Text: "ok"}}}

	normalize := func(id string, d model.Descriptor, source message.Assistant) string { return "normalized" }

	out := Messages([]message.Message{assistant, toolResult}, model.Descriptor{}, normalize)

	tr := out[1].(message.ToolResult)
	if tr.ToolCallID != "normalized" {
		t.Fatalf("expected normalized tool_call_id, got %q", tr.ToolCallID)
	}
	tc := out[0].(message.Assistant).Content[0].(message.ToolCallBlock)
	if tc.ID != "normalized" {
		t.Fatalf("expected assistant's own tool call id rewritten too, got %q", tc.ID)
	}
}

func TestCrossProviderStripsThoughtSignature(t *testing.T) {
	source := model.Descriptor{Provider: "openai", API: model.APIChatCompletions, ID: "gpt-4o"}
	assistant := message.Assistant{
		Content: []message.AssistantContentBlock{
			message.TextBlock{Text: "hi"},
			message.ToolCallBlock{ID: "tool-1", Name: "echo", Arguments: map[string]any{"value": "hi"}, ThoughtSignature: "sig"},
		},
		Provider: source.Provider,
		API:      string(source.API),
		Model:    source.ID,
	}

	target := model.Descriptor{Provider: "anthropic", API: model.APIMessages, ID: "claude-sonnet-4-20250514"}
	out := Messages([]message.Message{assistant}, target, nil)

	tc := out[0].(message.Assistant).Content[1].(message.ToolCallBlock)
	if tc.ThoughtSignature != "" {
		t.Fatalf("expected thought signature stripped across providers, got %q", tc.ThoughtSignature)
	}
}

func TestSameModelPreservesSignedThinking(t *testing.T) {
	d := model.Descriptor{Provider: "anthropic", API: model.APIMessages, ID: "claude-sonnet-4-20250514"}
	assistant := message.Assistant{
		Content:  []message.AssistantContentBlock{message.ThinkingBlock{Text: "reasoning", Signature: "sig"}},
		Provider: d.Provider,
		API:      string(d.API),
		Model:    d.ID,
	}

	out := Messages([]message.Message{assistant}, d, nil)

	block := out[0].(message.Assistant).Content[0].(message.ThinkingBlock)
	if block.Signature != "sig" {
		t.Fatalf("expected signed thinking preserved for same model, got %+v", block)
	}
}

func TestCrossModelConvertsUnsignedThinkingToText(t *testing.T) {
	source := model.Descriptor{Provider: "openai", API: model.APIChatCompletions, ID: "gpt-4o"}
	assistant := message.Assistant{
		Content:  []message.AssistantContentBlock{message.ThinkingBlock{Text: "reasoning"}},
		Provider: source.Provider,
		API:      string(source.API),
		Model:    source.ID,
	}

	target := model.Descriptor{Provider: "anthropic", API: model.APIMessages, ID: "claude-sonnet-4-20250514"}
	out := Messages([]message.Message{assistant}, target, nil)

	block := out[0].(message.Assistant).Content[0].(message.TextBlock)
	if block.Text != "reasoning" {
		t.Fatalf("expected thinking converted to text, got %+v", block)
	}
}

func TestErrorAssistantDoesNotOrphanItsCalls(t *testing.T) {
	assistant := message.Assistant{
		Content:    []message.AssistantContentBlock{message.ToolCallBlock{ID: "tool-1", Name: "echo", Arguments: map[string]any{}}},
		StopReason: message.StopReasonError,
	}
	out := Messages([]message.Message{assistant}, model.Descriptor{}, nil)
	if len(out) != 0 {
		t.Fatalf("expected the errored assistant message itself to be dropped, got %+v", out)
	}
}

func TestMistralToolCallIDNormalizesAndIsDeterministic(t *testing.T) {
	d := model.Descriptor{Provider: "mistral"}
	a := message.Assistant{}
	id1 := MistralToolCallID("call_abcdefghij", d, a)
	id2 := MistralToolCallID("call_abcdefghij", d, a)
	if len(id1) != mistralIDLength {
		t.Fatalf("expected %d-char id, got %q", mistralIDLength, id1)
	}
	if id1 != id2 {
		t.Fatalf("expected deterministic normalization, got %q then %q", id1, id2)
	}
}

func TestMistralToolCallIDLeavesValidIDsAlone(t *testing.T) {
	d := model.Descriptor{Provider: "mistral"}
	id := "abc123XYZ"
	if got := MistralToolCallID(id, d, message.Assistant{}); got != id {
		t.Fatalf("expected already-valid id untouched, got %q", got)
	}
}
