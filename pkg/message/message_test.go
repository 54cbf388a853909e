package message_test

import (
	"testing"

	"agentwire/pkg/message"
)

func roundTrip(t *testing.T, m message.Message) message.Message {
	t.Helper()
	data, err := message.MarshalMessage(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := message.UnmarshalMessage(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return got
}

func TestRoundTripUserText(t *testing.T) {
	m := message.User{Text: "hello", Timestamp: 1234}
	got := roundTrip(t, m)
	u, ok := got.(message.User)
	if !ok || u.Text != "hello" || u.Timestamp != 1234 {
		t.Fatalf("got %#v", got)
	}
}

func TestRoundTripUserBlocks(t *testing.T) {
	m := message.User{Blocks: []message.UserContentBlock{
		message.TextBlock{Text: "look at this"},
		message.ImageBlock{Data: "YWJj", Mime: "image/png"},
	}}
	got := roundTrip(t, m)
	u, ok := got.(message.User)
	if !ok || len(u.Blocks) != 2 {
		t.Fatalf("got %#v", got)
	}
	if _, ok := u.Blocks[0].(message.TextBlock); !ok {
		t.Fatalf("block 0 not text: %#v", u.Blocks[0])
	}
	img, ok := u.Blocks[1].(message.ImageBlock)
	if !ok || img.Mime != "image/png" {
		t.Fatalf("block 1 not image: %#v", u.Blocks[1])
	}
}

func TestRoundTripAssistantAllBlocks(t *testing.T) {
	m := message.Assistant{
		Content: []message.AssistantContentBlock{
			message.TextBlock{Text: "thinking aloud"},
			message.ThinkingBlock{Text: "reasoning", Signature: "sig-1"},
			message.ToolCallBlock{ID: "call_1", Name: "echo", Arguments: map[string]any{"value": "hi"}},
		},
		API: "messages", Provider: "anthropic", Model: "claude-x",
		Usage:      message.Usage{Input: 10, Output: 5, Cost: message.UsageCost{Total: 0.01}},
		StopReason: message.StopReasonToolUse,
	}
	got := roundTrip(t, m)
	a, ok := got.(message.Assistant)
	if !ok || len(a.Content) != 3 {
		t.Fatalf("got %#v", got)
	}
	tc, ok := a.Content[2].(message.ToolCallBlock)
	if !ok || tc.Name != "echo" || tc.Arguments["value"] != "hi" {
		t.Fatalf("tool call block wrong: %#v", a.Content[2])
	}
	if a.StopReason != message.StopReasonToolUse {
		t.Fatalf("stop reason wrong: %v", a.StopReason)
	}
}

func TestRoundTripToolResult(t *testing.T) {
	m := message.ToolResult{
		ToolCallID: "call_1", ToolName: "echo",
		Content: []message.UserContentBlock{message.TextBlock{Text: "ok"}},
		IsError: true,
	}
	got := roundTrip(t, m)
	tr, ok := got.(message.ToolResult)
	if !ok || !tr.IsError || tr.ToolCallID != "call_1" {
		t.Fatalf("got %#v", got)
	}
}

func TestStopReasonTerminatesTurn(t *testing.T) {
	cases := map[message.StopReason]bool{
		message.StopReasonStop:    false,
		message.StopReasonLength:  false,
		message.StopReasonToolUse: false,
		message.StopReasonError:   true,
		message.StopReasonAborted: true,
	}
	for reason, want := range cases {
		if got := reason.TerminatesTurn(); got != want {
			t.Errorf("%v.TerminatesTurn() = %v, want %v", reason, got, want)
		}
	}
}
