package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"agentwire/pkg/agent"
	"agentwire/pkg/message"
	"agentwire/pkg/model"
	"agentwire/pkg/session"
)

func TestConfigPathFromArgs(t *testing.T) {
	if got := configPathFromArgs([]string{"--config", "/a/b.yaml", "--prompt", "hi"}); got != "/a/b.yaml" {
		t.Fatalf("got %q", got)
	}
	if got := configPathFromArgs([]string{"--config=/c/d.yaml"}); got != "/c/d.yaml" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveModelByIDOnly(t *testing.T) {
	reg := model.NewRegistry()
	reg.Register(model.Descriptor{ID: "m1", Provider: "anthropic"})

	d, err := resolveModel(reg, "m1", "")
	if err != nil {
		t.Fatalf("resolveModel: %v", err)
	}
	if d.Provider != "anthropic" {
		t.Fatalf("Provider = %q", d.Provider)
	}
}

func TestResolveModelAmbiguousRequiresProvider(t *testing.T) {
	reg := model.NewRegistry()
	reg.Register(model.Descriptor{ID: "shared", Provider: "anthropic"})
	reg.Register(model.Descriptor{ID: "shared", Provider: "openai"})

	if _, err := resolveModel(reg, "shared", ""); err == nil {
		t.Fatal("expected an ambiguity error")
	}
	d, err := resolveModel(reg, "shared", "openai")
	if err != nil {
		t.Fatalf("resolveModel with provider: %v", err)
	}
	if d.Provider != "openai" {
		t.Fatalf("Provider = %q", d.Provider)
	}
}

func TestResolveModelNotFound(t *testing.T) {
	reg := model.NewRegistry()
	if _, err := resolveModel(reg, "nope", ""); err == nil {
		t.Fatal("expected a not-found error")
	}
}

func TestOpenSessionEmptyPathIsInMemory(t *testing.T) {
	mgr, err := openSession("")
	if err != nil {
		t.Fatalf("openSession: %v", err)
	}
	if mgr.Path() != "" {
		t.Fatalf("Path() = %q, want empty for an in-memory session", mgr.Path())
	}
}

func TestOpenSessionWithPathCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.jsonl")
	mgr, err := openSession(path)
	if err != nil {
		t.Fatalf("openSession: %v", err)
	}
	if mgr.Header().Type != "session" {
		t.Fatalf("Header = %+v", mgr.Header())
	}
}

func TestAppendNewMessagesOnlyAppendsTail(t *testing.T) {
	mgr := session.InMemory()
	before := []message.Message{message.User{Text: "hi"}}
	if _, err := mgr.AppendMessage(before[0]); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	after := append(append([]message.Message{}, before...),
		message.Assistant{StopReason: message.StopReasonStop})

	if err := appendNewMessages(mgr, before, after); err != nil {
		t.Fatalf("appendNewMessages: %v", err)
	}
	if len(mgr.Messages()) != 2 {
		t.Fatalf("len(Messages()) = %d, want 2", len(mgr.Messages()))
	}
}

func TestWriteEventJSONEmitsOneLineWithKindName(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	writeEventJSON(w, agent.Event{Kind: agent.KindAgentStart})

	var decoded map[string]any
	if err := json.Unmarshal(bytes.TrimRight(buf.Bytes(), "\n"), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["kind"] != "agent_start" {
		t.Fatalf("kind = %v, want agent_start", decoded["kind"])
	}
}
