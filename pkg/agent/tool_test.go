package agent

import (
	"testing"

	"agentwire/pkg/message"
)

func TestToolSet_RegisterAndLookup(t *testing.T) {
	ts := NewToolSet()
	ts.Register(message.Tool{Name: "echo", Description: "echoes input"}, okExecutor("x"))

	tool, ok := ts.lookup("echo")
	if !ok {
		t.Fatal("expected echo to be registered")
	}
	if tool.def.Description != "echoes input" {
		t.Fatalf("unexpected def: %+v", tool.def)
	}

	if _, ok := ts.lookup("missing"); ok {
		t.Fatal("expected missing tool to be absent")
	}
}

func TestToolSet_RegisterReplacesByName(t *testing.T) {
	ts := NewToolSet()
	ts.Register(message.Tool{Name: "echo", Description: "v1"}, okExecutor("x"))
	ts.Register(message.Tool{Name: "echo", Description: "v2"}, okExecutor("y"))

	defs := ts.Definitions()
	if len(defs) != 1 {
		t.Fatalf("expected a single definition after replace, got %d", len(defs))
	}
	if defs[0].Description != "v2" {
		t.Fatalf("expected replaced definition, got %+v", defs[0])
	}
}

func TestToolSet_DefinitionsEmptyByDefault(t *testing.T) {
	ts := NewToolSet()
	if defs := ts.Definitions(); len(defs) != 0 {
		t.Fatalf("expected no definitions, got %+v", defs)
	}
}
