package toolexec

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"agentwire/pkg/agent"
)

func writeManifest(t *testing.T, dir, filename string, m Manifest) {
	t.Helper()
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoadDirParsesManifests(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "read.json", Manifest{
		Name: "read", Description: "reads a file",
		Parameters: map[string]any{"type": "object"},
		Command:    "/bin/cat",
	})
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	manifests, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(manifests) != 1 || manifests[0].Name != "read" {
		t.Fatalf("manifests = %+v", manifests)
	}
}

func TestLoadDirRejectsMissingCommand(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "bad.json", Manifest{Name: "bad"})

	if _, err := LoadDir(dir); err == nil {
		t.Fatal("expected an error for a manifest with no command")
	}
}

func TestShellExecutorRunsCommandAndParsesOutput(t *testing.T) {
	m := Manifest{
		Name:    "echo_tool",
		Command: "/bin/sh",
		Args:    []string{"-c", `printf '{"text":"hello from tool"}'`},
	}
	ex := ShellExecutor{Manifest: m}

	out, err := ex.Execute(context.Background(), "call_1", map[string]any{"x": 1}, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(out.Content) != 1 {
		t.Fatalf("Content = %+v", out.Content)
	}
}

func TestShellExecutorPropagatesNonZeroExit(t *testing.T) {
	m := Manifest{Name: "fail_tool", Command: "/bin/sh", Args: []string{"-c", "exit 1"}}
	ex := ShellExecutor{Manifest: m}

	if _, err := ex.Execute(context.Background(), "call_1", nil, nil); err == nil {
		t.Fatal("expected an error for a nonzero exit")
	}
}

func TestShellExecutorTreatsIsErrorAsFailure(t *testing.T) {
	m := Manifest{
		Name:    "reports_error",
		Command: "/bin/sh",
		Args:    []string{"-c", `printf '{"text":"bad input","isError":true}'`},
	}
	ex := ShellExecutor{Manifest: m}

	if _, err := ex.Execute(context.Background(), "call_1", nil, nil); err == nil {
		t.Fatal("expected an error when the tool reports isError")
	}
}

func TestRegisterDirAddsToolsToSet(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "echo.json", Manifest{
		Name: "echo_tool", Description: "echoes", Command: "/bin/sh", Args: []string{"-c", "cat"},
	})

	ts := agent.NewToolSet()
	if err := RegisterDir(ts, dir); err != nil {
		t.Fatalf("RegisterDir: %v", err)
	}
	defs := ts.Definitions()
	if len(defs) != 1 || defs[0].Name != "echo_tool" {
		t.Fatalf("Definitions = %+v", defs)
	}
}
