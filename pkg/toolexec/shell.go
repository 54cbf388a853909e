// Package toolexec bridges a directory of on-disk tool definitions to
// agent.ToolExecutor by shelling out to the executable each definition
// names, mirroring the teacher's execCommand-wrapped exec.Command calls in
// cmd/godex/main.go. Concrete tool behavior lives in whatever process the
// manifest points at; this package only knows how to invoke it.
package toolexec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"agentwire/pkg/agent"
	"agentwire/pkg/message"
)

// Manifest is one tool definition file: its schema plus how to run it.
type Manifest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	Command     string         `json:"command"`
	Args        []string       `json:"args"`
}

// execCommand wraps exec.Command for testability, matching the teacher's
// package-level execCommand var.
var execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}

// LoadDir reads every *.json file directly under dir and parses it as a
// Manifest. Subdirectories are not walked.
func LoadDir(dir string) ([]Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("toolexec: read dir: %w", err)
	}
	var out []Manifest
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("toolexec: read %s: %w", path, err)
		}
		var m Manifest
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("toolexec: parse %s: %w", path, err)
		}
		if m.Name == "" {
			return nil, fmt.Errorf("toolexec: %s: missing \"name\"", path)
		}
		if m.Command == "" {
			return nil, fmt.Errorf("toolexec: %s: missing \"command\"", path)
		}
		out = append(out, m)
	}
	return out, nil
}

// RegisterDir loads every manifest under dir and registers a ShellExecutor
// for each into ts.
func RegisterDir(ts *agent.ToolSet, dir string) error {
	manifests, err := LoadDir(dir)
	if err != nil {
		return err
	}
	for _, m := range manifests {
		ts.Register(message.Tool{Name: m.Name, Description: m.Description, Parameters: m.Parameters}, ShellExecutor{Manifest: m})
	}
	return nil
}

// shellOutput is the JSON contract a tool executable writes to stdout: a
// text result plus optional structured details. Richer content (images)
// is out of scope for a shelled-out tool; a tool needing that returns it
// through Details for the caller to interpret.
type shellOutput struct {
	Text    string         `json:"text"`
	Details map[string]any `json:"details,omitempty"`
	IsError bool           `json:"isError,omitempty"`
}

// ShellExecutor runs a Manifest's command once per call, passing the tool's
// validated arguments as JSON on stdin and reading a shellOutput back from
// stdout. It does not support onUpdate progress; a shelled-out tool reports
// only its final result.
type ShellExecutor struct {
	Manifest Manifest
}

// Execute implements agent.ToolExecutor.
func (s ShellExecutor) Execute(ctx context.Context, toolCallID string, args map[string]any, onUpdate func(agent.ToolUpdate)) (agent.ToolOutput, error) {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return agent.ToolOutput{}, fmt.Errorf("toolexec: marshal args: %w", err)
	}

	cmd := execCommand(ctx, s.Manifest.Command, s.Manifest.Args...)
	cmd.Stdin = bytes.NewReader(argsJSON)
	cmd.Env = append(os.Environ(), "AGENTWIRE_TOOL_CALL_ID="+toolCallID)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	var out shellOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		if runErr != nil {
			return agent.ToolOutput{}, fmt.Errorf("toolexec: %s: %w: %s", s.Manifest.Name, runErr, stderr.String())
		}
		out = shellOutput{Text: stdout.String()}
	}
	if runErr != nil {
		return agent.ToolOutput{}, fmt.Errorf("toolexec: %s: %w: %s", s.Manifest.Name, runErr, stderr.String())
	}
	if out.IsError {
		return agent.ToolOutput{}, fmt.Errorf("toolexec: %s: %s", s.Manifest.Name, out.Text)
	}

	return agent.ToolOutput{
		Content: []message.UserContentBlock{message.TextBlock{Text: out.Text}},
		Details: out.Details,
	}, nil
}
