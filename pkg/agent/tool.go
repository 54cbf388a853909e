package agent

import (
	"context"
	"sync"

	"agentwire/pkg/message"
)

// ToolOutput is what a tool's Execute returns on success.
type ToolOutput struct {
	Content []message.UserContentBlock
	Details map[string]any
}

// ToolExecutor is a single callable tool, implemented outside this package
// (concrete tool executors are out of scope here — see spec Non-goals).
// Execute receives the validated arguments and a partial-update callback it
// may invoke any number of times before returning; ctx is the run's shared
// cancellation signal.
type ToolExecutor interface {
	Execute(ctx context.Context, toolCallID string, args map[string]any, onUpdate func(ToolUpdate)) (ToolOutput, error)
}

type registeredTool struct {
	def      message.Tool
	executor ToolExecutor
}

// ToolSet is the set of tools available to a run: their schemas (handed to
// the provider as part of the message context) paired with the executors
// that run them.
type ToolSet struct {
	mu    sync.RWMutex
	tools map[string]registeredTool
}

// NewToolSet returns an empty ToolSet.
func NewToolSet() *ToolSet {
	return &ToolSet{tools: map[string]registeredTool{}}
}

// Register adds or replaces a tool by name.
func (ts *ToolSet) Register(def message.Tool, executor ToolExecutor) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.tools[def.Name] = registeredTool{def: def, executor: executor}
}

// Definitions returns the tool schemas, for attaching to a message.Context.
// The order of the returned schemas is not defined and does not follow
// registration order.
func (ts *ToolSet) Definitions() []message.Tool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	out := make([]message.Tool, 0, len(ts.tools))
	for _, t := range ts.tools {
		out = append(out, t.def)
	}
	return out
}

func (ts *ToolSet) lookup(name string) (registeredTool, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	t, ok := ts.tools[name]
	return t, ok
}
