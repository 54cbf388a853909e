// Package agent implements the turn-scheduling state machine: it drives a
// provider through one or more turns, dispatches tool calls between them,
// and accepts steering and follow-up messages from the caller while a run
// is in progress. See pkg/eventstream for the event-stream primitive this
// package's own output is built on.
package agent

import "agentwire/pkg/message"

// Kind identifies the shape of an agent-level event.
type Kind int

const (
	KindAgentStart Kind = iota
	KindTurnStart
	KindMessageStart
	KindMessageUpdate
	KindMessageEnd
	KindToolExecutionStart
	KindToolExecutionUpdate
	KindToolExecutionEnd
	KindTurnEnd
	KindAgentEnd
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindAgentStart:
		return "agent_start"
	case KindTurnStart:
		return "turn_start"
	case KindMessageStart:
		return "message_start"
	case KindMessageUpdate:
		return "message_update"
	case KindMessageEnd:
		return "message_end"
	case KindToolExecutionStart:
		return "tool_execution_start"
	case KindToolExecutionUpdate:
		return "tool_execution_update"
	case KindToolExecutionEnd:
		return "tool_execution_end"
	case KindTurnEnd:
		return "turn_end"
	case KindAgentEnd:
		return "agent_end"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// ToolUpdate is an intermediate progress report a tool's execute function
// may push any number of times before returning.
type ToolUpdate struct {
	Content []message.UserContentBlock
	Details map[string]any
}

// Event is a single unit of agent-level output. Only the fields relevant to
// Kind are meaningful for a given event.
type Event struct {
	Kind Kind

	// Message carries the committed or in-flight message for
	// message_start/message_update/message_end.
	Message message.Message

	// ToolCallID/ToolName identify the call for every tool_execution_* kind.
	ToolCallID string
	ToolName   string

	// Update carries the tool's reported progress for tool_execution_update.
	Update *ToolUpdate

	// IsError is set on tool_execution_end.
	IsError bool

	// TurnToolResults carries the tool-results produced during the turn
	// that just ended, in execution order (empty for a turn that produced
	// no tool-calls, or that ended in error/aborted).
	TurnToolResults []message.ToolResult

	// Err carries the triggering error for a Kind == KindError event.
	Err error
}
