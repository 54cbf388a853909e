// Package message defines the typed message model shared by every provider,
// the cross-provider transform, the agent loop, and the session log: a
// tagged union over role (user, assistant, tool_result), with typed content
// blocks for user and assistant messages.
package message

import "time"

// Role identifies which variant of Message a value holds.
type Role string

const (
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolResult Role = "tool_result"
)

// StopReason is why an assistant message stopped generating.
type StopReason string

const (
	StopReasonStop    StopReason = "stop"
	StopReasonLength  StopReason = "length"
	StopReasonToolUse StopReason = "tool_use"
	StopReasonError   StopReason = "error"
	StopReasonAborted StopReason = "aborted"
)

// Message is the closed set of conversation message kinds. Implementations
// are User, Assistant, and ToolResult.
type Message interface {
	Role() Role
	isMessage()
}

// TimestampMillis returns now in the wire's epoch-millisecond convention.
func TimestampMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// User is a message from the human (or caller) side of the conversation.
// Content is either a plain string or a sequence of UserContentBlock.
type User struct {
	// Text holds plain-string content. Empty when Blocks is used instead.
	Text string
	// Blocks holds block-sequence content. Nil when Text is used instead.
	Blocks    []UserContentBlock
	Timestamp int64
}

func (User) Role() Role { return RoleUser }
func (User) isMessage() {}

// IsBlocks reports whether the user content is a block sequence rather than
// a plain string.
func (u User) IsBlocks() bool { return u.Blocks != nil }

// Assistant is a message produced by the model.
type Assistant struct {
	Content      []AssistantContentBlock
	API          string
	Provider     string
	Model        string
	Usage        Usage
	StopReason   StopReason
	ErrorMessage string
	Timestamp    int64
}

func (Assistant) Role() Role { return RoleAssistant }
func (Assistant) isMessage() {}

// ToolCalls returns the tool-call blocks in content order.
func (a Assistant) ToolCalls() []ToolCallBlock {
	var calls []ToolCallBlock
	for _, b := range a.Content {
		if tc, ok := b.(ToolCallBlock); ok {
			calls = append(calls, tc)
		}
	}
	return calls
}

// TerminatesTurn reports whether this stop reason ends the run without tool
// execution: error/aborted assistant messages produce no tool-result
// children.
func (r StopReason) TerminatesTurn() bool {
	return r == StopReasonError || r == StopReasonAborted
}

// ToolResult is the outcome of executing a single tool call.
type ToolResult struct {
	ToolCallID string
	ToolName   string
	Content    []UserContentBlock
	Details    map[string]any
	IsError    bool
	Timestamp  int64
}

func (ToolResult) Role() Role { return RoleToolResult }
func (ToolResult) isMessage() {}

// Usage carries token-accounting for a single assistant message.
type Usage struct {
	Input       int
	Output      int
	CacheRead   int
	CacheWrite  int
	TotalTokens int
	Cost        UsageCost
}

// UsageCost is the computed dollar cost of a Usage, using a model's
// per-million-token rates.
type UsageCost struct {
	Input      float64
	Output     float64
	CacheRead  float64
	CacheWrite float64
	Total      float64
}

// Tool describes a callable the model may invoke.
type Tool struct {
	Name        string
	Description string
	// Parameters is a JSON-Schema object: {"type":"object", "properties":
	// {...}, "required": [...]}.
	Parameters map[string]any
}

// Context is the full input to a single provider turn: optional system
// prompt, the message history, and the tools the model may call.
type Context struct {
	SystemPrompt string
	Messages     []Message
	Tools        []Tool
}

// Clone returns a shallow copy of the context with its own Messages slice,
// so callers can append without aliasing the original.
func (c Context) Clone() Context {
	msgs := make([]Message, len(c.Messages))
	copy(msgs, c.Messages)
	return Context{SystemPrompt: c.SystemPrompt, Messages: msgs, Tools: c.Tools}
}
