package message

import (
	"encoding/json"
	"fmt"
)

// wireBlock is the camelCase wire representation of both user and
// assistant content blocks, discriminated by "type". Field names stay camelCase on
// the wire regardless of the internal Go naming.
type wireBlock struct {
	Type             string         `json:"type"`
	Text             string         `json:"text,omitempty"`
	Data             string         `json:"data,omitempty"`
	Mime             string         `json:"mimeType,omitempty"`
	Thinking         string         `json:"thinking,omitempty"`
	Signature        string         `json:"signature,omitempty"`
	ID               string         `json:"id,omitempty"`
	Name             string         `json:"name,omitempty"`
	Arguments        map[string]any `json:"arguments,omitempty"`
	ThoughtSignature string         `json:"thoughtSignature,omitempty"`
}

func marshalUserBlock(b UserContentBlock) wireBlock {
	switch v := b.(type) {
	case TextBlock:
		return wireBlock{Type: "text", Text: v.Text}
	case ImageBlock:
		return wireBlock{Type: "image", Data: v.Data, Mime: v.Mime}
	default:
		return wireBlock{}
	}
}

func marshalAssistantBlock(b AssistantContentBlock) wireBlock {
	switch v := b.(type) {
	case TextBlock:
		return wireBlock{Type: "text", Text: v.Text}
	case ThinkingBlock:
		return wireBlock{Type: "thinking", Thinking: v.Text, Signature: v.Signature}
	case ToolCallBlock:
		return wireBlock{Type: "toolCall", ID: v.ID, Name: v.Name, Arguments: v.Arguments, ThoughtSignature: v.ThoughtSignature}
	default:
		return wireBlock{}
	}
}

func (w wireBlock) toUserBlock() (UserContentBlock, error) {
	switch w.Type {
	case "text":
		return TextBlock{Text: w.Text}, nil
	case "image":
		return ImageBlock{Data: w.Data, Mime: w.Mime}, nil
	default:
		return nil, fmt.Errorf("message: unknown user content block type %q", w.Type)
	}
}

func (w wireBlock) toAssistantBlock() (AssistantContentBlock, error) {
	switch w.Type {
	case "text":
		return TextBlock{Text: w.Text}, nil
	case "thinking":
		return ThinkingBlock{Text: w.Thinking, Signature: w.Signature}, nil
	case "toolCall":
		args := w.Arguments
		if args == nil {
			args = map[string]any{}
		}
		return ToolCallBlock{ID: w.ID, Name: w.Name, Arguments: args, ThoughtSignature: w.ThoughtSignature}, nil
	default:
		return nil, fmt.Errorf("message: unknown assistant content block type %q", w.Type)
	}
}

type wireUsageCost struct {
	Input      float64 `json:"input,omitempty"`
	Output     float64 `json:"output,omitempty"`
	CacheRead  float64 `json:"cacheRead,omitempty"`
	CacheWrite float64 `json:"cacheWrite,omitempty"`
	Total      float64 `json:"total,omitempty"`
}

type wireUsage struct {
	Input       int           `json:"input,omitempty"`
	Output      int           `json:"output,omitempty"`
	CacheRead   int           `json:"cacheRead,omitempty"`
	CacheWrite  int           `json:"cacheWrite,omitempty"`
	TotalTokens int           `json:"totalTokens,omitempty"`
	Cost        wireUsageCost `json:"cost,omitempty"`
}

func marshalUsage(u Usage) wireUsage {
	return wireUsage{
		Input: u.Input, Output: u.Output, CacheRead: u.CacheRead, CacheWrite: u.CacheWrite,
		TotalTokens: u.TotalTokens,
		Cost: wireUsageCost{
			Input: u.Cost.Input, Output: u.Cost.Output,
			CacheRead: u.Cost.CacheRead, CacheWrite: u.Cost.CacheWrite, Total: u.Cost.Total,
		},
	}
}

func (w wireUsage) toUsage() Usage {
	return Usage{
		Input: w.Input, Output: w.Output, CacheRead: w.CacheRead, CacheWrite: w.CacheWrite,
		TotalTokens: w.TotalTokens,
		Cost: UsageCost{
			Input: w.Cost.Input, Output: w.Cost.Output,
			CacheRead: w.Cost.CacheRead, CacheWrite: w.Cost.CacheWrite, Total: w.Cost.Total,
		},
	}
}

// wireMessage is the on-the-wire envelope for any Message, discriminated by
// Role. It is also used by the session log for the "message" entry's
// payload.
type wireMessage struct {
	Role string `json:"role"`

	// user
	Content    *string     `json:"content,omitempty"`
	ContentArr []wireBlock `json:"contentBlocks,omitempty"`

	// assistant
	AssistantContent []wireBlock `json:"assistantContent,omitempty"`
	API              string      `json:"api,omitempty"`
	Provider         string      `json:"provider,omitempty"`
	Model            string      `json:"model,omitempty"`
	Usage            *wireUsage  `json:"usage,omitempty"`
	StopReason       string      `json:"stopReason,omitempty"`
	ErrorMessage     string      `json:"errorMessage,omitempty"`

	// tool_result
	ToolCallID string         `json:"toolCallId,omitempty"`
	ToolName   string         `json:"toolName,omitempty"`
	ToolResult []wireBlock    `json:"toolResultContent,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	IsError    bool           `json:"isError,omitempty"`

	Timestamp int64 `json:"timestamp,omitempty"`
}

// MarshalMessage encodes any Message to its wire JSON form.
func MarshalMessage(m Message) ([]byte, error) {
	w := wireMessage{Role: string(m.Role()), Timestamp: timestampOf(m)}
	switch v := m.(type) {
	case User:
		if v.IsBlocks() {
			blocks := make([]wireBlock, len(v.Blocks))
			for i, b := range v.Blocks {
				blocks[i] = marshalUserBlock(b)
			}
			w.ContentArr = blocks
		} else {
			text := v.Text
			w.Content = &text
		}
	case Assistant:
		blocks := make([]wireBlock, len(v.Content))
		for i, b := range v.Content {
			blocks[i] = marshalAssistantBlock(b)
		}
		w.AssistantContent = blocks
		w.API = v.API
		w.Provider = v.Provider
		w.Model = v.Model
		u := marshalUsage(v.Usage)
		w.Usage = &u
		w.StopReason = string(v.StopReason)
		w.ErrorMessage = v.ErrorMessage
	case ToolResult:
		blocks := make([]wireBlock, len(v.Content))
		for i, b := range v.Content {
			blocks[i] = marshalUserBlock(b)
		}
		w.ToolResult = blocks
		w.ToolCallID = v.ToolCallID
		w.ToolName = v.ToolName
		w.Details = v.Details
		w.IsError = v.IsError
	default:
		return nil, fmt.Errorf("message: unknown message type %T", m)
	}
	return json.Marshal(w)
}

// UnmarshalMessage decodes a Message from its wire JSON form.
func UnmarshalMessage(data []byte) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	switch Role(w.Role) {
	case RoleUser:
		if w.ContentArr != nil {
			blocks := make([]UserContentBlock, len(w.ContentArr))
			for i, b := range w.ContentArr {
				ub, err := b.toUserBlock()
				if err != nil {
					return nil, err
				}
				blocks[i] = ub
			}
			return User{Blocks: blocks, Timestamp: w.Timestamp}, nil
		}
		text := ""
		if w.Content != nil {
			text = *w.Content
		}
		return User{Text: text, Timestamp: w.Timestamp}, nil
	case RoleAssistant:
		blocks := make([]AssistantContentBlock, len(w.AssistantContent))
		for i, b := range w.AssistantContent {
			ab, err := b.toAssistantBlock()
			if err != nil {
				return nil, err
			}
			blocks[i] = ab
		}
		usage := Usage{}
		if w.Usage != nil {
			usage = w.Usage.toUsage()
		}
		return Assistant{
			Content: blocks, API: w.API, Provider: w.Provider, Model: w.Model,
			Usage: usage, StopReason: StopReason(w.StopReason), ErrorMessage: w.ErrorMessage,
			Timestamp: w.Timestamp,
		}, nil
	case RoleToolResult:
		blocks := make([]UserContentBlock, len(w.ToolResult))
		for i, b := range w.ToolResult {
			ub, err := b.toUserBlock()
			if err != nil {
				return nil, err
			}
			blocks[i] = ub
		}
		return ToolResult{
			ToolCallID: w.ToolCallID, ToolName: w.ToolName, Content: blocks,
			Details: w.Details, IsError: w.IsError, Timestamp: w.Timestamp,
		}, nil
	default:
		return nil, fmt.Errorf("message: unknown role %q", w.Role)
	}
}

func timestampOf(m Message) int64 {
	switch v := m.(type) {
	case User:
		return v.Timestamp
	case Assistant:
		return v.Timestamp
	case ToolResult:
		return v.Timestamp
	default:
		return 0
	}
}
