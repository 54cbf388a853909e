package message

// UserContentBlock is the closed set of blocks allowed in user and
// tool-result content: text or image.
type UserContentBlock interface {
	isUserContentBlock()
}

// AssistantContentBlock is the closed set of blocks an assistant message may
// contain: text, thinking, or a tool call.
type AssistantContentBlock interface {
	isAssistantContentBlock()
}

// TextBlock is plain text content. Valid in both user and assistant content.
type TextBlock struct {
	Text string
}

func (TextBlock) isUserContentBlock()      {}
func (TextBlock) isAssistantContentBlock() {}

// ImageBlock is inline base64 image data. Valid in user and tool-result
// content.
type ImageBlock struct {
	Data string
	Mime string
}

func (ImageBlock) isUserContentBlock() {}

// ThinkingBlock is a model's extended-reasoning output. Assistant-only.
type ThinkingBlock struct {
	Text      string
	Signature string
}

func (ThinkingBlock) isAssistantContentBlock() {}

// HasSignature reports whether the block carries a provider-issued
// signature, which governs whether it may round-trip to the same provider
// unmodified (see pkg/transform).
func (t ThinkingBlock) HasSignature() bool { return t.Signature != "" }

// ToolCallBlock is a model's request to invoke a named tool with JSON-object
// arguments. Assistant-only.
type ToolCallBlock struct {
	ID              string
	Name            string
	Arguments       map[string]any
	ThoughtSignature string
}

func (ToolCallBlock) isAssistantContentBlock() {}

// WithoutSignature returns a copy of the tool call with ThoughtSignature
// cleared, used when handing a tool call off to a different provider.
func (t ToolCallBlock) WithoutSignature() ToolCallBlock {
	t.ThoughtSignature = ""
	return t
}
