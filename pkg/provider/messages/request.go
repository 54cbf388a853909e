package messages

import (
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"agentwire/pkg/message"
	"agentwire/pkg/model"
	"agentwire/pkg/provider"
)

// oauthSystemPrompt is prepended ahead of the caller's system prompt
// whenever the resolved credential is an OAuth token rather than a raw API
// key, so the model sees the identity the CLI's own client presents.
const oauthSystemPrompt = "You are Claude Code, Anthropic's official CLI for Claude."

// toolNameToCLI / toolNameFromCLITable translate a caller's snake_case (or
// lowercase) tool name to the CLI's canonical casing and back, only engaged
// in OAuth mode.
var toolNameToCLI = map[string]string{
	"read":  "Read",
	"write": "Write",
	"edit":  "Edit",
	"bash":  "Bash",
	"grep":  "Grep",
	"glob":  "Glob",
}

var toolNameFromCLITable = buildToolNameFromCLI()

func buildToolNameFromCLI() map[string]string {
	out := make(map[string]string, len(toolNameToCLI))
	for k, v := range toolNameToCLI {
		out[v] = k
	}
	return out
}

// isOAuthToken reports whether token looks like a Claude Code OAuth access
// token rather than a raw API key.
func isOAuthToken(token string) bool {
	return strings.Contains(token, "sk-ant-oat")
}

// thinkingBudgets maps a reasoning level to a token budget. The table is
// fixed: provider.Options has no budget field, so a caller cannot override
// an entry.
var thinkingBudgets = map[string]int64{
	"minimal": 1024,
	"low":     2048,
	"medium":  8192,
	"high":    16384,
}

func buildParams(d model.Descriptor, mctx message.Context, opts provider.Options, oauth bool, retention cacheRetention) (anthropic.MessageNewParams, error) {
	params := anthropic.MessageNewParams{Model: anthropic.Model(d.ID)}
	maxTokens := int64(4096)
	if d.MaxTokens != nil {
		maxTokens = int64(*d.MaxTokens)
	}

	var systemBlocks []anthropic.TextBlockParam
	if oauth {
		systemBlocks = append(systemBlocks, anthropic.TextBlockParam{Text: oauthSystemPrompt})
	}
	if mctx.SystemPrompt != "" {
		systemBlocks = append(systemBlocks, anthropic.TextBlockParam{Text: mctx.SystemPrompt})
	}

	toolNames := toolNameToCLI
	if !oauth {
		toolNames = nil
	}

	msgs, err := convertMessages(mctx.Messages, toolNames)
	if err != nil {
		return params, err
	}

	if retention != cacheRetentionNone {
		applyCacheControl(systemBlocks, msgs, retention == cacheRetentionLong && isCanonicalHost(d.BaseURL))
	}
	params.System = systemBlocks
	params.Messages = msgs

	if len(mctx.Tools) > 0 {
		tools, err := convertTools(mctx.Tools, toolNames)
		if err != nil {
			return params, err
		}
		params.Tools = tools
		params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}
	}

	if opts.ReasoningEffort != "" {
		budget, ok := thinkingBudgets[opts.ReasoningEffort]
		if ok {
			maxTokens += budget
			if d.MaxTokens != nil && maxTokens > int64(*d.MaxTokens) {
				maxTokens = int64(*d.MaxTokens)
				if maxTokens-budget < 1024 {
					budget = maxTokens - 1024
					if budget < 0 {
						budget = 0
					}
				}
			}
			if budget > 0 {
				params.Thinking = anthropic.ThinkingConfigParamOfEnabled(budget)
			}
		}
	}
	params.MaxTokens = maxTokens

	return params, nil
}

func isCanonicalHost(baseURL string) bool {
	return baseURL == "" || strings.Contains(baseURL, "api.anthropic.com")
}

func convertMessages(msgs []message.Message, cliToolNames map[string]string) ([]anthropic.MessageParam, error) {
	var out []anthropic.MessageParam
	var pendingToolResults []anthropic.ContentBlockParamUnion
	var pendingImages []anthropic.ContentBlockParamUnion

	flushToolResults := func() {
		if len(pendingToolResults) > 0 {
			out = append(out, anthropic.NewUserMessage(pendingToolResults...))
			pendingToolResults = nil
		}
		if len(pendingImages) > 0 {
			out = append(out, anthropic.NewUserMessage(pendingImages...))
			pendingImages = nil
		}
	}

	for _, m := range msgs {
		switch v := m.(type) {
		case message.User:
			flushToolResults()
			out = append(out, anthropic.NewUserMessage(userBlocks(v)...))
		case message.Assistant:
			flushToolResults()
			blocks, err := assistantBlocks(v, cliToolNames)
			if err != nil {
				return nil, err
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		case message.ToolResult:
			block, images := toolResultBlock(v)
			pendingToolResults = append(pendingToolResults, block)
			pendingImages = append(pendingImages, images...)
		}
	}
	flushToolResults()
	return out, nil
}

func userBlocks(u message.User) []anthropic.ContentBlockParamUnion {
	if !u.IsBlocks() {
		return []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(u.Text)}
	}
	var blocks []anthropic.ContentBlockParamUnion
	for _, b := range u.Blocks {
		switch blk := b.(type) {
		case message.TextBlock:
			blocks = append(blocks, anthropic.NewTextBlock(blk.Text))
		case message.ImageBlock:
			blocks = append(blocks, anthropic.NewImageBlockBase64(blk.Mime, blk.Data))
		}
	}
	return blocks
}

func assistantBlocks(a message.Assistant, cliToolNames map[string]string) ([]anthropic.ContentBlockParamUnion, error) {
	var blocks []anthropic.ContentBlockParamUnion
	for _, b := range a.Content {
		switch blk := b.(type) {
		case message.TextBlock:
			blocks = append(blocks, anthropic.NewTextBlock(blk.Text))
		case message.ThinkingBlock:
			if blk.Signature != "" {
				blocks = append(blocks, anthropic.NewThinkingBlock(blk.Signature, blk.Text))
			}
		case message.ToolCallBlock:
			name := blk.Name
			if cliToolNames != nil {
				if cli, ok := cliToolNames[name]; ok {
					name = cli
				}
			}
			blocks = append(blocks, anthropic.NewToolUseBlock(blk.ID, blk.Arguments, name))
		}
	}
	return blocks, nil
}

// toolResultBlock builds the tool_result content block for tr's text, and
// separately returns any image blocks it carried: the Messages API attaches
// images to a tool_result as a synthetic following user message rather than
// inline, matching the chat-completions provider's same accommodation.
func toolResultBlock(tr message.ToolResult) (anthropic.ContentBlockParamUnion, []anthropic.ContentBlockParamUnion) {
	var text strings.Builder
	var images []anthropic.ContentBlockParamUnion
	for _, b := range tr.Content {
		switch blk := b.(type) {
		case message.TextBlock:
			text.WriteString(blk.Text)
		case message.ImageBlock:
			images = append(images, anthropic.NewImageBlockBase64(blk.Mime, blk.Data))
		}
	}
	return anthropic.NewToolResultBlock(tr.ToolCallID, text.String(), tr.IsError), images
}

func convertTools(tools []message.Tool, cliToolNames map[string]string) ([]anthropic.ToolUnionParam, error) {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		name := t.Name
		if cliToolNames != nil {
			if cli, ok := cliToolNames[name]; ok {
				name = cli
			}
		}
		schema := anthropic.ToolInputSchemaParam{}
		if props, ok := t.Parameters["properties"].(map[string]any); ok {
			schema.Properties = props
		}
		if req, ok := t.Parameters["required"].([]any); ok {
			for _, r := range req {
				if s, ok := r.(string); ok {
					schema.Required = append(schema.Required, s)
				}
			}
		}
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        name,
				Description: anthropic.String(t.Description),
				InputSchema: schema,
			},
		})
	}
	return out, nil
}
