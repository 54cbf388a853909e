package chatcompletions

import (
	"encoding/json"
	"fmt"
	"strings"

	"agentwire/pkg/message"
	"agentwire/pkg/model"
	"agentwire/pkg/provider"
	"agentwire/pkg/toolschema"
)

// normalizeBaseURL appends "/v1" and "/chat/completions" when the caller's
// base URL omits them, so a bare "https://api.example.com" and a fully
// qualified "https://api.example.com/v1/chat/completions" both work.
func normalizeBaseURL(base string) string {
	base = strings.TrimRight(base, "/")
	if !strings.Contains(base, "/v1") {
		base += "/v1"
	}
	if !strings.HasSuffix(base, "/chat/completions") {
		base += "/chat/completions"
	}
	return base
}

// buildRequest turns a message context into the JSON body for a
// chat/completions streaming request, applying the resolved compat quirks.
func buildRequest(d model.Descriptor, mctx message.Context, compat model.Compat, opts provider.Options) (map[string]any, error) {
	body := map[string]any{
		"model":  d.ID,
		"stream": true,
	}

	var msgs []map[string]any

	if mctx.SystemPrompt != "" {
		role := "system"
		if d.Reasoning && model.Bool(compat.SupportsDeveloperRole) {
			role = "developer"
		}
		msgs = append(msgs, map[string]any{"role": role, "content": mctx.SystemPrompt})
	}

	for _, m := range mctx.Messages {
		encoded, err := encodeMessage(m, d, compat)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, encoded...)
	}
	body["messages"] = msgs

	if len(mctx.Tools) > 0 {
		body["tools"] = encodeTools(mctx.Tools, compat)
		body["tool_choice"] = "auto"
	} else if hasToolHistory(mctx.Messages) {
		body["tools"] = []any{}
	}

	if model.Bool(compat.SupportsStore) {
		body["store"] = true
	}

	maxTokensField := compat.MaxTokensField
	if maxTokensField == "" {
		maxTokensField = model.MaxTokensFieldClassic
	}
	if d.MaxTokens != nil {
		body[string(maxTokensField)] = *d.MaxTokens
	}

	if opts.ReasoningEffort != "" {
		effort := d.ClampReasoningEffort(opts.ReasoningEffort)
		switch compat.ThinkingFormat {
		case model.ThinkingFormatZAI:
			body["thinking"] = map[string]any{"type": "enabled"}
		case model.ThinkingFormatQwen:
			body["enable_thinking"] = true
		default:
			if model.Bool(compat.SupportsReasoningEffort) {
				body["reasoning_effort"] = effort
			}
		}
	}

	if len(compat.OpenRouterRouting) > 0 {
		body["provider"] = compat.OpenRouterRouting
	}
	if len(compat.VercelGatewayRouting) > 0 {
		body["gateway"] = compat.VercelGatewayRouting
	}

	return body, nil
}

func hasToolHistory(msgs []message.Message) bool {
	for _, m := range msgs {
		if a, ok := m.(message.Assistant); ok && len(a.ToolCalls()) > 0 {
			return true
		}
	}
	return false
}

func encodeTools(tools []message.Tool, compat model.Compat) []map[string]any {
	out := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		params := t.Parameters
		entry := map[string]any{"type": "function"}
		fn := map[string]any{
			"name":        t.Name,
			"description": t.Description,
		}
		if model.Bool(compat.SupportsStrictMode) {
			fn["strict"] = true
			if normalized, ok := toolschema.NormalizeStrict(cloneParams(params)).(map[string]any); ok {
				params = normalized
			}
		}
		fn["parameters"] = params
		entry["function"] = fn
		out = append(out, entry)
	}
	return out
}

// cloneParams deep-copies a JSON-Schema object so strict-mode normalization
// can mutate it in place without affecting the caller's original tool
// definition, which may be reused across models with different quirks.
func cloneParams(params map[string]any) any {
	raw, err := json.Marshal(params)
	if err != nil {
		return params
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return params
	}
	return out
}

// encodeMessage returns one or more chat-completions messages for a single
// conversation message (a tool-result with images may expand into two).
func encodeMessage(m message.Message, d model.Descriptor, compat model.Compat) ([]map[string]any, error) {
	switch v := m.(type) {
	case message.User:
		return []map[string]any{encodeUser(v, d)}, nil
	case message.Assistant:
		return encodeAssistant(v, compat), nil
	case message.ToolResult:
		return encodeToolResult(v, d, compat), nil
	default:
		return nil, fmt.Errorf("chatcompletions: unknown message type %T", m)
	}
}

func encodeUser(u message.User, d model.Descriptor) map[string]any {
	if !u.IsBlocks() {
		return map[string]any{"role": "user", "content": u.Text}
	}
	var parts []map[string]any
	for _, b := range u.Blocks {
		switch blk := b.(type) {
		case message.TextBlock:
			parts = append(parts, map[string]any{"type": "text", "text": blk.Text})
		case message.ImageBlock:
			if !d.AcceptsImages() {
				continue
			}
			parts = append(parts, map[string]any{
				"type": "image_url",
				"image_url": map[string]any{
					"url": fmt.Sprintf("data:%s;base64,%s", blk.Mime, blk.Data),
				},
			})
		}
	}
	return map[string]any{"role": "user", "content": parts}
}

func encodeAssistant(a message.Assistant, compat model.Compat) []map[string]any {
	msg := map[string]any{"role": "assistant"}

	var textParts []string
	var toolCalls []map[string]any
	var reasoningDetails []map[string]any
	var thinkingText string

	for _, b := range a.Content {
		switch blk := b.(type) {
		case message.TextBlock:
			textParts = append(textParts, blk.Text)
		case message.ThinkingBlock:
			if model.Bool(compat.RequiresThinkingAsText) {
				thinkingText += blk.Text
			} else {
				msg["reasoning_content"] = blk.Text
				if blk.Signature != "" {
					reasoningDetails = append(reasoningDetails, map[string]any{
						"type": "reasoning.encrypted",
						"data": blk.Signature,
					})
				}
			}
		case message.ToolCallBlock:
			args, _ := json.Marshal(blk.Arguments)
			toolCalls = append(toolCalls, map[string]any{
				"id":   blk.ID,
				"type": "function",
				"function": map[string]any{
					"name":      blk.Name,
					"arguments": string(args),
				},
			})
		}
	}

	content := strings.Join(textParts, "")
	if thinkingText != "" {
		content = thinkingText + content
	}
	msg["content"] = content

	if len(toolCalls) > 0 {
		msg["tool_calls"] = toolCalls
	}
	if len(reasoningDetails) > 0 {
		msg["reasoning_details"] = reasoningDetails
	}

	return []map[string]any{msg}
}

func encodeToolResult(tr message.ToolResult, d model.Descriptor, compat model.Compat) []map[string]any {
	var textParts []string
	var images []message.ImageBlock
	for _, b := range tr.Content {
		switch blk := b.(type) {
		case message.TextBlock:
			textParts = append(textParts, blk.Text)
		case message.ImageBlock:
			images = append(images, blk)
		}
	}

	toolMsg := map[string]any{
		"role":         "tool",
		"tool_call_id": tr.ToolCallID,
		"content":      strings.Join(textParts, ""),
	}
	if model.Bool(compat.RequiresToolResultName) {
		toolMsg["name"] = tr.ToolName
	}

	out := []map[string]any{toolMsg}
	if len(images) == 0 || !d.AcceptsImages() {
		return out
	}

	if model.Bool(compat.RequiresAssistantAfterTool) {
		out = append(out, map[string]any{"role": "assistant", "content": "Here is the image result:"})
	}

	var parts []map[string]any
	for _, img := range images {
		parts = append(parts, map[string]any{
			"type":      "image_url",
			"image_url": map[string]any{"url": fmt.Sprintf("data:%s;base64,%s", img.Mime, img.Data)},
		})
	}
	out = append(out, map[string]any{"role": "user", "content": parts})
	return out
}
