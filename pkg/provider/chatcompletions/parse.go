package chatcompletions

import (
	"encoding/json"
	"io"
	"strings"

	"agentwire/pkg/sse"
)

type toolCallDelta struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type reasoningDetail struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Data string `json:"data"`
}

type delta struct {
	Content          string            `json:"content"`
	ReasoningContent string            `json:"reasoning_content"`
	Reasoning        string            `json:"reasoning"`
	ReasoningText    string            `json:"reasoning_text"`
	ToolCalls        []toolCallDelta   `json:"tool_calls"`
	ReasoningDetails []reasoningDetail `json:"reasoning_details"`
}

// chunk is the subset of a chat/completions streaming JSON object we care
// about; fields absent from a given provider's payload simply decode zero.
type chunk struct {
	Choices []struct {
		Delta        delta  `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens        int `json:"prompt_tokens"`
		CompletionTokens    int `json:"completion_tokens"`
		TotalTokens         int `json:"total_tokens"`
		PromptTokensDetails struct {
			CachedTokens int `json:"cached_tokens"`
		} `json:"prompt_tokens_details"`
		CompletionTokensDetails struct {
			ReasoningTokens int `json:"reasoning_tokens"`
		} `json:"completion_tokens_details"`
	} `json:"usage"`
}

// reasoningDelta picks whichever of the three reasoning-field spellings the
// provider actually populated on this chunk, returning the field name too.
// The accumulator records that name but does not put it on the thinking
// block, and the request side always sends thinking back as
// reasoning_content, so the original spelling is not round-tripped.
func reasoningDelta(d delta) (text, field string) {
	switch {
	case d.ReasoningContent != "":
		return d.ReasoningContent, "reasoning_content"
	case d.Reasoning != "":
		return d.Reasoning, "reasoning"
	case d.ReasoningText != "":
		return d.ReasoningText, "reasoning_text"
	default:
		return "", ""
	}
}

// parseSSE decodes each "data:" event sse.ScanLines hands it as a chunk and
// yields it to onChunk. "data:[DONE]" calls onDone instead of attempting to
// decode JSON.
func parseSSE(r io.Reader, onChunk func(chunk) error, onDone func() error) error {
	return sse.ScanLines(r, func(raw string) error {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "[DONE]" {
			return onDone()
		}
		var c chunk
		if err := json.Unmarshal([]byte(trimmed), &c); err != nil {
			return nil
		}
		return onChunk(c)
	})
}

// longestJSONPrefix decodes the longest prefix of s that is itself a
// complete JSON object, trying only offsets that end in '}'. An object whose
// own closing brace has not arrived yet does not decode, so a streamed tool
// call's partial arguments are not recovered. Returns an empty map for an
// empty s and nil if no prefix parses.
func longestJSONPrefix(s string) map[string]any {
	if s == "" {
		return map[string]any{}
	}
	// A valid JSON object can only end at a '}', so only try those offsets
	// rather than every byte position.
	for end := len(s); end > 0; end-- {
		if s[end-1] != '}' {
			continue
		}
		var v map[string]any
		if json.Unmarshal([]byte(s[:end]), &v) == nil {
			return v
		}
	}
	return nil
}
