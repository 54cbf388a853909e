package model

import "strings"

// ResolveCompat is a pure function from a model descriptor to its resolved
// compatibility record. Detection keys on Provider id and a BaseURL
// substring; any field set on Descriptor.Compat wins over the detected
// default.
func ResolveCompat(d Descriptor) Compat {
	detected := detectCompat(d.Provider, d.BaseURL)
	if d.Compat == nil {
		return detected
	}
	return mergeCompat(detected, *d.Compat)
}

func detectCompat(provider, baseURL string) Compat {
	c := Compat{
		SupportsStore:              ptr(true),
		SupportsDeveloperRole:      ptr(false),
		SupportsReasoningEffort:    ptr(false),
		SupportsUsageInStreaming:   ptr(true),
		SupportsStrictMode:         ptr(false),
		MaxTokensField:             MaxTokensFieldClassic,
		RequiresToolResultName:     ptr(false),
		RequiresAssistantAfterTool: ptr(false),
		RequiresThinkingAsText:     ptr(false),
		RequiresMistralToolIDs:     ptr(false),
	}

	switch {
	case provider == "openai" || strings.Contains(baseURL, "api.openai.com"):
		c.SupportsDeveloperRole = ptr(true)
		c.SupportsReasoningEffort = ptr(true)
		c.SupportsStrictMode = ptr(true)
		c.MaxTokensField = MaxTokensFieldCompletion
	case provider == "github-copilot" || strings.Contains(baseURL, "githubcopilot.com"):
		c.SupportsStore = ptr(false)
		c.RequiresToolResultName = ptr(true)
	case provider == "mistral" || strings.Contains(baseURL, "api.mistral.ai"):
		c.RequiresMistralToolIDs = ptr(true)
		c.RequiresAssistantAfterTool = ptr(true)
	case provider == "openrouter" || strings.Contains(baseURL, "openrouter.ai"):
		c.SupportsUsageInStreaming = ptr(true)
	case provider == "zai":
		c.ThinkingFormat = ThinkingFormatZAI
		c.RequiresThinkingAsText = ptr(true)
	case provider == "qwen" || strings.Contains(baseURL, "dashscope"):
		c.ThinkingFormat = ThinkingFormatQwen
	case provider == "vercel" || strings.Contains(baseURL, "gateway.ai.vercel"):
		c.VercelGatewayRouting = map[string][]string{}
	default:
		c.ThinkingFormat = ThinkingFormatOpenAI
	}
	return c
}

func mergeCompat(base, override Compat) Compat {
	if override.SupportsStore != nil {
		base.SupportsStore = override.SupportsStore
	}
	if override.SupportsDeveloperRole != nil {
		base.SupportsDeveloperRole = override.SupportsDeveloperRole
	}
	if override.SupportsReasoningEffort != nil {
		base.SupportsReasoningEffort = override.SupportsReasoningEffort
	}
	if override.SupportsUsageInStreaming != nil {
		base.SupportsUsageInStreaming = override.SupportsUsageInStreaming
	}
	if override.SupportsStrictMode != nil {
		base.SupportsStrictMode = override.SupportsStrictMode
	}
	if override.MaxTokensField != "" {
		base.MaxTokensField = override.MaxTokensField
	}
	if override.RequiresToolResultName != nil {
		base.RequiresToolResultName = override.RequiresToolResultName
	}
	if override.RequiresAssistantAfterTool != nil {
		base.RequiresAssistantAfterTool = override.RequiresAssistantAfterTool
	}
	if override.RequiresThinkingAsText != nil {
		base.RequiresThinkingAsText = override.RequiresThinkingAsText
	}
	if override.RequiresMistralToolIDs != nil {
		base.RequiresMistralToolIDs = override.RequiresMistralToolIDs
	}
	if override.ThinkingFormat != "" {
		base.ThinkingFormat = override.ThinkingFormat
	}
	if override.OpenRouterRouting != nil {
		base.OpenRouterRouting = override.OpenRouterRouting
	}
	if override.VercelGatewayRouting != nil {
		base.VercelGatewayRouting = override.VercelGatewayRouting
	}
	return base
}

func ptr[T any](v T) *T { return &v }

// Bool reads a *bool compat field defaulting to false when unset.
func Bool(p *bool) bool {
	return p != nil && *p
}
