package model

// intPtr is a small helper for Descriptor's *int fields, which distinguish
// "unknown" from "zero".
func intPtr(v int) *int { return &v }

// BuiltinRegistry returns a Registry pre-populated with the model families
// cmd/agentwire resolves --model flags against. It is a starting catalog,
// not an exhaustive one; callers needing an unlisted model register it
// themselves before building an agent.
func BuiltinRegistry() *Registry {
	r := NewRegistry()
	for _, d := range []Descriptor{
		{
			ID: "claude-opus-4-6", API: APIMessages, Provider: "anthropic",
			Name: "Claude Opus", Reasoning: true,
			Input: []Modality{ModalityText, ModalityImage},
			Cost: Cost{Input: 15, Output: 75, CacheRead: 1.5, CacheWrite: 18.75},
			ContextWindow: intPtr(200_000), MaxTokens: intPtr(32_000),
			SupportsXHigh: true,
		},
		{
			ID: "claude-sonnet-4-5", API: APIMessages, Provider: "anthropic",
			Name: "Claude Sonnet", Reasoning: true,
			Input: []Modality{ModalityText, ModalityImage},
			Cost: Cost{Input: 3, Output: 15, CacheRead: 0.3, CacheWrite: 3.75},
			ContextWindow: intPtr(200_000), MaxTokens: intPtr(64_000),
		},
		{
			ID: "claude-haiku-4-5", API: APIMessages, Provider: "anthropic",
			Name: "Claude Haiku",
			Input: []Modality{ModalityText, ModalityImage},
			Cost: Cost{Input: 1, Output: 5, CacheRead: 0.1, CacheWrite: 1.25},
			ContextWindow: intPtr(200_000), MaxTokens: intPtr(64_000),
		},
		{
			ID: "gpt-5.2-codex", API: APIChatCompletions, Provider: "openai",
			Name: "GPT-5.2 Codex", Reasoning: true,
			Input: []Modality{ModalityText},
			Cost: Cost{Input: 1.25, Output: 10, CacheRead: 0.125},
			ContextWindow: intPtr(400_000), MaxTokens: intPtr(128_000),
			Compat: &Compat{MaxTokensField: MaxTokensFieldCompletion},
		},
		{
			ID: "grok-4", API: APIChatCompletions, Provider: "xai",
			Name: "Grok 4", Reasoning: true,
			Input: []Modality{ModalityText, ModalityImage},
			Cost: Cost{Input: 3, Output: 15},
			ContextWindow: intPtr(256_000),
			Compat: &Compat{ThinkingFormat: ThinkingFormatOpenAI},
		},
	} {
		r.Register(d)
	}
	return r
}
