package model_test

import (
	"context"
	"testing"

	"agentwire/pkg/model"
)

func TestClampReasoningEffort(t *testing.T) {
	d := model.Descriptor{}
	if got := d.ClampReasoningEffort("xhigh"); got != "high" {
		t.Fatalf("want high, got %s", got)
	}
	d.SupportsXHigh = true
	if got := d.ClampReasoningEffort("xhigh"); got != "xhigh" {
		t.Fatalf("want xhigh, got %s", got)
	}
	if got := d.ClampReasoningEffort("medium"); got != "medium" {
		t.Fatalf("want medium unchanged, got %s", got)
	}
}

func TestResolveCompatDefaultsAndOverride(t *testing.T) {
	d := model.Descriptor{Provider: "openai", BaseURL: "https://api.openai.com/v1"}
	c := model.ResolveCompat(d)
	if !model.Bool(c.SupportsDeveloperRole) {
		t.Fatalf("expected openai to support developer role")
	}
	if c.MaxTokensField != model.MaxTokensFieldCompletion {
		t.Fatalf("expected max_completion_tokens field, got %v", c.MaxTokensField)
	}

	falsePtr := false
	d.Compat = &model.Compat{SupportsDeveloperRole: &falsePtr}
	c = model.ResolveCompat(d)
	if model.Bool(c.SupportsDeveloperRole) {
		t.Fatalf("expected override to disable developer role")
	}
	if c.MaxTokensField != model.MaxTokensFieldCompletion {
		t.Fatalf("expected untouched field to keep detected default")
	}
}

func TestResolveCompatMistral(t *testing.T) {
	c := model.ResolveCompat(model.Descriptor{Provider: "mistral"})
	if !model.Bool(c.RequiresMistralToolIDs) {
		t.Fatalf("expected mistral tool id quirk")
	}
}

type fakeLister struct{ ids []string }

func (f fakeLister) ListModelIDs(context.Context) ([]string, error) { return f.ids, nil }

func TestResolveAliasesPicksLatestByPrefix(t *testing.T) {
	providers := map[string]model.Lister{
		"anthropic": fakeLister{ids: []string{
			"claude-opus-4-20250514", "claude-opus-4-20260101", "claude-sonnet-4-20250514",
		}},
	}
	rules := []model.AliasRule{{Alias: "opus", Prefix: "claude-opus-", Provider: "anthropic"}}
	res := model.ResolveAliases(context.Background(), providers, nil, rules)
	if len(res) != 1 || res[0].Resolved != "claude-opus-4-20260101" {
		t.Fatalf("got %+v", res)
	}
	if !res[0].Changed {
		t.Fatalf("expected Changed to be true from empty previous")
	}
}

func TestResolveAliasesUnknownProvider(t *testing.T) {
	rules := []model.AliasRule{{Alias: "opus", Prefix: "claude-opus-", Provider: "anthropic"}}
	res := model.ResolveAliases(context.Background(), map[string]model.Lister{}, nil, rules)
	if res[0].Err == nil {
		t.Fatalf("expected error for missing provider")
	}
}
