package model

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Lister is satisfied by anything that can enumerate a provider's available
// model ids, such as a provider client's model-listing endpoint.
type Lister interface {
	ListModelIDs(ctx context.Context) ([]string, error)
}

// AliasRule maps a short human alias (e.g. "opus") to the latest model
// whose id starts with Prefix, as listed by Provider.
type AliasRule struct {
	Alias    string
	Prefix   string
	Provider string
}

// DefaultAliasRules is the built-in table of short human aliases.
func DefaultAliasRules() []AliasRule {
	return []AliasRule{
		{Alias: "opus", Prefix: "claude-opus-", Provider: "anthropic"},
		{Alias: "sonnet", Prefix: "claude-sonnet-", Provider: "anthropic"},
		{Alias: "haiku", Prefix: "claude-haiku-", Provider: "anthropic"},
		{Alias: "gpt", Prefix: "gpt-", Provider: "openai"},
	}
}

// AliasResolution is the outcome of resolving one alias.
type AliasResolution struct {
	Alias    string
	Previous string
	Resolved string
	Changed  bool
	Err      error
}

// ResolveAliases queries each rule's provider lister once (caching the
// result across rules that share a provider) and picks the lexicographically
// greatest matching id, which for the common "YYYY-MM-DD"-suffixed model
// naming convention is also the newest.
func ResolveAliases(ctx context.Context, providers map[string]Lister, current map[string]string, rules []AliasRule) []AliasResolution {
	if rules == nil {
		rules = DefaultAliasRules()
	}
	if current == nil {
		current = map[string]string{}
	}

	cache := map[string][]string{}
	out := make([]AliasResolution, 0, len(rules))

	for _, rule := range rules {
		res := AliasResolution{Alias: rule.Alias, Previous: current[rule.Alias]}

		lister, ok := providers[rule.Provider]
		if !ok {
			res.Err = fmt.Errorf("model: provider %q not available", rule.Provider)
			res.Resolved = res.Previous
			out = append(out, res)
			continue
		}

		ids, cached := cache[rule.Provider]
		if !cached {
			var err error
			ids, err = lister.ListModelIDs(ctx)
			if err != nil {
				res.Err = fmt.Errorf("model: list models: %w", err)
				res.Resolved = res.Previous
				out = append(out, res)
				continue
			}
			cache[rule.Provider] = ids
		}

		resolved := pickLatest(ids, rule.Prefix)
		if resolved == "" {
			res.Err = fmt.Errorf("model: no model matching prefix %q", rule.Prefix)
			res.Resolved = res.Previous
		} else {
			res.Resolved = resolved
			res.Changed = res.Previous != resolved
		}
		out = append(out, res)
	}
	return out
}

func pickLatest(ids []string, prefix string) string {
	var matches []string
	for _, id := range ids {
		if strings.HasPrefix(id, prefix) {
			matches = append(matches, id)
		}
	}
	if len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)
	return matches[len(matches)-1]
}
