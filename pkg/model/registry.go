package model

import (
	"context"
	"fmt"

	"agentwire/pkg/message"
)

// registryKey pairs a provider id with a model id; the same model id can be
// served by more than one provider (an OpenAI-compatible gateway re-exposing
// an upstream model under its own name).
type registryKey struct {
	provider string
	id       string
}

// Registry is a lookup table of known model descriptors, keyed by
// (provider, id). The zero value is ready to use.
type Registry struct {
	models map[registryKey]Descriptor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{models: map[registryKey]Descriptor{}}
}

// Register adds or replaces a descriptor.
func (r *Registry) Register(d Descriptor) {
	if r.models == nil {
		r.models = map[registryKey]Descriptor{}
	}
	r.models[registryKey{provider: d.Provider, id: d.ID}] = d
}

// Get returns the descriptor for provider/id, or an error if it has not
// been registered.
func (r *Registry) Get(provider, id string) (Descriptor, error) {
	d, ok := r.models[registryKey{provider: provider, id: id}]
	if !ok {
		return Descriptor{}, fmt.Errorf("model: not found: %s/%s (register it first)", provider, id)
	}
	return d, nil
}

// List returns every registered descriptor, optionally filtered to one
// provider. An empty provider returns all of them.
func (r *Registry) List(provider string) []Descriptor {
	var out []Descriptor
	for k, d := range r.models {
		if provider == "" || k.provider == provider {
			out = append(out, d)
		}
	}
	return out
}

// registryLister adapts a Registry, scoped to one provider, to the Lister
// interface so ResolveAliases can resolve aliases against it without a
// network round-trip.
type registryLister struct {
	registry *Registry
	provider string
}

func (l registryLister) ListModelIDs(context.Context) ([]string, error) {
	var ids []string
	for k := range l.registry.models {
		if k.provider == l.provider {
			ids = append(ids, k.id)
		}
	}
	return ids, nil
}

// ProviderLister returns a Lister over this Registry scoped to provider, for
// use with ResolveAliases.
func (r *Registry) ProviderLister(provider string) Lister {
	return registryLister{registry: r, provider: provider}
}

// CalculateCost fills in usage.Cost from the descriptor's per-million-token
// rates. A zero Cost (no rates configured) leaves the total at zero rather
// than erroring.
func CalculateCost(d Descriptor, usage *message.Usage) {
	rates := d.Cost
	usage.Cost.Input = float64(usage.Input) * rates.Input / 1_000_000
	usage.Cost.Output = float64(usage.Output) * rates.Output / 1_000_000
	usage.Cost.CacheRead = float64(usage.CacheRead) * rates.CacheRead / 1_000_000
	usage.Cost.CacheWrite = float64(usage.CacheWrite) * rates.CacheWrite / 1_000_000
	usage.Cost.Total = usage.Cost.Input + usage.Cost.Output + usage.Cost.CacheRead + usage.Cost.CacheWrite
}
