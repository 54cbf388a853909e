// Package credential resolves a provider id to a usable credential string,
// preferring an entry in an OAuth/API-key credentials file and falling back
// to the fixed provider->env-var table. It does not acquire or refresh
// OAuth tokens; it only reads the documented JSON shape.
package credential

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrNoCredential is returned when neither the credentials file nor the
// environment has a usable value for the requested provider.
var ErrNoCredential = errors.New("credential: no credential available for provider")

// envVarByProvider is the fixed provider-id -> environment-variable mapping.
var envVarByProvider = map[string]string{
	"openai":     "OPENAI_API_KEY",
	"anthropic":  "ANTHROPIC_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
	"groq":       "GROQ_API_KEY",
	"cerebras":   "CEREBRAS_API_KEY",
	"xai":        "XAI_API_KEY",
	"mistral":    "MISTRAL_API_KEY",
	"ai-gateway": "AI_GATEWAY_API_KEY",
}

// Resolver resolves provider ids to credentials. It lazily loads the
// credentials file on first use and caches the parsed contents.
type Resolver struct {
	filePath string

	mu     sync.Mutex
	loaded bool
	file   file
}

// NewResolver returns a Resolver backed by the credentials file at path (may
// be empty to rely on environment variables only).
func NewResolver(oauthFilePath string) *Resolver {
	return &Resolver{filePath: oauthFilePath}
}

// Resolve returns the credential string for providerID: the credentials
// file takes precedence (it may carry a short-lived OAuth token the env var
// table has no slot for), falling back to the fixed env-var table.
func (r *Resolver) Resolve(providerID string) (string, error) {
	if cred, ok := r.fromFile(providerID); ok {
		return cred, nil
	}
	if envVar, ok := envVarByProvider[providerID]; ok {
		if v := os.Getenv(envVar); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoCredential, providerID)
}

func (r *Resolver) fromFile(providerID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		f, err := loadFile(r.filePath)
		if err == nil {
			r.file = f
		}
		r.loaded = true
	}
	entry, ok := r.file[providerID]
	if !ok {
		return "", false
	}
	return entry.token()
}
