package credential

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePrefersCredentialsFileOverEnvVar(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "creds.json")
	content := `{"anthropic": {"type": "oauth", "access": "sk-ant-oat-file"}}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ANTHROPIC_API_KEY", "from-env")

	r := NewResolver(path)
	got, err := r.Resolve("anthropic")
	if err != nil {
		t.Fatal(err)
	}
	if got != "sk-ant-oat-file" {
		t.Fatalf("expected file credential to win, got %q", got)
	}
}

func TestResolveFallsBackToEnvVar(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	r := NewResolver("")
	got, err := r.Resolve("openai")
	if err != nil {
		t.Fatal(err)
	}
	if got != "sk-from-env" {
		t.Fatalf("expected env var credential, got %q", got)
	}
}

func TestResolveMissingCredentialReturnsErrNoCredential(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	r := NewResolver("")
	_, err := r.Resolve("openai")
	if !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
}

func TestResolveUnknownProviderFallsThroughToError(t *testing.T) {
	r := NewResolver("")
	_, err := r.Resolve("some-unlisted-provider")
	if !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
}

func TestResolveMissingCredentialsFileIsNotAnError(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	r := NewResolver(filepath.Join(t.TempDir(), "does-not-exist.json"))
	got, err := r.Resolve("openai")
	if err != nil {
		t.Fatal(err)
	}
	if got != "sk-from-env" {
		t.Fatalf("expected env var fallback, got %q", got)
	}
}

func TestResolveAPIKeyEntryInFile(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "creds.json")
	content := `{"mistral": {"type": "api_key", "key": "mk-123"}}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	r := NewResolver(path)
	got, err := r.Resolve("mistral")
	if err != nil {
		t.Fatal(err)
	}
	if got != "mk-123" {
		t.Fatalf("expected api_key entry, got %q", got)
	}
}
