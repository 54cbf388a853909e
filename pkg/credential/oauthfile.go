package credential

import (
	"encoding/json"
	"fmt"
	"os"
)

// fileEntry is one provider's value in the OAuth credentials file: either an
// API key or an OAuth token pair. Refreshing an expired OAuth entry is out
// of scope here — the file's contents are read as-is.
type fileEntry struct {
	Type      string `json:"type"` // "api_key" | "oauth"
	Key       string `json:"key,omitempty"`
	Access    string `json:"access,omitempty"`
	Refresh   string `json:"refresh,omitempty"`
	Expires   int64  `json:"expires,omitempty"` // ms since epoch
	AccountID string `json:"account_id,omitempty"`
}

// token returns the credential string this entry carries, and whether it
// has one at all.
func (e fileEntry) token() (string, bool) {
	switch e.Type {
	case "api_key":
		return e.Key, e.Key != ""
	case "oauth":
		return e.Access, e.Access != ""
	default:
		return "", false
	}
}

// file is the credentials file's top-level shape: provider id -> entry.
type file map[string]fileEntry

// loadFile reads and parses the credentials file. A missing file is not an
// error — it's treated as empty, so a resolver backed only by env vars
// works without one.
func loadFile(path string) (file, error) {
	if path == "" {
		return file{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return file{}, nil
		}
		return nil, fmt.Errorf("credential: read %s: %w", path, err)
	}
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("credential: parse %s: %w", path, err)
	}
	return f, nil
}
