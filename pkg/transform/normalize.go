package transform

import (
	"crypto/sha256"
	"encoding/base32"

	"agentwire/pkg/message"
	"agentwire/pkg/model"
)

// mistralIDLength is the length of Mistral's tool-call id grammar: exactly
// 9 alphanumeric characters.
const mistralIDLength = 9

// MistralToolCallID rewrites id to Mistral's required 9-character
// alphanumeric form. Ids already in that form are left untouched so a
// history that bounces between Mistral-compatible providers doesn't churn.
func MistralToolCallID(id string, d model.Descriptor, source message.Assistant) string {
	if len(id) == mistralIDLength && isAlphanumeric(id) {
		return id
	}
	sum := sha256.Sum256([]byte(id))
	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(sum[:])
	return encoded[:mistralIDLength]
}

func isAlphanumeric(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// PassthroughToolCallID returns id unchanged. OpenAI and Anthropic accept
// arbitrary tool-call id strings, so no rewrite is needed when targeting
// either.
func PassthroughToolCallID(id string, d model.Descriptor, source message.Assistant) string {
	return id
}

// IDNormalizerFor picks the id-rewrite rule a target model's compatibility
// record requires.
func IDNormalizerFor(compat model.Compat) IDNormalizer {
	if compat.RequiresMistralToolIDs != nil && *compat.RequiresMistralToolIDs {
		return MistralToolCallID
	}
	return PassthroughToolCallID
}
