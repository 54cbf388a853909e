package messages

import "github.com/anthropics/anthropic-sdk-go"

// cacheRetention selects how aggressively prompt-cache breakpoints are
// placed on a request.
type cacheRetention int

const (
	cacheRetentionNone cacheRetention = iota
	cacheRetentionShort
	cacheRetentionLong
)

// resolveCacheRetention picks the caller-supplied retention if set, else the
// PI_CACHE_RETENTION environment override, else the short default.
func resolveCacheRetention(callerValue, env string) cacheRetention {
	v := callerValue
	if v == "" {
		v = env
	}
	switch v {
	case "long":
		return cacheRetentionLong
	case "none":
		return cacheRetentionNone
	default:
		return cacheRetentionShort
	}
}

// applyCacheControl attaches a single ephemeral cache-control marker to each
// system block and to the last content block of the final user message,
// matching the wire protocol's per-breakpoint caching model. long requests a
// 1-hour TTL; short leaves the provider's default (5 minutes).
func applyCacheControl(systemBlocks []anthropic.TextBlockParam, msgs []anthropic.MessageParam, long bool) {
	ctrl := anthropic.CacheControlEphemeralParam{}
	if long {
		ctrl.TTL = anthropic.CacheControlEphemeralTTL1h
	}

	for i := range systemBlocks {
		systemBlocks[i].CacheControl = ctrl
	}

	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != anthropic.MessageParamRoleUser {
			continue
		}
		content := msgs[i].Content
		if len(content) == 0 {
			continue
		}
		last := &content[len(content)-1]
		switch {
		case last.OfText != nil:
			last.OfText.CacheControl = ctrl
		case last.OfImage != nil:
			last.OfImage.CacheControl = ctrl
		case last.OfToolResult != nil:
			last.OfToolResult.CacheControl = ctrl
		}
		return
	}
}
