package session

import "fmt"

// MigrateRaw brings a session file's raw decoded lines (lines[0] the header
// map, lines[1:] entries) up to CurrentVersion in place, returning whether
// anything changed and so needs to be rewritten to disk.
//
// v1 -> v2: assign every entry missing an id a fresh one, chain parentId to
// the previous entry (flat chain), and resolve any
// compaction.firstKeptEntryIndex to firstKeptEntryId via that same
// flat-chain indexing.
//
// v2 -> v3: rename the retired message role "hookMessage" to "custom".
func MigrateRaw(lines []map[string]any) ([]map[string]any, bool, error) {
	if len(lines) == 0 {
		return lines, false, nil
	}
	header := lines[0]
	if t, _ := header["type"].(string); t != "session" {
		return nil, false, fmt.Errorf("session: migrate: first line is not a session header")
	}

	version := rawInt(header["version"], 1)
	changed := false
	entries := lines[1:]

	if version < 2 {
		prevID := ""
		for _, e := range entries {
			id, _ := e["id"].(string)
			if id == "" {
				id = newEntryID()
				e["id"] = id
				changed = true
			}
			if _, hasParent := e["parentId"]; !hasParent {
				if prevID == "" {
					e["parentId"] = nil
				} else {
					e["parentId"] = prevID
				}
				changed = true
			}
			prevID = id
		}
		for _, e := range entries {
			if t, _ := e["type"].(string); t != "compaction" {
				continue
			}
			idx, hasIdx := e["firstKeptEntryIndex"]
			if !hasIdx {
				continue
			}
			n := rawInt(idx, -1)
			if n >= 0 && n < len(entries) {
				if id, ok := entries[n]["id"].(string); ok {
					e["firstKeptEntryId"] = id
				}
			}
			delete(e, "firstKeptEntryIndex")
			changed = true
		}
		version = 2
	}

	if version < 3 {
		for _, e := range entries {
			if t, _ := e["type"].(string); t != "message" {
				continue
			}
			msg, ok := e["message"].(map[string]any)
			if !ok {
				continue
			}
			if role, _ := msg["role"].(string); role == "hookMessage" {
				msg["role"] = "custom"
				changed = true
			}
		}
		version = 3
	}

	if rawInt(header["version"], -1) != version {
		header["version"] = version
		changed = true
	}

	return lines, changed, nil
}

func rawInt(v any, def int) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return def
	}
}
