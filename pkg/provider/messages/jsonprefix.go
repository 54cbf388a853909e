package messages

import "encoding/json"

// longestJSONPrefix decodes the longest prefix of s that parses as a
// complete JSON object, returning nil if none does. A streamed tool-call's
// input_json_delta only ever grows a single JSON object, so every closing
// brace is a candidate end of a syntactically complete (if semantically
// partial) document.
func longestJSONPrefix(s string) map[string]any {
	var best map[string]any
	for i := 0; i < len(s); i++ {
		if s[i] != '}' {
			continue
		}
		var v map[string]any
		if err := json.Unmarshal([]byte(s[:i+1]), &v); err == nil {
			best = v
		}
	}
	return best
}
