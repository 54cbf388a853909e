package toolschema

import "testing"

func TestNormalizeStrictClosesObjectAndRequiresAllProperties(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":      map[string]any{"type": "string"},
			"recursive": map[string]any{"type": "boolean"},
		},
		"required": []any{"path"},
	}

	out := NormalizeStrict(schema).(map[string]any)

	if out["additionalProperties"] != false {
		t.Fatalf("expected additionalProperties: false, got %v", out["additionalProperties"])
	}
	required, _ := out["required"].([]any)
	if len(required) != 2 {
		t.Fatalf("expected both properties required, got %v", required)
	}

	recursive := out["properties"].(map[string]any)["recursive"].(map[string]any)
	types, ok := recursive["type"].([]any)
	if !ok || len(types) != 2 {
		t.Fatalf("expected optional property made nullable, got %v", recursive["type"])
	}
}

func TestNormalizeStrictRecursesIntoNestedObjects(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"filter": map[string]any{
				"type":       "object",
				"properties": map[string]any{"name": map[string]any{"type": "string"}},
			},
		},
		"required": []any{"filter"},
	}

	out := NormalizeStrict(schema).(map[string]any)
	nested := out["properties"].(map[string]any)["filter"].(map[string]any)
	if nested["additionalProperties"] != false {
		t.Fatalf("expected nested object also closed, got %v", nested["additionalProperties"])
	}
}

func TestNormalizeStrictLeavesAlreadyRequiredPropertiesAlone(t *testing.T) {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"path": map[string]any{"type": "string"}},
		"required":   []any{"path"},
	}

	out := NormalizeStrict(schema).(map[string]any)
	path := out["properties"].(map[string]any)["path"].(map[string]any)
	if _, isArray := path["type"].([]any); isArray {
		t.Fatalf("expected already-required property untouched, got %v", path["type"])
	}
}
