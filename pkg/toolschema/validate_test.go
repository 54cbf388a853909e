package toolschema

import "testing"

func TestValidateAcceptsConformingArguments(t *testing.T) {
	v := NewValidator()
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"path": map[string]any{"type": "string"}},
		"required":   []any{"path"},
	}
	if err := v.Validate("read", schema, map[string]any{"path": "a.txt"}); err != nil {
		t.Fatalf("expected valid arguments to pass, got %v", err)
	}
}

func TestValidateRejectsMissingRequiredField(t *testing.T) {
	v := NewValidator()
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"path": map[string]any{"type": "string"}},
		"required":   []any{"path"},
	}
	if err := v.Validate("read", schema, map[string]any{}); err == nil {
		t.Fatal("expected missing required field to fail validation")
	}
}

func TestValidateRejectsWrongType(t *testing.T) {
	v := NewValidator()
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"recursive": map[string]any{"type": "boolean"}},
	}
	if err := v.Validate("glob", schema, map[string]any{"recursive": "yes"}); err == nil {
		t.Fatal("expected wrong-typed field to fail validation")
	}
}

func TestValidateReconcilesCamelCaseRequiredField(t *testing.T) {
	v := NewValidator()
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"file_path": map[string]any{"type": "string"}},
		"required":   []any{"file_path"},
	}
	args := map[string]any{"filePath": "a.txt"}
	if err := v.Validate("read", schema, args); err != nil {
		t.Fatalf("expected camelCase argument to reconcile and pass, got %v", err)
	}
	if args["file_path"] != "a.txt" {
		t.Fatalf("expected value moved under file_path, got %+v", args)
	}
	if _, ok := args["filePath"]; ok {
		t.Fatalf("expected camelCase key removed, got %+v", args)
	}
}

func TestValidateEmptySchemaAcceptsAnything(t *testing.T) {
	v := NewValidator()
	if err := v.Validate("noop", nil, map[string]any{"whatever": 1}); err != nil {
		t.Fatalf("expected nil schema to accept any arguments, got %v", err)
	}
}

func TestValidateCachesCompiledSchema(t *testing.T) {
	v := NewValidator()
	schema := map[string]any{"type": "object"}
	if err := v.Validate("tool", schema, map[string]any{}); err != nil {
		t.Fatalf("first validate: %v", err)
	}
	if _, ok := v.cached["tool"]; !ok {
		t.Fatal("expected compiled schema to be cached by tool name")
	}
	if err := v.Validate("tool", schema, map[string]any{}); err != nil {
		t.Fatalf("second validate: %v", err)
	}
}
