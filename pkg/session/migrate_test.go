package session

import "testing"

func TestMigrateV1AddsIDs(t *testing.T) {
	lines := []map[string]any{
		{"type": "session", "version": float64(1)},
		{"type": "message", "message": map[string]any{"role": "user", "content": "hi"}},
		{"type": "message", "message": map[string]any{"role": "assistant", "content": "hello"}},
	}
	out, changed, err := MigrateRaw(lines)
	if err != nil {
		t.Fatalf("MigrateRaw: %v", err)
	}
	if !changed {
		t.Fatal("expected changed=true for a v1 file")
	}
	if out[0]["version"] != 3 {
		t.Fatalf("header version = %v, want 3", out[0]["version"])
	}
	id1, _ := out[1]["id"].(string)
	id2, _ := out[2]["id"].(string)
	if id1 == "" || id2 == "" {
		t.Fatalf("expected assigned ids, got %q %q", id1, id2)
	}
	if out[1]["parentId"] != nil {
		t.Fatalf("first entry's parentId should be nil, got %v", out[1]["parentId"])
	}
	if out[2]["parentId"] != id1 {
		t.Fatalf("second entry's parentId = %v, want %v", out[2]["parentId"], id1)
	}
}

func TestMigrateV1ResolvesCompactionIndex(t *testing.T) {
	lines := []map[string]any{
		{"type": "session", "version": float64(1)},
		{"type": "message", "message": map[string]any{"role": "user", "content": "first"}},
		{"type": "message", "message": map[string]any{"role": "user", "content": "second"}},
		{"type": "compaction", "summary": "s", "firstKeptEntryIndex": float64(1)},
	}
	out, _, err := MigrateRaw(lines)
	if err != nil {
		t.Fatalf("MigrateRaw: %v", err)
	}
	secondID, _ := out[2]["id"].(string)
	compaction := out[3]
	if compaction["firstKeptEntryId"] != secondID {
		t.Fatalf("firstKeptEntryId = %v, want %v", compaction["firstKeptEntryId"], secondID)
	}
	if _, hasIdx := compaction["firstKeptEntryIndex"]; hasIdx {
		t.Fatal("firstKeptEntryIndex should be removed after migration")
	}
}

func TestMigrateV2RenamesHookMessageRole(t *testing.T) {
	lines := []map[string]any{
		{"type": "session", "version": float64(2)},
		{"id": "a", "parentId": nil, "type": "message", "message": map[string]any{"role": "hookMessage", "content": "x"}},
	}
	out, changed, err := MigrateRaw(lines)
	if err != nil {
		t.Fatalf("MigrateRaw: %v", err)
	}
	if !changed {
		t.Fatal("expected changed=true when renaming hookMessage")
	}
	msg := out[1]["message"].(map[string]any)
	if msg["role"] != "custom" {
		t.Fatalf("role = %v, want custom", msg["role"])
	}
	if out[0]["version"] != 3 {
		t.Fatalf("header version = %v, want 3", out[0]["version"])
	}
}

func TestMigrateIdempotent(t *testing.T) {
	lines := []map[string]any{
		{"type": "session", "version": float64(2)},
		{"id": "a", "parentId": nil, "type": "message", "message": map[string]any{"role": "user", "content": "hi"}},
		{"id": "b", "parentId": "a", "type": "message", "message": map[string]any{"role": "assistant", "content": "there"}},
	}
	out, changed, err := MigrateRaw(lines)
	if err != nil {
		t.Fatalf("MigrateRaw: %v", err)
	}
	if !changed {
		t.Fatal("expected changed=true since only the header version bumps")
	}
	if out[1]["id"] != "a" || out[2]["id"] != "b" {
		t.Fatalf("ids should be left alone: %v %v", out[1]["id"], out[2]["id"])
	}
	if out[0]["version"] != 3 {
		t.Fatalf("header version = %v, want 3", out[0]["version"])
	}
}

func TestMigrateRawEmptyIsNoop(t *testing.T) {
	out, changed, err := MigrateRaw(nil)
	if err != nil || changed || out != nil {
		t.Fatalf("MigrateRaw(nil) = %v, %v, %v", out, changed, err)
	}
}

func TestMigrateRawRejectsMissingHeader(t *testing.T) {
	_, _, err := MigrateRaw([]map[string]any{{"type": "message"}})
	if err == nil {
		t.Fatal("expected an error when the first line is not a session header")
	}
}
