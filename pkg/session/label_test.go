package session

import "testing"

func strPtr(s string) *string { return &s }

func TestLabelSetGetAndClear(t *testing.T) {
	m := InMemory()
	id := mustAppendMessage(t, m, userMsg("hello"))

	if _, err := m.AppendLabelChange(id, strPtr("checkpoint")); err != nil {
		t.Fatalf("AppendLabelChange: %v", err)
	}
	if got := m.GetLabel(id); got == nil || *got != "checkpoint" {
		t.Fatalf("GetLabel = %v, want checkpoint", got)
	}

	if _, err := m.AppendLabelChange(id, nil); err != nil {
		t.Fatalf("AppendLabelChange(clear): %v", err)
	}
	if got := m.GetLabel(id); got != nil {
		t.Fatalf("GetLabel after clear = %v, want nil", got)
	}
}

func TestLabelLastWins(t *testing.T) {
	m := InMemory()
	id := mustAppendMessage(t, m, userMsg("hello"))

	if _, err := m.AppendLabelChange(id, strPtr("first")); err != nil {
		t.Fatalf("AppendLabelChange: %v", err)
	}
	if _, err := m.AppendLabelChange(id, strPtr("second")); err != nil {
		t.Fatalf("AppendLabelChange: %v", err)
	}
	if got := m.GetLabel(id); got == nil || *got != "second" {
		t.Fatalf("GetLabel = %v, want second", got)
	}
}

func TestLabelTargetMustExist(t *testing.T) {
	m := InMemory()
	if _, err := m.AppendLabelChange("missing", strPtr("x")); err == nil {
		t.Fatal("expected an error labeling a nonexistent entry")
	}
}

func TestLabelsInTreeNodes(t *testing.T) {
	m := InMemory()
	id := mustAppendMessage(t, m, userMsg("hello"))
	if _, err := m.AppendLabelChange(id, strPtr("checkpoint")); err != nil {
		t.Fatalf("AppendLabelChange: %v", err)
	}

	tree := m.GetTree()
	if len(tree) != 1 || tree[0].Entry.EntryID() != id {
		t.Fatalf("tree = %+v", tree)
	}
	if tree[0].Label != "checkpoint" {
		t.Fatalf("node label = %q, want checkpoint", tree[0].Label)
	}
}

func TestLabelsPreservedInBranchedSession(t *testing.T) {
	m := InMemory()
	id1 := mustAppendMessage(t, m, userMsg("1"))
	id2 := mustAppendMessage(t, m, userMsg("2"))
	id3 := mustAppendMessage(t, m, userMsg("3"))

	if _, err := m.AppendLabelChange(id1, strPtr("label1")); err != nil {
		t.Fatalf("AppendLabelChange: %v", err)
	}
	if _, err := m.AppendLabelChange(id2, strPtr("label2")); err != nil {
		t.Fatalf("AppendLabelChange: %v", err)
	}
	if _, err := m.AppendLabelChange(id3, strPtr("label3")); err != nil {
		t.Fatalf("AppendLabelChange: %v", err)
	}

	branch, err := m.CreateBranchedSession(id2, "")
	if err != nil {
		t.Fatalf("CreateBranchedSession: %v", err)
	}

	if got := branch.GetLabel(id1); got == nil || *got != "label1" {
		t.Fatalf("branch label1 = %v, want label1", got)
	}
	if got := branch.GetLabel(id2); got == nil || *got != "label2" {
		t.Fatalf("branch label2 = %v, want label2", got)
	}
	if got := branch.GetLabel(id3); got != nil {
		t.Fatalf("branch label3 = %v, want nil (dropped off path)", got)
	}
	if branch.Header().ParentSession != m.Header().ID {
		t.Fatalf("branch.ParentSession = %q, want %q", branch.Header().ParentSession, m.Header().ID)
	}
}
