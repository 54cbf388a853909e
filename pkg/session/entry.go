// Package session implements the on-disk conversation log: an append-only
// JSONL file forming a parent-linked tree of entries, with branching,
// label annotations, schema migration, and context reconstruction for a
// given leaf.
package session

import "agentwire/pkg/message"

// EntryType discriminates the tagged entry variants that make up a session
// file, mirroring Message's role tag one level up.
type EntryType string

const (
	EntryTypeMessage            EntryType = "message"
	EntryTypeThinkingLevelChange EntryType = "thinking_level_change"
	EntryTypeModelChange         EntryType = "model_change"
	EntryTypeCompaction          EntryType = "compaction"
	EntryTypeBranchSummary       EntryType = "branch_summary"
	EntryTypeCustom              EntryType = "custom"
	EntryTypeCustomMessage       EntryType = "custom_message"
	EntryTypeLabel               EntryType = "label"
	EntryTypeSessionInfo         EntryType = "session_info"

	// entryTypeLegacyMessage tags a message entry whose role survived a
	// v2->v3 migration as "custom" (renamed from the retired "hookMessage"
	// role) rather than one of message.Message's three live roles. It never
	// appears on the wire; UnmarshalMessage can't decode it, so it is kept
	// as a raw entry instead of forced into the live Message union.
	entryTypeLegacyMessage EntryType = "legacy_message"
)

// base carries the fields every entry variant shares: an id unique within
// the file, a parent pointer (empty for the first non-header entry), and an
// ISO-8601 UTC timestamp.
type base struct {
	ID        string
	ParentID  string
	Timestamp string
}

func (b base) EntryID() string       { return b.ID }
func (b base) ParentEntryID() string { return b.ParentID }
func (b base) Stamp() string         { return b.Timestamp }

// Entry is the closed set of session-log entry kinds.
type Entry interface {
	EntryID() string
	ParentEntryID() string
	Stamp() string
	EntryType() EntryType
}

// MessageEntry wraps a conversation Message (user, assistant, or
// tool-result).
type MessageEntry struct {
	base
	Message message.Message
}

func (MessageEntry) EntryType() EntryType { return EntryTypeMessage }

// legacyMessageEntry preserves a message entry whose role could not be
// decoded into message.Message (the retired "hookMessage"/"custom" role)
// so that save -> load -> save round-trips byte-identically.
type legacyMessageEntry struct {
	base
	Raw map[string]any
}

func (legacyMessageEntry) EntryType() EntryType { return entryTypeLegacyMessage }

// ThinkingLevelChangeEntry records a change to the active reasoning/thinking
// level, picked up when reconstructing context from a leaf.
type ThinkingLevelChangeEntry struct {
	base
	Level string
}

func (ThinkingLevelChangeEntry) EntryType() EntryType { return EntryTypeThinkingLevelChange }

// ModelChangeEntry records a change of model/provider for the conversation.
// Superseded, for context-reconstruction purposes, by any later assistant
// message's own embedded provider/model on the same path.
type ModelChangeEntry struct {
	base
	Provider string
	Model    string
}

func (ModelChangeEntry) EntryType() EntryType { return EntryTypeModelChange }

// CompactionEntry marks a point where the conversation prefix was summarized
// to save context; FirstKeptEntryID is the earliest entry whose message
// content is still replayed verbatim after the compaction.
type CompactionEntry struct {
	base
	Summary          string
	FirstKeptEntryID string
	TokensBefore     int
}

func (CompactionEntry) EntryType() EntryType { return EntryTypeCompaction }

// BranchSummaryEntry records the intent of a subtree abandoned by branching
// away from FromID.
type BranchSummaryEntry struct {
	base
	FromID  string
	Summary string
}

func (BranchSummaryEntry) EntryType() EntryType { return EntryTypeBranchSummary }

// CustomEntry carries caller-defined opaque data, addressable in the tree
// and the branch path but never surfaced as a context message.
type CustomEntry struct {
	base
	CustomType string
	Data       map[string]any
}

func (CustomEntry) EntryType() EntryType { return EntryTypeCustom }

// CustomMessageEntry is a caller-authored note that, unlike CustomEntry,
// does appear in a reconstructed context as a synthetic display-only
// message (role "custom") — filtered out before the list reaches an LLM.
type CustomMessageEntry struct {
	base
	Text string
}

func (CustomMessageEntry) EntryType() EntryType { return EntryTypeCustomMessage }

// LabelEntry sets or clears (Label == nil) a human-readable label on
// TargetID. The latest label entry for a given target wins.
type LabelEntry struct {
	base
	TargetID string
	Label    *string
}

func (LabelEntry) EntryType() EntryType { return EntryTypeLabel }

// SessionInfoEntry records session-level metadata such as a display name.
type SessionInfoEntry struct {
	base
	Name string
}

func (SessionInfoEntry) EntryType() EntryType { return EntryTypeSessionInfo }

// Header is the first line of every session file.
type Header struct {
	Type          string
	ID            string
	Version       int
	Timestamp     string
	Cwd           string
	ParentSession string
}

// CurrentVersion is the schema version new and migrated session files are
// written at.
const CurrentVersion = 3
