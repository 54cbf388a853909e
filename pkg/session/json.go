package session

import (
	"encoding/json"
	"fmt"

	"agentwire/pkg/message"
)

// wireEntry is the camelCase, discriminated-union wire shape for every
// Entry variant, mirroring message.wireMessage one level up: fields not
// used by a given Type are simply absent, except parentId and label, which
// are always written (null when unset). Message is pre-encoded through
// message.MarshalMessage because encoding/json cannot decode into the
// message.Message interface directly.
type wireEntry struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	ParentID  *string         `json:"parentId"`
	Timestamp string          `json:"timestamp"`

	Message json.RawMessage `json:"message,omitempty"`

	ThinkingLevel string `json:"thinkingLevel,omitempty"`

	Provider string `json:"provider,omitempty"`
	ModelID  string `json:"modelId,omitempty"`

	Summary          string `json:"summary,omitempty"`
	FirstKeptEntryID string `json:"firstKeptEntryId,omitempty"`
	TokensBefore     int    `json:"tokensBefore,omitempty"`

	FromID string `json:"fromId,omitempty"`

	CustomType string         `json:"customType,omitempty"`
	Data       map[string]any `json:"data,omitempty"`

	Text string `json:"text,omitempty"`

	TargetID string  `json:"targetId,omitempty"`
	Label    *string `json:"label"`

	Name string `json:"name,omitempty"`
}

func parentIDPtr(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func marshalEntry(e Entry) (wireEntry, error) {
	w := wireEntry{
		Type:      string(e.EntryType()),
		ID:        e.EntryID(),
		ParentID:  parentIDPtr(e.ParentEntryID()),
		Timestamp: e.Stamp(),
	}
	switch v := e.(type) {
	case MessageEntry:
		data, err := message.MarshalMessage(v.Message)
		if err != nil {
			return wireEntry{}, err
		}
		w.Message = data
	case legacyMessageEntry:
		data, err := json.Marshal(v.Raw)
		if err != nil {
			return wireEntry{}, err
		}
		w.Type = string(EntryTypeMessage)
		w.Message = data
	case ThinkingLevelChangeEntry:
		w.ThinkingLevel = v.Level
	case ModelChangeEntry:
		w.Provider = v.Provider
		w.ModelID = v.Model
	case CompactionEntry:
		w.Summary = v.Summary
		w.FirstKeptEntryID = v.FirstKeptEntryID
		w.TokensBefore = v.TokensBefore
	case BranchSummaryEntry:
		w.Summary = v.Summary
		w.FromID = v.FromID
	case CustomEntry:
		w.CustomType = v.CustomType
		w.Data = v.Data
	case CustomMessageEntry:
		w.Text = v.Text
	case LabelEntry:
		w.TargetID = v.TargetID
		w.Label = v.Label
	case SessionInfoEntry:
		w.Name = v.Name
	default:
		return wireEntry{}, fmt.Errorf("session: unknown entry type %T", e)
	}
	return w, nil
}

func (w wireEntry) toEntry() (Entry, error) {
	parentID := ""
	if w.ParentID != nil {
		parentID = *w.ParentID
	}
	b := base{ID: w.ID, ParentID: parentID, Timestamp: w.Timestamp}

	switch EntryType(w.Type) {
	case EntryTypeMessage:
		if isLegacyMessageRole(w.Message) {
			var raw map[string]any
			if err := json.Unmarshal(w.Message, &raw); err != nil {
				return nil, err
			}
			return legacyMessageEntry{base: b, Raw: raw}, nil
		}
		m, err := message.UnmarshalMessage(w.Message)
		if err != nil {
			return nil, err
		}
		return MessageEntry{base: b, Message: m}, nil
	case EntryTypeThinkingLevelChange:
		return ThinkingLevelChangeEntry{base: b, Level: w.ThinkingLevel}, nil
	case EntryTypeModelChange:
		return ModelChangeEntry{base: b, Provider: w.Provider, Model: w.ModelID}, nil
	case EntryTypeCompaction:
		return CompactionEntry{base: b, Summary: w.Summary, FirstKeptEntryID: w.FirstKeptEntryID, TokensBefore: w.TokensBefore}, nil
	case EntryTypeBranchSummary:
		return BranchSummaryEntry{base: b, FromID: w.FromID, Summary: w.Summary}, nil
	case EntryTypeCustom:
		return CustomEntry{base: b, CustomType: w.CustomType, Data: w.Data}, nil
	case EntryTypeCustomMessage:
		return CustomMessageEntry{base: b, Text: w.Text}, nil
	case EntryTypeLabel:
		return LabelEntry{base: b, TargetID: w.TargetID, Label: w.Label}, nil
	case EntryTypeSessionInfo:
		return SessionInfoEntry{base: b, Name: w.Name}, nil
	default:
		return nil, fmt.Errorf("session: unknown entry type %q", w.Type)
	}
}

// isLegacyMessageRole reports whether a message entry's nested payload uses
// the retired "hookMessage"/"custom" role rather than one of
// message.Message's live user/assistant/tool_result roles, without fully
// decoding it.
func isLegacyMessageRole(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var probe struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	switch message.Role(probe.Role) {
	case message.RoleUser, message.RoleAssistant, message.RoleToolResult:
		return false
	default:
		return true
	}
}

func marshalHeader(h Header) ([]byte, error) {
	return json.Marshal(struct {
		Type          string `json:"type"`
		ID            string `json:"id"`
		Version       int    `json:"version"`
		Timestamp     string `json:"timestamp"`
		Cwd           string `json:"cwd"`
		ParentSession string `json:"parentSession,omitempty"`
	}{
		Type: "session", ID: h.ID, Version: h.Version, Timestamp: h.Timestamp,
		Cwd: h.Cwd, ParentSession: h.ParentSession,
	})
}

func unmarshalHeader(data []byte) (Header, error) {
	var w struct {
		Type          string `json:"type"`
		ID            string `json:"id"`
		Version       int    `json:"version"`
		Timestamp     string `json:"timestamp"`
		Cwd           string `json:"cwd"`
		ParentSession string `json:"parentSession"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return Header{}, err
	}
	if w.Type != "session" {
		return Header{}, fmt.Errorf("session: not a session header")
	}
	return Header{Type: w.Type, ID: w.ID, Version: w.Version, Timestamp: w.Timestamp, Cwd: w.Cwd, ParentSession: w.ParentSession}, nil
}
