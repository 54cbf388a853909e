package session

import "agentwire/pkg/message"

// DisplayRole extends message.Role with the session log's synthetic,
// display-only roles produced while reconstructing context.
type DisplayRole string

const (
	DisplayRoleUser              DisplayRole = "user"
	DisplayRoleAssistant         DisplayRole = "assistant"
	DisplayRoleToolResult        DisplayRole = "toolResult"
	DisplayRoleCompactionSummary DisplayRole = "compactionSummary"
	DisplayRoleBranchSummary     DisplayRole = "branchSummary"
	DisplayRoleCustom            DisplayRole = "custom"
)

// DisplayMessage is one entry of a reconstructed context: either a live
// message.Message (user/assistant/toolResult) or one of the synthetic
// markers (compactionSummary, branchSummary, custom) the session log
// replays for display but that must be filtered before reaching an LLM.
type DisplayMessage struct {
	Role    DisplayRole
	Message message.Message // set when Role is user/assistant/toolResult
	Summary string          // set when Role is compactionSummary/branchSummary
	Text    string          // set when Role is custom
}

// ForLLM reports whether this entry belongs in a prompt sent to a model.
func (d DisplayMessage) ForLLM() bool {
	switch d.Role {
	case DisplayRoleUser, DisplayRoleAssistant, DisplayRoleToolResult:
		return true
	default:
		return false
	}
}

// ToLLMMessages drops every synthetic display-only entry and unwraps the
// rest, yielding the message list an agent turn would actually send.
func ToLLMMessages(msgs []DisplayMessage) []message.Message {
	out := make([]message.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.ForLLM() {
			out = append(out, m.Message)
		}
	}
	return out
}

// ModelRef names the model active at a point in the conversation.
type ModelRef struct {
	Provider string
	Model    string
}

// Context is the result of reconstructing the conversation from a leaf:
// the display message list, the active thinking level, and the active
// model, as of that leaf.
type Context struct {
	Messages      []DisplayMessage
	ThinkingLevel string
	Model         *ModelRef
}

// ContextFromLeaf walks the path from leafID (defaulting to the manager's
// current leaf when leafID is empty) back to the root, then replays it
// forward to reconstruct the thinking level, model, and display message
// list as described by the session log's compaction-collapsing rule.
func (m *Manager) ContextFromLeaf(leafID string) (*Context, error) {
	path, err := m.GetBranch(leafID)
	if err != nil {
		return nil, err
	}

	ctx := &Context{ThinkingLevel: "off"}
	if len(path) == 0 {
		return ctx, nil
	}

	latestCompaction := -1
	for i, e := range path {
		switch v := e.(type) {
		case ThinkingLevelChangeEntry:
			ctx.ThinkingLevel = v.Level
		case ModelChangeEntry:
			ctx.Model = &ModelRef{Provider: v.Provider, Model: v.Model}
		case MessageEntry:
			if a, ok := v.Message.(message.Assistant); ok {
				ctx.Model = &ModelRef{Provider: a.Provider, Model: a.Model}
			}
		case CompactionEntry:
			latestCompaction = i
		}
	}

	var segments [][]Entry
	if latestCompaction >= 0 {
		compaction := path[latestCompaction].(CompactionEntry)
		firstKept := 0
		for i, e := range path {
			if e.EntryID() == compaction.FirstKeptEntryID {
				firstKept = i
				break
			}
		}
		segments = append(segments, path[firstKept:latestCompaction], path[latestCompaction+1:])
		ctx.Messages = append(ctx.Messages, DisplayMessage{Role: DisplayRoleCompactionSummary, Summary: compaction.Summary})
		ctx.Messages = append(ctx.Messages, displayMessagesFor(segments[0])...)
		ctx.Messages = append(ctx.Messages, displayMessagesFor(segments[1])...)
	} else {
		ctx.Messages = displayMessagesFor(path)
	}

	return ctx, nil
}

// displayMessagesFor converts the message-bearing entries of a path segment
// into display messages, skipping side-channel entries (thinking/model
// changes, compaction markers, labels, custom opaque data) that never
// produce a message of their own.
func displayMessagesFor(entries []Entry) []DisplayMessage {
	var out []DisplayMessage
	for _, e := range entries {
		switch v := e.(type) {
		case MessageEntry:
			out = append(out, DisplayMessage{Role: displayRoleOf(v.Message), Message: v.Message})
		case BranchSummaryEntry:
			out = append(out, DisplayMessage{Role: DisplayRoleBranchSummary, Summary: v.Summary})
		case CustomMessageEntry:
			out = append(out, DisplayMessage{Role: DisplayRoleCustom, Text: v.Text})
		}
	}
	return out
}

func displayRoleOf(m message.Message) DisplayRole {
	switch m.Role() {
	case message.RoleUser:
		return DisplayRoleUser
	case message.RoleAssistant:
		return DisplayRoleAssistant
	default:
		return DisplayRoleToolResult
	}
}
