package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"agentwire/pkg/message"
)

// Manager owns a single session file: the entry list, its id index, label
// overlay, and leaf cursor. Append order is the only mutation path; entries
// are otherwise immutable. All methods are safe for concurrent use, though
// the spec assumes a single sequential writer per file.
type Manager struct {
	mu sync.Mutex

	path   string // empty for an in-memory session
	header Header

	entries []Entry
	byID    map[string]int
	labels  map[string]string
	leafID  string
}

func newEntryID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// InMemory returns a Manager with no backing file, used by tests and by
// callers that only need the tree/context semantics.
func InMemory() *Manager {
	return &Manager{
		header: Header{Type: "session", ID: uuid.New().String(), Version: CurrentVersion, Timestamp: nowStamp()},
		byID:   map[string]int{},
		labels: map[string]string{},
	}
}

// Open loads path if it exists (migrating and atomically rewriting it if
// its schema is stale or the file was left mid-write), or creates a fresh
// session file there. Directory mode is 0700, file mode 0600.
func Open(path string) (*Manager, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o700); err != nil {
		return nil, err
	}

	raw, err := readRawLines(abs)
	if err != nil {
		return nil, err
	}

	m := &Manager{path: abs, byID: map[string]int{}, labels: map[string]string{}}

	if len(raw) == 0 || !hasValidHeader(raw) {
		m.header = Header{Type: "session", ID: uuid.New().String(), Version: CurrentVersion, Timestamp: nowStamp(), Cwd: cwd()}
		if err := m.rewriteLocked(); err != nil {
			return nil, err
		}
		return m, nil
	}

	migrated, _, err := MigrateRaw(raw)
	if err != nil {
		return nil, err
	}

	header, err := decodeHeaderMap(migrated[0])
	if err != nil {
		return nil, err
	}
	m.header = header

	for _, rawEntry := range migrated[1:] {
		data, err := json.Marshal(rawEntry)
		if err != nil {
			return nil, err
		}
		var w wireEntry
		if err := json.Unmarshal(data, &w); err != nil {
			continue // corrupt individual line: skipped, not fatal
		}
		e, err := w.toEntry()
		if err != nil {
			continue
		}
		m.addEntryLocked(e)
	}

	// Rewrite once on open (migrated or not) so a torn file never lingers;
	// every append after this is a single O(1) line write.
	if err := m.rewriteLocked(); err != nil {
		return nil, err
	}
	return m, nil
}

func cwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}

func hasValidHeader(raw []map[string]any) bool {
	if len(raw) == 0 {
		return false
	}
	t, _ := raw[0]["type"].(string)
	_, hasID := raw[0]["id"]
	return t == "session" && hasID
}

func decodeHeaderMap(m map[string]any) (Header, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return Header{}, err
	}
	return unmarshalHeader(data)
}

// readRawLines reads a JSONL file into raw maps, skipping unparseable
// lines. A missing file yields an empty slice, not an error.
func readRawLines(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			continue
		}
		lines = append(lines, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (m *Manager) addEntryLocked(e Entry) {
	m.byID[e.EntryID()] = len(m.entries)
	m.entries = append(m.entries, e)
	m.leafID = e.EntryID()
	switch v := e.(type) {
	case LabelEntry:
		if v.Label == nil {
			delete(m.labels, v.TargetID)
		} else {
			m.labels[v.TargetID] = *v.Label
		}
	}
}

// Path returns the backing file path, or "" for an in-memory session.
func (m *Manager) Path() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.path
}

// Header returns the session's header.
func (m *Manager) Header() Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.header
}

// appendEntry builds and appends one entry under a single critical section,
// so two concurrent callers never compute the same parent id.
func (m *Manager) appendEntry(build func(base) Entry) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := build(m.newBase())
	m.addEntryLocked(e)
	if m.path == "" {
		return e.EntryID(), nil
	}
	return e.EntryID(), m.appendLineLocked(e)
}

func (m *Manager) appendLineLocked(e Entry) error {
	w, err := marshalEntry(e)
	if err != nil {
		return err
	}
	data, err := json.Marshal(w)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(m.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return err
	}
	_, err = f.Write([]byte("\n"))
	return err
}

// rewriteLocked writes the header and every entry to a temp file in the
// same directory and renames it over path, the atomic full-file write used
// after migration and on first load.
func (m *Manager) rewriteLocked() error {
	if m.path == "" {
		return nil
	}
	tmp := m.path + ".tmp-" + newEntryID()
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	hdr, err := marshalHeader(m.header)
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if _, err := f.Write(append(hdr, '\n')); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	for _, e := range m.entries {
		w, err := marshalEntry(e)
		if err != nil {
			f.Close()
			os.Remove(tmp)
			return err
		}
		data, err := json.Marshal(w)
		if err != nil {
			f.Close()
			os.Remove(tmp)
			return err
		}
		if _, err := f.Write(append(data, '\n')); err != nil {
			f.Close()
			os.Remove(tmp)
			return err
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}

func (m *Manager) newBase() base {
	parent := m.leafID
	return base{ID: newEntryID(), ParentID: parent, Timestamp: nowStamp()}
}

// AppendMessage appends a message.Message entry and returns its id.
func (m *Manager) AppendMessage(msg message.Message) (string, error) {
	return m.appendEntry(func(b base) Entry { return MessageEntry{base: b, Message: msg} })
}

// AppendThinkingLevelChange appends a thinking_level_change entry.
func (m *Manager) AppendThinkingLevelChange(level string) (string, error) {
	return m.appendEntry(func(b base) Entry { return ThinkingLevelChangeEntry{base: b, Level: level} })
}

// AppendModelChange appends a model_change entry.
func (m *Manager) AppendModelChange(provider, model string) (string, error) {
	return m.appendEntry(func(b base) Entry { return ModelChangeEntry{base: b, Provider: provider, Model: model} })
}

// AppendCompaction appends a compaction entry.
func (m *Manager) AppendCompaction(summary, firstKeptEntryID string, tokensBefore int) (string, error) {
	return m.appendEntry(func(b base) Entry {
		return CompactionEntry{base: b, Summary: summary, FirstKeptEntryID: firstKeptEntryID, TokensBefore: tokensBefore}
	})
}

// AppendCustomEntry appends an opaque custom entry. It is addressable in
// the tree and branch path but never appears in a reconstructed context.
func (m *Manager) AppendCustomEntry(customType string, data map[string]any) (string, error) {
	return m.appendEntry(func(b base) Entry { return CustomEntry{base: b, CustomType: customType, Data: data} })
}

// AppendCustomMessage appends a custom_message entry: a note that shows up
// in a reconstructed context as a synthetic display message, filtered out
// before reaching an LLM.
func (m *Manager) AppendCustomMessage(text string) (string, error) {
	return m.appendEntry(func(b base) Entry { return CustomMessageEntry{base: b, Text: text} })
}

// AppendSessionInfo appends a session_info entry.
func (m *Manager) AppendSessionInfo(name string) (string, error) {
	return m.appendEntry(func(b base) Entry { return SessionInfoEntry{base: b, Name: name} })
}

// AppendLabelChange sets (label != nil) or clears (label == nil) targetID's
// label; the latest label entry for a target wins.
func (m *Manager) AppendLabelChange(targetID string, label *string) (string, error) {
	m.mu.Lock()
	if _, ok := m.byID[targetID]; !ok {
		m.mu.Unlock()
		return "", fmt.Errorf("session: label target not found: %s", targetID)
	}
	m.mu.Unlock()
	return m.appendEntry(func(b base) Entry { return LabelEntry{base: b, TargetID: targetID, Label: label} })
}

// GetLabel returns targetID's current label, or nil if unset.
func (m *Manager) GetLabel(targetID string) *string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.labels[targetID]; ok {
		return &l
	}
	return nil
}

// GetEntries returns every entry in append order.
func (m *Manager) GetEntries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Messages returns every message.Message appended so far, in append order,
// ignoring all non-message entries.
func (m *Manager) Messages() []message.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []message.Message
	for _, e := range m.entries {
		if me, ok := e.(MessageEntry); ok {
			out = append(out, me.Message)
		}
	}
	return out
}

// GetEntry looks up a single entry by id.
func (m *Manager) GetEntry(id string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, ok := m.byID[id]
	if !ok {
		return nil, false
	}
	return m.entries[idx], true
}

// GetChildren returns id's direct children in append order.
func (m *Manager) GetChildren(id string) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for _, e := range m.entries {
		if e.ParentEntryID() == id {
			out = append(out, e)
		}
	}
	return out
}

// GetLeafID returns the current insertion point, or "" if nothing has been
// appended yet.
func (m *Manager) GetLeafID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.leafID
}

// GetLeafEntry returns the entry at the current leaf, if any.
func (m *Manager) GetLeafEntry() (Entry, bool) {
	m.mu.Lock()
	leaf := m.leafID
	m.mu.Unlock()
	if leaf == "" {
		return nil, false
	}
	return m.GetEntry(leaf)
}

// GetBranch returns the root-to-leaf path for leafID (defaulting to the
// current leaf when leafID is ""), oldest entry first.
func (m *Manager) GetBranch(leafID string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if leafID == "" {
		leafID = m.leafID
	}
	if leafID == "" {
		return nil, nil
	}
	idx, ok := m.byID[leafID]
	if !ok {
		return nil, fmt.Errorf("session: entry not found: %s", leafID)
	}

	var reverse []Entry
	cur := m.entries[idx]
	for {
		reverse = append(reverse, cur)
		parent := cur.ParentEntryID()
		if parent == "" {
			break
		}
		pidx, ok := m.byID[parent]
		if !ok {
			break
		}
		cur = m.entries[pidx]
	}
	path := make([]Entry, len(reverse))
	for i, e := range reverse {
		path[len(reverse)-1-i] = e
	}
	return path, nil
}

// Branch repoints the leaf cursor to id; future appends chain off it.
func (m *Manager) Branch(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return fmt.Errorf("session: branch: entry not found: %s", id)
	}
	m.leafID = id
	return nil
}

// BranchWithSummary branches to fromID and appends a branch_summary entry
// recording the abandoned subtree's intent, leaving the new summary entry
// as the leaf.
func (m *Manager) BranchWithSummary(fromID, summary string) (string, error) {
	if err := m.Branch(fromID); err != nil {
		return "", err
	}
	return m.appendEntry(func(b base) Entry { return BranchSummaryEntry{base: b, FromID: fromID, Summary: summary} })
}

// CreateBranchedSession writes a fresh session file at destPath containing
// a new header referencing this session (ParentSession = this session's
// path, or its header id when in-memory), followed by the
// branch-root-to-leaf path for leafID: labels not on that path are
// dropped, labels on it are re-emitted against the same target ids. With
// destPath == "", a file-backed session writes the branch beside its own
// file under a generated "-branch-<id>" name, and an in-memory session
// yields an in-memory branch.
func (m *Manager) CreateBranchedSession(leafID, destPath string) (*Manager, error) {
	path, err := m.GetBranch(leafID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	parentRef := m.path
	if parentRef == "" {
		parentRef = m.header.ID
	}
	srcCwd := m.header.Cwd
	m.mu.Unlock()

	if destPath == "" && m.path != "" {
		destPath = defaultBranchPath(m.path)
	}

	branch := &Manager{
		path:   destPath,
		header: Header{Type: "session", ID: uuid.New().String(), Version: CurrentVersion, Timestamp: nowStamp(), Cwd: srcCwd, ParentSession: parentRef},
		byID:   map[string]int{},
		labels: map[string]string{},
	}
	for _, e := range path {
		branch.addEntryLocked(e)
	}
	for _, e := range path {
		if label := m.GetLabel(e.EntryID()); label != nil {
			l := *label
			branch.addEntryLocked(LabelEntry{base: branch.newBase(), TargetID: e.EntryID(), Label: &l})
		}
	}
	if destPath != "" {
		if err := os.MkdirAll(filepath.Dir(destPath), 0o700); err != nil {
			return nil, err
		}
		if err := branch.rewriteLocked(); err != nil {
			return nil, err
		}
	}
	return branch, nil
}

func defaultBranchPath(original string) string {
	ext := filepath.Ext(original)
	base := strings.TrimSuffix(original, ext)
	return base + "-branch-" + newEntryID() + ext
}

// List returns every session found directly under dir, most-recently
// modified first. Modified time is derived from the timestamp of the last
// message entry when present, falling back to the file's mtime.
func List(dir, cwdFilter string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []Info
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".jsonl") {
			continue
		}
		path := filepath.Join(dir, de.Name())
		info, ok := describeSession(path)
		if !ok {
			continue
		}
		if cwdFilter != "" && info.Cwd != cwdFilter {
			continue
		}
		out = append(out, info)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Modified.After(out[j-1].Modified); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

// Info summarizes a session file for a picker/list UI.
type Info struct {
	Path     string
	ID       string
	Cwd      string
	Modified time.Time
}

func describeSession(path string) (Info, bool) {
	raw, err := readRawLines(path)
	if err != nil || !hasValidHeader(raw) {
		return Info{}, false
	}
	header, err := decodeHeaderMap(raw[0])
	if err != nil {
		return Info{}, false
	}

	modified, err := time.Parse(time.RFC3339, header.Timestamp)
	if err != nil {
		modified = time.Unix(0, 0).UTC()
	}
	for _, rawEntry := range raw[1:] {
		t, _ := rawEntry["type"].(string)
		if t != "message" {
			continue
		}
		msg, ok := rawEntry["message"].(map[string]any)
		if !ok {
			continue
		}
		if ts, ok := msg["timestamp"]; ok {
			if ms := rawInt(ts, -1); ms >= 0 {
				asTime := time.UnixMilli(int64(ms)).UTC()
				if asTime.After(modified) {
					modified = asTime
				}
			}
		}
	}
	if stat, err := os.Stat(path); err == nil && stat.ModTime().After(modified) {
		// File mtime only wins when no message timestamp was found at all;
		// a session with real traffic is dated by its content.
		hasMessage := false
		for _, rawEntry := range raw[1:] {
			if t, _ := rawEntry["type"].(string); t == "message" {
				hasMessage = true
				break
			}
		}
		if !hasMessage {
			modified = stat.ModTime()
		}
	}

	return Info{Path: path, ID: header.ID, Cwd: header.Cwd, Modified: modified}, true
}

// FindMostRecentSession returns the path of the most recently modified
// session file under dir, or "" if there is none.
func FindMostRecentSession(dir string) (string, error) {
	list, err := List(dir, "")
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "", nil
	}
	return list[0].Path, nil
}

// LoadEntriesFromFile reads and parses a session file's lines (the header
// included, at index 0), tolerating a missing file, an empty file, a file
// with no valid header, or individually malformed lines — all yield a
// (possibly empty) result rather than an error.
func LoadEntriesFromFile(path string) []map[string]any {
	raw, err := readRawLines(path)
	if err != nil || !hasValidHeader(raw) {
		return nil
	}
	return raw
}
