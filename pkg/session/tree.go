package session

// Node is one entry materialized into the session tree, with its current
// label (if any) and its direct children in append order. The tree is
// rebuilt on demand from the flat entry list plus its id->index map; no
// mutable child-pointer list is maintained between calls.
type Node struct {
	Entry    Entry
	Label    string
	Children []*Node
}

// GetTree returns the forest of root nodes (normally a single root: the
// first appended entry) with every descendant attached.
func (m *Manager) GetTree() []*Node {
	m.mu.Lock()
	defer m.mu.Unlock()

	nodes := make(map[string]*Node, len(m.entries))
	var order []string
	for _, e := range m.entries {
		n := &Node{Entry: e, Label: m.labels[e.EntryID()]}
		nodes[e.EntryID()] = n
		order = append(order, e.EntryID())
	}

	var roots []*Node
	for _, id := range order {
		n := nodes[id]
		parent := n.Entry.ParentEntryID()
		if parent == "" {
			roots = append(roots, n)
			continue
		}
		if p, ok := nodes[parent]; ok {
			p.Children = append(p.Children, n)
		} else {
			roots = append(roots, n)
		}
	}
	return roots
}
