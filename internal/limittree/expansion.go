package limittree

import (
	"slices"
	"strings"
)

// Expansion holds expand/collapse state for a view session, keyed by node
// id. Nodes are expanded unless collapsed here, so a fresh table shows the
// whole tree. A nil *Expansion reads as all expanded.
type Expansion struct {
	collapsed map[string]bool
}

func NewExpansion() *Expansion {
	return &Expansion{collapsed: make(map[string]bool)}
}

// NewExpansionFromCollapsed starts a table with the given ids collapsed.
// Blank ids are ignored.
func NewExpansionFromCollapsed(ids []string) *Expansion {
	e := NewExpansion()
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			e.collapsed[id] = true
		}
	}
	return e
}

func (e *Expansion) IsExpanded(id string) bool {
	if e == nil {
		return true
	}
	return !e.collapsed[id]
}

// SetExpanded records the state of one node. Other entries are untouched.
func (e *Expansion) SetExpanded(id string, expanded bool) {
	if e.collapsed == nil {
		e.collapsed = make(map[string]bool)
	}
	if expanded {
		delete(e.collapsed, id)
		return
	}
	e.collapsed[id] = true
}

func (e *Expansion) Collapse(id string) { e.SetExpanded(id, false) }
func (e *Expansion) Expand(id string)   { e.SetExpanded(id, true) }

// Toggle flips one node and returns its new state.
func (e *Expansion) Toggle(id string) bool {
	next := !e.IsExpanded(id)
	e.SetExpanded(id, next)
	return next
}

// CollapsedIDs returns the collapsed ids in sorted order.
func (e *Expansion) CollapsedIDs() []string {
	if e == nil {
		return nil
	}
	ids := make([]string, 0, len(e.collapsed))
	for id := range e.collapsed {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
