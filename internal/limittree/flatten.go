package limittree

import (
	"iter"
	"slices"

	"github.com/carelink/benefitlimits/internal/domain"
)

// DisplayRow is one visible line of a limit tree.
type DisplayRow struct {
	Node        *domain.LimitNode
	Depth       int
	HasChildren bool
	// Expanded is the node's state in the expansion table. It is always
	// true for nodes without children.
	Expanded bool
}

type frame struct {
	node  *domain.LimitNode
	depth int
}

// Flatten yields the visible rows of a forest in pre-order: each root,
// then each child's subtree in child order. A collapsed node yields its own
// row and none of its descendants. Depth starts at 0 and has no cap.
//
// The sequence is lazy and can be ranged over any number of times; each
// pass walks the forest again with the expansion state current at that
// time.
func Flatten(forest []*domain.LimitNode, exp *Expansion) iter.Seq[DisplayRow] {
	return func(yield func(DisplayRow) bool) {
		stack := make([]frame, 0, len(forest))
		for i := len(forest) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: forest[i]})
		}
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			hasChildren := f.node.HasChildren()
			expanded := !hasChildren || exp.IsExpanded(f.node.ID())
			if !yield(DisplayRow{Node: f.node, Depth: f.depth, HasChildren: hasChildren, Expanded: expanded}) {
				return
			}
			if !hasChildren || !expanded {
				continue
			}
			children := f.node.Children()
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, frame{node: children[i], depth: f.depth + 1})
			}
		}
	}
}

// Rows collects Flatten into a slice.
func Rows(forest []*domain.LimitNode, exp *Expansion) []DisplayRow {
	return slices.Collect(Flatten(forest, exp))
}

// TierIndex maps a depth to one of tiers visual tiers. Depths past the
// last tier reuse it; tiers < 1 is treated as 1.
func TierIndex(depth, tiers int) int {
	if tiers < 1 {
		tiers = 1
	}
	if depth < 0 {
		return 0
	}
	return min(depth, tiers-1)
}
