// Package limittree evaluates forests of benefit limits: roll-up
// statistics, display flattening with expand/collapse state, and the
// ordered set of limits a claim hits.
//
// Every function here is pure over an already-built forest. Trees are
// immutable; the only mutable state is an Expansion table, which is not
// safe for concurrent use without external synchronization.
package limittree

import "github.com/carelink/benefitlimits/internal/domain"

// AggregateStats summarises a forest. Totals cover root limits only:
// children are sub-allocations inside their parent's ceiling, so adding
// them would overstate exposure.
type AggregateStats struct {
	NestedRootCount     int          `json:"nested_root_count"`
	FlatRootCount       int          `json:"flat_root_count"`
	TotalLimitAmount    domain.Cents `json:"total_limit_amount"`
	TotalUtilizedAmount domain.Cents `json:"total_utilized_amount"`
	OverallPercentage   float64      `json:"overall_percentage"`
}

// Aggregate computes AggregateStats. An empty forest yields the zero value.
func Aggregate(forest []*domain.LimitNode) AggregateStats {
	var s AggregateStats
	for _, root := range forest {
		switch root.Kind() {
		case domain.KindNested:
			s.NestedRootCount++
		case domain.KindFlat:
			s.FlatRootCount++
		}
		s.TotalLimitAmount += root.Limit()
		s.TotalUtilizedAmount += root.Utilized()
	}
	s.OverallPercentage = domain.PercentOf(s.TotalUtilizedAmount, s.TotalLimitAmount)
	return s
}

// KindCounts counts every node in the forest, at any depth, by kind.
type KindCounts struct {
	Flat   int `json:"flat"`
	Nested int `json:"nested"`
	Total  int `json:"total"`
	// MaxDepth is the deepest level present; roots are depth 0, -1 for an
	// empty forest.
	MaxDepth int `json:"max_depth"`
}

// CountByKind walks the whole forest regardless of expansion state.
func CountByKind(forest []*domain.LimitNode) KindCounts {
	c := KindCounts{MaxDepth: -1}
	for row := range Flatten(forest, nil) {
		switch row.Node.Kind() {
		case domain.KindNested:
			c.Nested++
		case domain.KindFlat:
			c.Flat++
		}
		c.Total++
		c.MaxDepth = max(c.MaxDepth, row.Depth)
	}
	return c
}

// NodeStats are the derived figures for a single limit.
type NodeStats struct {
	Limit        domain.Cents `json:"limit_amount"`
	Utilized     domain.Cents `json:"utilized_amount"`
	Remaining    domain.Cents `json:"remaining_amount"`
	Percentage   float64      `json:"percentage"`
	Tier         UsageTier    `json:"usage_tier"`
	OverUtilized bool         `json:"over_utilized"`
}

// Summarize derives NodeStats for n, classifying usage with th.
func Summarize(n *domain.LimitNode, th Thresholds) NodeStats {
	pct := n.Percentage()
	return NodeStats{
		Limit:        n.Limit(),
		Utilized:     n.Utilized(),
		Remaining:    n.Remaining(),
		Percentage:   pct,
		Tier:         th.Classify(pct),
		OverUtilized: n.OverUtilized(),
	}
}
