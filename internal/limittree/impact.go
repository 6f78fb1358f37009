package limittree

import "github.com/carelink/benefitlimits/internal/domain"

// ResolveImpact returns the ids of every limit whose service types include
// the claim's service type, root to leaf and left to right among siblings.
// Expansion state plays no part. The first id, if any, is a root.
//
// An empty result means the claim falls outside this plan's limits. That
// is an expected outcome, not an error. Amounts are never changed; a
// ledger applying the claim debits the limits in the returned order.
func ResolveImpact(claim domain.Claim, forest []*domain.LimitNode) []string {
	var ids []string
	walkImpacted(claim.ServiceType, forest, func(n *domain.LimitNode) {
		ids = append(ids, n.ID())
	})
	return ids
}

// ImpactedLimitNames is ResolveImpact returning limit names instead of ids.
func ImpactedLimitNames(claim domain.Claim, forest []*domain.LimitNode) []string {
	var names []string
	walkImpacted(claim.ServiceType, forest, func(n *domain.LimitNode) {
		names = append(names, n.Name())
	})
	return names
}

// IsApplicable reports whether an impact sequence hit any limit.
func IsApplicable(impact []string) bool { return len(impact) > 0 }

// walkImpacted visits covering nodes in pre-order. A node that does not
// cover st cannot have a covering descendant, so its subtree is skipped.
func walkImpacted(st domain.ServiceType, forest []*domain.LimitNode, visit func(*domain.LimitNode)) {
	st = domain.NormalizeServiceType(string(st))
	if st == "" {
		return
	}
	stack := make([]*domain.LimitNode, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, forest[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !n.Covers(st) {
			continue
		}
		visit(n)
		children := n.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
}
