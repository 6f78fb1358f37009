package domain

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Cents is an amount in minor currency units.
type Cents int64

// ServiceType is a short code classifying a medical service category,
// e.g. "GP", "SP", "OC", "DT", "MT".
type ServiceType string

// NormalizeServiceType trims and upper-cases a raw service code.
func NormalizeServiceType(s string) ServiceType {
	return ServiceType(strings.ToUpper(strings.TrimSpace(s)))
}

type Kind string

const (
	KindFlat   Kind = "flat"
	KindNested Kind = "nested"
)

// ParseKind accepts "flat" or "nested" in any case.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindFlat:
		return KindFlat, nil
	case KindNested:
		return KindNested, nil
	default:
		return "", &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown limit kind %q", s)}
	}
}

// LimitNode is a single benefit limit. Flat limits never have children;
// nested limits hold narrower sub-limits whose service types are a subset
// of their own. Nodes are immutable once built.
type LimitNode struct {
	id           string
	name         string
	serviceTypes []ServiceType
	kind         Kind
	limit        Cents
	utilized     Cents
	children     []*LimitNode
}

// NewFlat builds a standalone limit.
func NewFlat(id, name string, serviceTypes []string, limit, utilized Cents) (*LimitNode, error) {
	return newNode(id, name, KindFlat, serviceTypes, limit, utilized, nil)
}

// NewNested builds a limit containing the given sub-limits, in display order.
func NewNested(id, name string, serviceTypes []string, limit, utilized Cents, children ...*LimitNode) (*LimitNode, error) {
	return newNode(id, name, KindNested, serviceTypes, limit, utilized, children)
}

func newNode(id, name string, kind Kind, rawTypes []string, limit, utilized Cents, children []*LimitNode) (*LimitNode, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	types, err := normalizeServiceTypes(id, rawTypes)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, &ValidationError{NodeID: id, Field: "limit_amount", Reason: fmt.Sprintf("must not be negative, got %d", limit)}
	}
	if utilized < 0 {
		return nil, &ValidationError{NodeID: id, Field: "utilized_amount", Reason: fmt.Sprintf("must not be negative, got %d", utilized)}
	}
	if kind == KindFlat && len(children) > 0 {
		return nil, &ConfigurationError{NodeID: id, Reason: "flat limit cannot have children"}
	}

	n := &LimitNode{
		id:           id,
		name:         name,
		serviceTypes: types,
		kind:         kind,
		limit:        limit,
		utilized:     utilized,
	}
	if len(children) > 0 {
		n.children = make([]*LimitNode, 0, len(children))
	}
	for i, c := range children {
		if c == nil {
			return nil, &ValidationError{NodeID: id, Field: "children", Reason: fmt.Sprintf("child %d is nil", i)}
		}
		if missing := uncovered(types, c.serviceTypes); len(missing) > 0 {
			return nil, &ConfigurationError{
				NodeID: id,
				Reason: fmt.Sprintf("service types do not cover child %q (missing %s)", c.id, joinTypes(missing)),
			}
		}
		n.children = append(n.children, c)
	}
	return n, nil
}

func normalizeServiceTypes(id string, raw []string) ([]ServiceType, error) {
	if len(raw) == 0 {
		return nil, &ValidationError{NodeID: id, Field: "service_types", Reason: "must not be empty"}
	}
	types := make([]ServiceType, 0, len(raw))
	for _, r := range raw {
		st := NormalizeServiceType(r)
		if st == "" {
			return nil, &ValidationError{NodeID: id, Field: "service_types", Reason: "contains a blank code"}
		}
		types = append(types, st)
	}
	slices.Sort(types)
	return slices.Compact(types), nil
}

// uncovered returns the codes in sub that are not in set. Both are sorted.
func uncovered(set, sub []ServiceType) []ServiceType {
	var missing []ServiceType
	for _, st := range sub {
		if _, ok := slices.BinarySearch(set, st); !ok {
			missing = append(missing, st)
		}
	}
	return missing
}

func joinTypes(types []ServiceType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

func (n *LimitNode) ID() string      { return n.id }
func (n *LimitNode) Name() string    { return n.name }
func (n *LimitNode) Kind() Kind      { return n.kind }
func (n *LimitNode) Limit() Cents    { return n.limit }
func (n *LimitNode) Utilized() Cents { return n.utilized }

// ServiceTypes returns a copy of the node's sorted service-type set.
func (n *LimitNode) ServiceTypes() []ServiceType {
	return slices.Clone(n.serviceTypes)
}

// Children returns a copy of the child list in display order.
func (n *LimitNode) Children() []*LimitNode {
	return slices.Clone(n.children)
}

func (n *LimitNode) HasChildren() bool { return len(n.children) > 0 }

// Covers reports whether the node's scope includes the service type.
func (n *LimitNode) Covers(st ServiceType) bool {
	_, ok := slices.BinarySearch(n.serviceTypes, NormalizeServiceType(string(st)))
	return ok
}

// Remaining is limit minus utilized, floored at zero. It is recomputed on
// every call.
func (n *LimitNode) Remaining() Cents {
	if n.utilized >= n.limit {
		return 0
	}
	return n.limit - n.utilized
}

// OverUtilized reports utilization beyond the ceiling.
func (n *LimitNode) OverUtilized() bool { return n.utilized > n.limit }

// Percentage is utilized / limit * 100, or 0 for a zero limit. It may
// exceed 100.
func (n *LimitNode) Percentage() float64 {
	return PercentOf(n.utilized, n.limit)
}

// PercentOf returns part / whole * 100 as a float, 0 when whole is zero.
// The division runs in decimal so exact ratios such as 15000/150000 come
// out as exactly 10.
func PercentOf(part, whole Cents) float64 {
	if whole <= 0 {
		return 0
	}
	return decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(whole))).
		InexactFloat64()
}
