package domain

import "fmt"

// LimitSpec is the plain-data form of a limit tree, used for plan files,
// storage and API payloads.
type LimitSpec struct {
	ID             string      `json:"id" yaml:"id"`
	Name           string      `json:"name" yaml:"name"`
	ServiceTypes   []string    `json:"service_types" yaml:"service_types"`
	Kind           string      `json:"kind" yaml:"kind"`
	LimitAmount    int64       `json:"limit_amount" yaml:"limit_amount"`
	UtilizedAmount int64       `json:"utilized_amount" yaml:"utilized_amount"`
	Children       []LimitSpec `json:"children,omitempty" yaml:"children,omitempty"`
}

// Build validates a spec and constructs the limit tree it describes.
func Build(spec LimitSpec) (*LimitNode, error) {
	kind, err := ParseKind(spec.Kind)
	if err != nil {
		if ve, ok := err.(*ValidationError); ok {
			ve.NodeID = spec.ID
		}
		return nil, err
	}
	if kind == KindFlat {
		if len(spec.Children) > 0 {
			return nil, &ConfigurationError{NodeID: spec.ID, Reason: "flat limit cannot have children"}
		}
		return NewFlat(spec.ID, spec.Name, spec.ServiceTypes, Cents(spec.LimitAmount), Cents(spec.UtilizedAmount))
	}

	children := make([]*LimitNode, 0, len(spec.Children))
	for _, cs := range spec.Children {
		c, err := Build(cs)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	return NewNested(spec.ID, spec.Name, spec.ServiceTypes, Cents(spec.LimitAmount), Cents(spec.UtilizedAmount), children...)
}

// BuildForest builds every root and rejects node ids used more than once
// across the whole forest.
func BuildForest(specs []LimitSpec) ([]*LimitNode, error) {
	forest := make([]*LimitNode, 0, len(specs))
	for _, s := range specs {
		n, err := Build(s)
		if err != nil {
			return nil, err
		}
		forest = append(forest, n)
	}
	if err := checkUniqueIDs(forest); err != nil {
		return nil, err
	}
	return forest, nil
}

// ToSpec converts a tree back to its plain-data form.
func ToSpec(n *LimitNode) LimitSpec {
	s := LimitSpec{
		ID:             n.id,
		Name:           n.name,
		ServiceTypes:   make([]string, len(n.serviceTypes)),
		Kind:           string(n.kind),
		LimitAmount:    int64(n.limit),
		UtilizedAmount: int64(n.utilized),
	}
	for i, st := range n.serviceTypes {
		s.ServiceTypes[i] = string(st)
	}
	for _, c := range n.children {
		s.Children = append(s.Children, ToSpec(c))
	}
	return s
}

// ForestSpec converts every root with ToSpec.
func ForestSpec(forest []*LimitNode) []LimitSpec {
	specs := make([]LimitSpec, 0, len(forest))
	for _, n := range forest {
		specs = append(specs, ToSpec(n))
	}
	return specs
}

// ValidateForest re-checks a forest handed over by another component:
// no nil nodes, flat limits without children, parents covering their
// children and unique ids.
func ValidateForest(forest []*LimitNode) error {
	stack := make([]*LimitNode, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		if forest[i] == nil {
			return &ValidationError{Field: "forest", Reason: fmt.Sprintf("root %d is nil", i)}
		}
		stack = append(stack, forest[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.kind == KindFlat && len(n.children) > 0 {
			return &ConfigurationError{NodeID: n.id, Reason: "flat limit cannot have children"}
		}
		for i := len(n.children) - 1; i >= 0; i-- {
			c := n.children[i]
			if c == nil {
				return &ValidationError{NodeID: n.id, Field: "children", Reason: fmt.Sprintf("child %d is nil", i)}
			}
			if missing := uncovered(n.serviceTypes, c.serviceTypes); len(missing) > 0 {
				return &ConfigurationError{
					NodeID: n.id,
					Reason: fmt.Sprintf("service types do not cover child %q (missing %s)", c.id, joinTypes(missing)),
				}
			}
			stack = append(stack, c)
		}
	}
	return checkUniqueIDs(forest)
}

func checkUniqueIDs(forest []*LimitNode) error {
	seen := make(map[string]struct{})
	stack := append([]*LimitNode(nil), forest...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, dup := seen[n.id]; dup {
			return &ConfigurationError{NodeID: n.id, Reason: "duplicate limit id"}
		}
		seen[n.id] = struct{}{}
		stack = append(stack, n.children...)
	}
	return nil
}
