package ingestion

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/carelink/benefitlimits/internal/currency"
	"github.com/carelink/benefitlimits/internal/domain"
)

// ParsePlanJSON parses a plan configuration document.
//
// Expected shape:
//
//	{"plan": {"id": "...", "name": "...", "member_id": "...", ...},
//	 "limits": [{"id": "...", "kind": "nested", "service_types": [...],
//	             "limit_amount": 150000, "utilized_amount": 15000,
//	             "children": [...]}]}
//
// Amounts are in minor units.
func ParsePlanJSON(data []byte) (*domain.PlanDocument, []*domain.LimitNode, error) {
	var doc domain.PlanDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("unmarshal: %w", err)
	}
	return finishPlan(&doc)
}

// ParsePlanYAML parses the YAML form of the same document.
func ParsePlanYAML(data []byte) (*domain.PlanDocument, []*domain.LimitNode, error) {
	var doc domain.PlanDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("unmarshal: %w", err)
	}
	return finishPlan(&doc)
}

func finishPlan(doc *domain.PlanDocument) (*domain.PlanDocument, []*domain.LimitNode, error) {
	doc.Plan.ID = strings.TrimSpace(doc.Plan.ID)
	if doc.Plan.ID == "" {
		return nil, nil, &domain.ValidationError{Field: "plan.id", Reason: "must not be empty"}
	}
	if strings.TrimSpace(doc.Plan.MemberID) == "" {
		return nil, nil, &domain.ValidationError{Field: "plan.member_id", Reason: "must not be empty"}
	}
	if doc.Plan.Currency == "" {
		doc.Plan.Currency = currency.DefaultCode
	}
	doc.Plan.Currency = strings.ToUpper(doc.Plan.Currency)

	forest, err := domain.BuildForest(doc.Limits)
	if err != nil {
		return nil, nil, fmt.Errorf("limits: %w", err)
	}
	return doc, forest, nil
}
