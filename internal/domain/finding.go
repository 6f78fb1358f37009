package domain

import "time"

type FindingType string

const (
	FindingOverUtilized   FindingType = "OVER_UTILIZED_LIMIT"
	FindingHighUsage      FindingType = "HIGH_USAGE_LIMIT"
	FindingUncoveredClaim FindingType = "UNCOVERED_CLAIM"
)

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Finding is a reportable, non-fatal condition found while reviewing a
// plan: a limit used beyond its ceiling or close to it, or a claim whose
// service type no limit covers.
type Finding struct {
	ID          string      `json:"id"`
	Type        FindingType `json:"type"`
	PlanID      string      `json:"plan_id"`
	NodeID      string      `json:"node_id,omitempty"`
	ClaimNumber string      `json:"claim_number,omitempty"`
	Severity    Severity    `json:"severity"`
	Amount      Cents       `json:"amount"`
	Description string      `json:"description"`
	DetectedAt  time.Time   `json:"detected_at"`
}
