package domain

import "time"

// Plan is one member's enrolment in a benefit plan. Each plan owns the
// forest of limits shown in a plan view.
type Plan struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	MemberID   string    `json:"member_id" yaml:"member_id"`
	MemberName string    `json:"member_name" yaml:"member_name"`
	Currency   string    `json:"currency" yaml:"currency"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
}

// PlanDocument is a plan together with its limit configuration, as read
// from an import file.
type PlanDocument struct {
	Plan   Plan        `json:"plan" yaml:"plan"`
	Limits []LimitSpec `json:"limits" yaml:"limits"`
}

// ImportReport records one ingested file.
type ImportReport struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Format      string    `json:"format"`
	PlanID      string    `json:"plan_id"`
	FileHash    string    `json:"file_hash"`
	RecordCount int       `json:"record_count"`
	ImportedAt  time.Time `json:"imported_at"`
}
