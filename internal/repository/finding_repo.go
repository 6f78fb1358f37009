package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/carelink/benefitlimits/internal/domain"
)

type FindingRepo struct {
	db *sql.DB
}

func NewFindingRepo(db *sql.DB) *FindingRepo {
	return &FindingRepo{db: db}
}

func (r *FindingRepo) BulkInsert(ctx context.Context, findings []domain.Finding) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO findings
		(id, type, plan_id, node_id, claim_number, severity, amount_cents, description, detected_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range findings {
		f := &findings[i]
		res, err := stmt.ExecContext(ctx,
			f.ID, string(f.Type), f.PlanID, nullable(f.NodeID), nullable(f.ClaimNumber),
			string(f.Severity), int64(f.Amount), f.Description, f.DetectedAt.Format(time.RFC3339),
		)
		if err != nil {
			return inserted, fmt.Errorf("insert %d: %w", i, err)
		}
		ra, _ := res.RowsAffected()
		inserted += int(ra)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// ClearPlan removes a plan's findings before a review is re-run.
func (r *FindingRepo) ClearPlan(ctx context.Context, planID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM findings WHERE plan_id = ?", planID)
	return err
}

type FindingFilter struct {
	PlanID   string
	Type     string
	Severity string
	From     *time.Time
	To       *time.Time
	Page     int
	Limit    int
}

func (r *FindingRepo) List(ctx context.Context, f FindingFilter) ([]domain.Finding, int, error) {
	where, args := buildFindingWhere(f)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM findings"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	q := "SELECT id, type, plan_id, node_id, claim_number, severity, amount_cents, description, detected_at FROM findings" +
		where + " ORDER BY detected_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, f.Limit, offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	findings, err := scanFindings(rows)
	return findings, total, err
}

type FindingSummary struct {
	TotalCount  int            `json:"total_count"`
	TotalAmount domain.Cents   `json:"total_amount"`
	ByType      map[string]int `json:"by_type"`
	BySeverity  map[string]int `json:"by_severity"`
	ByPlan      map[string]int `json:"by_plan"`
}

func (r *FindingRepo) GetSummary(ctx context.Context) (*FindingSummary, error) {
	s := &FindingSummary{
		ByType:     make(map[string]int),
		BySeverity: make(map[string]int),
		ByPlan:     make(map[string]int),
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(amount_cents),0) FROM findings",
	).Scan(&s.TotalCount, &total); err != nil {
		return nil, err
	}
	s.TotalAmount = domain.Cents(total)

	if err := r.scanGroupCount(ctx, "type", s.ByType); err != nil {
		return nil, err
	}
	if err := r.scanGroupCount(ctx, "severity", s.BySeverity); err != nil {
		return nil, err
	}
	if err := r.scanGroupCount(ctx, "plan_id", s.ByPlan); err != nil {
		return nil, err
	}
	return s, nil
}

// --- helpers ---

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func buildFindingWhere(f FindingFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.PlanID != "" {
		clauses = append(clauses, "plan_id = ?")
		args = append(args, f.PlanID)
	}
	if f.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, f.Type)
	}
	if f.Severity != "" {
		clauses = append(clauses, "severity = ?")
		args = append(args, f.Severity)
	}
	if f.From != nil {
		clauses = append(clauses, "detected_at >= ?")
		args = append(args, f.From.Format(time.RFC3339))
	}
	if f.To != nil {
		clauses = append(clauses, "detected_at <= ?")
		args = append(args, f.To.Format(time.RFC3339))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *FindingRepo) scanGroupCount(ctx context.Context, col string, m map[string]int) error {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+col+", COUNT(*) FROM findings GROUP BY "+col,
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var k string
		var v int
		if err := rows.Scan(&k, &v); err != nil {
			return err
		}
		m[k] = v
	}
	return rows.Err()
}

func scanFindings(rows *sql.Rows) ([]domain.Finding, error) {
	var findings []domain.Finding
	for rows.Next() {
		var f domain.Finding
		var ftype, sev, detectedAt string
		var nodeID, claimNumber sql.NullString
		var amount int64

		err := rows.Scan(
			&f.ID, &ftype, &f.PlanID, &nodeID, &claimNumber,
			&sev, &amount, &f.Description, &detectedAt,
		)
		if err != nil {
			return nil, err
		}

		f.Type = domain.FindingType(ftype)
		f.Severity = domain.Severity(sev)
		f.Amount = domain.Cents(amount)
		f.DetectedAt, _ = time.Parse(time.RFC3339, detectedAt)
		f.NodeID = nodeID.String
		f.ClaimNumber = claimNumber.String

		findings = append(findings, f)
	}
	return findings, rows.Err()
}
