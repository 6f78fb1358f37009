package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/carelink/benefitlimits/internal/domain"
)

type ClaimRepo struct {
	db *sql.DB
}

func NewClaimRepo(db *sql.DB) *ClaimRepo {
	return &ClaimRepo{db: db}
}

// BulkInsert stores claims, skipping claim numbers already present. It
// returns the number of new rows.
func (r *ClaimRepo) BulkInsert(ctx context.Context, claims []domain.Claim) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO claims
		(claim_number, member_id, plan_id, claim_date, provider, service_type, amount_cents, status)
		VALUES (?,?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range claims {
		c := &claims[i]
		res, err := stmt.ExecContext(ctx,
			c.ClaimNumber, c.MemberID, c.PlanID, c.Date.Format(time.RFC3339),
			c.Provider, string(c.ServiceType), int64(c.Amount), string(c.Status),
		)
		if err != nil {
			return inserted, fmt.Errorf("insert claim %d: %w", i, err)
		}
		ra, _ := res.RowsAffected()
		inserted += int(ra)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// ListByPlan returns a plan's claims by date ascending, claim number
// breaking ties.
func (r *ClaimRepo) ListByPlan(ctx context.Context, planID string) ([]domain.Claim, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT claim_number, member_id, plan_id, claim_date, provider, service_type, amount_cents, status
		FROM claims WHERE plan_id = ? ORDER BY claim_date ASC, claim_number ASC`, planID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []domain.Claim
	for rows.Next() {
		var c domain.Claim
		var date, st, status string
		var amount int64
		if err := rows.Scan(&c.ClaimNumber, &c.MemberID, &c.PlanID, &date, &c.Provider, &st, &amount, &status); err != nil {
			return nil, err
		}
		c.Date, _ = time.Parse(time.RFC3339, date)
		c.ServiceType = domain.ServiceType(st)
		c.Amount = domain.Cents(amount)
		c.Status = domain.ClaimStatus(status)
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

func (r *ClaimRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM claims").Scan(&count)
	return count, err
}
