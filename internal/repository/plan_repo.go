package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carelink/benefitlimits/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type PlanRepo struct {
	db *sql.DB
}

func NewPlanRepo(db *sql.DB) *PlanRepo {
	return &PlanRepo{db: db}
}

// SavePlan stores a plan and replaces its whole limit tree in one
// transaction. Node positions keep sibling display order.
func (r *PlanRepo) SavePlan(ctx context.Context, plan *domain.Plan, forest []*domain.LimitNode) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO plans (id, name, member_id, member_name, currency, created_at)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			member_id = excluded.member_id,
			member_name = excluded.member_name,
			currency = excluded.currency`,
		plan.ID, plan.Name, plan.MemberID, plan.MemberName, plan.Currency,
		plan.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("upsert plan: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM limit_nodes WHERE plan_id = ?", plan.ID); err != nil {
		return 0, fmt.Errorf("clear limits: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO limit_nodes
		(plan_id, id, parent_id, position, name, kind, service_types, limit_cents, utilized_cents)
		VALUES (?,?,?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	type pending struct {
		node     *domain.LimitNode
		parentID any
		position int
	}
	queue := make([]pending, 0, len(forest))
	for i, n := range forest {
		queue = append(queue, pending{node: n, position: i})
	}

	inserted := 0
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		spec := domain.ToSpec(p.node)
		_, err := stmt.ExecContext(ctx,
			plan.ID, spec.ID, p.parentID, p.position, spec.Name, spec.Kind,
			strings.Join(spec.ServiceTypes, ","), spec.LimitAmount, spec.UtilizedAmount,
		)
		if err != nil {
			return inserted, fmt.Errorf("insert limit %s: %w", spec.ID, err)
		}
		inserted++

		for i, c := range p.node.Children() {
			queue = append(queue, pending{node: c, parentID: p.node.ID(), position: i})
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (r *PlanRepo) GetPlan(ctx context.Context, id string) (*domain.Plan, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, member_id, member_name, currency, created_at FROM plans WHERE id = ?", id,
	)
	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("plan %s: %w", id, ErrNotFound)
	}
	return p, err
}

func (r *PlanRepo) ListPlans(ctx context.Context, memberID string) ([]domain.Plan, error) {
	q := "SELECT id, name, member_id, member_name, currency, created_at FROM plans"
	var args []any
	if memberID != "" {
		q += " WHERE member_id = ?"
		args = append(args, memberID)
	}
	q += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []domain.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

func (r *PlanRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM plans").Scan(&count)
	return count, err
}

// LoadForest reassembles a plan's limit tree. Rows are rebuilt through the
// domain constructors, so stored data that breaks the tree rules comes
// back as a ConfigurationError or ValidationError.
func (r *PlanRepo) LoadForest(ctx context.Context, planID string) ([]*domain.LimitNode, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, parent_id, name, kind, service_types, limit_cents, utilized_cents
		FROM limit_nodes WHERE plan_id = ? ORDER BY position, id`, planID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	specs := make(map[string]*domain.LimitSpec)
	childIDs := make(map[string][]string)
	var rootIDs []string

	for rows.Next() {
		var s domain.LimitSpec
		var parent sql.NullString
		var types string
		if err := rows.Scan(&s.ID, &parent, &s.Name, &s.Kind, &types, &s.LimitAmount, &s.UtilizedAmount); err != nil {
			return nil, err
		}
		if types != "" {
			s.ServiceTypes = strings.Split(types, ",")
		}
		specs[s.ID] = &s
		if parent.Valid {
			childIDs[parent.String] = append(childIDs[parent.String], s.ID)
		} else {
			rootIDs = append(rootIDs, s.ID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for parentID := range childIDs {
		if _, ok := specs[parentID]; !ok {
			return nil, &domain.ConfigurationError{NodeID: parentID, Reason: "referenced as parent but not stored"}
		}
	}

	roots := make([]domain.LimitSpec, 0, len(rootIDs))
	for _, id := range rootIDs {
		roots = append(roots, assembleSpec(id, specs, childIDs))
	}
	return domain.BuildForest(roots)
}

func assembleSpec(id string, specs map[string]*domain.LimitSpec, childIDs map[string][]string) domain.LimitSpec {
	s := *specs[id]
	for _, cid := range childIDs[id] {
		s.Children = append(s.Children, assembleSpec(cid, specs, childIDs))
	}
	return s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*domain.Plan, error) {
	var p domain.Plan
	var createdAt string
	if err := row.Scan(&p.ID, &p.Name, &p.MemberID, &p.MemberName, &p.Currency, &createdAt); err != nil {
		return nil, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}
