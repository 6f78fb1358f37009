package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/carelink/benefitlimits/internal/domain"
)

type ImportRepo struct {
	db *sql.DB
}

func NewImportRepo(db *sql.DB) *ImportRepo {
	return &ImportRepo{db: db}
}

// ExistsByHash checks whether a file with the given hash has already been
// imported (idempotency check).
func (r *ImportRepo) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM import_reports WHERE file_hash = ?", hash,
	).Scan(&count)
	return count > 0, err
}

func (r *ImportRepo) Insert(ctx context.Context, rpt *domain.ImportReport) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO import_reports
		(id, kind, format, plan_id, file_hash, record_count, imported_at)
		VALUES (?,?,?,?,?,?,?)`,
		rpt.ID, rpt.Kind, rpt.Format, rpt.PlanID, rpt.FileHash, rpt.RecordCount,
		rpt.ImportedAt.Format(time.RFC3339),
	)
	return err
}
