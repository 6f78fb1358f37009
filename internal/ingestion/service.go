package ingestion

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/benefitlimits/internal/domain"
	"github.com/carelink/benefitlimits/internal/metrics"
	"github.com/carelink/benefitlimits/internal/repository"
	"github.com/carelink/benefitlimits/internal/utilization"
)

const (
	KindPlan   = "plan"
	KindClaims = "claims"

	FormatPlanJSON  = "plan_json"
	FormatPlanYAML  = "plan_yaml"
	FormatClaimsCSV = "claims_csv"
)

// ImportResult is returned from a successful import.
type ImportResult struct {
	ReportID          string `json:"report_id"`
	PlanID            string `json:"plan_id"`
	RecordsImported   int    `json:"records_imported"`
	DuplicatesSkipped int    `json:"duplicates_skipped"`
	FindingsDetected  int    `json:"findings_detected"`
	AlreadyImported   bool   `json:"already_imported,omitempty"`
}

// Service imports plan configurations and claim histories from the
// Plan/Membership Provider.
type Service struct {
	planRepo   *repository.PlanRepo
	claimRepo  *repository.ClaimRepo
	importRepo *repository.ImportRepo
	review     *utilization.Service
	metrics    metrics.Recorder
	log        zerolog.Logger
}

func NewService(
	planRepo *repository.PlanRepo,
	claimRepo *repository.ClaimRepo,
	importRepo *repository.ImportRepo,
	review *utilization.Service,
	rec metrics.Recorder,
	log zerolog.Logger,
) *Service {
	if rec == nil {
		rec = metrics.Noop{}
	}
	return &Service{
		planRepo:   planRepo,
		claimRepo:  claimRepo,
		importRepo: importRepo,
		review:     review,
		metrics:    rec,
		log:        log.With().Str("component", "ingestion").Logger(),
	}
}

// Import parses a file and stores its records, then re-runs the plan
// review. A file whose hash was seen before is acknowledged without being
// stored again.
//
// kind is "plan" or "claims". For claims, planID names the plan the claims
// belong to. format must be one of plan_json, plan_yaml, claims_csv and
// must agree with kind.
func (s *Service) Import(ctx context.Context, data []byte, kind, format, planID string) (res *ImportResult, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordImport(format, time.Since(start), err) }()

	if err := checkKindFormat(kind, format); err != nil {
		return nil, err
	}

	hash := fmt.Sprintf("%x", sha256.Sum256(data))
	exists, err := s.importRepo.ExistsByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("check hash: %w", err)
	}
	if exists {
		s.log.Info().Str("format", format).Str("file_hash", hash).Msg("file already imported")
		return &ImportResult{ReportID: "already-imported", AlreadyImported: true}, nil
	}

	var records, inserted int
	switch format {
	case FormatPlanJSON, FormatPlanYAML:
		planID, records, err = s.importPlan(ctx, data, format)
		inserted = records
	case FormatClaimsCSV:
		records, inserted, err = s.importClaims(ctx, data, planID)
	}
	if err != nil {
		return nil, err
	}

	report := &domain.ImportReport{
		ID:          "IMP-" + uuid.NewString(),
		Kind:        kind,
		Format:      format,
		PlanID:      planID,
		FileHash:    hash,
		RecordCount: records,
		ImportedAt:  time.Now().UTC(),
	}
	if err := s.importRepo.Insert(ctx, report); err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}

	s.log.Info().
		Str("report_id", report.ID).
		Str("plan_id", planID).
		Str("format", format).
		Int("records", records).
		Int("inserted", inserted).
		Msg("import stored")

	res = &ImportResult{
		ReportID:          report.ID,
		PlanID:            planID,
		RecordsImported:   inserted,
		DuplicatesSkipped: records - inserted,
	}

	// A failed review does not undo the import.
	review, err := s.review.RunReview(ctx, planID)
	if err != nil {
		s.log.Warn().Err(err).Str("plan_id", planID).Msg("review after import failed")
		return res, nil
	}
	res.FindingsDetected = review.TotalFindings
	return res, nil
}

func (s *Service) importPlan(ctx context.Context, data []byte, format string) (string, int, error) {
	var (
		doc    *domain.PlanDocument
		forest []*domain.LimitNode
		err    error
	)
	if format == FormatPlanYAML {
		doc, forest, err = ParsePlanYAML(data)
	} else {
		doc, forest, err = ParsePlanJSON(data)
	}
	if err != nil {
		return "", 0, fmt.Errorf("parse %s: %w", format, err)
	}
	if doc.Plan.CreatedAt.IsZero() {
		doc.Plan.CreatedAt = time.Now().UTC()
	}
	n, err := s.planRepo.SavePlan(ctx, &doc.Plan, forest)
	if err != nil {
		return "", 0, fmt.Errorf("save plan: %w", err)
	}
	return doc.Plan.ID, n, nil
}

func (s *Service) importClaims(ctx context.Context, data []byte, planID string) (int, int, error) {
	planID = strings.TrimSpace(planID)
	if planID == "" {
		return 0, 0, &domain.ValidationError{Field: "plan_id", Reason: "required for claims imports"}
	}
	if _, err := s.planRepo.GetPlan(ctx, planID); err != nil {
		return 0, 0, err
	}
	claims, err := ParseClaimsCSV(data, planID)
	if err != nil {
		return 0, 0, fmt.Errorf("parse %s: %w", FormatClaimsCSV, err)
	}
	inserted, err := s.claimRepo.BulkInsert(ctx, claims)
	if err != nil {
		return 0, 0, fmt.Errorf("insert claims: %w", err)
	}
	return len(claims), inserted, nil
}

func checkKindFormat(kind, format string) error {
	switch {
	case kind == KindPlan && (format == FormatPlanJSON || format == FormatPlanYAML):
		return nil
	case kind == KindClaims && format == FormatClaimsCSV:
		return nil
	case format != FormatPlanJSON && format != FormatPlanYAML && format != FormatClaimsCSV:
		return &domain.ValidationError{Field: "format", Reason: fmt.Sprintf("unsupported format %q", format)}
	default:
		return &domain.ValidationError{Field: "kind", Reason: fmt.Sprintf("kind %q does not match format %q", kind, format)}
	}
}
