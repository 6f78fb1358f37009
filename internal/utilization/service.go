// Package utilization evaluates stored plans: plan views, claim impact
// history and the review pass that records findings.
package utilization

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/benefitlimits/internal/currency"
	"github.com/carelink/benefitlimits/internal/domain"
	"github.com/carelink/benefitlimits/internal/limittree"
	"github.com/carelink/benefitlimits/internal/metrics"
	"github.com/carelink/benefitlimits/internal/repository"
)

// Config holds the optional collaborators of a Service.
type Config struct {
	Thresholds limittree.Thresholds
	Logger     zerolog.Logger
	Metrics    metrics.Recorder
	// Now is the clock used to stamp findings. Defaults to time.Now.
	Now func() time.Time
}

// Service evaluates plans against their stored limit trees and claims.
type Service struct {
	plans      *repository.PlanRepo
	claims     *repository.ClaimRepo
	findings   *repository.FindingRepo
	thresholds limittree.Thresholds
	log        zerolog.Logger
	metrics    metrics.Recorder
	now        func() time.Time
}

func NewService(
	plans *repository.PlanRepo,
	claims *repository.ClaimRepo,
	findings *repository.FindingRepo,
	cfg Config,
) (*Service, error) {
	if cfg.Thresholds == (limittree.Thresholds{}) {
		cfg.Thresholds = limittree.DefaultThresholds
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, err
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Noop{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		plans:      plans,
		claims:     claims,
		findings:   findings,
		thresholds: cfg.Thresholds,
		log:        cfg.Logger.With().Str("component", "utilization").Logger(),
		metrics:    cfg.Metrics,
		now:        cfg.Now,
	}, nil
}

func (s *Service) Thresholds() limittree.Thresholds { return s.thresholds }

// LimitRow is one visible row of a plan view.
type LimitRow struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Kind         domain.Kind          `json:"kind"`
	ServiceTypes []domain.ServiceType `json:"service_types"`
	Depth        int                  `json:"depth"`
	HasChildren  bool                 `json:"has_children"`
	Expanded     bool                 `json:"expanded"`
	limittree.NodeStats
}

// PlanView is a plan with its flattened, classified limit rows.
type PlanView struct {
	Plan      *domain.Plan             `json:"plan"`
	Summary   limittree.AggregateStats `json:"summary"`
	Counts    limittree.KindCounts     `json:"counts"`
	Collapsed []string                 `json:"collapsed"`
	Rows      []LimitRow               `json:"rows"`
}

// PlanView loads a plan and flattens its tree with the given nodes
// collapsed. Unknown ids in collapsed are ignored.
func (s *Service) PlanView(ctx context.Context, planID string, collapsed []string) (*PlanView, error) {
	plan, forest, err := s.load(ctx, planID)
	if err != nil {
		return nil, err
	}
	exp := limittree.NewExpansionFromCollapsed(collapsed)
	return &PlanView{
		Plan:      plan,
		Summary:   limittree.Aggregate(forest),
		Counts:    limittree.CountByKind(forest),
		Collapsed: exp.CollapsedIDs(),
		Rows:      BuildRows(forest, exp, s.thresholds),
	}, nil
}

// BuildRows flattens forest into classified rows.
func BuildRows(forest []*domain.LimitNode, exp *limittree.Expansion, th limittree.Thresholds) []LimitRow {
	rows := []LimitRow{}
	for r := range limittree.Flatten(forest, exp) {
		rows = append(rows, LimitRow{
			ID:           r.Node.ID(),
			Name:         r.Node.Name(),
			Kind:         r.Node.Kind(),
			ServiceTypes: r.Node.ServiceTypes(),
			Depth:        r.Depth,
			HasChildren:  r.HasChildren,
			Expanded:     r.Expanded,
			NodeStats:    limittree.Summarize(r.Node, th),
		})
	}
	return rows
}

// ClaimImpact is a claim together with the limits it hits, in debit
// order.
type ClaimImpact struct {
	Claim         domain.Claim `json:"claim"`
	ImpactedIDs   []string     `json:"impacted_ids"`
	ImpactedNames []string     `json:"impacted_names"`
	Applicable    bool         `json:"applicable"`
}

// ClaimHistory returns the plan's claims, oldest first, each with its
// impact on the plan's current tree.
func (s *Service) ClaimHistory(ctx context.Context, planID string) ([]ClaimImpact, error) {
	_, forest, err := s.load(ctx, planID)
	if err != nil {
		return nil, err
	}
	claims, err := s.claims.ListByPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	out := make([]ClaimImpact, 0, len(claims))
	for _, c := range claims {
		out = append(out, impactOf(c, forest))
	}
	return out, nil
}

// ResolveClaim resolves an ad-hoc claim against a stored plan. Nothing is
// written.
func (s *Service) ResolveClaim(ctx context.Context, planID string, claim domain.Claim) (*ClaimImpact, error) {
	if domain.NormalizeServiceType(string(claim.ServiceType)) == "" {
		return nil, &domain.ValidationError{Field: "service_type", Reason: "must not be empty"}
	}
	_, forest, err := s.load(ctx, planID)
	if err != nil {
		return nil, err
	}
	claim.PlanID = planID
	ci := impactOf(claim, forest)
	s.metrics.RecordImpact(ci.Applicable, len(ci.ImpactedIDs))
	s.log.Debug().
		Str("plan_id", planID).
		Str("service_type", string(claim.ServiceType)).
		Strs("impacted", ci.ImpactedIDs).
		Msg("resolved claim impact")
	return &ci, nil
}

func impactOf(c domain.Claim, forest []*domain.LimitNode) ClaimImpact {
	ids := limittree.ResolveImpact(c, forest)
	names := limittree.ImpactedLimitNames(c, forest)
	if ids == nil {
		ids, names = []string{}, []string{}
	}
	return ClaimImpact{
		Claim:         c,
		ImpactedIDs:   ids,
		ImpactedNames: names,
		Applicable:    limittree.IsApplicable(ids),
	}
}

// ReviewResult summarises one review pass over a plan.
type ReviewResult struct {
	PlanID          string `json:"plan_id"`
	LimitsChecked   int    `json:"limits_checked"`
	ClaimsChecked   int    `json:"claims_checked"`
	OverUtilized    int    `json:"over_utilized"`
	HighUsage       int    `json:"high_usage"`
	UncoveredClaims int    `json:"uncovered_claims"`
	TotalFindings   int    `json:"total_findings"`
}

// RunReview clears the plan's previous findings and runs every check from
// scratch.
func (s *Service) RunReview(ctx context.Context, planID string) (*ReviewResult, error) {
	plan, forest, err := s.load(ctx, planID)
	if err != nil {
		return nil, err
	}
	claims, err := s.claims.ListByPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}

	if err := s.findings.ClearPlan(ctx, planID); err != nil {
		return nil, fmt.Errorf("clear findings: %w", err)
	}

	now := s.now().UTC()
	limitFindings := s.detectLimitFindings(plan, forest, now)
	claimFindings := s.detectUncoveredClaims(plan, forest, claims, now)

	all := append(limitFindings, claimFindings...)
	if len(all) > 0 {
		if _, err := s.findings.BulkInsert(ctx, all); err != nil {
			return nil, fmt.Errorf("insert findings: %w", err)
		}
	}

	res := &ReviewResult{
		PlanID:        planID,
		LimitsChecked: limittree.CountByKind(forest).Total,
		ClaimsChecked: len(claims),
	}
	for _, f := range all {
		switch f.Type {
		case domain.FindingOverUtilized:
			res.OverUtilized++
		case domain.FindingHighUsage:
			res.HighUsage++
		case domain.FindingUncoveredClaim:
			res.UncoveredClaims++
		}
	}
	res.TotalFindings = len(all)

	s.metrics.RecordFindings(domain.FindingOverUtilized, res.OverUtilized)
	s.metrics.RecordFindings(domain.FindingHighUsage, res.HighUsage)
	s.metrics.RecordFindings(domain.FindingUncoveredClaim, res.UncoveredClaims)

	s.log.Info().
		Str("plan_id", planID).
		Int("over_utilized", res.OverUtilized).
		Int("high_usage", res.HighUsage).
		Int("uncovered_claims", res.UncoveredClaims).
		Msg("review complete")

	return res, nil
}

// detectLimitFindings walks every limit regardless of expansion. A limit
// past its ceiling is reported as over-utilized only, never also as high
// usage.
func (s *Service) detectLimitFindings(plan *domain.Plan, forest []*domain.LimitNode, now time.Time) []domain.Finding {
	var out []domain.Finding
	for r := range limittree.Flatten(forest, nil) {
		n := r.Node
		st := limittree.Summarize(n, s.thresholds)
		switch {
		case st.OverUtilized:
			excess := n.Utilized() - n.Limit()
			out = append(out, domain.Finding{
				ID:       newFindingID(),
				Type:     domain.FindingOverUtilized,
				PlanID:   plan.ID,
				NodeID:   n.ID(),
				Severity: overUtilizedSeverity(st.Percentage, excess),
				Amount:   excess,
				Description: fmt.Sprintf(
					"Limit %q used %s of %s (%s), %s over",
					n.Name(),
					currency.Format(n.Utilized(), plan.Currency),
					currency.Format(n.Limit(), plan.Currency),
					currency.Percent(st.Percentage),
					currency.Format(excess, plan.Currency),
				),
				DetectedAt: now,
			})
		case st.Tier == limittree.UsageHigh:
			out = append(out, domain.Finding{
				ID:       newFindingID(),
				Type:     domain.FindingHighUsage,
				PlanID:   plan.ID,
				NodeID:   n.ID(),
				Severity: highUsageSeverity(st.Percentage),
				Amount:   st.Remaining,
				Description: fmt.Sprintf(
					"Limit %q is at %s with %s remaining",
					n.Name(),
					currency.Percent(st.Percentage),
					currency.Format(st.Remaining, plan.Currency),
				),
				DetectedAt: now,
			})
		}
	}
	return out
}

// detectUncoveredClaims reports claims no limit covers. Rejected claims
// are skipped.
func (s *Service) detectUncoveredClaims(plan *domain.Plan, forest []*domain.LimitNode, claims []domain.Claim, now time.Time) []domain.Finding {
	var out []domain.Finding
	for _, c := range claims {
		if c.Status == domain.ClaimRejected {
			continue
		}
		if limittree.IsApplicable(limittree.ResolveImpact(c, forest)) {
			continue
		}
		out = append(out, domain.Finding{
			ID:          newFindingID(),
			Type:        domain.FindingUncoveredClaim,
			PlanID:      plan.ID,
			ClaimNumber: c.ClaimNumber,
			Severity:    severityByAmount(c.Amount),
			Amount:      c.Amount,
			Description: fmt.Sprintf(
				"Claim %s (%s, service type %s) is not covered by any limit",
				c.ClaimNumber, currency.Format(c.Amount, plan.Currency), c.ServiceType,
			),
			DetectedAt: now,
		})
	}
	return out
}

func (s *Service) load(ctx context.Context, planID string) (*domain.Plan, []*domain.LimitNode, error) {
	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return nil, nil, err
	}
	forest, err := s.plans.LoadForest(ctx, planID)
	if err != nil {
		return nil, nil, fmt.Errorf("load limits for %s: %w", planID, err)
	}
	return plan, forest, nil
}

// --- helpers ---

func newFindingID() string {
	return "FND-" + uuid.NewString()
}

func severityByAmount(amount domain.Cents) domain.Severity {
	switch {
	case amount > 100000:
		return domain.SeverityHigh
	case amount > 20000:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

func overUtilizedSeverity(pct float64, excess domain.Cents) domain.Severity {
	if excess > 100000 || pct >= 150 {
		return domain.SeverityCritical
	}
	return domain.SeverityHigh
}

func highUsageSeverity(pct float64) domain.Severity {
	if pct >= 95 {
		return domain.SeverityMedium
	}
	return domain.SeverityLow
}
