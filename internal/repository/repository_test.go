package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/benefitlimits/internal/domain"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testPlan() *domain.Plan {
	return &domain.Plan{
		ID:         "PLN-001",
		Name:       "Gold Outpatient",
		MemberID:   "MBR-001",
		MemberName: "Aisyah Rahman",
		Currency:   "MYR",
		CreatedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func testForest(t *testing.T) []*domain.LimitNode {
	t.Helper()
	forest, err := domain.BuildForest([]domain.LimitSpec{
		{
			ID: "overall", Name: "Overall", Kind: "nested", ServiceTypes: []string{"GP", "SP", "OC", "DT"},
			LimitAmount: 150000, UtilizedAmount: 15000,
			Children: []domain.LimitSpec{
				{ID: "gp", Name: "GP", Kind: "flat", ServiceTypes: []string{"GP"}, LimitAmount: 30000},
				{
					ID: "optical-dental", Name: "Optical & Dental", Kind: "nested", ServiceTypes: []string{"OC", "DT"},
					LimitAmount: 50000, UtilizedAmount: 5000,
					Children: []domain.LimitSpec{
						{ID: "dental", Name: "Dental", Kind: "flat", ServiceTypes: []string{"DT"}, LimitAmount: 20000},
					},
				},
			},
		},
		{ID: "maternity", Name: "Maternity", Kind: "flat", ServiceTypes: []string{"MT"}, LimitAmount: 500000},
	})
	require.NoError(t, err)
	return forest
}

func TestPlanRepo_SaveAndLoadForest(t *testing.T) {
	ctx := context.Background()
	repo := NewPlanRepo(newTestDB(t))
	forest := testForest(t)

	n, err := repo.SavePlan(ctx, testPlan(), forest)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	loaded, err := repo.LoadForest(ctx, "PLN-001")
	require.NoError(t, err)
	assert.Equal(t, domain.ForestSpec(forest), domain.ForestSpec(loaded))

	plan, err := repo.GetPlan(ctx, "PLN-001")
	require.NoError(t, err)
	assert.Equal(t, "Aisyah Rahman", plan.MemberName)
	assert.True(t, plan.CreatedAt.Equal(testPlan().CreatedAt))
}

func TestPlanRepo_SaveReplacesTree(t *testing.T) {
	ctx := context.Background()
	repo := NewPlanRepo(newTestDB(t))
	_, err := repo.SavePlan(ctx, testPlan(), testForest(t))
	require.NoError(t, err)

	single, err := domain.NewFlat("annual", "Annual", []string{"GP"}, 1000, 0)
	require.NoError(t, err)
	plan := testPlan()
	plan.Name = "Silver"
	_, err = repo.SavePlan(ctx, plan, []*domain.LimitNode{single})
	require.NoError(t, err)

	loaded, err := repo.LoadForest(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "annual", loaded[0].ID())

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := repo.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Silver", got.Name)
}

func TestPlanRepo_NotFound(t *testing.T) {
	repo := NewPlanRepo(newTestDB(t))
	_, err := repo.GetPlan(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	forest, err := repo.LoadForest(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, forest)
}

func TestPlanRepo_LoadForestRejectsCorruptRows(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewPlanRepo(db)
	_, err := repo.SavePlan(ctx, testPlan(), testForest(t))
	require.NoError(t, err)

	_, err = db.Exec("UPDATE limit_nodes SET service_types = 'OC' WHERE id = 'optical-dental'")
	require.NoError(t, err)

	_, err = repo.LoadForest(ctx, "PLN-001")
	var ce *domain.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "optical-dental", ce.NodeID)
}

func TestPlanRepo_ListPlans(t *testing.T) {
	ctx := context.Background()
	repo := NewPlanRepo(newTestDB(t))
	_, err := repo.SavePlan(ctx, testPlan(), testForest(t))
	require.NoError(t, err)
	other := testPlan()
	other.ID, other.MemberID = "PLN-002", "MBR-002"
	_, err = repo.SavePlan(ctx, other, nil)
	require.NoError(t, err)

	all, err := repo.ListPlans(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := repo.ListPlans(ctx, "MBR-002")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "PLN-002", mine[0].ID)
}

func TestClaimRepo_ListByPlanSortedByDate(t *testing.T) {
	ctx := context.Background()
	repo := NewClaimRepo(newTestDB(t))
	day := func(d int) time.Time { return time.Date(2024, 2, d, 0, 0, 0, 0, time.UTC) }

	claims := []domain.Claim{
		{ClaimNumber: "C3", PlanID: "PLN-001", MemberID: "MBR-001", Date: day(20), ServiceType: "DT", Amount: 100, Status: domain.ClaimPaid},
		{ClaimNumber: "C1", PlanID: "PLN-001", MemberID: "MBR-001", Date: day(3), ServiceType: "GP", Amount: 200, Status: domain.ClaimApproved},
		{ClaimNumber: "C2", PlanID: "PLN-002", MemberID: "MBR-002", Date: day(5), ServiceType: "GP", Amount: 300, Status: domain.ClaimPending},
	}
	n, err := repo.BulkInsert(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = repo.BulkInsert(ctx, claims[:1])
	require.NoError(t, err)
	assert.Equal(t, 0, n, "duplicate claim numbers are skipped")

	got, err := repo.ListByPlan(ctx, "PLN-001")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "C1", got[0].ClaimNumber)
	assert.Equal(t, "C3", got[1].ClaimNumber)
	assert.Equal(t, domain.Cents(100), got[1].Amount)
	assert.Equal(t, domain.ServiceType("DT"), got[1].ServiceType)
	assert.True(t, got[0].Date.Equal(day(3)))
}

func TestFindingRepo_ListSummaryAndClear(t *testing.T) {
	ctx := context.Background()
	repo := NewFindingRepo(newTestDB(t))
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	findings := []domain.Finding{
		{ID: "F1", Type: domain.FindingOverUtilized, PlanID: "PLN-001", NodeID: "gp", Severity: domain.SeverityHigh, Amount: 500, Description: "over", DetectedAt: now},
		{ID: "F2", Type: domain.FindingUncoveredClaim, PlanID: "PLN-001", ClaimNumber: "C9", Severity: domain.SeverityLow, Amount: 100, Description: "uncovered", DetectedAt: now},
		{ID: "F3", Type: domain.FindingUncoveredClaim, PlanID: "PLN-002", ClaimNumber: "C8", Severity: domain.SeverityLow, Amount: 50, Description: "uncovered", DetectedAt: now},
	}
	n, err := repo.BulkInsert(ctx, findings)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	list, total, err := repo.List(ctx, FindingFilter{PlanID: "PLN-001", Type: string(domain.FindingUncoveredClaim)})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "C9", list[0].ClaimNumber)
	assert.Empty(t, list[0].NodeID)

	page, total, err := repo.List(ctx, FindingFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, page, 1)

	summary, err := repo.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalCount)
	assert.Equal(t, domain.Cents(650), summary.TotalAmount)
	assert.Equal(t, 2, summary.ByType[string(domain.FindingUncoveredClaim)])
	assert.Equal(t, 2, summary.ByPlan["PLN-001"])

	require.NoError(t, repo.ClearPlan(ctx, "PLN-001"))
	_, total, err = repo.List(ctx, FindingFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestImportRepo_ExistsByHash(t *testing.T) {
	ctx := context.Background()
	repo := NewImportRepo(newTestDB(t))

	exists, err := repo.ExistsByHash(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Insert(ctx, &domain.ImportReport{
		ID: "IMP-1", Kind: "plan", Format: "plan_json", PlanID: "PLN-001",
		FileHash: "abc", RecordCount: 4, ImportedAt: time.Now(),
	}))
	exists, err = repo.ExistsByHash(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, exists)
}
