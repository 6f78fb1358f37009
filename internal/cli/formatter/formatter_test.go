package formatter

import (
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/benefitlimits/internal/domain"
	"github.com/carelink/benefitlimits/internal/limittree"
	"github.com/carelink/benefitlimits/internal/utilization"
)

// ansiPattern matches ANSI escape sequences for stripping before comparison.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// badgeColumn is the rune column where the amounts start. Every glyph the
// tree draws is one cell wide.
func badgeColumn(line string) int {
	return utf8.RuneCountInString(line[:strings.Index(line, "RM ")])
}

func sampleForest(t *testing.T) []*domain.LimitNode {
	t.Helper()
	forest, err := domain.BuildForest([]domain.LimitSpec{
		{
			ID: "overall", Name: "Overall", Kind: "nested", ServiceTypes: []string{"GP", "SP", "OC", "DT"},
			LimitAmount: 150000, UtilizedAmount: 15000,
			Children: []domain.LimitSpec{
				{ID: "gp", Name: "GP", Kind: "flat", ServiceTypes: []string{"GP"}, LimitAmount: 30000, UtilizedAmount: 33000},
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

func TestRenderLimitTree(t *testing.T) {
	rows := utilization.BuildRows(sampleForest(t), nil, limittree.DefaultThresholds)
	out := stripANSI(RenderLimitTree(rows, "MYR"))

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 5)

	wantPrefixes := []string{
		"▾ Overall [DT, GP, OC, SP]",
		"├─ • GP [GP]",
		"└─ ▾ Optical & Dental [DT, OC]",
		"   └─ • Dental [DT]",
		"• Maternity [MT]",
	}
	for i, want := range wantPrefixes {
		assert.True(t, strings.HasPrefix(lines[i], want), "line %d: %q", i, lines[i])
	}

	assert.True(t, strings.HasSuffix(lines[0], "RM 150.00 / RM 1,500.00  [█░░░░░░░░░]  10.0%"), lines[0])
	assert.True(t, strings.HasSuffix(lines[1], "[██████████] 110.0%!"), lines[1])

	// Badges start in the same column.
	col := badgeColumn(lines[0])
	for _, l := range lines[1:] {
		assert.Equal(t, col, badgeColumn(l), l)
	}
}

func TestRenderLimitTree_Collapsed(t *testing.T) {
	exp := limittree.NewExpansionFromCollapsed([]string{"overall"})
	rows := utilization.BuildRows(sampleForest(t), exp, limittree.DefaultThresholds)
	out := stripANSI(RenderLimitTree(rows, "MYR"))

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "▸ Overall"))
	assert.True(t, strings.HasPrefix(lines[1], "• Maternity"))
}

func TestRenderLimitTree_Empty(t *testing.T) {
	assert.Equal(t, "(no limits)\n", stripANSI(RenderLimitTree(nil, "MYR")))
}

func TestUsageBar(t *testing.T) {
	tests := []struct {
		name  string
		pct   float64
		width int
		want  string
	}{
		{"empty", 0, 4, "[░░░░]   0.0%"},
		{"half", 50, 4, "[██░░]  50.0%"},
		{"full", 100, 4, "[████] 100.0%"},
		{"over clamps bar", 150, 4, "[████] 150.0%!"},
		{"tiny width", 50, 1, "[█░]  50.0%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stripANSI(UsageBar(tt.pct, limittree.DefaultThresholds.Classify(tt.pct), tt.width))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDepthStyleReusesLastTier(t *testing.T) {
	assert.Equal(t, DepthStyle(2).Render("x"), DepthStyle(7).Render("x"))
}

func TestRenderSummaryAndImpact(t *testing.T) {
	forest := sampleForest(t)
	out := stripANSI(RenderSummary(limittree.Aggregate(forest), limittree.CountByKind(forest), "MYR"))
	assert.Contains(t, out, "Utilized RM 150.00 of RM 6,500.00")
	assert.Contains(t, out, "Roots 1 nested, 1 flat")
	assert.Contains(t, out, "Nodes 5 limits, 2 nested, 3 flat, depth 3")

	impact := &utilization.ClaimImpact{
		ImpactedIDs:   []string{"overall", "optical-dental", "dental"},
		ImpactedNames: []string{"Overall", "Optical & Dental", "Dental"},
		Applicable:    true,
	}
	out = stripANSI(RenderImpact("DT", impact))
	assert.Contains(t, out, " 1. Overall (overall)")
	assert.Contains(t, out, " 3. Dental (dental)")

	out = stripANSI(RenderImpact("XR", &utilization.ClaimImpact{}))
	assert.Contains(t, out, "XR is not covered")
}
