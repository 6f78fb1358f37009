package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/carelink/benefitlimits/internal/currency"
	"github.com/carelink/benefitlimits/internal/domain"
	"github.com/carelink/benefitlimits/internal/limittree"
	"github.com/carelink/benefitlimits/internal/utilization"
)

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeBlank  = "   "

	markerExpanded  = "▾ "
	markerCollapsed = "▸ "
	markerFlat      = "• "

	barWidth = 10
)

// RenderLimitTree renders flattened limit rows as an indented tree. Each
// line shows the limit name styled by depth, its service types, utilized
// over limit and a usage bar; amounts are right-aligned.
func RenderLimitTree(rows []utilization.LimitRow, currencyCode string) string {
	if len(rows) == 0 {
		return Dim("(no limits)") + "\n"
	}

	type lineInfo struct {
		content string
		badge   string
	}

	lines := make([]lineInfo, len(rows))
	maxContentWidth := 0
	// lastAt[d] records whether the most recent row at depth d was the
	// last of its siblings; it decides whether deeper rows draw a pipe.
	var lastAt []bool

	// Pass 1: build each line's content and track max visible width.
	for i, row := range rows {
		isLast := lastSibling(rows, i)
		for len(lastAt) <= row.Depth {
			lastAt = append(lastAt, false)
		}
		lastAt[row.Depth] = isLast

		var prefix string
		if row.Depth > 0 {
			for d := 1; d < row.Depth; d++ {
				if lastAt[d] {
					prefix += treeBlank
				} else {
					prefix += treePipe
				}
			}
			if isLast {
				prefix += treeCorner
			} else {
				prefix += treeBranch
			}
		}

		marker := markerFlat
		if row.HasChildren {
			marker = markerExpanded
			if !row.Expanded {
				marker = markerCollapsed
			}
		}

		content := StyleDim.Render(prefix) + marker +
			DepthStyle(row.Depth).Render(row.Name) + " " +
			Dim("["+joinTypes(row.ServiceTypes)+"]")
		lines[i].content = content
		lines[i].badge = fmt.Sprintf("%s / %s  %s",
			StyleBlue.Render(currency.Format(row.Utilized, currencyCode)),
			currency.Format(row.Limit, currencyCode),
			UsageBar(row.Percentage, row.Tier, barWidth),
		)

		if w := lipgloss.Width(content); w > maxContentWidth {
			maxContentWidth = w
		}
	}

	// Pass 2: render with right-aligned badges.
	var b strings.Builder
	for _, li := range lines {
		pad := max(maxContentWidth-lipgloss.Width(li.content), 0)
		b.WriteString(li.content + strings.Repeat(" ", pad) + "  " + li.badge + "\n")
	}
	return b.String()
}

// lastSibling reports whether no later row shares rows[i]'s parent.
func lastSibling(rows []utilization.LimitRow, i int) bool {
	d := rows[i].Depth
	for _, r := range rows[i+1:] {
		if r.Depth < d {
			return true
		}
		if r.Depth == d {
			return false
		}
	}
	return true
}

// RenderSummary renders plan totals and node counts.
func RenderSummary(s limittree.AggregateStats, c limittree.KindCounts, currencyCode string) string {
	var b strings.Builder
	b.WriteString(Header("Summary") + "\n")
	fmt.Fprintf(&b, "%s %s of %s  %s\n",
		Bold("Utilized"),
		currency.Format(s.TotalUtilizedAmount, currencyCode),
		currency.Format(s.TotalLimitAmount, currencyCode),
		Dim("("+currency.Percent(s.OverallPercentage)+")"),
	)
	fmt.Fprintf(&b, "%s %d nested, %d flat\n", Bold("Roots"), s.NestedRootCount, s.FlatRootCount)
	fmt.Fprintf(&b, "%s %d limits, %d nested, %d flat, depth %d\n",
		Bold("Nodes"), c.Total, c.Nested, c.Flat, max(c.MaxDepth+1, 0))
	return b.String()
}

// RenderImpact renders the limits a claim hits, in debit order.
func RenderImpact(st domain.ServiceType, impact *utilization.ClaimImpact) string {
	if !impact.Applicable {
		return StyleYellow.Render(fmt.Sprintf("Service type %s is not covered by any limit", st)) + "\n"
	}
	var b strings.Builder
	b.WriteString(Header("Limits hit by "+string(st)) + "\n")
	for i, id := range impact.ImpactedIDs {
		fmt.Fprintf(&b, "%2d. %s %s\n", i+1, Bold(impact.ImpactedNames[i]), Dim("("+id+")"))
	}
	return b.String()
}

// Header renders a section header with an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func joinTypes(types []domain.ServiceType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}
