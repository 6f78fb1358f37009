package formatter

import (
	"fmt"
	"strings"

	"github.com/carelink/benefitlimits/internal/currency"
	"github.com/carelink/benefitlimits/internal/limittree"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
	overMarker  = "!"
)

// UsageBar renders a utilization bar like [██░░░░░░░░]  20.0%. pct is a
// percentage (0-100, may exceed 100); the bar is clamped, the figure is
// not. Over-utilized limits get a trailing marker.
func UsageBar(pct float64, tier limittree.UsageTier, width int) string {
	if width < 2 {
		width = 2
	}
	frac := pct / 100
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}

	filled := min(int(frac*float64(width)), width)
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	label := fmt.Sprintf("%6s", currency.Percent(pct))
	if pct > 100 {
		label += StyleRed.Render(overMarker)
	}
	return fmt.Sprintf("[%s] %s", TierStyle(tier).Render(bar), label)
}
