package limittree

import "fmt"

type UsageTier string

const (
	UsageLow      UsageTier = "low"
	UsageModerate UsageTier = "moderate"
	UsageHigh     UsageTier = "high"
)

// Thresholds split utilization percentages into tiers: below Low is low,
// from Low up to High is moderate, High and above is high.
type Thresholds struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// DefaultThresholds are the 50% / 80% cut-offs used by the plan screens.
var DefaultThresholds = Thresholds{Low: 50, High: 80}

func (t Thresholds) Validate() error {
	if t.Low < 0 || t.High < 0 {
		return fmt.Errorf("usage thresholds must not be negative (low=%g, high=%g)", t.Low, t.High)
	}
	if t.Low > t.High {
		return fmt.Errorf("low usage threshold %g exceeds high threshold %g", t.Low, t.High)
	}
	return nil
}

func (t Thresholds) Classify(pct float64) UsageTier {
	switch {
	case pct >= t.High:
		return UsageHigh
	case pct >= t.Low:
		return UsageModerate
	default:
		return UsageLow
	}
}
