package formatter

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/carelink/benefitlimits/internal/limittree"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// depthStyles style limit names by depth: roots stand out, sub-limits
// recede. Depths past the last entry reuse it.
var depthStyles = []lipgloss.Style{
	StyleHeader,
	StyleBold,
	StyleFg,
}

// DepthStyle returns the name style for a tree depth.
func DepthStyle(depth int) lipgloss.Style {
	return depthStyles[limittree.TierIndex(depth, len(depthStyles))]
}

// TierStyle returns the style for a usage tier.
func TierStyle(tier limittree.UsageTier) lipgloss.Style {
	switch tier {
	case limittree.UsageHigh:
		return StyleRed
	case limittree.UsageModerate:
		return StyleYellow
	case limittree.UsageLow:
		return StyleGreen
	default:
		return StyleDim
	}
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
