// Package ui holds the lipgloss styles used by the bloom CLI.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/habitbloom/bloom/internal/domain"
)

const (
	IconBloom  = "🌱"
	IconFlame  = "🔥"
	IconFreeze = "❄️"
	IconTrophy = "🏆"
	IconBolt   = "⚡"
	IconDone   = "✅"
	IconLock   = "🔒"
	IconWarn   = "⚠️"
	IconScroll = "📜"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
	cGold    = lipgloss.Color("220") // gold
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	Gold  = lipgloss.NewStyle().Bold(true).Foreground(cGold)
	Muted = lipgloss.NewStyle().Foreground(cMuted)

	Panel = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)

	BadgeLevelUp = lipgloss.NewStyle().Bold(true).Foreground(cGold).Render("LEVEL UP")
)

// tierColors maps tier color names to terminal colors.
var tierColors = map[string]lipgloss.Color{
	"slate":  lipgloss.Color("247"),
	"blue":   lipgloss.Color("33"),
	"indigo": lipgloss.Color("63"),
	"violet": lipgloss.Color("135"),
	"purple": lipgloss.Color("129"),
}

func Heading(icon, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// TierText renders a tier name in its color.
func TierText(t domain.Tier) string {
	c, ok := tierColors[t.Color]
	if !ok {
		c = cPrimary
	}
	return lipgloss.NewStyle().Bold(true).Foreground(c).Render(t.Name)
}

// QualityText colors a day quality rating.
func QualityText(q domain.DayQuality) string {
	switch q {
	case domain.DayPerfect:
		return Gold.Render(string(q))
	case domain.DayStrong:
		return Good.Render(string(q))
	case domain.DayGood:
		return H2.Render(string(q))
	default:
		return Muted.Render(string(q))
	}
}

// Bar draws a fixed-width progress bar such as [=======>......].
func Bar(pct float64, width int) string {
	if width <= 0 {
		width = 20
	}
	pct = min(max(pct, 0), 100)

	filled := min(int(pct/100*float64(width)), width)
	empty := width - filled

	var bar string
	switch {
	case filled == width:
		bar = strings.Repeat("=", filled)
	case filled > 0:
		bar = strings.Repeat("=", filled-1) + ">" + strings.Repeat(".", empty)
	default:
		bar = strings.Repeat(".", width)
	}
	return "[" + bar + "]"
}
