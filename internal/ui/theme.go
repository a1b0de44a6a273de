package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Reverie theme (CLI + TUI).

const (
	IconMoon      = "🌙"
	IconSparkle   = "✨"
	IconCandle    = "🕯️"
	IconDone      = "✅"
	IconTrophy    = "🏆"
	IconFlame     = "🔥"
	IconSkull     = "💀"
	IconSword     = "⚔️"
	IconChest     = "🎁"
	IconDoor      = "🚪"
	IconScroll    = "📜"
	IconCompass   = "🧭"
	IconEye       = "👁️"
	IconChain     = "⛓️"
	IconInfo      = "ℹ️"
	IconWarn      = "⚠️"
	IconError     = "🧨"
	IconLock      = "🔒"
	IconHourglass = "⏳"
)

var (
	cPrimary = lipgloss.Color("99")  // violet
	cAccent  = lipgloss.Color("213") // pink
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
	cGold    = lipgloss.Color("220") // gold
	cRare    = lipgloss.Color("39")  // blue
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	Gold  = lipgloss.NewStyle().Bold(true).Foreground(cGold)

	Panel       = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
	PanelTitle  = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	SelectedRow = lipgloss.NewStyle().Bold(true).Foreground(cGold).Background(cPrimary)

	BadgeLevelUp = lipgloss.NewStyle().Bold(true).Foreground(cGold).Render("LEVEL UP")
)

var titleCaser = cases.Title(language.English)

func Heading(icon string, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// Label turns a stored enum value such as "temple_of_obedience" or "weekly" into display text.
func Label(s string) string {
	s = strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(s))
	return titleCaser.String(s)
}

func StatusText(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	switch s {
	case "completed", "cleared":
		return Good.Render(s)
	case "active", "unlocked":
		return H2.Render(s)
	case "failed":
		return Bad.Render(s)
	case "locked":
		return Muted.Render(IconLock + " " + s)
	default:
		return Muted.Render(status)
	}
}

// OutcomeText renders an engine outcome tag for one-line command feedback.
func OutcomeText(outcome string) string {
	switch outcome {
	case "completed", "questline-completed", "updated":
		return Good.Render(outcome)
	case "already-completed":
		return Warn.Render(outcome)
	default:
		return Bad.Render(outcome)
	}
}

func RarityText(rarity string) string {
	switch strings.ToLower(rarity) {
	case "legendary":
		return Gold.Render(rarity)
	case "epic":
		return Title.Render(rarity)
	case "rare":
		return lipgloss.NewStyle().Bold(true).Foreground(cRare).Render(rarity)
	default:
		return Muted.Render(rarity)
	}
}

func RoomIcon(roomType string) string {
	switch roomType {
	case "boss":
		return IconSkull
	case "loot":
		return IconChest
	default:
		return IconSword
	}
}

func ProgressBar(value, total, width int) string {
	if total <= 0 {
		total = 1
	}
	width = max(width, 3)
	value = min(max(value, 0), total)
	filled := min(value*width/total, width)
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}
