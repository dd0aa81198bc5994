package ui

import "github.com/charmbracelet/lipgloss"

// MinLeftWidth is the minimum character width for the left pane.
const MinLeftWidth = 28

var (
	accentColor = lipgloss.AdaptiveColor{Light: "4", Dark: "12"}
	dimColor    = lipgloss.AdaptiveColor{Light: "240", Dark: "240"}
	errorColor  = lipgloss.AdaptiveColor{Light: "1", Dark: "9"}
	okColor     = lipgloss.AdaptiveColor{Light: "2", Dark: "10"}

	titleText  = lipgloss.NewStyle().Bold(true)
	mutedText  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "245"})
	errorText  = lipgloss.NewStyle().Foreground(errorColor)
	okText     = lipgloss.NewStyle().Foreground(okColor)
	labelText  = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	avatarBase = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(accentColor).Padding(0, 1)
)

// Avatar renders the contact's initial as a filled badge.
func Avatar(initial string) string {
	return avatarBase.Render(initial)
}

// FocusedBorder returns a lipgloss style with an accent-colored rounded border.
func FocusedBorder() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor)
}

// UnfocusedBorder returns a lipgloss style with a dim rounded border.
func UnfocusedBorder() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dimColor)
}

// PaneWidths calculates the left and right pane widths from a total width.
// Left pane gets 2/5 (minimum MinLeftWidth), right pane gets the rest.
func PaneWidths(totalWidth int) (left, right int) {
	if totalWidth <= 0 {
		return 0, 0
	}
	left = totalWidth * 2 / 5
	if left < MinLeftWidth {
		left = MinLeftWidth
	}
	right = totalWidth - left
	if right < 0 {
		right = 0
	}
	return left, right
}
