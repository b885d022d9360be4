package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles for the browser
type Styles struct {
	Title      lipgloss.Style
	Sidebar    lipgloss.Style
	Focused    lipgloss.Style
	Selected   lipgloss.Style
	Dim        lipgloss.Style
	LaneHead   lipgloss.Style
	Error      lipgloss.Style
	StatusBar  lipgloss.Style
	PromptBox  lipgloss.Style
}

// DefaultStyles returns the default color scheme
func DefaultStyles() Styles {
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Sidebar:   lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderRight(true).PaddingRight(1),
		Focused:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Selected:  lipgloss.NewStyle().Reverse(true),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		LaneHead:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		StatusBar: lipgloss.NewStyle().Foreground(lipgloss.Color("7")).Background(lipgloss.Color("236")),
		PromptBox: lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).Padding(1, 2),
	}
}
