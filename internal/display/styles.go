package display

import "github.com/charmbracelet/lipgloss"

var (
	Purple = lipgloss.Color("#7C3AED")
	Blue   = lipgloss.Color("#3B82F6")
	Green  = lipgloss.Color("#10B981")
	Amber  = lipgloss.Color("#F59E0B")
	Red    = lipgloss.Color("#EF4444")
	Gray   = lipgloss.Color("#6B7280")
	Dark   = lipgloss.Color("#1F2937")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Purple).
			Background(Dark).
			Padding(0, 1)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Blue)

	PanelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Blue).
			Padding(0, 1)

	CardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Gray).
			Padding(0, 1).
			MarginRight(1)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Gray)

	WarnStyle = lipgloss.NewStyle().
			Foreground(Amber).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(Blue)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(Purple).
			Bold(true)
)
