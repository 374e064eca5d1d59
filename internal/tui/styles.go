package tui

import "github.com/charmbracelet/lipgloss"

var (
	App = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4F4FB7")).
			Padding(0, 1)

	StatusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#959595"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000"))

	NoticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D08770")).
			Italic(true)

	FileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true)

	DirStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#81A1C1"))
)
