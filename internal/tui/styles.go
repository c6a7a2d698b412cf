package tui

import "github.com/charmbracelet/lipgloss"

// Colors
var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#0066cc", Dark: "#5fafff"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#8a8a8a"}
	colorSuccess = lipgloss.AdaptiveColor{Light: "#1e7e34", Dark: "#5fd75f"}
	colorDanger  = lipgloss.AdaptiveColor{Light: "#cc0000", Dark: "#ff5f5f"}
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true).
			MarginBottom(1)

	sidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1).
			MarginRight(1)

	sidebarFocusedStyle = sidebarStyle.BorderForeground(colorPrimary)

	itemStyle     = lipgloss.NewStyle().PaddingLeft(2)
	selectedStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)

	labelStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	failureStyle = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	noticeStyle  = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)

	headerCellStyle  = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Padding(0, 1)
	cellStyle        = lipgloss.NewStyle().Padding(0, 1)
	tableBorderStyle = lipgloss.NewStyle().Foreground(colorMuted)

	helpStyle = lipgloss.NewStyle().Foreground(colorMuted).MarginTop(1)
)
