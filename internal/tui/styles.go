package tui

import "github.com/charmbracelet/lipgloss"

const (
	colorRed      lipgloss.Color = "#f38ba8"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorBlue     lipgloss.Color = "#89b4fa"
	colorLavender lipgloss.Color = "#b4befe"
	colorText     lipgloss.Color = "#cdd6f4"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorSurface1 lipgloss.Color = "#45475a"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorLavender)
	labelStyle   = lipgloss.NewStyle().Foreground(colorOverlay1)
	valueStyle   = lipgloss.NewStyle().Foreground(colorText)
	onStyle      = lipgloss.NewStyle().Foreground(colorGreen)
	offStyle     = lipgloss.NewStyle().Foreground(colorSurface1)
	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
	statusStyle  = lipgloss.NewStyle().Foreground(colorText)
	errorStyle   = lipgloss.NewStyle().Foreground(colorRed)
	promptStyle  = lipgloss.NewStyle().Foreground(colorYellow)
	panelStyle   = lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
	sectionStyle = lipgloss.NewStyle().MarginTop(1)
)
