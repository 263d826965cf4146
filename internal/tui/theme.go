package tui

import "github.com/charmbracelet/lipgloss"

type uiTheme struct {
	root        lipgloss.Style
	header      lipgloss.Style
	title       lipgloss.Style
	subtitle    lipgloss.Style
	tabActive   lipgloss.Style
	tabInactive lipgloss.Style
	badgeOK     lipgloss.Style
	badgeDown   lipgloss.Style
	badgeWait   lipgloss.Style
	panel       lipgloss.Style
	panelTitle  lipgloss.Style
	footer      lipgloss.Style
	status      lipgloss.Style
	errorBanner lipgloss.Style
	inputPanel  lipgloss.Style
	focusPanel  lipgloss.Style
	button      lipgloss.Style
	buttonOff   lipgloss.Style
	helpText    lipgloss.Style
	placeholder lipgloss.Style
	roleLabel   map[string]lipgloss.Style
}

func newTheme() uiTheme {
	pink := lipgloss.Color("#ff71ce")
	blue := lipgloss.Color("#01cdfe")
	mint := lipgloss.Color("#05ffa1")
	bg := lipgloss.Color("#120924")
	panelBg := lipgloss.Color("#1b0f35")
	text := lipgloss.Color("#f3f3ff")
	muted := lipgloss.Color("#9ca3d8")
	ink := lipgloss.Color("#22062f")

	return uiTheme{
		root: lipgloss.NewStyle().
			Background(bg).
			Foreground(text).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(text).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		title:    lipgloss.NewStyle().Foreground(mint).Bold(true),
		subtitle: lipgloss.NewStyle().Foreground(muted),
		tabActive: lipgloss.NewStyle().
			Background(pink).
			Foreground(ink).
			Bold(true).
			Padding(0, 1),
		tabInactive: lipgloss.NewStyle().
			Background(lipgloss.Color("#2a184a")).
			Foreground(muted).
			Padding(0, 1),
		badgeOK:   lipgloss.NewStyle().Foreground(mint).Bold(true).Padding(0, 1),
		badgeDown: lipgloss.NewStyle().Foreground(pink).Bold(true).Padding(0, 1),
		badgeWait: lipgloss.NewStyle().Foreground(muted).Padding(0, 1),
		panel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		panelTitle: lipgloss.NewStyle().
			Foreground(mint).
			Bold(true),
		footer: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(muted).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(pink).
			Padding(0, 1),
		status:      lipgloss.NewStyle().Foreground(blue).Bold(true),
		errorBanner: lipgloss.NewStyle().Foreground(pink).Bold(true),
		inputPanel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1),
		focusPanel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(mint).
			Padding(0, 1),
		button: lipgloss.NewStyle().
			Background(mint).
			Foreground(ink).
			Bold(true).
			Padding(0, 1),
		buttonOff: lipgloss.NewStyle().
			Background(lipgloss.Color("#2a184a")).
			Foreground(muted).
			Padding(0, 1),
		helpText:    lipgloss.NewStyle().Foreground(muted),
		placeholder: lipgloss.NewStyle().Foreground(muted).Italic(true),
		roleLabel: map[string]lipgloss.Style{
			"user":      lipgloss.NewStyle().Foreground(mint).Bold(true),
			"assistant": lipgloss.NewStyle().Foreground(pink).Bold(true),
		},
	}
}

func (t uiTheme) buttonLabel(label string, enabled bool) string {
	if enabled {
		return t.button.Render(label)
	}
	return t.buttonOff.Render(label)
}
