// Package tui is the terminal front end: a customer chatbot view and an agent
// copilot view behind a tabbed header.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"supportstudio/internal/session"
	"supportstudio/internal/textutil"
)

type viewID int

const (
	viewChatbot viewID = iota
	viewCopilot
)

// parseView maps a configured start view name to a view. Unknown names start
// on the chatbot.
func parseView(name string) viewID {
	if strings.EqualFold(strings.TrimSpace(name), "copilot") {
		return viewCopilot
	}
	return viewChatbot
}

type Options struct {
	Backend   session.Backend
	Health    HealthChecker
	BaseURL   string
	StartView string
	Copilot   CopilotOptions
	AltScreen bool
	Logger    zerolog.Logger
}

type healthState int

const (
	healthChecking healthState = iota
	healthOK
	healthDown
)

type model struct {
	ctx    context.Context
	opts   Options
	theme  uiTheme
	logger zerolog.Logger

	active  viewID
	chatbot *chatbotView
	copilot *copilotView

	health     healthState
	statusLine string

	width  int
	height int
}

func newModel(ctx context.Context, opts Options) model {
	m := model{
		ctx:        ctx,
		opts:       opts,
		theme:      newTheme(),
		logger:     opts.Logger.With().Str("component", "tui").Logger(),
		health:     healthChecking,
		statusLine: "backend: " + textutil.NullCoalesce(opts.BaseURL, "default"),
		width:      100,
		height:     30,
	}
	m.mount(parseView(opts.StartView))
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.activeInit(), healthCmd(m.ctx, m.opts.Health))
}

func (m *model) activeInit() tea.Cmd {
	if m.active == viewCopilot && m.copilot != nil {
		return m.copilot.init()
	}
	if m.chatbot != nil {
		return m.chatbot.init()
	}
	return nil
}

// mount replaces the current view with a fresh instance of id. The old view's
// in-flight calls are discarded; their outcomes will be ignored on arrival.
func (m *model) mount(id viewID) tea.Cmd {
	if m.chatbot != nil {
		m.chatbot.discard()
		m.chatbot = nil
	}
	if m.copilot != nil {
		m.copilot.discard()
		m.copilot = nil
	}
	m.active = id
	switch id {
	case viewCopilot:
		m.copilot = newCopilotView(m.ctx, m.opts.Backend, m.opts.Copilot, m.theme, m.logger)
	default:
		m.chatbot = newChatbotView(m.ctx, m.opts.Backend, m.theme, m.logger)
	}
	m.resize()
	m.logger.Debug().Str("view", m.viewName()).Msg("view mounted")
	return m.activeInit()
}

func (m *model) resize() {
	contentWidth := textutil.ClampInt(m.width-4, 40, 400)
	contentHeight := textutil.ClampInt(m.height-10, 8, 400)
	if m.chatbot != nil {
		m.chatbot.setSize(contentWidth, contentHeight)
	}
	if m.copilot != nil {
		m.copilot.setSize(contentWidth, contentHeight)
	}
}

func (m model) viewName() string {
	if m.active == viewCopilot {
		return "copilot"
	}
	return "chatbot"
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.discardActive()
			return m, tea.Quit
		case "tab", "shift+tab":
			next := viewCopilot
			if m.active == viewCopilot {
				next = viewChatbot
			}
			return m, m.mount(next)
		}
	case healthMsg:
		if msg.err != nil || !strings.EqualFold(msg.status, "ok") {
			m.health = healthDown
			if msg.err != nil {
				m.logger.Warn().Err(msg.err).Msg("backend health probe failed")
			}
		} else {
			m.health = healthOK
		}
		return m, nil
	case sendDoneMsg:
		if m.chatbot == nil {
			return m, nil
		}
		return m, m.chatbot.update(msg)
	case suggestDoneMsg, summarizeDoneMsg:
		if m.copilot == nil {
			return m, nil
		}
		return m, m.copilot.update(msg)
	}

	if m.active == viewCopilot && m.copilot != nil {
		return m, m.copilot.update(msg)
	}
	if m.chatbot != nil {
		return m, m.chatbot.update(msg)
	}
	return m, nil
}

func (m *model) discardActive() {
	if m.chatbot != nil {
		m.chatbot.discard()
	}
	if m.copilot != nil {
		m.copilot.discard()
	}
}

func (m model) View() string {
	header := m.renderHeader()
	content := ""
	hints := ""
	if m.active == viewCopilot && m.copilot != nil {
		content = m.copilot.view()
		hints = m.copilot.hints()
	} else if m.chatbot != nil {
		content = m.chatbot.view()
		hints = m.chatbot.hints()
	}
	footer := m.renderFooter(hints)
	return m.theme.root.Render(lipgloss.JoinVertical(lipgloss.Left, header, content, footer))
}

func (m model) renderHeader() string {
	tabs := []struct {
		id    viewID
		label string
	}{
		{viewChatbot, "Customer Chatbot"},
		{viewCopilot, "Agent Copilot"},
	}
	segments := make([]string, 0, len(tabs)+1)
	for _, tab := range tabs {
		style := m.theme.tabInactive
		if tab.id == m.active {
			style = m.theme.tabActive
		}
		segments = append(segments, style.Render(tab.label))
	}
	segments = append(segments, m.renderHealthBadge())

	title := m.theme.title.Render("AI Customer Service Studio")
	subtitle := m.theme.subtitle.Render("Customer chatbot + agent copilot for e-commerce support.")
	body := title + "\n" + subtitle + "\n" + lipgloss.JoinHorizontal(lipgloss.Left, segments...)
	return m.theme.header.Width(textutil.ClampInt(m.width-4, 20, 400)).Render(body)
}

func (m model) renderHealthBadge() string {
	switch m.health {
	case healthOK:
		return m.theme.badgeOK.Render("● backend ok")
	case healthDown:
		return m.theme.badgeDown.Render("● backend unreachable")
	default:
		return m.theme.badgeWait.Render("○ checking backend")
	}
}

func (m model) renderFooter(viewHints string) string {
	contentWidth := textutil.ClampInt(m.width-4, 40, 400)
	line := m.theme.status.Render(textutil.CompactSingleLine(m.statusLine, 180))
	hints := m.theme.helpText.Render(fmt.Sprintf("Keys: Tab switch view · %s · Ctrl+C quit", viewHints))
	return m.theme.footer.Width(contentWidth).Render(line + "\n" + hints)
}

// Run starts the terminal UI and blocks until the user quits or ctx ends.
func Run(ctx context.Context, opts Options) error {
	programOpts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithMouseCellMotion()}
	if opts.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	p := tea.NewProgram(newModel(ctx, opts), programOpts...)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("support studio ui: %w", err)
	}
	return nil
}
