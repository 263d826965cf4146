package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"supportstudio/internal/request"
	"supportstudio/internal/session"
	"supportstudio/internal/textutil"
)

const (
	chatEmptyState = "Start the conversation by asking a question about your order, shipping, returns, or account."
	chatInputRows  = 3
)

// chatbotView is the customer-facing chat panel. A new instance is built on
// every mount.
type chatbotView struct {
	ctx   context.Context
	chat  *session.Chat
	theme uiTheme
	md    *markdown

	input      textarea.Model
	transcript viewport.Model
	spinner    spinner.Model

	width  int
	height int
}

func newChatbotView(ctx context.Context, backend session.Backend, theme uiTheme, logger zerolog.Logger) *chatbotView {
	input := textarea.New()
	input.Placeholder = "Type your question here and press Enter to send…"
	input.ShowLineNumbers = false
	input.CharLimit = 4000
	input.SetHeight(chatInputRows)
	input.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#05ffa1"))

	transcript := viewport.New(0, 0)
	transcript.MouseWheelEnabled = true
	transcript.MouseWheelDelta = 4

	v := &chatbotView{
		ctx:        ctx,
		chat:       session.NewChat(backend, logger),
		theme:      theme,
		input:      input,
		transcript: transcript,
		spinner:    sp,
	}
	v.refresh()
	return v
}

func (v *chatbotView) init() tea.Cmd {
	return v.input.Focus()
}

func (v *chatbotView) setSize(width, height int) {
	v.width = width
	v.height = height
	inner := textutil.ClampInt(width-4, 20, 400)
	v.input.SetWidth(textutil.ClampInt(inner-12, 16, 400))
	// transcript panel borders, banner line, input panel
	v.transcript.Width = inner
	v.transcript.Height = textutil.ClampInt(height-chatInputRows-7, 3, 400)
	if v.md == nil || v.md.width != inner-2 {
		v.md = newMarkdown(inner - 2)
	}
	v.refresh()
}

func (v *chatbotView) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			return v.submit()
		case "pgup", "pgdown":
			var cmd tea.Cmd
			v.transcript, cmd = v.transcript.Update(msg)
			return cmd
		}
	case tea.MouseMsg:
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return cmd
	case sendDoneMsg:
		v.chat.Settle(msg.out)
		v.refresh()
		return nil
	case spinner.TickMsg:
		if !v.chat.State().Pending() {
			return nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		v.refresh()
		return cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return cmd
}

// submit sends the input as a query. Blank input and a send already in
// flight are ignored and leave the input as typed.
func (v *chatbotView) submit() tea.Cmd {
	d, ok := v.chat.Submit(v.input.Value())
	if !ok {
		return nil
	}
	v.input.Reset()
	v.refresh()
	return tea.Batch(
		dispatchCmd(v.ctx, d, func(out request.Outcome[string]) tea.Msg { return sendDoneMsg{out: out} }),
		v.spinner.Tick,
	)
}

func (v *chatbotView) discard() {
	v.chat.Discard()
}

func (v *chatbotView) canSend() bool {
	return !v.chat.State().Pending() && strings.TrimSpace(v.input.Value()) != ""
}

func (v *chatbotView) sendLabel() string {
	if v.chat.State().Pending() {
		return "Sending…"
	}
	return "Send"
}

func (v *chatbotView) refresh() {
	msgs := v.chat.Messages()
	pending := v.chat.State().Pending()

	var content string
	if len(msgs) == 0 && !pending {
		content = v.theme.placeholder.Render(chatEmptyState)
	} else {
		content = renderTranscript(v.theme, msgs, chatbotLabels, v.transcript.Width, v.md)
		if pending {
			thinking := v.theme.roleLabel["assistant"].Render(chatbotLabels.assistant) + "\n" + v.spinner.View() + " Thinking..."
			content = strings.TrimSpace(content + "\n\n" + thinking)
		}
	}
	v.transcript.SetContent(content)
	v.transcript.GotoBottom()
}

func (v *chatbotView) hints() string {
	return "Enter send · Alt+Enter/Ctrl+J newline · PgUp/PgDn scroll"
}

func (v *chatbotView) view() string {
	width := textutil.ClampInt(v.width, 24, 400)
	panel := v.theme.panel.Width(width).Render(
		v.theme.panelTitle.Render("Customer Chatbot") + "\n" + v.transcript.View(),
	)

	banner := ""
	if msg, failed := v.chat.State().Failure(); failed {
		banner = v.theme.errorBanner.Render(msg)
	}

	input := lipgloss.JoinHorizontal(lipgloss.Bottom,
		v.input.View(),
		" ",
		v.theme.buttonLabel(v.sendLabel(), v.canSend()),
	)
	inputPanel := v.theme.focusPanel.Width(width).Render(input)

	return lipgloss.JoinVertical(lipgloss.Left, panel, banner, inputPanel)
}
