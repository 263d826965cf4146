package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"supportstudio/internal/conversation"
	"supportstudio/internal/request"
	"supportstudio/internal/session"
	"supportstudio/internal/textutil"
)

const (
	copilotEmptyState   = "No messages yet. Add a customer message below."
	summaryPlaceholder  = "No summary yet. Press Ctrl+R to generate one."
	suggestPlaceholder  = "Suggested reply will appear here…"
	customerPlaceholder = "Type a new customer message to add to the conversation…"
)

type copilotFocus int

const (
	focusCustomer copilotFocus = iota
	focusSuggestion
)

// CopilotOptions seeds a copilot view on mount.
type CopilotOptions struct {
	Seed            []conversation.Message
	CustomerMessage string
	Topic           session.Topic
}

type copilotView struct {
	ctx     context.Context
	copilot *session.Copilot
	theme   uiTheme
	topic   session.Topic
	focus   copilotFocus

	customer     textarea.Model
	suggestion   textarea.Model
	conversation viewport.Model
	suggestSpin  spinner.Model
	summarySpin  spinner.Model

	width  int
	height int
}

func newEditor(placeholder string, rows int) textarea.Model {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 4000
	ta.SetHeight(rows)
	return ta
}

func newActionSpinner() spinner.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#05ffa1"))
	return sp
}

func newCopilotView(ctx context.Context, backend session.Backend, opts CopilotOptions, theme uiTheme, logger zerolog.Logger) *copilotView {
	customer := newEditor(customerPlaceholder, 3)
	customer.SetValue(opts.CustomerMessage)

	conv := viewport.New(0, 0)
	conv.MouseWheelEnabled = true
	conv.MouseWheelDelta = 4

	v := &copilotView{
		ctx:          ctx,
		copilot:      session.NewCopilot(backend, opts.Seed, logger),
		theme:        theme,
		topic:        opts.Topic,
		focus:        focusCustomer,
		customer:     customer,
		suggestion:   newEditor(suggestPlaceholder, 6),
		conversation: conv,
		suggestSpin:  newActionSpinner(),
		summarySpin:  newActionSpinner(),
	}
	v.refresh()
	return v
}

func (v *copilotView) init() tea.Cmd {
	return v.customer.Focus()
}

func (v *copilotView) setSize(width, height int) {
	v.width = width
	v.height = height
	half := textutil.ClampInt(width/2-2, 24, 200)
	v.customer.SetWidth(half - 4)
	v.suggestion.SetWidth(half - 4)
	v.conversation.Width = half - 4
	v.conversation.Height = textutil.ClampInt(height-14, 3, 400)
	v.refresh()
}

func (v *copilotView) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+f":
			return v.toggleFocus()
		case "ctrl+s":
			return v.suggest()
		case "ctrl+r":
			return v.summarize()
		case "ctrl+a":
			v.addFollowUp()
			return nil
		case "ctrl+e":
			v.acceptSuggestion()
			return nil
		case "ctrl+t":
			v.topic = v.topic.Next()
			return nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			v.conversation, cmd = v.conversation.Update(msg)
			return cmd
		}
	case tea.MouseMsg:
		var cmd tea.Cmd
		v.conversation, cmd = v.conversation.Update(msg)
		return cmd
	case suggestDoneMsg:
		if v.copilot.SettleSuggestion(msg.out) && msg.out.Err == nil {
			v.suggestion.SetValue(v.copilot.Suggestion())
		}
		return nil
	case summarizeDoneMsg:
		v.copilot.SettleSummary(msg.out)
		return nil
	case spinner.TickMsg:
		var cmds []tea.Cmd
		if v.copilot.SuggestState().Pending() {
			var cmd tea.Cmd
			v.suggestSpin, cmd = v.suggestSpin.Update(msg)
			cmds = append(cmds, cmd)
		}
		if v.copilot.SummarizeState().Pending() {
			var cmd tea.Cmd
			v.summarySpin, cmd = v.summarySpin.Update(msg)
			cmds = append(cmds, cmd)
		}
		return tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	if v.focus == focusSuggestion {
		v.suggestion, cmd = v.suggestion.Update(msg)
		v.copilot.SetSuggestion(v.suggestion.Value())
	} else {
		v.customer, cmd = v.customer.Update(msg)
	}
	return cmd
}

func (v *copilotView) toggleFocus() tea.Cmd {
	if v.focus == focusCustomer {
		v.focus = focusSuggestion
		v.customer.Blur()
		return v.suggestion.Focus()
	}
	v.focus = focusCustomer
	v.suggestion.Blur()
	return v.customer.Focus()
}

func (v *copilotView) suggest() tea.Cmd {
	d, ok := v.copilot.SuggestReply(v.customer.Value(), v.topic)
	if !ok {
		return nil
	}
	v.suggestion.Reset()
	return tea.Batch(
		dispatchCmd(v.ctx, d, func(out request.Outcome[string]) tea.Msg { return suggestDoneMsg{out: out} }),
		v.suggestSpin.Tick,
	)
}

func (v *copilotView) summarize() tea.Cmd {
	d, ok := v.copilot.Summarize()
	if !ok {
		return nil
	}
	return tea.Batch(
		dispatchCmd(v.ctx, d, func(out request.Outcome[session.Summary]) tea.Msg { return summarizeDoneMsg{out: out} }),
		v.summarySpin.Tick,
	)
}

func (v *copilotView) addFollowUp() {
	if !v.copilot.AddCustomerFollowUp(v.customer.Value()) {
		return
	}
	v.customer.Reset()
	v.refresh()
}

func (v *copilotView) acceptSuggestion() {
	if v.copilot.AcceptSuggestion() {
		v.refresh()
	}
}

func (v *copilotView) discard() {
	v.copilot.Discard()
}

func (v *copilotView) refresh() {
	msgs := v.copilot.Messages()
	if len(msgs) == 0 {
		v.conversation.SetContent(v.theme.placeholder.Render(copilotEmptyState))
		return
	}
	v.conversation.SetContent(renderTranscript(v.theme, msgs, copilotLabels, v.conversation.Width, nil))
	v.conversation.GotoBottom()
}

func (v *copilotView) suggestLabel() string {
	if v.copilot.SuggestState().Pending() {
		return v.suggestSpin.View() + " Generating…"
	}
	return "Suggest Reply"
}

func (v *copilotView) summarizeLabel() string {
	if v.copilot.SummarizeState().Pending() {
		return v.summarySpin.View() + " Summarizing…"
	}
	return "Summarize"
}

func (v *copilotView) renderSummary(width int) string {
	summary := v.copilot.Summary()
	if summary.Empty() {
		if v.copilot.SummarizeState().Pending() {
			return ""
		}
		return v.theme.placeholder.Render(summaryPlaceholder)
	}
	var b strings.Builder
	if strings.TrimSpace(summary.Text) != "" {
		b.WriteString(textutil.WrapText(summary.Text, width))
	}
	for _, point := range summary.KeyPoints {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(textutil.WrapText("• "+point, width))
	}
	return b.String()
}

func (v *copilotView) editorPanel(ta textarea.Model, focused bool) string {
	style := v.theme.inputPanel
	if focused {
		style = v.theme.focusPanel
	}
	return style.Render(ta.View())
}

func (v *copilotView) hints() string {
	return "Ctrl+F focus · Ctrl+A add follow-up · Ctrl+T topic · Ctrl+S suggest · Ctrl+E add as agent message · Ctrl+R summarize"
}

func (v *copilotView) view() string {
	half := textutil.ClampInt(v.width/2-2, 24, 200)
	inner := half - 4
	state := v.copilot

	canAdd := strings.TrimSpace(v.customer.Value()) != ""
	left := v.theme.panel.Width(half).Render(strings.Join([]string{
		v.theme.panelTitle.Render("Conversation Context"),
		v.conversation.View(),
		"",
		v.theme.helpText.Render("Add customer follow-up"),
		v.editorPanel(v.customer, v.focus == focusCustomer),
		fmt.Sprintf("%s %s   %s",
			v.theme.helpText.Render("Topic hint:"),
			v.theme.status.Render(v.topic.Label()),
			v.theme.buttonLabel("Add to conversation", canAdd),
		),
	}, "\n"))

	rightParts := []string{v.theme.panelTitle.Render("Agent Copilot Tools")}

	canSuggest := !state.SuggestState().Pending() && strings.TrimSpace(v.customer.Value()) != ""
	rightParts = append(rightParts, "Suggested Reply  "+v.theme.buttonLabel(v.suggestLabel(), canSuggest))
	if msg, failed := state.SuggestState().Failure(); failed {
		rightParts = append(rightParts, v.theme.errorBanner.Render(msg))
	}
	canAccept := strings.TrimSpace(v.suggestion.Value()) != ""
	rightParts = append(rightParts,
		v.editorPanel(v.suggestion, v.focus == focusSuggestion),
		v.theme.buttonLabel("Add as agent message", canAccept),
		"",
	)

	canSummarize := !state.SummarizeState().Pending() && len(state.Messages()) > 0
	rightParts = append(rightParts, "Summarize Case  "+v.theme.buttonLabel(v.summarizeLabel(), canSummarize))
	if msg, failed := state.SummarizeState().Failure(); failed {
		rightParts = append(rightParts, v.theme.errorBanner.Render(msg))
	}
	rightParts = append(rightParts, v.renderSummary(inner))

	right := v.theme.panel.Width(half).Render(strings.Join(rightParts, "\n"))
	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}
