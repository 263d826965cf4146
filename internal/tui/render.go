package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"supportstudio/internal/conversation"
	"supportstudio/internal/textutil"
)

const (
	transcriptMaxLines = 60
	transcriptMaxChars = 6000
)

// markdown renders assistant replies. A nil renderer falls back to plain
// wrapping.
type markdown struct {
	renderer *glamour.TermRenderer
	width    int
}

func newMarkdown(width int) *markdown {
	width = textutil.ClampInt(width, 20, 160)
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return &markdown{width: width}
	}
	return &markdown{renderer: r, width: width}
}

func (m *markdown) render(text string) string {
	if m == nil {
		return textutil.WrapText(text, 80)
	}
	if m.renderer == nil {
		return textutil.WrapText(text, m.width)
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return textutil.WrapText(text, m.width)
	}
	return strings.Trim(out, "\n")
}

type transcriptLabels struct {
	user      string
	assistant string
}

var (
	chatbotLabels = transcriptLabels{user: "You", assistant: "Assistant"}
	copilotLabels = transcriptLabels{user: "Customer", assistant: "Agent"}
)

func (l transcriptLabels) forRole(role conversation.Role) string {
	if role == conversation.RoleUser {
		return l.user
	}
	return l.assistant
}

// renderTranscript draws msgs in order. md, when set, renders assistant
// content as markdown.
func renderTranscript(theme uiTheme, msgs []conversation.Message, labels transcriptLabels, width int, md *markdown) string {
	var b strings.Builder
	for _, msg := range msgs {
		style, ok := theme.roleLabel[string(msg.Role)]
		if !ok {
			style = theme.helpText
		}
		b.WriteString(style.Render(labels.forRole(msg.Role)))
		b.WriteString("\n")
		body := textutil.CompactMessage(msg.Content, transcriptMaxLines, transcriptMaxChars)
		if msg.Role == conversation.RoleAssistant && md != nil && body != "" {
			b.WriteString(md.render(body))
		} else {
			b.WriteString(textutil.WrapText(body, textutil.ClampInt(width-2, 24, 400)))
		}
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
