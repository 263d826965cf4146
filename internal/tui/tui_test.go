package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportstudio/internal/api"
	"supportstudio/internal/conversation"
	"supportstudio/internal/session"
)

type fakeBackend struct {
	mu       sync.Mutex
	calls    int
	reply    string
	draft    string
	summary  api.SummarizeCaseResponse
	err      error
	lastChat api.ChatRequest
}

func (f *fakeBackend) QueryChatbot(ctx context.Context, req api.ChatRequest) (api.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastChat = req
	return api.ChatResponse{Reply: f.reply}, f.err
}

func (f *fakeBackend) SuggestReply(ctx context.Context, req api.SuggestReplyRequest) (api.SuggestReplyResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return api.SuggestReplyResponse{SuggestedReply: f.draft}, f.err
}

func (f *fakeBackend) SummarizeCase(ctx context.Context, req api.SummarizeCaseRequest) (api.SummarizeCaseResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.summary, f.err
}

func newTestModel(backend *fakeBackend, start string) model {
	return newModel(context.Background(), Options{
		Backend:   backend,
		BaseURL:   "http://127.0.0.1:8000",
		StartView: start,
		Copilot: CopilotOptions{
			Seed:            conversation.DefaultCopilotSeed(),
			CustomerMessage: "Where is my order?",
			Topic:           session.TopicOrders,
		},
		Logger: zerolog.Nop(),
	})
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(model)
	require.True(t, ok)
	return out, cmd
}

// collect runs cmd and flattens batches into the messages they produce.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, collect(c)...)
	}
	return out
}

func outcomes(msgs []tea.Msg) []tea.Msg {
	var out []tea.Msg
	for _, msg := range msgs {
		switch msg.(type) {
		case sendDoneMsg, suggestDoneMsg, summarizeDoneMsg:
			out = append(out, msg)
		}
	}
	return out
}

func TestChatbotEnterSendsAndSettles(t *testing.T) {
	backend := &fakeBackend{reply: "Your parcel ships tomorrow."}
	m := newTestModel(backend, "chatbot")
	m.chatbot.input.SetValue("Where is my parcel?")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Empty(t, m.chatbot.input.Value())
	assert.True(t, m.chatbot.chat.State().Pending())
	assert.Equal(t, "Sending…", m.chatbot.sendLabel())
	assert.Equal(t, []conversation.Message{conversation.UserMessage("Where is my parcel?")}, m.chatbot.chat.Messages())

	done := outcomes(collect(cmd))
	require.Len(t, done, 1)
	m, _ = update(t, m, done[0])

	assert.Equal(t, "Send", m.chatbot.sendLabel())
	assert.Equal(t, []conversation.Message{
		conversation.UserMessage("Where is my parcel?"),
		conversation.AssistantMessage("Your parcel ships tomorrow."),
	}, m.chatbot.chat.Messages())
	assert.Empty(t, backend.lastChat.History)
	assert.Contains(t, m.View(), "AI Customer Service Studio")
}

func TestChatbotBlankEnterIsIgnored(t *testing.T) {
	backend := &fakeBackend{}
	m := newTestModel(backend, "chatbot")
	m.chatbot.input.SetValue("   ")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, m.chatbot.chat.Messages())
	assert.False(t, m.chatbot.canSend())
	assert.Equal(t, 0, backend.calls)
}

func TestChatbotSecondEnterWhilePendingIsIgnored(t *testing.T) {
	backend := &fakeBackend{reply: "ok"}
	m := newTestModel(backend, "chatbot")
	m.chatbot.input.SetValue("first")
	m, first := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, first)

	m.chatbot.input.SetValue("second")
	m, second := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, second)
	assert.Equal(t, "second", m.chatbot.input.Value(), "input is kept while a send is pending")
	assert.Len(t, m.chatbot.chat.Messages(), 1)
}

func TestChatbotFailureShowsFixedMessage(t *testing.T) {
	backend := &fakeBackend{err: &api.ServerError{Endpoint: api.PathChatbotQuery, StatusCode: 500}}
	m := newTestModel(backend, "chatbot")
	m.chatbot.input.SetValue("Hello")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	for _, msg := range outcomes(collect(cmd)) {
		m, _ = update(t, m, msg)
	}

	failure, failed := m.chatbot.chat.State().Failure()
	require.True(t, failed)
	assert.Equal(t, session.ChatFailureMessage, failure)
	assert.Len(t, m.chatbot.chat.Messages(), 1)
}

func TestSwitchingViewsDropsLateReply(t *testing.T) {
	backend := &fakeBackend{reply: "late"}
	m := newTestModel(backend, "chatbot")
	m.chatbot.input.SetValue("Hello")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	done := outcomes(collect(cmd))
	require.Len(t, done, 1)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, viewCopilot, m.active)
	assert.Nil(t, m.chatbot)

	m, _ = update(t, m, done[0])
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	require.NotNil(t, m.chatbot)

	m, _ = update(t, m, done[0])
	assert.Empty(t, m.chatbot.chat.Messages(), "a remounted view starts empty and ignores old replies")
	assert.False(t, m.chatbot.chat.State().Pending())
}

func TestCopilotSuggestThenAccept(t *testing.T) {
	backend := &fakeBackend{draft: "Let me check order #12345 for you."}
	m := newTestModel(backend, "copilot")
	require.NotNil(t, m.copilot)
	seedLen := len(conversation.DefaultCopilotSeed())

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	assert.True(t, m.copilot.copilot.SuggestState().Pending())

	for _, msg := range outcomes(collect(cmd)) {
		m, _ = update(t, m, msg)
	}
	assert.Equal(t, "Let me check order #12345 for you.", m.copilot.suggestion.Value())
	assert.Len(t, m.copilot.copilot.Messages(), seedLen, "suggestions are not appended automatically")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})
	msgs := m.copilot.copilot.Messages()
	require.Len(t, msgs, seedLen+1)
	assert.Equal(t, conversation.AssistantMessage("Let me check order #12345 for you."), msgs[seedLen])
}

func TestCopilotSummarizeWhileSuggestPending(t *testing.T) {
	backend := &fakeBackend{
		draft:   "draft",
		summary: api.SummarizeCaseResponse{Summary: "Delayed headphones.", KeyPoints: []string{"Order #12345"}},
	}
	m := newTestModel(backend, "copilot")

	m, suggestCmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m, summarizeCmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, suggestCmd)
	require.NotNil(t, summarizeCmd)
	assert.Contains(t, m.copilot.summarizeLabel(), "Summarizing…")
	assert.Contains(t, m.copilot.suggestLabel(), "Generating…")

	for _, msg := range outcomes(collect(summarizeCmd)) {
		m, _ = update(t, m, msg)
	}
	assert.True(t, m.copilot.copilot.SuggestState().Pending())
	assert.Equal(t, "Delayed headphones.", m.copilot.copilot.Summary().Text)
	assert.Contains(t, m.copilot.renderSummary(60), "• Order #12345")
}

func TestCopilotFollowUpAndTopic(t *testing.T) {
	m := newTestModel(&fakeBackend{}, "copilot")
	seedLen := len(conversation.DefaultCopilotSeed())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlA})
	assert.Len(t, m.copilot.copilot.Messages(), seedLen+1)
	assert.Empty(t, m.copilot.customer.Value())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlA})
	assert.Len(t, m.copilot.copilot.Messages(), seedLen+1, "blank follow-up is ignored")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Equal(t, session.TopicReturns, m.copilot.topic)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, cmd, "suggest needs a customer message")
}

func TestCopilotSummaryPlaceholder(t *testing.T) {
	m := newTestModel(&fakeBackend{}, "copilot")
	assert.Contains(t, m.copilot.renderSummary(80), "No summary yet")
}

func TestHealthBadge(t *testing.T) {
	m := newTestModel(&fakeBackend{}, "chatbot")
	assert.Equal(t, healthChecking, m.health)

	m, _ = update(t, m, healthMsg{status: "ok"})
	assert.Equal(t, healthOK, m.health)

	m, _ = update(t, m, healthMsg{err: errors.New("connection refused")})
	assert.Equal(t, healthDown, m.health)
}

func TestParseView(t *testing.T) {
	assert.Equal(t, viewCopilot, parseView(" Copilot "))
	assert.Equal(t, viewChatbot, parseView("chatbot"))
	assert.Equal(t, viewChatbot, parseView("unknown"))
}

func TestMarkdownFallbackWrapsAtWidth(t *testing.T) {
	md := &markdown{width: 20}
	out := md.render("the quick brown fox jumps over the lazy dog again")
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len(line), 20)
	}
	assert.Greater(t, len(strings.Split(out, "\n")), 2)
}
