package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportstudio/internal/api"
	"supportstudio/internal/conversation"
	"supportstudio/internal/request"
)

type fakeBackend struct {
	mu sync.Mutex

	chatRequests      []api.ChatRequest
	suggestRequests   []api.SuggestReplyRequest
	summarizeRequests []api.SummarizeCaseRequest

	chatReply    api.ChatResponse
	suggestReply api.SuggestReplyResponse
	summary      api.SummarizeCaseResponse
	err          error
}

func (f *fakeBackend) QueryChatbot(ctx context.Context, req api.ChatRequest) (api.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatRequests = append(f.chatRequests, req)
	return f.chatReply, f.err
}

func (f *fakeBackend) SuggestReply(ctx context.Context, req api.SuggestReplyRequest) (api.SuggestReplyResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suggestRequests = append(f.suggestRequests, req)
	return f.suggestReply, f.err
}

func (f *fakeBackend) SummarizeCase(ctx context.Context, req api.SummarizeCaseRequest) (api.SummarizeCaseResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summarizeRequests = append(f.summarizeRequests, req)
	return f.summary, f.err
}

var serverErr = &api.ServerError{Endpoint: api.PathChatbotQuery, StatusCode: 500}

func TestChatSubmitHelloSendsEmptyHistory(t *testing.T) {
	backend := &fakeBackend{chatReply: api.ChatResponse{Reply: "Hi! How can I help?"}}
	chat := NewChat(backend, zerolog.Nop())

	dispatch, ok := chat.Submit("Hello")
	require.True(t, ok)
	assert.Equal(t, []conversation.Message{conversation.UserMessage("Hello")}, chat.Messages())
	assert.True(t, chat.State().Pending())

	out := dispatch.Run(context.Background())
	require.Len(t, backend.chatRequests, 1)
	assert.Equal(t, "Hello", backend.chatRequests[0].Query)
	assert.NotNil(t, backend.chatRequests[0].History)
	assert.Empty(t, backend.chatRequests[0].History)

	require.True(t, chat.Settle(out))
	assert.Equal(t, request.Succeeded, chat.State().Phase())
}

func TestChatHistoryExcludesLatestQuery(t *testing.T) {
	backend := &fakeBackend{chatReply: api.ChatResponse{Reply: "first answer"}}
	chat := NewChat(backend, zerolog.Nop())

	d, _ := chat.Submit("first")
	chat.Settle(d.Run(context.Background()))

	backend.chatReply = api.ChatResponse{Reply: "second answer"}
	d, ok := chat.Submit("  second  ")
	require.True(t, ok)
	chat.Settle(d.Run(context.Background()))

	want := []conversation.Message{
		conversation.UserMessage("first"),
		conversation.AssistantMessage("first answer"),
	}
	if diff := cmp.Diff(want, backend.chatRequests[1].History); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "second", backend.chatRequests[1].Query)
	assert.Len(t, chat.Messages(), 4)
}

func TestChatSuccessAppendsAssistantReply(t *testing.T) {
	backend := &fakeBackend{chatReply: api.ChatResponse{Reply: "We'll look into it."}}
	chat := NewChat(backend, zerolog.Nop())

	d, _ := chat.Submit("My parcel is late")
	chat.Settle(d.Run(context.Background()))

	want := []conversation.Message{
		conversation.UserMessage("My parcel is late"),
		conversation.AssistantMessage("We'll look into it."),
	}
	if diff := cmp.Diff(want, chat.Messages()); diff != "" {
		t.Fatalf("conversation mismatch (-want +got):\n%s", diff)
	}
}

func TestChatFailureKeepsOnlyUserMessage(t *testing.T) {
	backend := &fakeBackend{err: serverErr}
	chat := NewChat(backend, zerolog.Nop())

	d, _ := chat.Submit("Hello")
	require.True(t, chat.Settle(d.Run(context.Background())))

	assert.Equal(t, []conversation.Message{conversation.UserMessage("Hello")}, chat.Messages())
	msg, failed := chat.State().Failure()
	require.True(t, failed)
	assert.Equal(t, ChatFailureMessage, msg)
}

func TestChatRejectsWhitespaceWithoutCall(t *testing.T) {
	backend := &fakeBackend{}
	chat := NewChat(backend, zerolog.Nop())

	_, ok := chat.Submit("   \t\n")
	assert.False(t, ok)
	assert.Empty(t, chat.Messages())
	assert.Empty(t, backend.chatRequests)
	assert.Equal(t, request.Idle, chat.State().Phase())
}

func TestChatBurstIssuesOneCall(t *testing.T) {
	backend := &fakeBackend{chatReply: api.ChatResponse{Reply: "ok"}}
	chat := NewChat(backend, zerolog.Nop())

	var dispatches []request.Dispatch[string]
	for i := 0; i < 4; i++ {
		if d, ok := chat.Submit("Hello"); ok {
			dispatches = append(dispatches, d)
		}
	}
	require.Len(t, dispatches, 1)
	assert.Len(t, chat.Messages(), 1)

	chat.Settle(dispatches[0].Run(context.Background()))
	assert.Len(t, backend.chatRequests, 1)
}

func TestChatDiscardIgnoresLateReply(t *testing.T) {
	backend := &fakeBackend{chatReply: api.ChatResponse{Reply: "late"}}
	chat := NewChat(backend, zerolog.Nop())

	d, _ := chat.Submit("Hello")
	chat.Discard()
	assert.False(t, chat.Settle(d.Run(context.Background())))
	assert.Equal(t, []conversation.Message{conversation.UserMessage("Hello")}, chat.Messages())
}

func TestChatMissingReplyAppendsEmptyAssistantMessage(t *testing.T) {
	backend := &fakeBackend{}
	chat := NewChat(backend, zerolog.Nop())

	d, _ := chat.Submit("Hello")
	chat.Settle(d.Run(context.Background()))
	msgs := chat.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, conversation.AssistantMessage(""), msgs[1])
}

func TestSuggestReplyDoesNotTouchConversation(t *testing.T) {
	backend := &fakeBackend{suggestReply: api.SuggestReplyResponse{SuggestedReply: "  Let me check order #12345.  "}}
	copilot := NewCopilot(backend, conversation.DefaultCopilotSeed(), zerolog.Nop())
	before := copilot.Messages()

	d, ok := copilot.SuggestReply(" Where is my order? ", TopicOrders)
	require.True(t, ok)
	require.True(t, copilot.SettleSuggestion(d.Run(context.Background())))

	assert.Equal(t, before, copilot.Messages())
	assert.Equal(t, "  Let me check order #12345.  ", copilot.Suggestion())

	req := backend.suggestRequests[0]
	assert.Equal(t, "Where is my order?", req.CustomerMessage)
	require.NotNil(t, req.TopicHint)
	assert.Equal(t, "orders", *req.TopicHint)
	assert.Equal(t, before, req.ConversationHistory)

	require.True(t, copilot.AcceptSuggestion())
	after := copilot.Messages()
	require.Len(t, after, len(before)+1)
	assert.Equal(t, conversation.AssistantMessage("Let me check order #12345."), after[len(after)-1])
}

func TestSuggestReplyNoTopicSendsNilHint(t *testing.T) {
	backend := &fakeBackend{}
	copilot := NewCopilot(backend, nil, zerolog.Nop())

	d, ok := copilot.SuggestReply("hello", TopicNone)
	require.True(t, ok)
	d.Run(context.Background())
	assert.Nil(t, backend.suggestRequests[0].TopicHint)
}

func TestSuggestReplyRejectsBlankMessage(t *testing.T) {
	backend := &fakeBackend{}
	copilot := NewCopilot(backend, conversation.DefaultCopilotSeed(), zerolog.Nop())

	_, ok := copilot.SuggestReply("  ", TopicOrders)
	assert.False(t, ok)
	assert.Empty(t, backend.suggestRequests)
}

func TestSuggestReplyClearsDraftOnTrigger(t *testing.T) {
	backend := &fakeBackend{err: errors.New("boom")}
	copilot := NewCopilot(backend, nil, zerolog.Nop())
	copilot.SetSuggestion("old draft")

	d, _ := copilot.SuggestReply("question", TopicReturns)
	assert.Empty(t, copilot.Suggestion())
	copilot.SettleSuggestion(d.Run(context.Background()))

	assert.Empty(t, copilot.Suggestion())
	msg, failed := copilot.SuggestState().Failure()
	require.True(t, failed)
	assert.Equal(t, SuggestFailureMessage, msg)
}

func TestAcceptBlankSuggestionIsRejected(t *testing.T) {
	copilot := NewCopilot(&fakeBackend{}, nil, zerolog.Nop())
	copilot.SetSuggestion("   ")
	assert.False(t, copilot.AcceptSuggestion())
	assert.Empty(t, copilot.Messages())
}

func TestSummarizeEmptyConversationIsRejected(t *testing.T) {
	backend := &fakeBackend{}
	copilot := NewCopilot(backend, nil, zerolog.Nop())

	_, ok := copilot.Summarize()
	assert.False(t, ok)
	assert.Empty(t, backend.summarizeRequests)
	assert.Equal(t, request.Idle, copilot.SummarizeState().Phase())
}

func TestSummarizeReplacesSummaryWholesale(t *testing.T) {
	backend := &fakeBackend{summary: api.SummarizeCaseResponse{
		Summary:   "Customer awaiting delayed headphones.",
		KeyPoints: []string{"Order #12345", "Tracking stale for 5 days"},
	}}
	copilot := NewCopilot(backend, conversation.DefaultCopilotSeed(), zerolog.Nop())

	d, ok := copilot.Summarize()
	require.True(t, ok)
	require.True(t, copilot.SettleSummary(d.Run(context.Background())))
	assert.Equal(t, Summary{
		Text:      "Customer awaiting delayed headphones.",
		KeyPoints: []string{"Order #12345", "Tracking stale for 5 days"},
	}, copilot.Summary())
	assert.Equal(t, conversation.DefaultCopilotSeed(), backend.summarizeRequests[0].Conversation)

	backend.summary = api.SummarizeCaseResponse{Summary: "Shorter"}
	d, _ = copilot.Summarize()
	assert.True(t, copilot.Summary().Empty(), "summary is cleared while the new call is pending")
	copilot.SettleSummary(d.Run(context.Background()))
	assert.Equal(t, "Shorter", copilot.Summary().Text)
	assert.Empty(t, copilot.Summary().KeyPoints)
}

func TestSummarizeFailureLeavesSummaryCleared(t *testing.T) {
	backend := &fakeBackend{summary: api.SummarizeCaseResponse{Summary: "first"}}
	copilot := NewCopilot(backend, conversation.DefaultCopilotSeed(), zerolog.Nop())
	d, _ := copilot.Summarize()
	copilot.SettleSummary(d.Run(context.Background()))

	backend.err = serverErr
	d, _ = copilot.Summarize()
	copilot.SettleSummary(d.Run(context.Background()))
	assert.True(t, copilot.Summary().Empty())
	msg, _ := copilot.SummarizeState().Failure()
	assert.Equal(t, SummarizeFailureMessage, msg)
}

func TestCopilotActionsAreIndependent(t *testing.T) {
	backend := &fakeBackend{
		suggestReply: api.SuggestReplyResponse{SuggestedReply: "draft"},
		summary:      api.SummarizeCaseResponse{Summary: "sum"},
	}
	copilot := NewCopilot(backend, conversation.DefaultCopilotSeed(), zerolog.Nop())

	suggest, ok := copilot.SuggestReply("question", TopicOrders)
	require.True(t, ok)
	summarize, ok := copilot.Summarize()
	require.True(t, ok, "summarize must not be blocked by a pending suggestion")

	copilot.SettleSummary(summarize.Run(context.Background()))
	assert.True(t, copilot.SuggestState().Pending())
	copilot.SettleSuggestion(suggest.Run(context.Background()))
	assert.Equal(t, "draft", copilot.Suggestion())
	assert.Equal(t, "sum", copilot.Summary().Text)
}

func TestAddCustomerFollowUp(t *testing.T) {
	copilot := NewCopilot(&fakeBackend{}, nil, zerolog.Nop())
	assert.False(t, copilot.AddCustomerFollowUp("   "))
	assert.True(t, copilot.AddCustomerFollowUp(" Any update? "))
	assert.Equal(t, []conversation.Message{conversation.UserMessage("Any update?")}, copilot.Messages())
}

func TestCopilotDiscardIgnoresLateOutcomes(t *testing.T) {
	backend := &fakeBackend{
		suggestReply: api.SuggestReplyResponse{SuggestedReply: "late draft"},
		summary:      api.SummarizeCaseResponse{Summary: "late summary"},
	}
	copilot := NewCopilot(backend, conversation.DefaultCopilotSeed(), zerolog.Nop())
	suggest, _ := copilot.SuggestReply("question", TopicOrders)
	summarize, _ := copilot.Summarize()
	copilot.Discard()

	assert.False(t, copilot.SettleSuggestion(suggest.Run(context.Background())))
	assert.False(t, copilot.SettleSummary(summarize.Run(context.Background())))
	assert.Empty(t, copilot.Suggestion())
	assert.True(t, copilot.Summary().Empty())
}

func TestTopics(t *testing.T) {
	assert.Equal(t, TopicReturns, TopicOrders.Next())
	assert.Equal(t, TopicOrders, TopicNone.Next())
	topic, ok := ParseTopic(" Account ")
	assert.True(t, ok)
	assert.Equal(t, TopicAccount, topic)
	_, ok = ParseTopic("billing")
	assert.False(t, ok)
	assert.Equal(t, "Returns & Refunds", TopicReturns.Label())
	assert.Nil(t, TopicNone.Hint())
}
