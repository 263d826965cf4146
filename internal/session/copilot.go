package session

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"supportstudio/internal/api"
	"supportstudio/internal/conversation"
	"supportstudio/internal/request"
)

// Topic biases reply suggestions toward one support area.
type Topic string

const (
	TopicNone    Topic = ""
	TopicOrders  Topic = "orders"
	TopicReturns Topic = "returns"
	TopicAccount Topic = "account"
)

var topics = []Topic{TopicOrders, TopicReturns, TopicAccount, TopicNone}

func Topics() []Topic { return append([]Topic(nil), topics...) }

func ParseTopic(raw string) (Topic, bool) {
	normalized := Topic(strings.ToLower(strings.TrimSpace(raw)))
	for _, t := range topics {
		if t == normalized {
			return t, true
		}
	}
	return TopicNone, false
}

func (t Topic) Label() string {
	switch t {
	case TopicOrders:
		return "Orders & Shipping"
	case TopicReturns:
		return "Returns & Refunds"
	case TopicAccount:
		return "Account & Security"
	default:
		return "None"
	}
}

// Hint is the wire value: nil when no topic is selected.
func (t Topic) Hint() *string {
	if t == TopicNone {
		return nil
	}
	value := string(t)
	return &value
}

// Next cycles through the topics in display order.
func (t Topic) Next() Topic {
	for i, candidate := range topics {
		if candidate == t {
			return topics[(i+1)%len(topics)]
		}
	}
	return topics[0]
}

// Summary is a case summary; it is always replaced as a whole.
type Summary struct {
	Text      string
	KeyPoints []string
}

func (s Summary) Empty() bool {
	return strings.TrimSpace(s.Text) == "" && len(s.KeyPoints) == 0
}

// Copilot is the agent view: a shared case conversation with independent
// suggest-reply and summarize actions.
type Copilot struct {
	store     *conversation.Store
	suggest   *request.Controller[string]
	summarize *request.Controller[Summary]
	backend   Backend
	logger    zerolog.Logger

	mu         sync.Mutex
	suggestion string
	summary    Summary
}

func NewCopilot(backend Backend, seed []conversation.Message, logger zerolog.Logger) *Copilot {
	logger = logger.With().Str("component", "copilot").Logger()
	return &Copilot{
		store:     conversation.NewStore(seed...),
		suggest:   request.NewController[string](ActionSuggest, SuggestFailureMessage, logger),
		summarize: request.NewController[Summary](ActionSummarize, SummarizeFailureMessage, logger),
		backend:   backend,
		logger:    logger,
	}
}

func (c *Copilot) Messages() []conversation.Message { return c.store.Snapshot() }

func (c *Copilot) SuggestState() request.State[string] { return c.suggest.State() }

func (c *Copilot) SummarizeState() request.State[Summary] { return c.summarize.State() }

// AddCustomerFollowUp appends text as a new customer message.
func (c *Copilot) AddCustomerFollowUp(text string) bool {
	if _, err := c.store.AppendInput(conversation.RoleUser, text); err != nil {
		return false
	}
	return true
}

// SuggestReply asks for a draft answer to customerMessage. The current draft is
// cleared; the conversation is not touched.
func (c *Copilot) SuggestReply(customerMessage string, topic Topic) (request.Dispatch[string], bool) {
	message := strings.TrimSpace(customerMessage)
	ticket, ok := c.suggest.Trigger(message)
	if !ok {
		return request.Dispatch[string]{}, false
	}
	c.mu.Lock()
	c.suggestion = ""
	c.mu.Unlock()

	payload := api.SuggestReplyRequest{
		CustomerMessage:     message,
		ConversationHistory: c.store.Snapshot(),
		TopicHint:           topic.Hint(),
	}
	backend := c.backend
	return request.NewDispatch(ticket, func(ctx context.Context) (string, error) {
		resp, err := backend.SuggestReply(api.WithRequestID(ctx, ticket.RequestID), payload)
		if err != nil {
			return "", err
		}
		return resp.SuggestedReply, nil
	}), true
}

func (c *Copilot) SettleSuggestion(out request.Outcome[string]) bool {
	if !c.suggest.Settle(out.Ticket, out.Value, out.Err) {
		return false
	}
	if out.Err == nil {
		c.SetSuggestion(out.Value)
	}
	return true
}

func (c *Copilot) Suggestion() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suggestion
}

// SetSuggestion replaces the draft with the agent's edits.
func (c *Copilot) SetSuggestion(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suggestion = text
}

// AcceptSuggestion appends the trimmed draft as one agent message. The draft
// itself is kept so the agent can still see what was sent.
func (c *Copilot) AcceptSuggestion() bool {
	if _, err := c.store.AppendInput(conversation.RoleAssistant, c.Suggestion()); err != nil {
		return false
	}
	return true
}

// Summarize asks for a case summary. Only an empty conversation blocks it; the
// customer-message field plays no part.
func (c *Copilot) Summarize() (request.Dispatch[Summary], bool) {
	snapshot := c.store.Snapshot()
	ticket, ok := c.summarize.Begin(len(snapshot) > 0)
	if !ok {
		return request.Dispatch[Summary]{}, false
	}
	c.mu.Lock()
	c.summary = Summary{}
	c.mu.Unlock()

	payload := api.SummarizeCaseRequest{Conversation: snapshot}
	backend := c.backend
	return request.NewDispatch(ticket, func(ctx context.Context) (Summary, error) {
		resp, err := backend.SummarizeCase(api.WithRequestID(ctx, ticket.RequestID), payload)
		if err != nil {
			return Summary{}, err
		}
		return Summary{
			Text:      resp.Summary,
			KeyPoints: append([]string(nil), resp.KeyPoints...),
		}, nil
	}), true
}

func (c *Copilot) SettleSummary(out request.Outcome[Summary]) bool {
	if !c.summarize.Settle(out.Ticket, out.Value, out.Err) {
		return false
	}
	if out.Err == nil {
		c.mu.Lock()
		c.summary = out.Value
		c.mu.Unlock()
	}
	return true
}

func (c *Copilot) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Summary{Text: c.summary.Text, KeyPoints: append([]string(nil), c.summary.KeyPoints...)}
}

// Discard drops both actions' in-flight calls.
func (c *Copilot) Discard() {
	c.suggest.Discard()
	c.summarize.Discard()
}
