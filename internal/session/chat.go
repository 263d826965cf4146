package session

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"supportstudio/internal/api"
	"supportstudio/internal/conversation"
	"supportstudio/internal/request"
)

// Chat is the customer chatbot: one conversation and a single send action.
type Chat struct {
	store   *conversation.Store
	send    *request.Controller[string]
	backend Backend
	logger  zerolog.Logger
}

func NewChat(backend Backend, logger zerolog.Logger) *Chat {
	logger = logger.With().Str("component", "chatbot").Logger()
	return &Chat{
		store:   conversation.NewStore(),
		send:    request.NewController[string](ActionSend, ChatFailureMessage, logger),
		backend: backend,
		logger:  logger,
	}
}

func (c *Chat) Messages() []conversation.Message { return c.store.Snapshot() }

func (c *Chat) State() request.State[string] { return c.send.State() }

// Submit appends the user's message right away and returns the call that asks
// the backend for a reply. The history sent is the conversation as it was
// before this message; the message itself travels as the query.
func (c *Chat) Submit(text string) (request.Dispatch[string], bool) {
	query := strings.TrimSpace(text)
	ticket, ok := c.send.Trigger(query)
	if !ok {
		return request.Dispatch[string]{}, false
	}
	history := c.store.Snapshot()
	if _, err := c.store.AppendInput(conversation.RoleUser, query); err != nil {
		c.send.Settle(ticket, "", err)
		return request.Dispatch[string]{}, false
	}
	payload := api.ChatRequest{Query: query, History: history}
	backend := c.backend
	return request.NewDispatch(ticket, func(ctx context.Context) (string, error) {
		resp, err := backend.QueryChatbot(api.WithRequestID(ctx, ticket.RequestID), payload)
		if err != nil {
			return "", err
		}
		return resp.Reply, nil
	}), true
}

// Settle applies a finished send. On success the reply is appended as an
// assistant message; on failure the conversation is left as it is.
func (c *Chat) Settle(out request.Outcome[string]) bool {
	if !c.send.Settle(out.Ticket, out.Value, out.Err) {
		return false
	}
	if out.Err != nil {
		return true
	}
	if err := c.store.Append(conversation.AssistantMessage(out.Value)); err != nil {
		c.logger.Error().Err(err).Msg("append assistant reply")
	}
	return true
}

// Discard drops any send still in flight. Used when the view is unmounted.
func (c *Chat) Discard() { c.send.Discard() }
