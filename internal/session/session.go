// Package session holds the view-independent state of the chatbot and copilot
// views: one conversation store per view and one request controller per action.
package session

import (
	"context"

	"supportstudio/internal/api"
)

// Backend is the part of api.Client the views depend on.
type Backend interface {
	QueryChatbot(ctx context.Context, req api.ChatRequest) (api.ChatResponse, error)
	SuggestReply(ctx context.Context, req api.SuggestReplyRequest) (api.SuggestReplyResponse, error)
	SummarizeCase(ctx context.Context, req api.SummarizeCaseRequest) (api.SummarizeCaseResponse, error)
}

const (
	ActionSend      = "chatbot.send"
	ActionSuggest   = "copilot.suggest_reply"
	ActionSummarize = "copilot.summarize"

	ChatFailureMessage      = "Something went wrong talking to the chatbot. Please try again."
	SuggestFailureMessage   = "Failed to generate a suggested reply. Please try again."
	SummarizeFailureMessage = "Failed to summarize the case. Please try again."
)

var _ Backend = (*api.Client)(nil)
