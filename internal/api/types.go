package api

import "supportstudio/internal/conversation"

const (
	DefaultBaseURL = "http://127.0.0.1:8000"

	PathChatbotQuery         = "/chatbot/query"
	PathChatbotQueryBaseline = "/chatbot/query-baseline"
	PathSuggestReply         = "/copilot/suggest-reply"
	PathSummarizeCase        = "/copilot/summarize-case"
	PathHealth               = "/health"
)

type ChatRequest struct {
	Query   string                 `json:"query"`
	History []conversation.Message `json:"history"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

// SuggestReplyRequest asks the copilot for a draft. TopicHint encodes as null
// when no topic is selected.
type SuggestReplyRequest struct {
	CustomerMessage     string                 `json:"customer_message"`
	ConversationHistory []conversation.Message `json:"conversation_history"`
	TopicHint           *string                `json:"topic_hint"`
}

type SuggestReplyResponse struct {
	SuggestedReply string `json:"suggested_reply"`
}

type SummarizeCaseRequest struct {
	Conversation []conversation.Message `json:"conversation"`
}

type SummarizeCaseResponse struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
