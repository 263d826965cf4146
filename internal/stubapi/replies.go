package stubapi

import (
	"fmt"
	"strings"

	"supportstudio/internal/conversation"
	"supportstudio/internal/textutil"
)

type safetyFlag string

const (
	safetyNormal     safetyFlag = "normal"
	safetyUnsafe     safetyFlag = "unsafe"
	safetyOutOfScope safetyFlag = "out_of_scope"
)

var unsafeKeywords = []string{
	"suicide", "kill myself", "kill him", "kill her", "murder",
	"self harm", "self-harm", "bomb", "explosive", "terrorist",
}

var outOfScopeKeywords = []string{
	"diagnose", "medical advice", "medicine for", "prescription",
	"crypto trading", "stock tip", "investment advice", "tax advice", "legal advice",
}

func classifySafety(text string) safetyFlag {
	s := strings.ToLower(text)
	for _, kw := range unsafeKeywords {
		if strings.Contains(s, kw) {
			return safetyUnsafe
		}
	}
	for _, kw := range outOfScopeKeywords {
		if strings.Contains(s, kw) {
			return safetyOutOfScope
		}
	}
	return safetyNormal
}

// knowledge is a tiny keyword-indexed stand-in for the retrieval corpus.
var knowledge = []struct {
	keywords []string
	answer   string
}{
	{[]string{"refund"}, "Refunds are issued to the original payment method within 5 to 7 business days after we receive the item."},
	{[]string{"return"}, "You can return most items within 30 days of delivery. Start a return from the Orders page."},
	{[]string{"ship", "deliver", "track", "arrive"}, "Standard shipping takes 3 to 5 business days. Tracking updates can lag by up to 48 hours."},
	{[]string{"password", "account", "login", "sign in"}, "You can reset your password from the sign-in page using the Forgot password link."},
}

func lookupKnowledge(text string) (string, bool) {
	s := strings.ToLower(text)
	for _, entry := range knowledge {
		for _, kw := range entry.keywords {
			if strings.Contains(s, kw) {
				return entry.answer, true
			}
		}
	}
	return "", false
}

func chatReply(query string, turns int, grounded bool) string {
	switch classifySafety(query) {
	case safetyUnsafe:
		return "I'm really sorry you're going through this. I can't help with this here, but please reach out to local emergency services or a crisis line right away."
	case safetyOutOfScope:
		return "I can only help with orders, shipping, returns, refunds and accounts. For anything else, please contact a qualified professional."
	}
	if grounded {
		if answer, ok := lookupKnowledge(query); ok {
			return answer
		}
	}
	if turns == 0 {
		return fmt.Sprintf("Thanks for reaching out! You asked: %q. I'm not fully sure about that, so a human agent can follow up.", textutil.Truncate(strings.TrimSpace(query), 80))
	}
	return fmt.Sprintf("Thanks for the follow-up. Based on our last %d messages, a human agent can take a closer look.", turns)
}

func topicLead(topic string) string {
	switch topic {
	case "orders":
		return "I've checked your order details and"
	case "returns":
		return "I've looked at your return request and"
	case "account":
		return "I've reviewed your account and"
	default:
		return "Thanks for your patience;"
	}
}

func suggestedReply(customerMessage, topic string) string {
	if classifySafety(customerMessage) == safetyUnsafe {
		return "The customer's message appears to mention self-harm, violence, or another safety-critical issue. Follow your organization's crisis and escalation procedures immediately."
	}
	answer, ok := lookupKnowledge(customerMessage)
	if !ok {
		answer = "I'll escalate this to a specialist and get back to you within one business day."
	}
	return fmt.Sprintf("Hi there, %s %s", topicLead(topic), answer)
}

func summarizeCase(msgs []conversation.Message) (string, []string) {
	var customer, agent []string
	for _, msg := range msgs {
		if msg.Role == conversation.RoleUser {
			customer = append(customer, msg.Content)
		} else {
			agent = append(agent, msg.Content)
		}
	}
	if len(msgs) == 0 {
		return "No conversation to summarize.", []string{}
	}

	summary := fmt.Sprintf("The case has %d customer and %d agent messages.", len(customer), len(agent))
	if len(customer) > 0 {
		summary += " The customer opened with: " + textutil.CompactSingleLine(customer[0], 120)
	}

	points := make([]string, 0, 3)
	start := len(customer) - 3
	if start < 0 {
		start = 0
	}
	for _, text := range customer[start:] {
		points = append(points, "Customer: "+textutil.CompactSingleLine(text, 80))
	}
	return summary, points
}
