// Package evaluate compares the baseline and retrieval-augmented chatbot
// endpoints over a fixed set of queries.
package evaluate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"supportstudio/internal/api"
	"supportstudio/internal/conversation"
)

// Querier is the part of api.Client the runner needs.
type Querier interface {
	QueryChatbot(ctx context.Context, req api.ChatRequest) (api.ChatResponse, error)
	QueryChatbotBaseline(ctx context.Context, req api.ChatRequest) (api.ChatResponse, error)
}

var _ Querier = (*api.Client)(nil)

type Case struct {
	ID    string `json:"id"`
	Query string `json:"query"`
}

// Variant is one endpoint's answer. Exactly one of Reply and Error is set.
type Variant struct {
	Reply      *string `json:"reply"`
	Error      *string `json:"error"`
	LatencySec float64 `json:"latency_sec"`
}

type Result struct {
	ID       string  `json:"id"`
	Query    string  `json:"query"`
	Baseline Variant `json:"baseline"`
	RAG      Variant `json:"rag"`
}

// LoadTestSet reads a JSON array of cases. Cases without a query are rejected.
func LoadTestSet(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read test set: %w", err)
	}
	var cases []Case
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("parse test set %s: %w", path, err)
	}
	for i, c := range cases {
		if strings.TrimSpace(c.Query) == "" {
			return nil, fmt.Errorf("test set %s: case %d (%q) has no query", path, i, c.ID)
		}
	}
	return cases, nil
}

type Runner struct {
	client Querier
	// Timeout bounds each call; zero means no bound.
	Timeout  time.Duration
	Progress io.Writer
	logger   zerolog.Logger
}

func NewRunner(client Querier, logger zerolog.Logger) *Runner {
	return &Runner{
		client:   client,
		Progress: io.Discard,
		logger:   logger.With().Str("component", "evaluate").Logger(),
	}
}

// Run sends every case to both endpoints with an empty history. A failed call
// is recorded on its variant and the run carries on.
func (r *Runner) Run(ctx context.Context, cases []Case) ([]Result, error) {
	results := make([]Result, 0, len(cases))
	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		req := api.ChatRequest{Query: c.Query, History: []conversation.Message{}}

		fmt.Fprintf(r.Progress, "\n=== %s ===\nQ: %s\n", c.ID, c.Query)
		baseline := r.call(ctx, r.client.QueryChatbotBaseline, req)
		r.report("BASELINE", baseline)
		rag := r.call(ctx, r.client.QueryChatbot, req)
		r.report("RAG", rag)

		results = append(results, Result{ID: c.ID, Query: c.Query, Baseline: baseline, RAG: rag})
	}
	return results, nil
}

func (r *Runner) call(ctx context.Context, fn func(context.Context, api.ChatRequest) (api.ChatResponse, error), req api.ChatRequest) Variant {
	callCtx := api.WithRequestID(ctx, uuid.NewString())
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, r.Timeout)
		defer cancel()
	}

	started := time.Now()
	resp, err := fn(callCtx, req)
	latency := time.Since(started).Seconds()
	if err != nil {
		msg := failureText(err)
		r.logger.Warn().Err(err).Str("request_id", api.RequestIDFrom(callCtx)).Msg("evaluation call failed")
		return Variant{Error: &msg, LatencySec: latency}
	}
	reply := resp.Reply
	return Variant{Reply: &reply, LatencySec: latency}
}

func failureText(err error) string {
	var serverErr *api.ServerError
	if errors.As(err, &serverErr) && serverErr.Err == nil {
		return fmt.Sprintf("status %d", serverErr.StatusCode)
	}
	return err.Error()
}

func (r *Runner) report(label string, v Variant) {
	reply := "<none>"
	if v.Reply != nil {
		reply = *v.Reply
	}
	errText := "none"
	if v.Error != nil {
		errText = *v.Error
	}
	fmt.Fprintf(r.Progress, "\n[%s]\nReply: %s\nLatency: %.2fs (error: %s)\n", label, reply, v.LatencySec, errText)
}

// WriteResults saves results as indented JSON.
func WriteResults(path string, results []Result) error {
	if results == nil {
		results = []Result{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}
