// Package stubapi serves the support backend's HTTP contract with canned,
// deterministic answers for local development and tests.
package stubapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"supportstudio/internal/api"
)

type Options struct {
	AllowedOrigin string
	// Failures lists endpoint paths that answer 500 instead of a canned reply.
	Failures []string
	Logger   zerolog.Logger
}

type Server struct {
	router   *chi.Mux
	failures map[string]bool
	logger   zerolog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewServer(opts Options) *Server {
	origin := opts.AllowedOrigin
	if origin == "" {
		origin = "*"
	}
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{origin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	s := &Server{
		router:   r,
		failures: make(map[string]bool, len(opts.Failures)),
		logger:   opts.Logger.With().Str("component", "stubapi").Logger(),
	}
	for _, path := range opts.Failures {
		s.failures[strings.TrimSpace(path)] = true
	}
	r.Use(s.logRequests)
	r.Use(s.injectFailures)
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get(api.PathHealth, s.handleHealth)
	s.router.Post(api.PathChatbotQuery, s.handleChat(true))
	s.router.Post(api.PathChatbotQueryBaseline, s.handleChat(false))
	s.router.Post(api.PathSuggestReply, s.handleSuggestReply)
	s.router.Post(api.PathSummarizeCase, s.handleSummarizeCase)
}

func (s *Server) Router() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("stub backend listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", r.Header.Get("X-Request-ID")).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.failures[r.URL.Path] {
			s.writeError(w, http.StatusInternalServerError, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, api.HealthResponse{Status: "ok"})
}

func (s *Server) handleChat(grounded bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Query) == "" {
			s.writeError(w, http.StatusBadRequest, "query is required")
			return
		}
		s.writeJSON(w, api.ChatResponse{Reply: chatReply(req.Query, len(req.History), grounded)})
	}
}

func (s *Server) handleSuggestReply(w http.ResponseWriter, r *http.Request) {
	var req api.SuggestReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	topic := ""
	if req.TopicHint != nil {
		topic = *req.TopicHint
	}
	s.writeJSON(w, api.SuggestReplyResponse{SuggestedReply: suggestedReply(req.CustomerMessage, topic)})
}

func (s *Server) handleSummarizeCase(w http.ResponseWriter, r *http.Request) {
	var req api.SummarizeCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	summary, points := summarizeCase(req.Conversation)
	s.writeJSON(w, api.SummarizeCaseResponse{Summary: summary, KeyPoints: points})
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg})
}
