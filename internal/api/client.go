package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"supportstudio/internal/textutil"
)

const errorBodyChars = 240

// Client talks to the support backend. It sets no timeout of its own: a call
// ends when the transport resolves or ctx is cancelled.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "api").Logger()
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) QueryChatbot(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	var out ChatResponse
	err := c.postJSON(ctx, PathChatbotQuery, req, &out)
	return out, err
}

// QueryChatbotBaseline hits the non-RAG variant of the chatbot. Only the
// evaluation runner uses it.
func (c *Client) QueryChatbotBaseline(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	var out ChatResponse
	err := c.postJSON(ctx, PathChatbotQueryBaseline, req, &out)
	return out, err
}

func (c *Client) SuggestReply(ctx context.Context, req SuggestReplyRequest) (SuggestReplyResponse, error) {
	var out SuggestReplyResponse
	err := c.postJSON(ctx, PathSuggestReply, req, &out)
	return out, err
}

func (c *Client) SummarizeCase(ctx context.Context, req SummarizeCaseRequest) (SummarizeCaseResponse, error) {
	var out SummarizeCaseResponse
	err := c.postJSON(ctx, PathSummarizeCase, req, &out)
	return out, err
}

func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	err := c.do(ctx, http.MethodGet, PathHealth, nil, &out)
	return out, err
}

func (c *Client) postJSON(ctx context.Context, path string, in any, out any) error {
	buf, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", path, err)
	}
	return c.do(ctx, http.MethodPost, path, buf, out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	endpoint := c.baseURL + path
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &TransportError{Endpoint: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := RequestIDFrom(ctx)
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("endpoint", path).Str("request_id", requestID).Msg("transport failure")
		return &TransportError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Endpoint: path, Err: err}
	}

	c.logger.Debug().
		Str("method", method).
		Str("endpoint", path).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("backend call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ServerError{
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			Body:       textutil.CompactSingleLine(string(payload), errorBodyChars),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &ServerError{Endpoint: path, StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}

type requestIDKey struct{}

// WithRequestID tags ctx so the outgoing call carries an X-Request-ID header.
func WithRequestID(ctx context.Context, id string) context.Context {
	if strings.TrimSpace(id) == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
