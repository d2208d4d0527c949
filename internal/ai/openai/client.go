package openai

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/fit-signals/internal/ai"
	"github.com/spigell/fit-signals/internal/contract"
	"github.com/spigell/fit-signals/internal/utils"
)

const (
	Provider = "openai"

	DefaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	userAgent      = "spigell/fit-signals"

	contentType     = "application/json"
	contentEncoding = "gzip"
	maxErrorBody    = 512
	maxRetryDelay   = 30 * time.Second
)

var sleep = utils.WaitFor

// Config holds the OpenAI-compatible backend settings.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxRetries  int
	Timeout     time.Duration
}

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string

	baseURL     string
	token       string
	model       string
	temperature float64
	maxRetries  int
	logger      *zap.Logger
}

func New(cfg Config, logger *zap.Logger) (*Client, error) {
	token := strings.TrimSpace(cfg.APIKey)
	if token == "" {
		return nil, errors.New("openai api key is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		HTTPClient:  &http.Client{Timeout: timeout},
		UserAgent:   userAgent,
		baseURL:     baseURL,
		token:       token,
		model:       model,
		temperature: cfg.Temperature,
		maxRetries:  max(cfg.MaxRetries, 0),
		logger:      logger,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// StatusError is a non-200 answer from the completions endpoint.
type StatusError struct {
	Code       int
	Status     string
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("bad status: %s", e.Status)
	}
	return fmt.Sprintf("bad status: %s: %s", e.Status, e.Body)
}

// Complete posts the messages to {base}/chat/completions and returns
// choices[0].message.content in whatever shape the server used.
func (c *Client) Complete(ctx context.Context, req ai.Request) (contract.RawModelText, error) {
	payload := chatRequest{Model: c.model, Temperature: c.temperature}
	if req.Temperature != nil {
		payload.Temperature = *req.Temperature
	}
	for _, m := range req.Messages {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		payload.Messages = append(payload.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	if len(payload.Messages) == 0 {
		return contract.RawModelText{}, ai.ErrEmptyRequest
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return contract.RawModelText{}, fmt.Errorf("marshal chat request: %w", err)
	}

	for attempt := 0; ; attempt++ {
		content, err := c.post(ctx, body)
		if err == nil {
			return contract.DecodeContent(content), nil
		}

		delay, retry := c.retryDelay(err, attempt)
		if !retry {
			return contract.RawModelText{}, fmt.Errorf("chat completion: %w", err)
		}

		c.logger.Warn("chat completion failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := sleep(ctx, delay); err != nil {
			return contract.RawModelText{}, fmt.Errorf("chat completion: %w", err)
		}
	}
}

func (c *Client) post(ctx context.Context, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.request(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{
			Code:       resp.StatusCode,
			Status:     resp.Status,
			Body:       utils.TruncateForLog(string(data), maxErrorBody),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var decoded chatResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("chat response error: %s", decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 {
		return nil, errors.New("chat response has no choices")
	}

	return decoded.Choices[0].Message.Content, nil
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()), zap.String("model", c.model))
	return c.HTTPClient.Do(req)
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

func (c *Client) retryDelay(err error, attempt int) (time.Duration, bool) {
	if attempt >= c.maxRetries {
		return 0, false
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || !ai.Retryable(statusErr.Code) {
		return 0, false
	}

	delay := ai.Backoff(attempt + 1)
	if statusErr.RetryAfter > delay {
		delay = statusErr.RetryAfter
	}
	if delay > maxRetryDelay {
		return 0, false
	}
	return delay, true
}

func parseRetryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func (c *Client) Provider() string {
	return Provider
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}
