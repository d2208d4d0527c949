package gemini

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/fit-signals/internal/ai"
	"github.com/spigell/fit-signals/internal/contract"
	"github.com/spigell/fit-signals/internal/utils"
)

const (
	Provider = "gemini"

	defaultModel    = "gemini-2.5-flash"
	defaultMaxDelay = 30 * time.Second
)

var sleep = utils.WaitFor

var retryAfterPattern = regexp.MustCompile(`(?i)retry (?:after|in) ([0-9]+(?:\.[0-9]+)?)\s*s`)

type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config holds the Gemini backend settings.
type Config struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxRetries  int
}

// Generator wraps the Google GenAI client as an ai.Completer.
type Generator struct {
	models      contentModels
	model       string
	temperature float64
	maxRetries  int
	maxDelay    time.Duration
	logger      *zap.Logger
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, cfg Config, logger *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		models:      client.Models,
		model:       model,
		temperature: cfg.Temperature,
		maxRetries:  max(cfg.MaxRetries, 0),
		maxDelay:    defaultMaxDelay,
		logger:      logger,
	}, nil
}

// Complete sends system messages as the system instruction and the remaining
// messages as conversation contents. Candidate parts keep their order; parts
// without text are passed on as opaque parts.
func (g *Generator) Complete(ctx context.Context, req ai.Request) (contract.RawModelText, error) {
	if g == nil || g.models == nil {
		return contract.RawModelText{}, errors.New("gemini generator is not initialized")
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == ai.RoleSystem || strings.TrimSpace(m.Content) == "" {
			continue
		}
		role := string(genai.RoleUser)
		if m.Role == ai.RoleAssistant {
			role = string(genai.RoleModel)
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	if len(contents) == 0 {
		return contract.RawModelText{}, ai.ErrEmptyRequest
	}

	temperature := g.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	config := &genai.GenerateContentConfig{
		Temperature: ptrFloat32(float32(temperature)),
	}
	if system := req.System(); len(system) > 0 {
		parts := make([]*genai.Part, 0, len(system))
		for _, s := range system {
			parts = append(parts, &genai.Part{Text: s})
		}
		config.SystemInstruction = &genai.Content{Parts: parts}
	}

	for attempt := 0; ; attempt++ {
		g.logger.Debug("gemini generate content request", zap.Int("attempt", attempt+1), zap.Int("messages", len(contents)))

		resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
		if err == nil {
			return toRawModelText(resp)
		}

		delay, retry := g.retryDelay(err, attempt)
		if !retry {
			return contract.RawModelText{}, fmt.Errorf("generate content: %w", err)
		}

		g.logger.Warn("gemini request failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := sleep(ctx, delay); err != nil {
			return contract.RawModelText{}, fmt.Errorf("generate content: %w", err)
		}
	}
}

func (g *Generator) retryDelay(err error, attempt int) (time.Duration, bool) {
	if attempt >= g.maxRetries {
		return 0, false
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) || !ai.Retryable(apiErr.Code) {
		return 0, false
	}

	delay := ai.Backoff(attempt + 1)
	if hinted, ok := hintedDelay(apiErr); ok && hinted > delay {
		delay = hinted
	}
	if delay > g.maxDelay {
		return 0, false
	}
	return delay, true
}

// hintedDelay reads the server's retry hint from RetryInfo details or the message.
func hintedDelay(apiErr genai.APIError) (time.Duration, bool) {
	for _, detail := range apiErr.Details {
		if raw, ok := detail["retryDelay"].(string); ok {
			if d, err := time.ParseDuration(raw); err == nil {
				return d, true
			}
		}
	}

	match := retryAfterPattern.FindStringSubmatch(apiErr.Message)
	if len(match) != 2 {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

func toRawModelText(resp *genai.GenerateContentResponse) (contract.RawModelText, error) {
	if resp == nil {
		return contract.RawModelText{}, errors.New("gemini api returned empty response")
	}

	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}

		parts := make([]contract.Part, 0, len(candidate.Content.Parts))
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			if part.Thought || part.Text == "" {
				parts = append(parts, contract.OpaquePart())
				continue
			}
			parts = append(parts, contract.TextPart(part.Text))
		}
		return contract.FromParts(parts...), nil
	}

	return contract.RawModelText{}, errors.New("gemini api returned no candidates")
}

func ptrFloat32(v float32) *float32 {
	return &v
}

func (g *Generator) Provider() string {
	return Provider
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
