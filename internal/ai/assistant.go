package ai

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spigell/fit-signals/internal/contract"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Request is a single chat completion call.
type Request struct {
	Messages []Message
	// Temperature overrides the backend default when set.
	Temperature *float64
}

// Completer is the upstream model call. It returns the raw content in the
// shape the provider delivered it; interpreting it is left to the caller.
type Completer interface {
	Complete(ctx context.Context, req Request) (contract.RawModelText, error)
	Provider() string
	Model() string
}

// ErrEmptyRequest is returned when a request carries no message content.
var ErrEmptyRequest = errors.New("completion request has no messages")

// Temperature returns a pointer usable as Request.Temperature.
func Temperature(t float64) *float64 {
	return &t
}

// System collects the content of system messages, in order.
func (r Request) System() []string {
	var out []string
	for _, m := range r.Messages {
		if m.Role == RoleSystem && m.Content != "" {
			out = append(out, m.Content)
		}
	}
	return out
}

// Retryable reports whether an HTTP status code is worth another attempt.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// Backoff returns the delay before retry number attempt (starting at 1).
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<(attempt-1)) * time.Second
}
