package llm

import (
	"context"
	"time"
)

// Defaults applied by providers when a request leaves them unset.
const (
	DefaultMaxTokens   = 4000
	DefaultTemperature = 0.3
)

// Request is a single text completion request.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int     // 0 means DefaultMaxTokens
	Temperature float32 // 0 means DefaultTemperature
}

func (r Request) maxTokens() int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return DefaultMaxTokens
}

func (r Request) temperature() float64 {
	if r.Temperature > 0 {
		return float64(r.Temperature)
	}
	return DefaultTemperature
}

// Provider is the interface for LLM providers.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// RateLimitError represents a rate limit error with retry information.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// IsLongWait returns true if the retry wait is too long for automatic retry.
func (e *RateLimitError) IsLongWait() bool {
	return e.RetryAfter > 2*time.Minute
}
