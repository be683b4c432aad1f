package testutil

import (
	"context"

	"github.com/samsaffron/notion-llm/internal/llm"
)

// MockProvider is a configurable LLM provider for testing.
type MockProvider struct {
	ProviderName string
	GenerateFn   func(ctx context.Context, req llm.Request) (string, error)
	Responses    []string // Consumed in order when GenerateFn is nil
	Requests     []llm.Request
}

// Name implements llm.Provider.
func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

// Generate implements llm.Provider. Every request is recorded in Requests.
func (m *MockProvider) Generate(ctx context.Context, req llm.Request) (string, error) {
	m.Requests = append(m.Requests, req)
	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, req)
	}
	if len(m.Responses) > 0 {
		resp := m.Responses[0]
		m.Responses = m.Responses[1:]
		return resp, nil
	}
	return "", nil
}

// LastRequest returns the most recent recorded request, or nil.
func (m *MockProvider) LastRequest() *llm.Request {
	if len(m.Requests) == 0 {
		return nil
	}
	return &m.Requests[len(m.Requests)-1]
}
