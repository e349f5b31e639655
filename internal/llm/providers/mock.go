package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/CodeNeuron58/RxGuard/internal/llm"
	"github.com/CodeNeuron58/RxGuard/internal/types"
)

// MockCall represents a recorded call to the mock provider
type MockCall struct {
	Request llm.CompletionRequest
}

// MockProvider implements llm.Provider for testing.
// It serves configured responses in order, cycling when exhausted, and
// records every request for verification.
type MockProvider struct {
	mu            sync.RWMutex
	responses     []string
	responseIndex int
	calls         []MockCall
	completeErrs  []error
	completeErr   error
}

// NewMockProvider creates a new mock provider
func NewMockProvider(responses []string) *MockProvider {
	return &MockProvider{
		responses:     responses,
		responseIndex: 0,
		calls:         make([]MockCall, 0),
	}
}

// Name returns the provider name
func (p *MockProvider) Name() string {
	return "mock"
}

// Models returns mock model information
func (p *MockProvider) Models(ctx context.Context) ([]llm.ModelInfo, error) {
	return []llm.ModelInfo{
		{
			Name:          "mock-model",
			ContextWindow: 4096,
			MaxOutput:     2048,
			Features:      []string{"chat", "json_mode"},
		},
	}, nil
}

// Complete generates a completion. Queued errors (SetErrorQueue) are served
// before the blanket error (SetCompleteError), which in turn preempts any
// configured responses.
func (p *MockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.calls = append(p.calls, MockCall{Request: req})

	if len(p.completeErrs) > 0 {
		err := p.completeErrs[0]
		p.completeErrs = p.completeErrs[1:]
		p.mu.Unlock()
		return nil, err
	}

	if p.completeErr != nil {
		err := p.completeErr
		p.mu.Unlock()
		return nil, err
	}

	if len(p.responses) == 0 {
		p.mu.Unlock()
		return nil, llm.NewProviderUnavailableError("mock", fmt.Errorf("no responses configured"))
	}

	response := p.responses[p.responseIndex%len(p.responses)]
	p.responseIndex++
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, llm.NewCanceledError(err)
	}

	return &llm.CompletionResponse{
		ID:    uuid.New().String(),
		Model: req.Model,
		Message: llm.Message{
			Role:    llm.RoleAssistant,
			Content: response,
		},
		FinishReason: llm.FinishReasonStop,
		Usage: llm.TokenUsage{
			PromptTokens:     10,
			CompletionTokens: len(response) / 4,
			TotalTokens:      10 + len(response)/4,
		},
	}, nil
}

// Health checks the provider health
func (p *MockProvider) Health(ctx context.Context) types.HealthStatus {
	return types.Healthy("mock provider")
}

// GetCalls returns all recorded calls (thread-safe)
func (p *MockProvider) GetCalls() []MockCall {
	p.mu.RLock()
	defer p.mu.RUnlock()

	calls := make([]MockCall, len(p.calls))
	copy(calls, p.calls)
	return calls
}

// CallCount returns the number of Complete calls received.
func (p *MockProvider) CallCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.calls)
}

// Reset resets the mock provider state
func (p *MockProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = make([]MockCall, 0)
	p.responseIndex = 0
	p.completeErrs = nil
	p.completeErr = nil
}

// SetResponses replaces all responses
func (p *MockProvider) SetResponses(responses []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.responses = responses
	p.responseIndex = 0
}

// SetCompleteError configures every Complete call to return the given error.
func (p *MockProvider) SetCompleteError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completeErr = err
}

// SetErrorQueue configures errors to be returned one per call before any
// responses are served. Useful for exercising retry paths.
func (p *MockProvider) SetErrorQueue(errs ...error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completeErrs = errs
}
