package llm

import (
	"context"
	"sync"
)

// MockClient permite tests sin llamar a un LLM real. Si Responses tiene
// elementos se consumen en orden; si se agotan se repite el ultimo. Es seguro
// para uso concurrente: el scorer lo invoca desde varias goroutines.
type MockClient struct {
	mu        sync.Mutex
	Response  string
	Responses []string
	Err       error
	Calls     int
}

func (m *MockClient) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) > 0 {
		idx := m.Calls - 1
		if idx >= len(m.Responses) {
			idx = len(m.Responses) - 1
		}
		return m.Responses[idx], nil
	}
	return m.Response, nil
}

// MockEmbedder devuelve siempre el mismo vector.
type MockEmbedder struct {
	Vector []float32
	Err    error
	Calls  int
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Vector, nil
}
