package classify

import (
	"context"
	"sync"
	"time"
)

// Mock implements Classifier for testing.
type Mock struct {
	// ClassifyFunc is called when Classify is invoked.
	ClassifyFunc func(ctx context.Context, jpeg []byte) (*Classification, error)

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a Classify invocation.
type MockCall struct {
	Size int
	Time time.Time
}

// NewMock creates a mock that always answers with the given label.
func NewMock(plant string, confidence float64) *Mock {
	return &Mock{
		ClassifyFunc: func(ctx context.Context, jpeg []byte) (*Classification, error) {
			return &Classification{
				Plant:      plant,
				Confidence: confidence,
				Timestamp:  time.Now(),
			}, nil
		},
	}
}

// Classify calls ClassifyFunc and records the call.
func (m *Mock) Classify(ctx context.Context, jpeg []byte) (*Classification, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Size: len(jpeg), Time: time.Now()})
	fn := m.ClassifyFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, jpeg)
	}
	return nil, &Failure{Kind: KindNetwork, Message: "mock: no ClassifyFunc"}
}

// Calls returns a copy of recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times Classify was called.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Reset clears recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}
