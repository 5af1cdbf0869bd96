package services

import (
	"fmt"
	"sync"
)

// MockClassifier is a mock implementation of ClassifierInterface for testing
type MockClassifier struct {
	result *Classification
	fail   bool
	calls  int
	mu     sync.Mutex
}

// NewMockClassifier creates a new mock classifier
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{}
}

// SetAsMockForTesting sets this mock as the global classifier instance for testing
func (m *MockClassifier) SetAsMockForTesting() {
	SetClassifier(m)
}

// ReturnClassification makes the mock return a fixed classification
func (m *MockClassifier) ReturnClassification(c *Classification) {
	m.mu.Lock()
	m.result = c
	m.fail = false
	m.mu.Unlock()
}

// FailClassification makes the mock return an error, simulating an
// unreachable or misbehaving vision model
func (m *MockClassifier) FailClassification() {
	m.mu.Lock()
	m.fail = true
	m.mu.Unlock()
}

// Classify returns the configured classification or error
func (m *MockClassifier) Classify(imageURL, building, room, userNote string) (*Classification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.fail {
		return nil, fmt.Errorf("mock classifier failure")
	}
	if m.result != nil {
		return m.result, nil
	}
	return FallbackClassification(building, room, userNote), nil
}

// CallCount returns how many times Classify was invoked
func (m *MockClassifier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
