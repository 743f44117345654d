package mocks

import (
	"context"
	"sync"
)

// PublishCall records the parameters of one Publish invocation.
type PublishCall struct {
	Topic string
	Key   string
	Value []byte
}

// MockBus is an injectable message-bus double exposing a synchronous publish
// count, so tests can assert "exactly N messages published" without a
// transport.
type MockBus struct {
	mu       sync.Mutex
	calls    []PublishCall
	failures map[string]error
}

func NewMockBus() *MockBus {
	return &MockBus{failures: make(map[string]error)}
}

func (b *MockBus) Publish(_ context.Context, topic, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, PublishCall{Topic: topic, Key: key, Value: value})
	if err, ok := b.failures[topic]; ok {
		return err
	}
	return nil
}

// FailTopic makes every publish to topic return err until cleared with a
// nil err.
func (b *MockBus) FailTopic(topic string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		delete(b.failures, topic)
		return
	}
	b.failures[topic] = err
}

// Calls returns a copy of all recorded publish calls.
func (b *MockBus) Calls() []PublishCall {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]PublishCall, len(b.calls))
	copy(out, b.calls)
	return out
}

// PublishCount returns how many publishes went to topic; with an empty topic
// it counts all of them.
func (b *MockBus) PublishCount(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if topic == "" {
		return len(b.calls)
	}
	n := 0
	for _, c := range b.calls {
		if c.Topic == topic {
			n++
		}
	}
	return n
}
