package email

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MockProvider logs emails instead of sending them. Sent messages are kept
// so tests can inspect them.
type MockProvider struct {
	logger *zap.Logger

	mu   sync.Mutex
	sent []*Message
	fail func(to string) error
}

// NewMockProvider creates a new mock provider
func NewMockProvider(logger *zap.Logger) *MockProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MockProvider{logger: logger.Named("mock-email")}
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Send(_ context.Context, msg *Message) (string, error) {
	m.mu.Lock()
	fail := m.fail
	m.mu.Unlock()
	if fail != nil {
		if err := fail(msg.To); err != nil {
			return "", err
		}
	}

	id := fmt.Sprintf("mock-%s", uuid.NewString())
	m.logger.Info("email sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Attachments)),
		zap.String("message_id", id),
	)

	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return id, nil
}

// Sent returns a copy of every delivered message
func (m *MockProvider) Sent() []*Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Message, len(m.sent))
	copy(out, m.sent)
	return out
}

// SetFail makes Send return fn(to) whenever it is non-nil
func (m *MockProvider) SetFail(fn func(to string) error) {
	m.mu.Lock()
	m.fail = fn
	m.mu.Unlock()
}
