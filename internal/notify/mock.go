package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Mock echoes every notification as readable text instead of delivering it.
type Mock struct {
	mu  sync.Mutex
	out io.Writer
}

func NewMock(out io.Writer) *Mock {
	return &Mock{out: out}
}

func (m *Mock) SendMessage(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := fmt.Fprintf(m.out, "\n=== MOCK EMAIL ===\nTo: %s\nSubject: %s\n\n%s\n==================\n", to, subject, body)
	return err
}

func (m *Mock) SendBroadcast(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := fmt.Fprintf(m.out, "\n=== MOCK BROADCAST ===\n%s\n======================\n", text)
	return err
}
