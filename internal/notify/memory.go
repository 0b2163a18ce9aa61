package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// SentMessage is one delivered message, recorded by the in-memory emitter.
type SentMessage struct {
	UserID  string
	Message string
}

// MemoryEmitter records sends in memory. Used by tests; FailNext injects
// transient transport failures.
type MemoryEmitter struct {
	mu       sync.Mutex
	sent     []SentMessage
	failures int
}

func NewMemoryEmitter() *MemoryEmitter {
	return &MemoryEmitter{}
}

// FailNext makes the next n Send calls fail.
func (m *MemoryEmitter) FailNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = n
}

func (m *MemoryEmitter) Send(_ context.Context, userID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return fmt.Errorf("injected transport failure")
	}
	m.sent = append(m.sent, SentMessage{UserID: userID, Message: message})
	return nil
}

// Sent returns a snapshot of delivered messages.
func (m *MemoryEmitter) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// LogEmitter writes notifications to the process log. Used when no broker is
// configured.
type LogEmitter struct{}

func (LogEmitter) Send(_ context.Context, userID, message string) error {
	log.Printf("notify: [user %s] %s", userID, message)
	return nil
}
