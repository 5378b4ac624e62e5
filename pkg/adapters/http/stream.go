package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/turing/pkg/domain"
)

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

type deletedEvent struct {
	SessionID string `json:"session_id"`
	Deleted   bool   `json:"deleted"`
}

// Publish broadcasts the diff between two versions of a session.
// Its signature matches session.ChangeFunc so it can be registered as a change listener.
func (sm *StreamManager) Publish(_ context.Context, old, new *domain.Session) {
	var (
		sessionID string
		event     any
	)
	switch {
	case new != nil:
		diff := domain.Diff(old, new)
		if diff == nil {
			return
		}
		sessionID, event = new.ID, diff
	case old != nil:
		sessionID, event = old.ID, deletedEvent{SessionID: old.ID, Deleted: true}
	default:
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		sm.logger.Error("SSE: event encode failed", "err", err, "session_id", sessionID)
		return
	}
	sm.Broadcast(sessionID, string(payload))
}
