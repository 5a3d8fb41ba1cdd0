package storage

import (
	"context"
	"sync"
)

// Memory keeps everything in process memory.
type Memory struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	responses map[string][]Response
}

func NewMemory() *Memory {
	return &Memory{
		sessions:  make(map[string]*Session),
		responses: make(map[string][]Response),
	}
}

func (m *Memory) SaveSession(_ context.Context, s *Session) error {
	if err := validateSession(s); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = cloneSession(s)
	return nil
}

func (m *Memory) GetSession(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSession(s), nil
}

func (m *Memory) ListSessions(context.Context) ([]Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, *cloneSession(s))
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *Memory) AddResponse(_ context.Context, r *Response) error {
	if err := validateResponse(r); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[r.SessionID]; !ok {
		return ErrNotFound
	}
	m.responses[r.SessionID] = append(m.responses[r.SessionID], *r)
	return nil
}

func (m *Memory) ListResponses(_ context.Context, sessionID string) ([]Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return nil, ErrNotFound
	}
	return append([]Response{}, m.responses[sessionID]...), nil
}

func (m *Memory) Close() error { return nil }
