package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Limiter. State is lost on restart and not shared between instances.
type Memory struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewMemory constructs a Memory limiter allowing limit requests per window.
func NewMemory(limit int, window time.Duration, now func() time.Time) *Memory {
	if window <= 0 {
		window = DefaultWindow
	}
	if now == nil {
		now = time.Now
	}
	return &Memory{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
		now:    now,
	}
}

// Check records the request when it fits inside the window.
func (m *Memory) Check(ctx context.Context, clientID string) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	recent := m.prune(clientID, now)
	if len(recent) >= m.limit {
		return Decision{
			Allowed:      false,
			Limit:        m.limit,
			Remaining:    0,
			ResetSeconds: resetSeconds(recent[0].Add(m.window).Sub(now)),
		}, nil
	}

	recent = append(recent, now)
	m.hits[clientID] = recent
	return Decision{
		Allowed:      true,
		Limit:        m.limit,
		Remaining:    m.limit - len(recent),
		ResetSeconds: resetSeconds(recent[0].Add(m.window).Sub(now)),
	}, nil
}

// Tracked prunes every client and counts the ones still inside the window.
func (m *Memory) Tracked(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.hits {
		m.prune(id, now)
	}
	return len(m.hits), nil
}

// prune drops timestamps at or before now-window. Callers hold mu.
func (m *Memory) prune(clientID string, now time.Time) []time.Time {
	cutoff := now.Add(-m.window)
	hits := m.hits[clientID]
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	recent := hits[i:]
	if len(recent) == 0 {
		delete(m.hits, clientID)
		return nil
	}
	m.hits[clientID] = recent
	return recent
}

var _ Limiter = (*Memory)(nil)
