package store

import (
	"errors"
	"sync"
	"time"

	"meteogram-service/internal/widget"
)

var (
	// ErrNotFound is returned when no render is available for a source.
	ErrNotFound = errors.New("no rendered chart for source")
)

// renderHistory holds a time-ordered list of renders for one source.
type renderHistory struct {
	Renders []widget.Render
}

// MemoryStore is a concurrency-safe in-memory render store with bounded
// retention.
type MemoryStore struct {
	mu sync.RWMutex

	// key: source string, value: history
	data map[string]*renderHistory

	maxHistory int           // max renders kept per source
	maxAge     time.Duration // optional max age for renders
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*renderHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// SaveRender appends a new render for a source and enforces retention.
func (s *MemoryStore) SaveRender(source string, r widget.Render) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[source]
	if !ok {
		history = &renderHistory{}
		s.data[source] = history
	}

	history.Renders = append(history.Renders, r)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Renders) > s.maxHistory {
		over := len(history.Renders) - s.maxHistory
		history.Renders = history.Renders[over:]
	}

	// Enforce retention by age, but never drop the sole remaining render:
	// the latest one is what a failing cycle falls back to.
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Renders)-1; i++ {
			if !history.Renders[i].CreatedAt.Before(cutoff) {
				break
			}
		}
		if i > 0 {
			history.Renders = history.Renders[i:]
		}
	}
}

// GetLatest returns the most recent render for a source.
func (s *MemoryStore) GetLatest(source string) (widget.Render, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[source]
	if !ok || len(history.Renders) == 0 {
		return widget.Render{}, ErrNotFound
	}
	return history.Renders[len(history.Renders)-1], nil
}

// GetHistory returns all retained renders for a source, oldest first.
func (s *MemoryStore) GetHistory(source string) ([]widget.Render, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[source]
	if !ok || len(history.Renders) == 0 {
		return nil, ErrNotFound
	}
	out := make([]widget.Render, len(history.Renders))
	copy(out, history.Renders)
	return out, nil
}
