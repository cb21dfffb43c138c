package memory

import (
	"context"
	"sync"
)

const (
	minTimeLimit = 5
	maxTimeLimit = 300
)

// PreferenceStore keeps per-user answer-window preferences in memory.
type PreferenceStore struct {
	mu       sync.RWMutex
	fallback int
	periods  map[int64]int
}

func NewPreferenceStore(fallback int) *PreferenceStore {
	return &PreferenceStore{
		fallback: fallback,
		periods:  make(map[int64]int),
	}
}

func (p *PreferenceStore) PreferredOpenPeriod(_ context.Context, userID int64) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if seconds, ok := p.periods[userID]; ok {
		return seconds, nil
	}
	return p.fallback, nil
}

func (p *PreferenceStore) SetPreferredOpenPeriod(_ context.Context, userID int64, seconds int) error {
	if seconds < minTimeLimit {
		seconds = minTimeLimit
	}
	if seconds > maxTimeLimit {
		seconds = maxTimeLimit
	}
	p.mu.Lock()
	p.periods[userID] = seconds
	p.mu.Unlock()
	return nil
}
