package engine

import (
	"time"

	"quizbot/internal/domain"
)

// EventKind classifies session lifecycle events.
type EventKind string

const (
	EventSessionStarted     EventKind = "sessionStarted"
	EventQuestionDispatched EventKind = "questionDispatched"
	EventSessionFinished    EventKind = "sessionFinished"
	EventSessionStopped     EventKind = "sessionStopped"
)

// Event is a read-only snapshot of a session transition, published to
// monitor subscribers.
type Event struct {
	Kind        EventKind                 `json:"kind"`
	Scope       string                    `json:"scope"`
	QuizTitle   string                    `json:"quizTitle,omitempty"`
	Step        int                       `json:"step,omitempty"`
	Question    int                       `json:"question,omitempty"` // 1-based
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard,omitempty"`
	At          time.Time                 `json:"at"`
}

// Subscribe returns a channel receiving session events. The caller must
// invoke the returned cancel function to avoid leaks.
func (e *Engine) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	e.mu.Lock()
	e.subscribers[ch] = struct{}{}
	e.mu.Unlock()

	cancel := func() {
		e.mu.Lock()
		if _, ok := e.subscribers[ch]; ok {
			delete(e.subscribers, ch)
			close(ch)
		}
		e.mu.Unlock()
	}
	return ch, cancel
}

// publishLocked fans an event out without blocking: when a subscriber's
// buffer is full its oldest event is dropped to make room.
func (e *Engine) publishLocked(ev Event) {
	ev.At = e.now()
	for ch := range e.subscribers {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
