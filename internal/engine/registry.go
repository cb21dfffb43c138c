package engine

import "quizbot/internal/domain"

// registry maps a scope to at most one live session. It is not safe for
// concurrent use on its own; the engine's mutex guards it.
type registry struct {
	sessions map[SessionKey]*Session
}

func newRegistry() registry {
	return registry{sessions: make(map[SessionKey]*Session)}
}

// add registers a session, failing without side effects when the key is
// already occupied.
func (r *registry) add(s *Session) error {
	if _, ok := r.sessions[s.key]; ok {
		return domain.ErrSessionConflict
	}
	r.sessions[s.key] = s
	return nil
}

func (r *registry) get(key SessionKey) (*Session, bool) {
	s, ok := r.sessions[key]
	return s, ok
}

func (r *registry) remove(key SessionKey) (*Session, bool) {
	s, ok := r.sessions[key]
	if ok {
		delete(r.sessions, key)
	}
	return s, ok
}

// pollCorrelation maps an external poll id back to the session and step
// that produced it.
type pollCorrelation struct {
	key       SessionKey
	messageID int
	stepID    int
}

type pollIndex struct {
	polls map[string]pollCorrelation
}

func newPollIndex() pollIndex {
	return pollIndex{polls: make(map[string]pollCorrelation)}
}

func (p *pollIndex) put(pollID string, c pollCorrelation) {
	p.polls[pollID] = c
}

func (p *pollIndex) get(pollID string) (pollCorrelation, bool) {
	c, ok := p.polls[pollID]
	return c, ok
}

// purge drops every correlation belonging to a scope. Called at session
// teardown so the index stays bounded on a long-running process.
func (p *pollIndex) purge(key SessionKey) {
	for id, c := range p.polls {
		if c.key == key {
			delete(p.polls, id)
		}
	}
}
