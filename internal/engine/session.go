package engine

import (
	"time"

	"quizbot/internal/domain"
)

// Session is one live run of a published quiz within a single scope. All of
// its state is owned by the engine and guarded by the engine's mutex.
type Session struct {
	key        SessionKey
	quizID     int64
	title      string
	questions  []domain.Question
	openPeriod int // seconds, already clamped

	// questionIndex is the current position in questions; it only grows.
	questionIndex int

	// stepID increments once per dispatched question and once on stop. A
	// correlation or timer carrying an older value is stale and must no-op.
	stepID int

	correctByStep map[int]int
	answersByStep map[int]map[int64]int

	// firstSeen/lastSeen span the whole session, not a single question.
	firstSeen   map[int64]time.Time
	lastSeen    map[int64]time.Time
	displayName map[int64]string

	// timer is the pending auto-advance for the current step, kept so stop
	// can cancel it proactively; the stepID guard is the correctness check.
	timer *time.Timer
}

func newSession(key SessionKey, quiz domain.QuizRef, questions []domain.Question, openPeriod int) *Session {
	return &Session{
		key:           key,
		quizID:        quiz.ID,
		title:         quiz.Title,
		questions:     questions,
		openPeriod:    clampOpenPeriod(openPeriod),
		correctByStep: make(map[int]int),
		answersByStep: make(map[int]map[int64]int),
		firstSeen:     make(map[int64]time.Time),
		lastSeen:      make(map[int64]time.Time),
		displayName:   make(map[int64]string),
	}
}

// recordAnswer stores a participant's choice for the current step. The last
// submission before the window closes wins.
func (s *Session) recordAnswer(userID int64, name string, choice int, at time.Time) {
	step := s.stepID
	if s.answersByStep[step] == nil {
		s.answersByStep[step] = make(map[int64]int)
	}
	s.answersByStep[step][userID] = choice

	s.displayName[userID] = name
	if _, ok := s.firstSeen[userID]; !ok {
		s.firstSeen[userID] = at
	}
	s.lastSeen[userID] = at
}
