package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"quizbot/internal/domain"
)

const defaultOpenPeriod = 30

// QuizRepository resolves quiz content (from cache/backing store).
type QuizRepository interface {
	ResolvePublished(ctx context.Context, code string) (domain.QuizRef, error)
	QuestionsFor(ctx context.Context, quizID int64) ([]domain.Question, error)
}

// PreferenceStore supplies per-user answer-window preferences. The engine
// clamps whatever it returns, so implementations may be lenient.
type PreferenceStore interface {
	PreferredOpenPeriod(ctx context.Context, userID int64) (int, error)
}

// PollTransport abstracts the chat platform the engine speaks through.
type PollTransport interface {
	SendTimedPoll(ctx context.Context, chatID int64, prompt domain.PollPrompt) (pollID string, messageID int, err error)
	SendText(ctx context.Context, chatID int64, text string) error
}

// PollAnswer is one inbound participant vote on a dispatched poll.
type PollAnswer struct {
	PollID      string
	UserID      int64
	DisplayName string
	OptionIndex int
	At          time.Time
}

// Engine runs timed quiz sessions across independent chat scopes. One
// mutex serializes every operation, which makes dispatch, advance, answer
// recording and stop atomic with respect to each other: an answer can
// never observe a poll whose correlation is not registered yet.
type Engine struct {
	mu          sync.Mutex
	sessions    registry
	polls       pollIndex
	subscribers map[chan Event]struct{}

	quizzes   QuizRepository
	prefs     PreferenceStore
	transport PollTransport

	now   func() time.Time
	after func(d time.Duration, f func()) *time.Timer
}

func New(quizzes QuizRepository, prefs PreferenceStore, transport PollTransport) *Engine {
	return &Engine{
		sessions:    newRegistry(),
		polls:       newPollIndex(),
		subscribers: make(map[chan Event]struct{}),
		quizzes:     quizzes,
		prefs:       prefs,
		transport:   transport,
		now:         time.Now,
		after:       time.AfterFunc,
	}
}

// StartSession resolves a published quiz by code and begins a timed run in
// the given scope. The requester's preferred open period is applied,
// clamped to what the poll platform accepts.
func (e *Engine) StartSession(ctx context.Context, key SessionKey, requesterID int64, code string) error {
	quiz, err := e.quizzes.ResolvePublished(ctx, code)
	if err != nil {
		return err
	}
	questions, err := e.quizzes.QuestionsFor(ctx, quiz.ID)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return domain.ErrEmptyQuiz
	}

	openPeriod, err := e.prefs.PreferredOpenPeriod(ctx, requesterID)
	if err != nil {
		log.Printf("preferences for user %d: %v", requesterID, err)
		openPeriod = defaultOpenPeriod
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s := newSession(key, quiz, questions, openPeriod)
	if err := e.sessions.add(s); err != nil {
		return err
	}

	if err := e.transport.SendText(ctx, key.ChatID(),
		fmt.Sprintf("▶ Starting: %s\n⏳ Each question: %d sec", s.title, s.openPeriod)); err != nil {
		log.Printf("announce %s: %v", key, err)
	}
	e.publishLocked(Event{Kind: EventSessionStarted, Scope: key.String(), QuizTitle: s.title})

	if err := e.dispatchLocked(ctx, s); err != nil {
		e.sessions.remove(key)
		return err
	}
	return nil
}

// StopSession tears a session down mid-run. Bumping the step counter makes
// any armed timer and any in-flight answer for the last step stale; the
// timer handle is also stopped so it does not fire at all.
func (e *Engine) StopSession(ctx context.Context, key SessionKey) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions.remove(key)
	if !ok {
		return domain.ErrSessionNotFound
	}

	s.stepID++
	if s.timer != nil {
		s.timer.Stop()
	}
	e.polls.purge(key)
	e.publishLocked(Event{Kind: EventSessionStopped, Scope: key.String(), QuizTitle: s.title, Step: s.stepID})
	return nil
}

// HandleAnswer records a participant's vote. Votes for unknown polls, dead
// sessions or superseded steps are dropped silently: the step comparison is
// what keeps a late answer from corrupting the next question's tally.
func (e *Engine) HandleAnswer(_ context.Context, ans PollAnswer) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.polls.get(ans.PollID)
	if !ok {
		return
	}
	s, ok := e.sessions.get(c.key)
	if !ok {
		return
	}
	if s.stepID != c.stepID {
		return
	}

	at := ans.At
	if at.IsZero() {
		at = e.now()
	}
	s.recordAnswer(ans.UserID, ans.DisplayName, ans.OptionIndex, at)
}

// dispatchLocked emits the current question as a timed poll and arms the
// auto-advance for it. Caller holds e.mu.
func (e *Engine) dispatchLocked(ctx context.Context, s *Session) error {
	prompt := Normalize(s.questions[s.questionIndex])
	prompt.Question = truncate(fmt.Sprintf("%d. %s", s.questionIndex+1, prompt.Question), maxQuestionLen)
	prompt.OpenPeriod = s.openPeriod

	pollID, messageID, err := e.transport.SendTimedPoll(ctx, s.key.ChatID(), prompt)
	if err != nil {
		return fmt.Errorf("send poll: %w", err)
	}

	s.stepID++
	step := s.stepID
	s.correctByStep[step] = prompt.CorrectIndex
	e.polls.put(pollID, pollCorrelation{key: s.key, messageID: messageID, stepID: step})

	key := s.key
	s.timer = e.after(time.Duration(s.openPeriod)*time.Second, func() {
		e.onOpenPeriodElapsed(key, step)
	})

	e.publishLocked(Event{
		Kind:      EventQuestionDispatched,
		Scope:     key.String(),
		QuizTitle: s.title,
		Step:      step,
		Question:  s.questionIndex + 1,
	})
	return nil
}

// onOpenPeriodElapsed is the deferred advance armed at dispatch. It
// captures the step that was active then; if the session is gone or has
// moved past that step the firing is stale and does nothing.
func (e *Engine) onOpenPeriodElapsed(key SessionKey, step int) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("advance %s: recovered: %v", key, r)
		}
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions.get(key)
	if !ok || s.stepID != step {
		return
	}
	e.advanceLocked(context.Background(), s)
}

func (e *Engine) advanceLocked(ctx context.Context, s *Session) {
	s.questionIndex++
	if s.questionIndex >= len(s.questions) {
		e.finishLocked(ctx, s)
		return
	}
	if err := e.dispatchLocked(ctx, s); err != nil {
		// The session stalls on this step; stop still tears it down.
		log.Printf("dispatch %s: %v", s.key, err)
	}
}

func (e *Engine) finishLocked(ctx context.Context, s *Session) {
	entries := buildLeaderboard(s)
	if err := e.transport.SendText(ctx, s.key.ChatID(), leaderboardText(s.title, len(s.questions), entries)); err != nil {
		log.Printf("send leaderboard %s: %v", s.key, err)
	}

	e.sessions.remove(s.key)
	e.polls.purge(s.key)
	e.publishLocked(Event{
		Kind:        EventSessionFinished,
		Scope:       s.key.String(),
		QuizTitle:   s.title,
		Leaderboard: entries,
	})
}
