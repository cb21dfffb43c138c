package domain

import "time"

// QuizRef identifies a published quiz resolved by its public code.
type QuizRef struct {
	ID    int64
	Title string
}

// Question is one stored multiple-choice question. Options holds the raw
// A..D texts in order; Correct is the letter of the right option.
type Question struct {
	ID          int64
	Text        string
	Options     [4]string
	Correct     string
	Explanation string
}

// PollPrompt is the platform-ready form of a question: truncated texts,
// letter-labelled options and a zero-based correct index.
type PollPrompt struct {
	Question     string
	Options      []string
	CorrectIndex int
	Explanation  string // empty means no explanation
	OpenPeriod   int    // seconds the poll stays answerable
}

// LeaderboardEntry is one ranked participant of a finished session.
type LeaderboardEntry struct {
	UserID      int64         `json:"userId"`
	DisplayName string        `json:"displayName"`
	Score       int           `json:"score"`
	Latency     time.Duration `json:"latency"`
}
