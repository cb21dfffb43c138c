package engine

import (
	"strings"

	"quizbot/internal/domain"
)

// Telegram poll limits: question 1..300, option 1..100, explanation 0..200.
const (
	maxQuestionLen    = 300
	maxRawOptionLen   = 97 // letter label "A) " brings the option to 100
	maxExplanationLen = 200

	minOpenPeriod = 5
	maxOpenPeriod = 600
)

var optionLabels = [4]string{"A) ", "B) ", "C) ", "D) "}

// Normalize converts a stored question into its poll-ready form. It is a
// pure function; OpenPeriod is left zero for the caller to fill in.
func Normalize(q domain.Question) domain.PollPrompt {
	text := truncate(q.Text, maxQuestionLen)
	if text == "" {
		text = "Question"
	}

	options := make([]string, len(optionLabels))
	for i := range optionLabels {
		raw := truncate(q.Options[i], maxRawOptionLen)
		if raw == "" {
			raw = "-"
		}
		options[i] = optionLabels[i] + raw
	}

	return domain.PollPrompt{
		Question:     text,
		Options:      options,
		CorrectIndex: correctIndex(q.Correct),
		Explanation:  truncate(q.Explanation, maxExplanationLen),
	}
}

// correctIndex maps the stored answer letter to a zero-based option index.
// Anything unrecognized falls back to the first option.
func correctIndex(letter string) int {
	switch strings.ToUpper(strings.TrimSpace(letter)) {
	case "B":
		return 1
	case "C":
		return 2
	case "D":
		return 3
	default:
		return 0
	}
}

// truncate trims whitespace and cuts the text to max runes, spending the
// last rune on an ellipsis when it had to cut.
func truncate(text string, max int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-1]) + "…"
}

// clampOpenPeriod forces the per-question answer window into the range the
// poll platform accepts. Out-of-range preferences are clamped, not rejected.
func clampOpenPeriod(seconds int) int {
	if seconds < minOpenPeriod {
		return minOpenPeriod
	}
	if seconds > maxOpenPeriod {
		return maxOpenPeriod
	}
	return seconds
}
