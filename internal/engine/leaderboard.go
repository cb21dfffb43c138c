package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"quizbot/internal/domain"
)

const leaderboardLimit = 15

// unknownLatency sorts participants without timestamps last among ties.
const unknownLatency = time.Duration(1) << 62

var medals = [3]string{"🥇", "🥈", "🥉"}

// buildLeaderboard computes the final ranking for a session. Participants
// who never submitted an answer are excluded entirely.
func buildLeaderboard(s *Session) []domain.LeaderboardEntry {
	scores := make(map[int64]int)
	for step, byUser := range s.answersByStep {
		correct, ok := s.correctByStep[step]
		if !ok {
			continue
		}
		for userID, chosen := range byUser {
			if _, seen := scores[userID]; !seen {
				scores[userID] = 0
			}
			if chosen == correct {
				scores[userID]++
			}
		}
	}

	entries := make([]domain.LeaderboardEntry, 0, len(scores))
	for userID, score := range scores {
		name := s.displayName[userID]
		if name == "" {
			name = fmt.Sprintf("%d", userID)
		}
		entries = append(entries, domain.LeaderboardEntry{
			UserID:      userID,
			DisplayName: name,
			Score:       score,
			Latency:     latencyOf(s, userID),
		})
	}

	// More correct answers always outranks faster answers; latency only
	// breaks ties among equal scores.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Latency < entries[j].Latency
	})
	return entries
}

func latencyOf(s *Session, userID int64) time.Duration {
	first, okFirst := s.firstSeen[userID]
	last, okLast := s.lastSeen[userID]
	if !okFirst || !okLast {
		return unknownLatency
	}
	return last.Sub(first)
}

// leaderboardText renders the final summary message for a finished session.
func leaderboardText(title string, totalQuestions int, entries []domain.LeaderboardEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Quiz «%s» finished!\n\n", title)
	fmt.Fprintf(&b, "It had %d questions\n\n", totalQuestions)

	if len(entries) == 0 {
		b.WriteString("No answers this time 😅")
		return b.String()
	}

	for i, e := range entries {
		if i >= leaderboardLimit {
			break
		}
		prefix := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			prefix = medals[i]
		}
		fmt.Fprintf(&b, "%s %s — %d (%s)\n", prefix, e.DisplayName, e.Score, formatDuration(e.Latency))
	}

	b.WriteString("\n🏆 Congratulations to the winners!")
	return b.String()
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%d min %d sec", total/60, total%60)
}
