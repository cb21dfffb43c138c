package memory

import (
	"context"

	"quizbot/internal/domain"
)

// StoredQuiz pairs a quiz ref with its ordered question list.
type StoredQuiz struct {
	Ref       domain.QuizRef
	Questions []domain.Question
}

// QuizSource serves quizzes from an in-memory map, keyed by public code.
// Useful for tests and demo wiring when no database is configured.
type QuizSource struct {
	byCode map[string]StoredQuiz
	byID   map[int64]StoredQuiz
}

func NewQuizSource(quizzes map[string]StoredQuiz) *QuizSource {
	byID := make(map[int64]StoredQuiz, len(quizzes))
	for _, q := range quizzes {
		byID[q.Ref.ID] = q
	}
	return &QuizSource{byCode: quizzes, byID: byID}
}

func (s *QuizSource) ResolvePublished(_ context.Context, code string) (domain.QuizRef, error) {
	quiz, ok := s.byCode[code]
	if !ok {
		return domain.QuizRef{}, domain.ErrQuizNotFound
	}
	return quiz.Ref, nil
}

func (s *QuizSource) QuestionsFor(_ context.Context, quizID int64) ([]domain.Question, error) {
	quiz, ok := s.byID[quizID]
	if !ok {
		return nil, domain.ErrQuizNotFound
	}
	return quiz.Questions, nil
}
