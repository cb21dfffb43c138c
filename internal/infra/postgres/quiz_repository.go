package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizbot/internal/domain"
)

// QuizRepository reads published quizzes and their questions from Postgres.
type QuizRepository struct {
	pool *pgxpool.Pool
}

func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

func (r *QuizRepository) ResolvePublished(ctx context.Context, code string) (domain.QuizRef, error) {
	var ref domain.QuizRef
	err := r.pool.QueryRow(ctx,
		`SELECT id, title FROM quizzes WHERE public_code=$1 AND status='published'`, code,
	).Scan(&ref.ID, &ref.Title)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizRef{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.QuizRef{}, fmt.Errorf("resolve quiz: %w", err)
	}
	return ref, nil
}

func (r *QuizRepository) QuestionsFor(ctx context.Context, quizID int64) ([]domain.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, q_text, opt_a, opt_b, opt_c, opt_d, correct, COALESCE(explanation,'')
		 FROM questions WHERE quiz_id=$1 ORDER BY id ASC`, quizID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.Options[0], &q.Options[1], &q.Options[2], &q.Options[3],
			&q.Correct, &q.Explanation); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	return questions, nil
}
