package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"quizbot/internal/domain"
)

const schemaSQL = `
PRAGMA journal_mode=WAL;

CREATE TABLE IF NOT EXISTS users (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  tg_id INTEGER UNIQUE NOT NULL,
  settings_json TEXT DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS quizzes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  owner_tg_id INTEGER NOT NULL,
  title TEXT NOT NULL,
  public_code TEXT,
  status TEXT NOT NULL DEFAULT 'draft',
  created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS questions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  quiz_id INTEGER NOT NULL,
  q_text TEXT NOT NULL,
  opt_a TEXT NOT NULL,
  opt_b TEXT NOT NULL,
  opt_c TEXT NOT NULL,
  opt_d TEXT NOT NULL,
  correct TEXT NOT NULL,
  explanation TEXT,
  FOREIGN KEY (quiz_id) REFERENCES quizzes(id) ON DELETE CASCADE
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_quiz_public_code ON quizzes(public_code);
CREATE INDEX IF NOT EXISTS idx_questions_quiz ON questions(quiz_id);
`

// Store is an embedded quiz and user-settings store for single-binary
// deployments. It implements both the engine's quiz repository and its
// preference store.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ResolvePublished(ctx context.Context, code string) (domain.QuizRef, error) {
	var ref domain.QuizRef
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title FROM quizzes WHERE public_code=? AND status='published'`, code,
	).Scan(&ref.ID, &ref.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuizRef{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.QuizRef{}, fmt.Errorf("resolve quiz: %w", err)
	}
	return ref, nil
}

func (s *Store) QuestionsFor(ctx context.Context, quizID int64) ([]domain.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, q_text, opt_a, opt_b, opt_c, opt_d, correct, COALESCE(explanation,'')
		 FROM questions WHERE quiz_id=? ORDER BY id ASC`, quizID)
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

// InsertQuiz stores a quiz row. Authoring flows live outside this service;
// this exists for seeding and operational tooling.
func (s *Store) InsertQuiz(ctx context.Context, ownerID int64, title, publicCode, status string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO quizzes(owner_tg_id, title, public_code, status) VALUES (?, ?, ?, ?)`,
		ownerID, title, publicCode, status)
	if err != nil {
		return 0, fmt.Errorf("insert quiz: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) InsertQuestion(ctx context.Context, quizID int64, q domain.Question) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO questions(quiz_id, q_text, opt_a, opt_b, opt_c, opt_d, correct, explanation)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		quizID, q.Text, q.Options[0], q.Options[1], q.Options[2], q.Options[3], q.Correct, q.Explanation)
	if err != nil {
		return 0, fmt.Errorf("insert question: %w", err)
	}
	return res.LastInsertId()
}

// userSettings mirrors the settings_json column layout.
type userSettings struct {
	TimeLimit int `json:"time_limit"`
}

const (
	defaultTimeLimit = 30
	minTimeLimit     = 5
	maxTimeLimit     = 300
)

func (s *Store) PreferredOpenPeriod(ctx context.Context, userID int64) (int, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(settings_json, '{}') FROM users WHERE tg_id=?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return defaultTimeLimit, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load settings: %w", err)
	}

	var settings userSettings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil || settings.TimeLimit == 0 {
		return defaultTimeLimit, nil
	}
	return settings.TimeLimit, nil
}

func (s *Store) SetPreferredOpenPeriod(ctx context.Context, userID int64, seconds int) error {
	if seconds < minTimeLimit {
		seconds = minTimeLimit
	}
	if seconds > maxTimeLimit {
		seconds = maxTimeLimit
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users(tg_id) VALUES (?)`, userID); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	raw, err := json.Marshal(userSettings{TimeLimit: seconds})
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE users SET settings_json=? WHERE tg_id=?`, string(raw), userID); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
