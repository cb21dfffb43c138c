package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quizbot/internal/domain"
	"quizbot/internal/engine"
	pginfra "quizbot/internal/infra/postgres"
	pgmigrations "quizbot/internal/infra/postgres/migrations"
	redisinfra "quizbot/internal/infra/redis"
)

const quizCode = "goquiz"

func TestQuizRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuiz(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	quizzes := redisinfra.NewQuizCache(redisClient, pginfra.NewQuizRepository(pool), 5*time.Minute)
	prefs := redisinfra.NewPreferenceStore(redisClient, 30)
	transport := &recordingTransport{}
	eng := engine.New(quizzes, prefs, transport)

	// Shortest answer window the platform accepts, so the run finishes fast.
	if err := prefs.SetPreferredOpenPeriod(ctx, 100, 5); err != nil {
		t.Fatalf("set preference: %v", err)
	}

	events, cancel := eng.Subscribe()
	defer cancel()

	key := engine.GroupKey(-42)
	if err := eng.StartSession(ctx, key, 100, quizCode); err != nil {
		t.Fatalf("start session: %v", err)
	}

	poll := transport.lastPoll(t)
	if !strings.HasPrefix(poll.prompt.Question, "1. ") {
		t.Fatalf("expected numbered question, got %q", poll.prompt.Question)
	}

	eng.HandleAnswer(ctx, engine.PollAnswer{
		PollID:      poll.id,
		UserID:      100,
		DisplayName: "@alice",
		OptionIndex: poll.prompt.CorrectIndex,
	})

	finished := waitForEvent(t, events, engine.EventSessionFinished, 15*time.Second)
	if len(finished.Leaderboard) != 1 {
		t.Fatalf("expected one leaderboard entry, got %+v", finished.Leaderboard)
	}
	if finished.Leaderboard[0].UserID != 100 || finished.Leaderboard[0].Score != 1 {
		t.Fatalf("expected user 100 with score 1, got %+v", finished.Leaderboard[0])
	}

	summary := transport.lastText(t)
	if !strings.Contains(summary, "🥇 @alice") {
		t.Fatalf("expected winner in summary, got %q", summary)
	}

	// The cache should now serve the quiz without the database.
	if _, err := quizzes.ResolvePublished(ctx, quizCode); err != nil {
		t.Fatalf("cached resolve: %v", err)
	}
}

type sentPoll struct {
	id     string
	prompt domain.PollPrompt
}

// recordingTransport captures outbound polls and texts instead of talking
// to a chat platform.
type recordingTransport struct {
	mu    sync.Mutex
	polls []sentPoll
	texts []string
}

func (f *recordingTransport) SendTimedPoll(_ context.Context, _ int64, prompt domain.PollPrompt) (string, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fmt.Sprintf("poll-%d", len(f.polls)+1)
	f.polls = append(f.polls, sentPoll{id: id, prompt: prompt})
	return id, len(f.polls), nil
}

func (f *recordingTransport) SendText(_ context.Context, _ int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *recordingTransport) lastPoll(t *testing.T) sentPoll {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.polls) == 0 {
		t.Fatal("no poll sent")
	}
	return f.polls[len(f.polls)-1]
}

func (f *recordingTransport) lastText(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		t.Fatal("no text sent")
	}
	return f.texts[len(f.texts)-1]
}

func waitForEvent(t *testing.T, events <-chan engine.Event, kind engine.EventKind, timeout time.Duration) engine.Event {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-events:
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", kind)
		}
	}
}

func seedQuiz(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if _, err := db.ExecContext(ctx,
		`INSERT INTO quizzes (id, public_code, title, status) VALUES (1, ?, 'Go basics', 'published')`,
		quizCode); err != nil {
		t.Fatalf("insert quiz: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO questions (quiz_id, q_text, opt_a, opt_b, opt_c, opt_d, correct, explanation)
		 VALUES (1, 'What declares a variable?', 'var', 'def', 'let', 'dim', 'A', 'var is the keyword')`); err != nil {
		t.Fatalf("insert question: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
