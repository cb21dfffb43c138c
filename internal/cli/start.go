package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"quizbot/internal/config"
	"quizbot/internal/domain"
	"quizbot/internal/engine"
	"quizbot/internal/infra/memory"
	pginfra "quizbot/internal/infra/postgres"
	redisinfra "quizbot/internal/infra/redis"
	"quizbot/internal/infra/sqlite"
	monitorhttp "quizbot/internal/transport/http"
	"quizbot/internal/transport/telegram"
)

// NewStartCmd builds the CLI subcommand to start the bot.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context(), *configPath, *port)
		},
	}
}

func runBot(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token not configured (set telegram.token or BOT_TOKEN)")
	}

	if cfg.Postgres.URL != "" {
		if err := migratePostgres(ctx, cfg.Postgres.URL); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	defaultOpenPeriod := cfg.Defaults.OpenPeriod
	if defaultOpenPeriod == 0 {
		defaultOpenPeriod = 30
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var quizzes engine.QuizRepository
	var prefs telegram.PreferenceStore

	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		quizzes = pginfra.NewQuizRepository(pool)
	case cfg.SQLite.Path != "":
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		quizzes = store
		prefs = store
	default:
		quizzes = memory.NewQuizSource(sampleQuizzes())
	}

	if redisClient != nil {
		quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
		quizzes = redisinfra.NewQuizCache(redisClient, quizzes, quizTTL)
		if prefs == nil {
			prefs = redisinfra.NewPreferenceStore(redisClient, defaultOpenPeriod)
		}
	}
	if prefs == nil {
		prefs = memory.NewPreferenceStore(defaultOpenPeriod)
	}

	api, err := telegram.NewAPI(cfg.Telegram.Token)
	if err != nil {
		return err
	}
	eng := engine.New(quizzes, prefs, telegram.NewSender(api))
	bot := telegram.NewBot(api, eng, prefs)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      monitorhttp.NewMonitor(eng).Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.Run(ctx)
	})
	g.Go(func() error {
		log.Printf("ops monitor on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Println("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// sampleQuizzes provides demo content when no backing store is configured.
func sampleQuizzes() map[string]memory.StoredQuiz {
	return map[string]memory.StoredQuiz{
		"demo1": {
			Ref: domain.QuizRef{ID: 1, Title: "Demo quiz"},
			Questions: []domain.Question{
				{
					ID:      1,
					Text:    "What is 2 + 2?",
					Options: [4]string{"3", "4", "5", "22"},
					Correct: "B",
				},
				{
					ID:          2,
					Text:        "Capital of France?",
					Options:     [4]string{"Berlin", "Paris", "Rome", "Madrid"},
					Correct:     "B",
					Explanation: "Paris has been the capital since 508.",
				},
			},
		},
	}
}
