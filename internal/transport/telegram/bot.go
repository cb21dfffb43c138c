package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"quizbot/internal/domain"
	"quizbot/internal/engine"
)

const deepLinkPrefix = "quiz_"

// PreferenceStore is the read/write preference surface the bot exposes via
// /time and /settings.
type PreferenceStore interface {
	PreferredOpenPeriod(ctx context.Context, userID int64) (int, error)
	SetPreferredOpenPeriod(ctx context.Context, userID int64, seconds int) error
}

// Bot is the Telegram front of the quiz engine: it turns commands into
// engine calls and feeds poll answers back into it.
type Bot struct {
	api    *tgbotapi.BotAPI
	engine *engine.Engine
	prefs  PreferenceStore
}

// NewAPI dials the Bot API once so the update loop and the engine's
// sender can share a client.
func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return api, nil
}

func NewBot(api *tgbotapi.BotAPI, eng *engine.Engine, prefs PreferenceStore) *Bot {
	return &Bot{api: api, engine: eng, prefs: prefs}
}

// Run processes updates until the context is canceled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "poll_answer"}

	updates := b.api.GetUpdatesChan(u)
	log.Printf("bot @%s polling for updates", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			switch {
			case update.PollAnswer != nil:
				b.handlePollAnswer(ctx, update.PollAnswer)
			case update.Message != nil:
				b.handleMessage(ctx, update.Message)
			}
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)

	switch command(text) {
	case "/quiz":
		code := commandArg(text)
		if code == "" {
			b.reply(msg.Chat.ID, "Use: /quiz <code>\nExample: /quiz sfPlk")
			return
		}
		b.startSession(ctx, msg, strings.TrimPrefix(code, deepLinkPrefix))
	case "/start":
		payload := commandArg(text)
		if strings.HasPrefix(payload, deepLinkPrefix) {
			b.startSession(ctx, msg, strings.TrimPrefix(payload, deepLinkPrefix))
			return
		}
		if msg.Chat.IsGroup() || msg.Chat.IsSuperGroup() {
			b.reply(msg.Chat.ID, "To start a quiz in a group:\n/quiz <code>\nExample: /quiz sfPlk")
			return
		}
		b.reply(msg.Chat.ID, "Welcome! Start a quiz with /quiz <code>, set your timer with /time <seconds>.")
	case "/stop", "/stop_quiz":
		b.stopSession(ctx, msg)
	case "/time":
		b.setTimeLimit(ctx, msg)
	case "/settings":
		b.showSettings(ctx, msg)
	}
}

func (b *Bot) startSession(ctx context.Context, msg *tgbotapi.Message, code string) {
	key := sessionKeyFor(msg.Chat, msg.From.ID)
	err := b.engine.StartSession(ctx, key, msg.From.ID, code)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrQuizNotFound):
		b.reply(msg.Chat.ID, "❌ Quiz not found or not published.")
	case errors.Is(err, domain.ErrEmptyQuiz):
		b.reply(msg.Chat.ID, "❌ This quiz has no questions.")
	case errors.Is(err, domain.ErrSessionConflict):
		b.reply(msg.Chat.ID, "⚠️ A quiz is already running here. Please wait for it to finish.")
	default:
		log.Printf("start session %s: %v", key, err)
		b.reply(msg.Chat.ID, "Sorry, something went wrong starting the quiz.")
	}
}

func (b *Bot) stopSession(ctx context.Context, msg *tgbotapi.Message) {
	key := sessionKeyFor(msg.Chat, msg.From.ID)
	if err := b.engine.StopSession(ctx, key); err != nil {
		b.reply(msg.Chat.ID, "ℹ️ No active quiz to stop.")
		return
	}
	b.reply(msg.Chat.ID, "🛑 Quiz stopped.")
}

func (b *Bot) setTimeLimit(ctx context.Context, msg *tgbotapi.Message) {
	arg := commandArg(msg.Text)
	seconds, err := strconv.Atoi(arg)
	if err != nil || seconds <= 0 {
		b.reply(msg.Chat.ID, "Use: /time 30  (5..300 seconds)")
		return
	}
	if err := b.prefs.SetPreferredOpenPeriod(ctx, msg.From.ID, seconds); err != nil {
		log.Printf("set time limit for %d: %v", msg.From.ID, err)
		b.reply(msg.Chat.ID, "Sorry, couldn't save your time limit.")
		return
	}
	saved, err := b.prefs.PreferredOpenPeriod(ctx, msg.From.ID)
	if err != nil {
		saved = seconds
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("✅ Time limit set to %d sec", saved))
}

func (b *Bot) showSettings(ctx context.Context, msg *tgbotapi.Message) {
	seconds, err := b.prefs.PreferredOpenPeriod(ctx, msg.From.ID)
	if err != nil {
		log.Printf("load settings for %d: %v", msg.From.ID, err)
		b.reply(msg.Chat.ID, "Sorry, couldn't load your settings.")
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("⚙ Bot settings\n\n⏰ Time limit: %d sec\nChange it with /time <seconds>", seconds))
}

func (b *Bot) handlePollAnswer(ctx context.Context, pa *tgbotapi.PollAnswer) {
	chosen := -1
	if len(pa.OptionIDs) > 0 {
		chosen = pa.OptionIDs[0]
	}
	b.engine.HandleAnswer(ctx, engine.PollAnswer{
		PollID:      pa.PollID,
		UserID:      pa.User.ID,
		DisplayName: displayName(pa.User),
		OptionIndex: chosen,
		At:          time.Now(),
	})
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("send message to %d: %v", chatID, err)
	}
}

// sessionKeyFor scopes group chats as a whole and private chats per user.
func sessionKeyFor(chat *tgbotapi.Chat, userID int64) engine.SessionKey {
	if chat.IsGroup() || chat.IsSuperGroup() {
		return engine.GroupKey(chat.ID)
	}
	return engine.PrivateKey(chat.ID, userID)
}

// command extracts the bare slash command from a message: the first token
// with any @botname mention stripped, so "/quiz@SomeBot abc" matches
// "/quiz" while "/quizfoo" matches nothing.
func command(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd := strings.SplitN(text, " ", 2)[0]
	if at := strings.Index(cmd, "@"); at >= 0 {
		cmd = cmd[:at]
	}
	return cmd
}

// commandArg returns the single argument after a command, if any.
func commandArg(text string) string {
	parts := strings.SplitN(strings.TrimSpace(text), " ", 2)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func displayName(u tgbotapi.User) string {
	if u.UserName != "" {
		return "@" + u.UserName
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return "User"
	}
	return name
}
