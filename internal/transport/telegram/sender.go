package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"quizbot/internal/domain"
)

// Sender emits quiz polls and plain messages through the Bot API. It is
// the engine's poll transport; tgbotapi has no context support, so the
// context is accepted for interface fit only.
type Sender struct {
	api *tgbotapi.BotAPI
}

func NewSender(api *tgbotapi.BotAPI) *Sender {
	return &Sender{api: api}
}

func (s *Sender) SendTimedPoll(_ context.Context, chatID int64, prompt domain.PollPrompt) (string, int, error) {
	poll := tgbotapi.NewPoll(chatID, prompt.Question, prompt.Options...)
	poll.Type = "quiz"
	poll.IsAnonymous = false
	poll.AllowsMultipleAnswers = false
	poll.CorrectOptionID = int64(prompt.CorrectIndex)
	poll.OpenPeriod = prompt.OpenPeriod
	if prompt.Explanation != "" {
		poll.Explanation = prompt.Explanation
	}

	msg, err := s.api.Send(poll)
	if err != nil {
		return "", 0, err
	}
	if msg.Poll == nil {
		return "", msg.MessageID, nil
	}
	return msg.Poll.ID, msg.MessageID, nil
}

func (s *Sender) SendText(_ context.Context, chatID int64, text string) error {
	_, err := s.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
