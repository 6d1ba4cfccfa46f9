package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type TelegramAPI interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramBroadcaster posts broadcasts to a single team chat.
type TelegramBroadcaster struct {
	client TelegramAPI
	chatID any
}

func NewTelegramBroadcaster(token string, chatID any) (*TelegramBroadcaster, error) {
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return NewTelegramBroadcasterWithClient(b, chatID), nil
}

func NewTelegramBroadcasterWithClient(client TelegramAPI, chatID any) *TelegramBroadcaster {
	return &TelegramBroadcaster{client: client, chatID: chatID}
}

func (t *TelegramBroadcaster) SendBroadcast(ctx context.Context, text string) error {
	_, err := t.client.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: t.chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
