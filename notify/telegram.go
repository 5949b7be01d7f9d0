package notify

import (
	"context"
	"fmt"

	"github.com/BBKML/BaibebaloProjets-sub007/services"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier sends actor notifications through a Telegram bot. It
// implements services.Notifier; each actor's chat_id comes from their
// account row.
type TelegramNotifier struct {
	api *tgbotapi.BotAPI
}

func NewTelegramNotifier(token string) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &TelegramNotifier{api: api}, nil
}

func (t *TelegramNotifier) send(chatID int64, text string) error {
	if chatID == 0 {
		return fmt.Errorf("recipient has no chat bound")
	}
	_, err := t.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (t *TelegramNotifier) NotifyClient(ctx context.Context, clientID int64, text string) error {
	c, err := services.GetClientByID(ctx, clientID)
	if err != nil {
		return err
	}
	return t.send(c.ChatID, text)
}

func (t *TelegramNotifier) NotifyRestaurant(ctx context.Context, restaurantID int64, text string) error {
	r, err := services.GetRestaurantByID(ctx, restaurantID)
	if err != nil {
		return err
	}
	return t.send(r.ChatID, text)
}

func (t *TelegramNotifier) NotifyDriver(ctx context.Context, driverID int64, text string) error {
	d, err := services.GetDriverByID(ctx, driverID)
	if err != nil {
		return err
	}
	return t.send(d.ChatID, text)
}
