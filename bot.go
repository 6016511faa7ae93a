package main

import (
	"errors"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var errBotDisabled = errors.New("telegram bot is not configured")

// disabledBot подставляется, когда TELEGRAM_TOKEN не задан или бот не авторизовался.
// Сервис продолжает отвечать на HTTP, но ничего не отправляет.
type disabledBot struct{}

func (disabledBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return tgbotapi.Message{}, errBotDisabled
}

func (disabledBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return nil, errBotDisabled
}

// webhookRegistrar — часть tgbotapi.BotAPI, нужная для setWebhook
type webhookRegistrar interface {
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}

// registerWebhook сообщает Telegram адрес вебхука
func registerWebhook(bot webhookRegistrar, url, secret string) error {
	params := tgbotapi.Params{}
	params["url"] = url
	params["allowed_updates"] = `["message","callback_query"]`
	params.AddNonEmpty("secret_token", secret)

	resp, err := bot.MakeRequest("setWebhook", params)
	if err != nil {
		return fmt.Errorf("setWebhook: %w", err)
	}
	if !resp.Ok {
		return fmt.Errorf("setWebhook rejected: %s", resp.Description)
	}

	slog.Info("🔗 Вебхук зарегистрирован в Telegram")
	return nil
}
