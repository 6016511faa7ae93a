package dialog

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tabor_bot/jobs"
	"tabor_bot/security"
	"tabor_bot/storage"
)

// maxMessageRunes — предел длины одного сообщения в Telegram
const maxMessageRunes = 4096

// BotAPI — методы Telegram Bot API, которые нужны диалогу
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Completer отвечает на свободный текст. Ошибок не возвращает.
type Completer interface {
	Generate(ctx context.Context, prompt string) string
}

// Deps — зависимости Manager
type Deps struct {
	Bot      BotAPI
	Sessions storage.SessionStore
	Gateway  Completer
	Events   jobs.Publisher
	Logger   *slog.Logger
}

// Manager разбирает обновления Telegram и ведёт диалог с пользователем
type Manager struct {
	bot      BotAPI
	sessions storage.SessionStore
	gateway  Completer
	events   jobs.Publisher
	logger   *slog.Logger
}

// NewManager — фабрика для создания менеджера
func NewManager(deps Deps) *Manager {
	m := &Manager{
		bot:      deps.Bot,
		sessions: deps.Sessions,
		gateway:  deps.Gateway,
		events:   deps.Events,
		logger:   deps.Logger,
	}
	if m.sessions == nil {
		m.sessions = storage.NewMemorySessionStore()
	}
	if m.events == nil {
		m.events = jobs.NopPublisher{}
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// HandleUpdate — точка входа для одного обновления
func (m *Manager) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		m.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		m.handleMessage(ctx, update.Message)
	default:
		m.logger.Debug("Пропущено обновление без сообщения", "update_id", update.UpdateID)
	}
}

func (m *Manager) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	if msg.IsCommand() {
		if msg.Command() == "start" {
			m.OnStart(ctx, msg.Chat.ID)
			return
		}
		m.logger.Debug("Неизвестная команда", "command", msg.Command(), "chat_id", msg.Chat.ID)
		return
	}
	m.OnFreeText(ctx, msg)
}

func (m *Manager) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// отвечаем сразу, иначе у пользователя крутится индикатор на кнопке
	if query.ID != "" {
		if _, err := m.bot.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			m.logger.Warn("⚠️ Не удалось ответить на callback", "err", err)
		}
	}
	if query.Message == nil || query.Message.Chat == nil || query.From == nil {
		m.logger.Debug("Callback без сообщения или отправителя", "callback_id", query.ID)
		return
	}

	if lang, ok := parseLanguage(query.Data); ok {
		m.OnLanguageSelected(ctx, query, lang)
		return
	}
	if query.Data == ActionAbout {
		m.OnAboutRequested(ctx, query.Message.Chat.ID, query.From.ID)
		return
	}
	m.logger.Debug("Неизвестный callback", "data", query.Data, "user_id", query.From.ID)
}

// OnStart показывает меню выбора языка
func (m *Manager) OnStart(ctx context.Context, chatID int64) {
	msg := tgbotapi.NewMessage(chatID, selectLanguageText)
	msg.ReplyMarkup = languageKeyboard()
	m.send(msg)
}

// OnLanguageSelected запоминает язык и превращает меню в приветствие
func (m *Manager) OnLanguageSelected(ctx context.Context, query *tgbotapi.CallbackQuery, lang Language) {
	userID := query.From.ID
	if err := m.sessions.SetLanguage(ctx, userID, string(lang)); err != nil {
		m.logger.Error("❌ Не удалось сохранить язык", "user_id", userID, "err", err)
	}

	name := security.SanitizeName(query.From.FirstName, defaultUserName)
	edit := tgbotapi.NewEditMessageTextAndMarkup(
		query.Message.Chat.ID,
		query.Message.MessageID,
		welcomeText(lang, name),
		aboutKeyboard(lang),
	)
	m.send(edit)

	m.publish(ctx, "language_selected", map[string]any{
		"user_id":  userID,
		"language": string(lang),
	})
}

// OnAboutRequested отправляет описание канала на языке пользователя
func (m *Manager) OnAboutRequested(ctx context.Context, chatID, userID int64) {
	m.send(tgbotapi.NewMessage(chatID, aboutText(m.language(ctx, userID))))
}

// OnFreeText пересылает вопрос модели и отвечает её текстом
func (m *Manager) OnFreeText(ctx context.Context, msg *tgbotapi.Message) {
	if strings.TrimSpace(msg.Text) == "" {
		return
	}

	chatID := msg.Chat.ID
	if _, err := m.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		m.logger.Warn("⚠️ Не удалось отправить статус набора", "chat_id", chatID, "err", err)
	}

	answer := m.gateway.Generate(ctx, msg.Text)

	for i, chunk := range splitMessage(answer, maxMessageRunes) {
		reply := tgbotapi.NewMessage(chatID, chunk)
		if i == 0 {
			reply.ReplyToMessageID = msg.MessageID
		}
		m.send(reply)
	}

	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}
	m.publish(ctx, "question_answered", map[string]any{
		"user_id":    userID,
		"prompt_len": utf8.RuneCountInString(msg.Text),
		"reply_len":  utf8.RuneCountInString(answer),
	})
}

// language читает язык пользователя; отсутствие сессии или ошибка хранилища дают язык по умолчанию
func (m *Manager) language(ctx context.Context, userID int64) Language {
	stored, err := m.sessions.GetLanguage(ctx, userID)
	if err != nil {
		m.logger.Warn("⚠️ Не удалось прочитать сессию", "user_id", userID, "err", err)
		return DefaultLanguage
	}
	if lang, ok := parseLanguage(stored); ok {
		return lang
	}
	return DefaultLanguage
}

func (m *Manager) send(c tgbotapi.Chattable) {
	if _, err := m.bot.Send(c); err != nil {
		m.logger.Error("❌ Ошибка отправки в Telegram", "err", err)
	}
}

func (m *Manager) publish(ctx context.Context, kind string, data map[string]any) {
	if err := m.events.Publish(ctx, jobs.Task{Type: kind, Data: data}); err != nil {
		m.logger.Warn("⚠️ Не удалось опубликовать событие", "type", kind, "err", err)
	}
}

// splitMessage режет текст на части не длиннее limit символов,
// стараясь резать по переводу строки
func splitMessage(text string, limit int) []string {
	var parts []string
	for utf8.RuneCountInString(text) > limit {
		runes := []rune(text)
		cut := limit
		if nl := strings.LastIndex(string(runes[:limit]), "\n"); nl > 0 {
			cut = utf8.RuneCountInString(string(runes[:limit])[:nl]) + 1
		}
		parts = append(parts, string(runes[:cut]))
		text = string(runes[cut:])
	}
	return append(parts, text)
}
