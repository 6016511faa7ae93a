package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxUpdateBytes — предел размера тела запроса от Telegram
const maxUpdateBytes = 1 << 20

// Dispatcher запускает обработку обновления в фоне
type Dispatcher interface {
	Dispatch(update tgbotapi.Update)
}

// TelegramHandler — HTTP-хендлер для Telegram webhook
type TelegramHandler struct {
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewTelegramHandler создаёт хендлер вебхука
func NewTelegramHandler(dispatcher Dispatcher, logger *slog.Logger) *TelegramHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TelegramHandler{dispatcher: dispatcher, logger: logger}
}

// ServeHTTP разбирает обновление, передаёт его диспетчеру и всегда отвечает 200,
// иначе Telegram будет повторять доставку того же обновления.
func (h *TelegramHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	body := http.MaxBytesReader(w, r.Body, maxUpdateBytes)
	if err := json.NewDecoder(body).Decode(&update); err != nil {
		h.logger.Warn("❌ Ошибка разбора запроса Telegram", "err", err)
	} else {
		h.logUpdate(update)
		h.dispatcher.Dispatch(update)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (h *TelegramHandler) logUpdate(update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		h.logger.Info("🔘 Нажата кнопка", "update_id", update.UpdateID,
			"user_id", update.CallbackQuery.From.ID, "data", update.CallbackQuery.Data)
	case update.Message != nil && update.Message.From != nil:
		h.logger.Info("📩 Сообщение от пользователя", "update_id", update.UpdateID,
			"user_id", update.Message.From.ID, "len", len(update.Message.Text))
	default:
		h.logger.Debug("❓ Неподдерживаемый тип обновления", "update_id", update.UpdateID)
	}
}
