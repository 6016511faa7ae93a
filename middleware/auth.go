package middleware

import (
	"crypto/subtle"
	"net/http"
)

// SecretTokenHeader — заголовок, в котором Telegram передаёт secret_token вебхука
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookSecret проверяет секрет вебхука. Пустой secret отключает проверку.
func WebhookSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(SecretTokenHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				http.Error(w, "🚫 Неверный токен", http.StatusForbidden)
				return
			}

			// Всё хорошо — пропускаем дальше
			next.ServeHTTP(w, r)
		})
	}
}
