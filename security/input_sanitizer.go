package security

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxNameRunes — сколько символов имени показываем в приветствии
const maxNameRunes = 64

// SanitizeName готовит имя из профиля Telegram для вставки в текст ответа.
// Ответы уходят без parse mode, поэтому имя показывается как есть:
// убираются только управляющие символы, лишние пробелы и хвост длиннее maxNameRunes.
// Если после очистки ничего не осталось, возвращает fallback.
func SanitizeName(name, fallback string) string {
	// Убираем управляющие символы и схлопываем пробелы
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, name)
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	if utf8.RuneCountInString(cleaned) > maxNameRunes {
		cleaned = string([]rune(cleaned)[:maxNameRunes])
	}
	if cleaned == "" {
		return fallback
	}
	return cleaned
}
