package llm

import "errors"

// Классы ошибок клиента модели. Gateway решает по ним, повторять ли запрос.
var (
	// ErrQuotaExceeded — исчерпан дневной лимит или сработал rate limit.
	ErrQuotaExceeded = errors.New("completion quota exceeded")
	// ErrInvalidKey — сервис отклонил API-ключ.
	ErrInvalidKey = errors.New("completion api key invalid")
	// ErrAPI — прочие ошибки API, их имеет смысл повторить.
	ErrAPI = errors.New("completion api error")
	// ErrEmptyResponse — модель ответила без текста.
	ErrEmptyResponse = errors.New("completion returned empty text")
)
