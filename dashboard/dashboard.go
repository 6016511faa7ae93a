package dashboard

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"
)

// DashboardStatus содержит краткую информацию о сервисе
type DashboardStatus struct {
	Uptime          string `json:"uptime"`
	Goroutines      int    `json:"goroutines"`
	Status          string `json:"status"`
	InFlight        int64  `json:"in_flight_updates"`
	ModelConfigured bool   `json:"model_configured"`
	BotConfigured   bool   `json:"bot_configured"`
	SessionStore    string `json:"session_store"`
}

// Source — откуда дашборд берёт сведения о сервисе
type Source struct {
	StartedAt       time.Time
	ModelConfigured bool
	BotConfigured   bool
	SessionStore    string
	InFlight        func() int64
}

// Handler возвращает текущий статус сервиса
func Handler(src Source) http.HandlerFunc {
	if src.StartedAt.IsZero() {
		src.StartedAt = time.Now()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		status := DashboardStatus{
			Uptime:          time.Since(src.StartedAt).Round(time.Second).String(),
			Goroutines:      runtime.NumGoroutine(),
			Status:          "ok",
			ModelConfigured: src.ModelConfigured,
			BotConfigured:   src.BotConfigured,
			SessionStore:    src.SessionStore,
		}
		if src.InFlight != nil {
			status.InFlight = src.InFlight()
		}
		if !src.ModelConfigured || !src.BotConfigured {
			status.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	}
}
