package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"

	"tabor_bot/config"
	"tabor_bot/dashboard"
	"tabor_bot/dialog"
	"tabor_bot/handlers"
	"tabor_bot/jobs"
	"tabor_bot/llm"
	"tabor_bot/middleware"
	"tabor_bot/storage"
)

const healthText = "Tabor Systems AI Bot Webhook is online and functional!"

// app — всё, что создаётся при старте и закрывается при остановке
type app struct {
	bot           dialog.BotAPI
	botAPI        *tgbotapi.BotAPI
	gemini        *llm.GeminiClient
	gateway       *llm.Gateway
	sessions      storage.SessionStore
	events        jobs.Publisher
	rdb           *redis.Client
	db            *sql.DB
	ownsRedisConn bool
}

// setupLogger настраивает структурированный логгер
func setupLogger(level slog.Level) {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler).With("app", "tabor_bot"))
}

func initializeDependencies(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{bot: disabledBot{}, events: jobs.NopPublisher{}}

	if cfg.TelegramToken != "" {
		botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			slog.Error("❌ Не удалось авторизовать бота в Telegram", "err", err)
		} else {
			slog.Info("🤖 Бот авторизован", "username", botAPI.Self.UserName)
			a.bot = botAPI
			a.botAPI = botAPI
		}
	}

	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, llm.ChannelInfo)
		if err != nil {
			slog.Error("❌ Ошибка настройки Gemini", "err", err)
		} else {
			slog.Info("✅ Модель Gemini настроена", "model", cfg.GeminiModel)
			a.gemini = gemini
		}
	}

	var client llm.Client
	if a.gemini != nil {
		client = a.gemini
	}
	a.gateway = llm.NewGateway(client, llm.RetryPolicy{
		MaxAttempts:    cfg.Retry.MaxAttempts,
		BaseDelay:      cfg.Retry.BaseDelay,
		AttemptTimeout: cfg.Retry.AttemptTimeout,
	})

	if cfg.SessionStore == string(storage.StoreTypeRedis) || cfg.EventsEnabled {
		rdb, err := storage.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.rdb = rdb
		a.ownsRedisConn = true
	}
	if cfg.SessionStore == string(storage.StoreTypePostgres) {
		db, err := storage.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.db = db
	}

	sessions, err := storage.NewSessionStore(ctx, storage.StoreType(cfg.SessionStore),
		storage.WithRedisClient(a.rdb),
		storage.WithDB(a.db),
		storage.WithTTL(cfg.SessionTTL),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.sessions = sessions
	if cfg.SessionStore == string(storage.StoreTypeRedis) {
		// клиент Redis теперь закрывает хранилище сессий
		a.ownsRedisConn = false
	}

	if cfg.EventsEnabled {
		a.events = jobs.NewRedisPublisher(a.rdb)
		slog.Info("📨 События диалога публикуются в Redis", "queue", jobs.EventsQueue)
	}

	return a, nil
}

// Close освобождает соединения; безопасен для частично созданного app
func (a *app) Close() {
	if a.sessions != nil {
		if err := a.sessions.Close(); err != nil {
			slog.Warn("⚠️ Ошибка закрытия хранилища сессий", "err", err)
		}
	} else if a.db != nil {
		_ = a.db.Close()
	}
	if a.rdb != nil && (a.ownsRedisConn || a.sessions == nil) {
		_ = a.rdb.Close()
	}
	if a.gemini != nil {
		_ = a.gemini.Close()
	}
}

func setupRoutes(cfg *config.Config, webhook http.Handler, status http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)

	// Тестовый health check
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(healthText))
	})
	r.Get("/status", status)

	// Telegram webhook endpoint
	r.With(middleware.WebhookSecret(cfg.WebhookSecret)).Post(cfg.WebhookPath(), webhook.ServeHTTP)

	return r
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("❌ Ошибка конфигурации", "err", err)
		os.Exit(1)
	}
	setupLogger(cfg.LogLevel)
	slog.Info("🚀 Запуск Tabor Systems AI бота...", "env", cfg.Env, "session_store", cfg.SessionStore)

	for _, key := range cfg.Missing() {
		slog.Error("❌ Переменная окружения не задана, функциональность ограничена", "key", key)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := initializeDependencies(ctx, cfg)
	if err != nil {
		slog.Error("❌ Ошибка инициализации", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	manager := dialog.NewManager(dialog.Deps{
		Bot:      a.bot,
		Sessions: a.sessions,
		Gateway:  a.gateway,
		Events:   a.events,
	})
	dispatcher := jobs.NewDispatcher(manager.HandleUpdate, jobs.DispatcherConfig{
		MaxWorkers:    cfg.MaxWorkers,
		UpdateTimeout: cfg.UpdateTimeout,
	}, slog.Default())

	status := dashboard.Handler(dashboard.Source{
		StartedAt:       time.Now(),
		ModelConfigured: a.gateway.Configured(),
		BotConfigured:   a.botAPI != nil,
		SessionStore:    cfg.SessionStore,
		InFlight:        dispatcher.InFlight,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRoutes(cfg, handlers.NewTelegramHandler(dispatcher, slog.Default()), status),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if url := cfg.WebhookURL(); url != "" && a.botAPI != nil {
		if err := registerWebhook(a.botAPI, url, cfg.WebhookSecret); err != nil {
			slog.Error("❌ Не удалось зарегистрировать вебхук", "err", err)
		}
	}

	go func() {
		slog.Info("🌐 Сервер запущен", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("❌ Ошибка сервера", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("⏳ Завершение работы...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("❌ Ошибка завершения сервера", "err", err)
	}
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		slog.Warn("⚠️ Не все обновления успели обработаться", "in_flight", dispatcher.InFlight())
	}

	slog.Info("✅ Завершение успешно.")
}
