package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/Dosada05/speech-ballots/config"
	"github.com/Dosada05/speech-ballots/db"
	"github.com/Dosada05/speech-ballots/handlers"
	"github.com/Dosada05/speech-ballots/live"
	"github.com/Dosada05/speech-ballots/middleware"
	"github.com/Dosada05/speech-ballots/repositories"
	api "github.com/Dosada05/speech-ballots/routes"
	"github.com/Dosada05/speech-ballots/services"
	"github.com/Dosada05/speech-ballots/storage"
)

const sessionPruneInterval = 10 * time.Minute // как часто чистим истёкшие сессии

// @title Speech Ballots API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey AdminSession
// @in header
// @name X-Session-Id
func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("application failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}

func run(logger *slog.Logger) error {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.Bool("smtp_enabled", cfg.SMTP.Enabled()),
		slog.Bool("r2_enabled", cfg.R2.Enabled()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second, db.DefaultPoolConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := db.Migrate(ctx, dbConn); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Инициализация репозиториев
	tx := repositories.NewTransactor(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	competitorRepo := repositories.NewPostgresCompetitorRepository(dbConn)
	eventTypeRepo := repositories.NewPostgresEventTypeRepository(dbConn)
	ballotRepo := repositories.NewPostgresBallotRepository(dbConn)

	seeded, err := db.SeedEventTypes(ctx, eventTypeRepo)
	if err != nil {
		return fmt.Errorf("failed to seed event types: %w", err)
	}
	logger.Info("event types seeded", slog.Int("count", seeded))

	// Почта: SMTP, если настроен, иначе письма только логируются
	var notifier services.Notifier = services.LogNotifier{Logger: logger}
	if cfg.SMTP.Enabled() {
		notifier = services.NewEmailService(cfg.SMTP)
	}
	mailer, err := services.NewMagicLinkMailer(cfg.FrontendURL)
	if err != nil {
		return fmt.Errorf("failed to prepare magic link template: %w", err)
	}

	// Инициализация загрузчика файлов (Cloudflare R2), опционально
	var uploader storage.FileUploader
	if cfg.R2.Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.BucketName,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	}

	// Инициализация WebSocket Hub
	hub := live.NewHub(logger)
	go hub.Run(ctx)

	// Инициализация сервисов
	sessionStore := services.NewMemorySessionStore()
	authService, err := services.NewAuthService(cfg.AdminPassword, cfg.SessionSecret, cfg.SessionTTL, sessionStore, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize auth service: %w", err)
	}
	linkSender := services.NewLinkSender(notifier, mailer, competitorRepo, nil, logger, 0)
	rankingService := services.NewRankingService(tournamentRepo, ballotRepo, uploader, logger)
	tournamentService := services.NewTournamentService(tx, tournamentRepo, competitorRepo, linkSender, rankingService, nil, logger)
	competitorService := services.NewCompetitorService(tx, competitorRepo, tournamentRepo, linkSender, logger)
	eventTypeService := services.NewEventTypeService(eventTypeRepo)
	ballotService := services.NewBallotService(tx, ballotRepo, tournamentRepo, live.NewHubPublisher(hub), nil, logger)
	magicLinkService := services.NewMagicLinkService(competitorRepo, tournamentRepo, ballotRepo, nil)
	logger.Info("services initialized")

	// Периодическая очистка истёкших сессий
	go func() {
		ticker := time.NewTicker(sessionPruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := sessionStore.Prune(time.Now()); n > 0 {
					logger.Info("expired admin sessions pruned", slog.Int("count", n))
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Health:     handlers.NewHealthHandler(dbConn),
		Public:     handlers.NewPublicHandler(tournamentService, competitorService, eventTypeService),
		Ballot:     handlers.NewBallotHandler(ballotService),
		MagicLink:  handlers.NewMagicLinkHandler(magicLinkService),
		Auth:       handlers.NewAuthHandler(authService),
		Tournament: handlers.NewTournamentHandler(tournamentService, competitorService, rankingService),
		Competitor: handlers.NewCompetitorHandler(competitorService),
		WebSocket:  handlers.NewWebSocketHandler(hub, tournamentService, cfg.FrontendURL, logger),
	}, api.Options{
		FrontendURL:  cfg.FrontendURL,
		Sessions:     authService,
		LoginLimiter: middleware.PerMinute(cfg.LoginRateLimit),
	})

	// Настройка и запуск HTTP-сервера. WriteTimeout покрывает рассылку писем при закрытии турнира.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		logger.Info("server shutdown complete")
	}
	return nil
}
