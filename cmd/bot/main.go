package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	berean "github.com/berean-labs/berean"
	"github.com/berean-labs/berean/internal/config"
	"github.com/berean-labs/berean/internal/handler"
	"github.com/berean-labs/berean/internal/middleware"
	"github.com/berean-labs/berean/internal/repository"
	"github.com/berean-labs/berean/internal/service"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Run migrations
	migrationsFS, err := fs.Sub(berean.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize stores and services
	sessionStore := repository.NewPGSessionStore(pool)
	analyticsStore := repository.NewPGAnalyticsStore(pool)

	analytics := service.NewAnalytics(analyticsStore, config.FlushThreshold)
	if err := analytics.Init(ctx); err != nil {
		slog.Error("failed to init analytics, continuing without replay", "error", err)
	}
	go analytics.Run(ctx, config.FlushInterval)

	sessions := service.NewSessions(sessionStore)
	answers := service.NewAnswersClient(cfg.AnswersURL)
	bible := service.NewBibleClient(cfg.BibleURL)
	gateway := service.NewGatewayClient(cfg.GatewayURL)
	vector := service.NewVectorClient(cfg.VectorURL)
	explain := service.NewExplainClient(cfg.ExplainURL, config.ExplainTimeout)

	newOrchestrator := func() *service.Orchestrator {
		return service.NewOrchestrator(answers, analytics, config.AnswerTimeout, cfg.PrimaryProvider, cfg.FallbackProvider)
	}

	// Handler pointer for use in the default handler closure
	var h *handler.Handler

	// Create bot
	limiter := middleware.NewLimiter(config.RateLimitPerMinute)
	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Recover(),
			middleware.Logging(),
			middleware.RateLimit(limiter, analytics),
		),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if h == nil || update.Message == nil {
				return
			}
			if len(update.Message.Text) > 0 && update.Message.Text[0] == '/' {
				return
			}
			h.HandleText(ctx, b, update)
		}),
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	me, err := b.GetMe(ctx)
	if err != nil {
		slog.Error("failed to get bot info", "error", err)
		os.Exit(1)
	}

	// Initialize handler
	h = handler.New(handler.Deps{
		Bot:             b,
		Cfg:             cfg,
		Sessions:        sessions,
		Analytics:       analytics,
		Bible:           bible,
		Gateway:         gateway,
		Vector:          vector,
		Explain:         explain,
		NewOrchestrator: newOrchestrator,
	})
	h.Register()

	// Start bot
	slog.Info("starting bot", "username", me.Username, "id", me.ID)
	b.Start(ctx)

	// Graceful shutdown: keep unflushed analytics for the next run
	analytics.Shutdown(context.Background())
	slog.Info("bot stopped gracefully")
}
