package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/goodpsyche/hopebot/backend/internal/config"
	"github.com/goodpsyche/hopebot/backend/internal/handler"
	"github.com/goodpsyche/hopebot/backend/internal/logger"
	"github.com/goodpsyche/hopebot/backend/internal/middleware"
	"github.com/goodpsyche/hopebot/backend/internal/model/language"
	"github.com/goodpsyche/hopebot/backend/internal/service/activity"
	"github.com/goodpsyche/hopebot/backend/internal/service/ai"
	"github.com/goodpsyche/hopebot/backend/internal/service/chat"
	"github.com/goodpsyche/hopebot/backend/internal/service/companion"
	"github.com/goodpsyche/hopebot/backend/internal/service/mood"
	"github.com/goodpsyche/hopebot/backend/internal/store/factory"
)

const serviceName = "hopebot-backend"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		boot := logger.New(serviceName, "info")
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(serviceName, cfg.Log.Level)
	zlog.Logger = log
	if envErr != nil {
		log.Debug().Err(envErr).Msg("no .env file loaded, using process environment only")
	}

	st, err := factory.Open(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close store")
		}
	}()
	log.Info().Str("driver", cfg.Store.Driver).Msg("store ready")

	loc, err := cfg.Activity.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid activity timezone")
	}

	languages := language.NewMemoryStore(language.Seed())
	chatSvc := chat.NewService(st)
	activitySvc := activity.NewService(st, activity.Config{
		WindowDays: cfg.Activity.WindowDays,
		Location:   loc,
	})

	opts := companion.Options{
		Conversations: chatSvc,
		Logger:        log,
		CallTimeout:   cfg.AI.CallTimeout,
		HistoryLimit:  cfg.AI.HistoryLimit,
	}
	wireModels(ctx, log, cfg.AI, &opts)
	orchestrator := companion.New(opts)

	router := handler.NewRouter(handler.Dependencies{
		Responder:      orchestrator,
		History:        chatSvc,
		Activity:       activitySvc,
		Languages:      languages,
		Store:          st,
		RateLimiter:    middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         log,
	})

	startServer(ctx, log, cfg.Server, router)
}

// wireModels fills the model-backed collaborators. Without a model every message gets the fallback reply.
func wireModels(ctx context.Context, log zerolog.Logger, aiCfg config.AIConfig, opts *companion.Options) {
	if !aiCfg.Enabled() {
		log.Warn().Str("provider", aiCfg.Provider).Msg("AI credentials not configured, replies will use the fallback message")
		return
	}

	chatModel, err := aiCfg.NewChatModel(ctx)
	if err != nil {
		log.Error().Err(err).Str("provider", aiCfg.Provider).Msg("failed to create chat model, continuing without AI")
		return
	}

	aiSvc, err := ai.NewService(ctx, chatModel, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize AI service, continuing without AI")
		return
	}
	opts.Replies = aiSvc
	opts.Recommendations = aiSvc

	moodSvc, err := mood.NewService(ctx, chatModel, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize mood classifier, recommendations disabled")
	} else {
		opts.Moods = moodSvc
	}

	log.Info().Str("provider", aiCfg.Provider).Str("model", aiCfg.Model).Msg("AI services initialized")
}

func startServer(ctx context.Context, log zerolog.Logger, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: serverCfg.ReadHeaderTimeout,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", srv.Addr).Msg("HopeBot backend listening")
	if err := runServer(ctx, srv, serverCfg.ShutdownTimeout); err != nil {
		log.Error().Err(err).Msg("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
