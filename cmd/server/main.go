package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"signal-backend/internal/config"
	httpdelivery "signal-backend/internal/delivery/http"
	"signal-backend/internal/delivery/websocket"
	"signal-backend/internal/domain"
	"signal-backend/internal/extraction"
	"signal-backend/internal/infrastructure/auth"
	"signal-backend/internal/infrastructure/db"
	"signal-backend/internal/infrastructure/fcm"
	"signal-backend/internal/infrastructure/logger"
	"signal-backend/internal/infrastructure/mailer"
	"signal-backend/internal/infrastructure/marketdata"
	"signal-backend/internal/infrastructure/metrics"
	"signal-backend/internal/repository"
	"signal-backend/internal/usecase"
)

type repositories struct {
	accounts  domain.AccountRepository
	channels  domain.ChannelRepository
	templates domain.TemplateRepository
	signals   domain.SignalRepository
	tokens    domain.TokenRepository
	close     func()
}

func openRepositories(ctx context.Context, databaseURL string, log zerolog.Logger) (*repositories, error) {
	if databaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, using in-memory storage")
		return &repositories{
			accounts:  repository.NewInMemoryAccountRepository(),
			channels:  repository.NewInMemoryChannelRepository(),
			templates: repository.NewInMemoryTemplateRepository(),
			signals:   repository.NewInMemorySignalRepository(),
			tokens:    repository.NewInMemoryTokenRepository(),
			close:     func() {},
		}, nil
	}

	pool, err := db.NewPool(ctx, databaseURL, db.PoolConfigFromEnv())
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info().Msg("connected to postgres")
	return &repositories{
		accounts:  repository.NewPostgresAccountRepository(pool),
		channels:  repository.NewPostgresChannelRepository(pool),
		templates: repository.NewPostgresTemplateRepository(pool),
		signals:   repository.NewPostgresSignalRepository(pool),
		tokens:    repository.NewPostgresTokenRepository(pool),
		close:     pool.Close,
	}, nil
}

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	flag.Parse()

	bootLog := logger.New("info", "json")
	if err := config.LoadDotEnv(); err != nil {
		bootLog.Fatal().Err(err).Msg("failed to load .env")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		bootLog.Fatal().Err(err).Msg("invalid config")
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format).With().Str("env", cfg.Env).Logger()
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg.Database.URL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer repos.close()

	provider, err := marketdata.New(cfg.MarketData)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure market data")
	}
	push, err := fcm.NewClient(ctx, cfg.Notifications.FirebaseCredentialsPath, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize FCM, push notifications disabled")
		push = nil
	}

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.JWTExpirationHours)*time.Hour)
	engine := extraction.New(extraction.MultiSink{logger.NewSink(log), metrics.Sink{}})
	hub := websocket.NewHub(log)

	var sender usecase.PushSender
	if push != nil {
		sender = push
	}
	notifications := usecase.NewNotificationService(repos.tokens, sender,
		time.Duration(cfg.Notifications.CooldownSeconds)*time.Second, log)

	router := httpdelivery.NewRouter(httpdelivery.Services{
		Accounts:      usecase.NewAccountService(repos.accounts, repos.channels, tokens, mailer.NewLogMailer(cfg.Server.FrontendURL, log), log),
		Channels:      usecase.NewChannelService(repos.channels, repos.accounts, log),
		Templates:     usecase.NewTemplateService(repos.templates, repos.channels, engine, log),
		Signals:       usecase.NewSignalService(repos.signals, repos.channels, repos.templates, engine, hub, notifications, log),
		MarketData:    usecase.NewMarketDataService(provider, log),
		Notifications: notifications,
		Hub:           hub,
		Tokens:        tokens,
		FrontendURL:   cfg.Server.FrontendURL,
		Log:           log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("market_data", provider.Name()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
