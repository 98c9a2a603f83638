package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/chat"
	"server/internal/gate"
	"server/internal/http/handlers"
	"server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/infra/geoip"
	"server/internal/ledger"
	"server/internal/middleware"
	"server/internal/pricing"
	"server/internal/providers/fortune"
	"server/internal/reading"
	"server/internal/sqlinline"
	"server/pkg/clock"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogFile)
	loc := cfg.Location()
	clk := clock.System()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()
	sqlRunner := infra.NewSQLRunner(pool, logger)

	guestDB, err := ledger.OpenGuestDB(cfg.GuestDBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open guest wallet db")
	}
	defer guestDB.Close()

	promoRepo := repo.NewPromoRepository(sqlRunner)
	pricingSvc := pricing.NewService(promoRepo, clk, logger)
	if err := pricingSvc.LoadFile(cfg.PricingFile); err != nil {
		logger.Warn().Err(err).Str("file", cfg.PricingFile).Msg("pricing file not loaded, using defaults")
	} else {
		go func() {
			if err := pricingSvc.Watch(ctx, cfg.PricingFile); err != nil {
				logger.Warn().Err(err).Msg("pricing watch stopped")
			}
		}()
	}

	quota := ledger.NewQuotaCache(func(ctx context.Context, accountID string) (int, error) {
		var n int
		err := sqlRunner.QueryRow(ctx, sqlinline.QPremiumSessionsToday, accountID, cfg.TimeZone).Scan(&n)
		return n, err
	}, cfg.QuotaRefresh, loc, clk)

	ledgers := ledger.NewSelector(sqlRunner, guestDB, loc, clk)
	g := gate.New(pricingSvc, quota, logger)
	readings := reading.NewStore(clk, cfg.ShuffleDuration, cfg.RevealStagger)

	keys := &fortune.TokenSource{SQL: sqlRunner, Provider: "gemini", Fallback: cfg.GeminiAPIKey}
	apiKey, err := keys.Resolve(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("gemini key lookup failed, relying on fallback replies")
	}
	generators := []fortune.Generator{
		fortune.NewGemini(fortune.GeminiOptions{
			APIKey:  apiKey,
			BaseURL: cfg.GeminiBaseURL,
			Model:   cfg.GeminiModel,
			Logger:  &logger,
		}),
	}
	if cfg.OpenAIAPIKey != "" {
		generators = append(generators, fortune.NewOpenAI(fortune.OpenAIOptions{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		}))
	}
	generators = append(generators, &fortune.Static{})
	gen := &fortune.Chain{
		Generators: generators,
		OnFallback: func(index int, err error) {
			logger.Warn().Err(err).Int("generator", index).Msg("fortune generator fell through")
		},
	}

	chatRepo := repo.NewChatSessionRepository(sqlRunner)
	chats := chat.NewManager(g, chatRepo, gen, clk, loc, cfg.ChatMaxTurns, logger)

	profiles := repo.NewProfileRepository(sqlRunner)
	// Upsert on every token resolution so a first-time authenticated
	// caller has a ledger row before any balance read or debit.
	premium := func(ctx context.Context, accountID, displayName string) (bool, error) {
		p, err := profiles.Ensure(ctx, accountID, displayName)
		if err != nil {
			return false, err
		}
		return p.Premium, nil
	}

	var countries middleware.CountryLookup
	if cfg.GeoIPDBPath != "" {
		resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
		if err != nil {
			logger.Warn().Err(err).Msg("geoip database unavailable")
		} else if resolver != nil {
			if closer, ok := resolver.(interface{ Close() error }); ok {
				defer closer.Close()
			}
			countries = resolver.CountryCode
		}
	}

	app := &handlers.App{
		Logger:   logger,
		SQL:      sqlRunner,
		Ledgers:  ledgers,
		Gate:     g,
		Quota:    quota,
		Readings: readings,
		Chat:     chats,
		Pricing:  pricingSvc,
		Clock:    clk,
		Loc:      loc,
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		JWTSecret:       cfg.JWTSecret,
		Premium:         premium,
		AllowedOrigins:  cfg.AllowedOrigins,
		DefaultLocale:   "th",
		CountryLookup:   countries,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)
	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
