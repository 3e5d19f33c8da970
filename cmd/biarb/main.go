package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"biarb/internal/application/port"
	appsvc "biarb/internal/application/service"
	"biarb/internal/application/usecase/bot"
	"biarb/internal/domain/service"
	"biarb/internal/infrastructure/config"
	"biarb/internal/infrastructure/exchange/live"
	"biarb/internal/infrastructure/exchange/sim"
	"biarb/internal/infrastructure/logger"
	"biarb/internal/infrastructure/storage/composite"
	"biarb/internal/infrastructure/storage/noop"
	"biarb/internal/infrastructure/storage/postgres"
	redisrepo "biarb/internal/infrastructure/storage/redis"
	"biarb/internal/infrastructure/storage/sqlite"
	"biarb/internal/infrastructure/svc"
	"biarb/internal/interfaces/console"
)

func main() {
	logger.Setup()

	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	venueA, err := buildVenue(ctx, cfg.Venues.A, cfg.Symbols.List, true)
	if err != nil {
		log.Fatal().Err(fmt.Errorf("%w: %v", svc.ErrNoVenues, err)).Str("venue", cfg.Venues.A.Name).Msg("venue setup failed")
	}
	venueB, err := buildVenue(ctx, cfg.Venues.B, cfg.Symbols.List, false)
	if err != nil {
		log.Fatal().Err(fmt.Errorf("%w: %v", svc.ErrNoVenues, err)).Str("venue", cfg.Venues.B.Name).Msg("venue setup failed")
	}

	journal, err := buildJournal(cfg)
	if err != nil {
		log.Fatal().Err(fmt.Errorf("%w: %v", svc.ErrStorageInitFailed, err)).Str("backend", cfg.Storage.Backend).Msg("storage setup failed")
	}
	defer func() {
		if err := journal.Close(); err != nil {
			log.Error().Err(err).Msg("journal close failed")
		}
	}()

	eval := service.NewEvaluator(
		cfg.Venues.A.Name, cfg.Venues.B.Name,
		cfg.Venues.A.Fee, cfg.Venues.B.Fee,
		cfg.Trading.MinProfitThreshold,
	)
	selector := service.NewSelector(eval, cfg.Symbols.List)

	engine := appsvc.NewTradingEngine(appsvc.EngineConfig{
		VenueA:           cfg.Venues.A.Name,
		VenueB:           cfg.Venues.B.Name,
		InitialCapital:   cfg.Simulation.InitialCapital,
		PositionFraction: cfg.Simulation.PositionSizeFraction,
	}, journal)

	loop := bot.NewService(bot.ServiceDeps{
		VenueA:            venueA,
		VenueB:            venueB,
		Selector:          selector,
		Engine:            engine,
		Journal:           journal,
		Sink:              console.NewSink(),
		Policy:            bot.ClosePolicy{ConvergenceRatio: cfg.Trading.CloseConvergenceRatio},
		CycleInterval:     time.Duration(cfg.App.CycleIntervalMs) * time.Millisecond,
		BackoffDelay:      time.Duration(cfg.App.BackoffDelayMs) * time.Millisecond,
		RenderEvery:       cfg.App.RenderEvery,
		RefreshPairsEvery: cfg.App.RefreshPairsEvery,
	})

	log.Info().
		Str("config", *configPath).
		Str("venue_a", cfg.Venues.A.Name).
		Str("venue_b", cfg.Venues.B.Name).
		Int("symbols", len(cfg.Symbols.List)).
		Float64("min_profit_threshold", cfg.Trading.MinProfitThreshold).
		Str("storage", cfg.Storage.Backend).
		Msg("biarb started")

	if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("trading loop exited")
	}
}

func buildVenue(ctx context.Context, vc config.VenueConfig, symbols []string, primary bool) (port.Venue, error) {
	switch vc.Mode {
	case "live":
		v := live.New(vc.Name, vc.Fee, vc.WsURL, symbols)
		v.Start(ctx)
		return v, nil
	case "sim":
		prices := sim.PrimaryBasePrices()
		opts := []sim.Option{}
		if !primary {
			prices = sim.SecondaryBasePrices()
			// the secondary book occasionally lists a new instrument so the
			// pair refresh path gets exercised
			opts = append(opts, sim.WithListing("SOL/USDT", 95.0, 10))
		}
		return sim.New(vc.Name, vc.Fee, prices, sim.DefaultVolatilities(), opts...), nil
	default:
		return nil, fmt.Errorf("venue %s has unknown mode %q", vc.Name, vc.Mode)
	}
}

func buildJournal(cfg *config.Config) (port.Journal, error) {
	var journals []port.Journal
	for _, backend := range config.SplitBackends(cfg.Storage.Backend) {
		switch backend {
		case "none":
		case "sqlite":
			repo, err := sqlite.New(cfg.Storage.SqlitePath)
			if err != nil {
				return nil, err
			}
			journals = append(journals, repo)
		case "postgres":
			repo, err := postgres.New(cfg.Storage.PostgresDSN)
			if err != nil {
				return nil, err
			}
			journals = append(journals, repo)
		case "redis":
			rdb := goredis.NewClient(&goredis.Options{Addr: cfg.Storage.RedisAddr})
			journals = append(journals, redisrepo.New(rdb, cfg.Storage.RedisPrefix, 24*time.Hour))
		default:
			return nil, fmt.Errorf("unknown storage backend %q", backend)
		}
	}

	switch len(journals) {
	case 0:
		return noop.New(), nil
	case 1:
		return journals[0], nil
	default:
		return composite.New(journals...), nil
	}
}
