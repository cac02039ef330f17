package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/dispatch-agent/internal/agent"
	"github.com/example/dispatch-agent/internal/alert"
	"github.com/example/dispatch-agent/internal/api"
	"github.com/example/dispatch-agent/internal/bridge"
	"github.com/example/dispatch-agent/internal/config"
	"github.com/example/dispatch-agent/internal/geo"
	"github.com/example/dispatch-agent/internal/httpapi"
	"github.com/example/dispatch-agent/internal/ingest"
	"github.com/example/dispatch-agent/internal/lifecycle"
	"github.com/example/dispatch-agent/internal/location"
	"github.com/example/dispatch-agent/internal/logging"
	"github.com/example/dispatch-agent/internal/payments"
	"github.com/example/dispatch-agent/internal/storage"
)

func main() {
	cfg, err := config.LoadAgentConfig()
	logger := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	authority := api.NewClient(cfg.APIBaseURL)

	var snapper geo.Snapper = geo.IdentitySnapper{}
	var snapCache *geo.SnapCache
	if cfg.OSRMEndpoint != "" {
		if cfg.RedisAddr != "" {
			snapCache = geo.NewSnapCache(cfg.RedisAddr, cfg.RedisPassword, cfg.SnapCacheTTL)
			defer snapCache.Close()
		}
		snapper = geo.NewOSRMSnapper(cfg.OSRMEndpoint, snapCache)
	}

	var journal storage.TripJournal
	if cfg.PGDSN != "" {
		pg, err := storage.NewPostgresJournal(cfg.PGDSN)
		if err != nil {
			logger.Error("postgres journal unavailable", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		journal = pg
	} else {
		journal = storage.NewMemoryJournal()
	}

	var locationJournal location.Journal
	if len(cfg.KafkaBrokers) > 0 {
		kj := ingest.NewKafkaJournal(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kj.Close()
		locationJournal = kj
	}

	var fares lifecycle.FareHolds
	if os.Getenv("STRIPE_API_KEY") != "" {
		fares = payments.NewStripeFares()
	}

	store := lifecycle.NewStore(
		lifecycle.StoreConfig{UserID: cfg.UserID, FlagTTL: cfg.FlagTTL},
		authority,
		journal,
		fares,
		alert.NewLogAlerter(logger.With("component", "alert")),
		logger.With("component", "store"),
	)

	interp := location.NewInterpolator(cfg.AnimationSpan)
	sampler := location.NewSampler(
		location.SamplerConfig{
			UserID:         cfg.UserID,
			GateMeters:     cfg.GateMeters,
			AcquireTimeout: cfg.AcquireTimeout,
			Interval:       cfg.SampleInterval,
		},
		location.NewHTTPProvider(cfg.GeoProviderURL),
		snapper,
		authority,
		locationJournal,
		interp,
		logger.With("component", "sampler"),
	)
	timers := lifecycle.NewTimerEngine(store)
	br := bridge.New(cfg.PushURL, store, sampler, logger.With("component", "bridge"))

	session := agent.Start(ctx, store, sampler, timers, br)
	defer session.Close()

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewServer(store, interp, sampler, logger.With("component", "http")),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	go func() {
		logger.Info("dispatch-agent listening", "addr", cfg.HTTPAddr, "user_id", cfg.UserID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
}
