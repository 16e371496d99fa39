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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mkassab/orderlink/internal/application/checkout"
	"github.com/mkassab/orderlink/internal/application/session"
	"github.com/mkassab/orderlink/internal/config"
	"github.com/mkassab/orderlink/internal/domain/catalog"
	"github.com/mkassab/orderlink/internal/infrastructure/counter"
	"github.com/mkassab/orderlink/internal/infrastructure/memory"
	"github.com/mkassab/orderlink/internal/infrastructure/notify"
	obsinfra "github.com/mkassab/orderlink/internal/infrastructure/observability"
	"github.com/mkassab/orderlink/internal/infrastructure/observability/oteltrace"
	"github.com/mkassab/orderlink/internal/infrastructure/observability/prometrics"
	"github.com/mkassab/orderlink/internal/infrastructure/observability/zaplogger"
	"github.com/mkassab/orderlink/internal/infrastructure/outbox"
	"github.com/mkassab/orderlink/internal/infrastructure/redisstore"
	"github.com/mkassab/orderlink/internal/infrastructure/whatsapp"
	"github.com/mkassab/orderlink/internal/observability"
	httppresentation "github.com/mkassab/orderlink/internal/presentation/http"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := zaplogger.New(
		observability.F("service", cfg.ServiceName),
		observability.F("env", cfg.Env),
	)

	registry := prometrics.New("", "")
	counters := map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests: registry.Counter(
			string(observability.MUsecaseRequests),
			"Total number of use case invocations.",
			"use_case", "outcome",
		),
		observability.MHTTPRequests: registry.Counter(
			string(observability.MHTTPRequests),
			"Total number of HTTP requests.",
			"method", "route", "status",
		),
		observability.MExternalRequests: registry.Counter(
			string(observability.MExternalRequests),
			"Total number of calls to external collaborators.",
			"peer", "endpoint", "outcome",
		),
		observability.MOrderIDFallback: registry.Counter(
			string(observability.MOrderIDFallback),
			"Orders whose identifier came from the local fallback.",
		),
	}
	histograms := map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration: registry.Histogram(
			string(observability.MUsecaseDuration),
			"Duration of use case execution in seconds.",
			nil,
			"use_case",
		),
		observability.MHTTPRequestDuration: registry.Histogram(
			string(observability.MHTTPRequestDuration),
			"Duration of HTTP request handling in seconds.",
			nil,
			"method", "route", "status",
		),
		observability.MExternalRequestDuration: registry.Histogram(
			string(observability.MExternalRequestDuration),
			"Duration of external collaborator calls in seconds.",
			nil,
			"peer", "endpoint",
		),
	}
	tel := obsinfra.New(oteltrace.New(cfg.ServiceName), logger, counters, histograms)

	var counterStore counter.Store = memory.NewCounterStore()
	if cfg.CounterBackend == config.CounterBackendRedis {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		counterStore = redisstore.NewCounterStore(client)
	}
	allocator := counter.NewAllocator(counterStore, cfg.CounterKey, tel)

	var catalogSrc catalog.Source
	if cfg.CatalogSeed != "" {
		src, err := memory.LoadCatalogSource(cfg.CatalogSeed)
		if err != nil {
			logger.Error("catalog_seed_failed", observability.F("error", err.Error()))
			os.Exit(1)
		}
		catalogSrc = src
	} else {
		logger.Warn("catalog_seed_missing", observability.F("hint", "set CATALOG_SEED to serve items"))
		catalogSrc = memory.NewCatalogSource()
	}

	settingsSrc := memory.NewSettingsSource(cfg.AccessCode, cfg.ContactDestination)
	orderStore := memory.NewOrderStore()
	sessions := session.NewManager(settingsSrc, logger)

	bus := outbox.NewBus(logger)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	dispatcher := whatsapp.NewLogDispatcher(logger)
	worker := notify.New(bus, dispatcher, tel)
	worker.Start()

	checkoutUC := checkout.NewUseCase(sessions, orderStore, allocator, whatsapp.NewComposer(), bus, tel)

	handler := httppresentation.NewHandler(sessions, catalogSrc, checkoutUC, logger, tel)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("http_server_start",
			observability.F("addr", server.Addr),
			observability.F("counter_backend", cfg.CounterBackend),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error",
				observability.F("error", err.Error()),
			)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_server_shutdown_error",
			observability.F("error", err.Error()),
		)
	} else {
		logger.Info("http_server_stopped")
	}
}
