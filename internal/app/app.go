package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/checkout"
	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/notify"
	"github.com/vladislavdragonenkov/storefront/internal/pricing"
	httpapi "github.com/vladislavdragonenkov/storefront/internal/service/http"
	"github.com/vladislavdragonenkov/storefront/internal/service/outbox"
	"github.com/vladislavdragonenkov/storefront/internal/stock"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

// Run собирает витрину из конфигурации и обслуживает запросы до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	feed := notify.NewFeed(notify.WithLogger(logger.WithField("component", "notification-feed")))
	checkoutMetrics := metrics.NewCheckoutMetrics()

	carts := cart.NewService(deps.CartRepo, deps.Catalog, cart.WithTTL(cfg.CartTTL))
	validator := cart.NewValidator(deps.Ledger)
	engine := pricing.NewEngine(pricing.Config{
		TaxRate:               cfg.TaxRate,
		DeliveryFee:           cfg.DeliveryFee,
		FreeDeliveryThreshold: cfg.FreeDeliveryThreshold,
	})
	committer := checkout.NewCommitter(carts, validator, engine, deps.Ledger, deps.Sales,
		checkout.WithFeed(feed),
		checkout.WithOutbox(deps.OutboxRepo),
		checkout.WithMetrics(checkoutMetrics),
		checkout.WithLoyaltyRate(cfg.LoyaltyRate),
		checkout.WithLowStockThreshold(cfg.LowStockThreshold),
	)

	// Kafka producer опционален: без брокеров outbox копится, воркер не стартует.
	kafkaProducer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)
	defer closeKafka(kafkaProducer, logger)

	if kafkaProducer != nil {
		publisher := kafka.NewOutboxPublisher(kafkaProducer)
		outboxWorker := outbox.NewWorker(deps.OutboxRepo, publisher,
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
		)
		go outboxWorker.Run(ctx)
	} else {
		logger.Info("kafka not configured, outbox worker disabled")
	}

	sweeper := stock.NewSweepWorker(deps.Ledger, stock.WithSweepInterval(cfg.SweepInterval))
	go sweeper.Run(ctx)

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	for name, checker := range deps.HealthCheckers {
		healthHandler.RegisterChecker(name, checker)
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	server := httpapi.NewServer(carts, validator, engine, committer,
		deps.Ledger, deps.Catalog, deps.Sales, feed,
		httpapi.WithLogger(logger.WithField("component", "http-server")),
	)
	apiSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus
// вместе с health-ручками.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
