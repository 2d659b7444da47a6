package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/storefront/internal/analytics"
	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/cms"
	"github.com/fjod/storefront/internal/config"
	h "github.com/fjod/storefront/internal/http"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/orders"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/shopper"
	"github.com/fjod/storefront/internal/storage"
	"github.com/fjod/storefront/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/sync/errgroup"
)

const serviceName = "storefront"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Service:     serviceName,
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("storefront stopped")
	}
	log.Info().Msg("server exited")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Incoming trace context is forwarded on CMS calls.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	store, closeStore, err := openStorage(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	defer closeStore()

	sink, closeSink := openAnalytics(cfg.Analytics, log)
	defer closeSink()
	emitter := analytics.NewAsync(sink, cfg.Analytics.Buffer, log.With().Str("component", "analytics").Logger(), m)

	cmsClient := cms.New(cfg.CMSURL, cfg.CMSTimeout,
		cms.WithLogger(log.With().Str("component", "cms").Logger()),
		cms.WithMetrics(m),
	)

	products := catalog.NewService(cmsClient, cmsClient.BaseURL(), log.With().Str("component", "catalog").Logger())
	history := orders.NewHistory(cmsClient, log.With().Str("component", "orders").Logger())

	registry := shopper.NewRegistry(shopper.Deps{
		Storage:  store,
		Auth:     cmsClient,
		Payments: openPayments(cfg.Payment, log),
		Recorder: orders.NewRecorder(cmsClient),
		Emitter:  emitter,
		Metrics:  m,
		Currency: cfg.Currency,
		Log:      log,

		MaxShoppers:    cfg.MaxShoppers,
		RestoreTimeout: cfg.RequestTimeout,
	})

	router := h.NewRouter(h.RouterConfig{
		Log:            log,
		RequestTimeout: cfg.RequestTimeout,
		Gatherer:       reg,
	}, h.Handlers{
		Products: h.NewProductHandler(products, cfg.RequestTimeout),
		Cart:     h.NewCartHandler(registry, products, cfg.RequestTimeout),
		Auth:     h.NewAuthHandler(registry, cfg.RequestTimeout),
		Orders:   h.NewOrdersHandler(registry, history, cfg.RequestTimeout),
		Checkout: h.NewCheckoutHandler(registry, cfg.RequestTimeout),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// The emitter outlives the signal so events raised while draining
	// requests are still delivered. Close stops it.
	g.Go(func() error {
		return emitter.Run(context.WithoutCancel(gctx))
	})

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("cms", cmsClient.BaseURL()).Str("storage", cfg.Storage.Driver).Msg("storefront starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		emitter.Close()
		if err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func openStorage(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger) (storage.Store, func(), error) {
	switch cfg.Driver {
	case config.DriverRedis:
		client, err := storage.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewRedis(client, cfg.RedisTTL), func() {
			if err := client.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close redis client")
			}
		}, nil

	case config.DriverSQLite, config.DriverPostgres:
		dialect, dsn := storage.DialectSQLite, cfg.SQLitePath
		if cfg.Driver == config.DriverPostgres {
			dialect, dsn = storage.DialectPostgres, cfg.PostgresDSN
		}
		db, err := storage.OpenSQL(ctx, dialect, dsn)
		if err != nil {
			return nil, nil, err
		}
		if err := db.RunMigrations(); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return db, func() {
			if err := db.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close database")
			}
		}, nil

	case config.DriverMongo:
		database, err := storage.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		store := storage.NewMongo(database)
		return store, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Close(closeCtx); err != nil {
				log.Warn().Err(err).Msg("failed to disconnect from MongoDB")
			}
		}, nil

	default:
		return storage.NewMemory(), func() {}, nil
	}
}

func openAnalytics(cfg config.AnalyticsConfig, log zerolog.Logger) (analytics.Emitter, func()) {
	switch cfg.Sink {
	case config.SinkKafka:
		sink := analytics.NewKafkaSink(cfg.KafkaTopic, cfg.KafkaBrokers...)
		return sink, func() {
			if err := sink.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close kafka writer")
			}
		}
	case config.SinkNone:
		return analytics.Nop{}, func() {}
	default:
		return analytics.NewLogSink(log.With().Str("component", "analytics").Logger()), func() {}
	}
}

func openPayments(cfg config.PaymentConfig, log zerolog.Logger) payment.Capturer {
	if cfg.Mode == config.PaymentHTTP {
		log.Info().Str("url", cfg.URL).Msg("capturing payments over http")
		return payment.NewHTTPCapturer(cfg.URL, cfg.Token, 10*time.Second)
	}
	log.Warn().Float64("success_rate", cfg.SuccessRate).Msg("using simulated payment capture")
	return payment.NewSimulator(cfg.SuccessRate)
}
