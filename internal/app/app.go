package app

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/promo-storefront/db"
	"github.com/xenking/promo-storefront/internal/cart"
	"github.com/xenking/promo-storefront/internal/catalog"
	"github.com/xenking/promo-storefront/internal/handler"
	"github.com/xenking/promo-storefront/internal/notify"
	"github.com/xenking/promo-storefront/internal/quote"
	"github.com/xenking/promo-storefront/internal/storage/file"
	"github.com/xenking/promo-storefront/internal/storage/memory"
	"github.com/xenking/promo-storefront/internal/storage/postgres"
	"github.com/xenking/promo-storefront/internal/storage/redis"
	"github.com/xenking/promo-storefront/pkg/health"
	"github.com/xenking/promo-storefront/pkg/httpmiddleware"
)

const serviceName = "storefront"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage.Driver),
	)

	products, err := loadCatalog(cfg.CatalogFile)
	if err != nil {
		return errors.Wrap(err, "load catalog")
	}

	backend, err := openBackend(ctx, cfg.Storage)
	if err != nil {
		return errors.Wrap(err, "open storage")
	}
	defer backend.close()

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck(cfg.Storage.Driver, 5*time.Second, health.PingCheck(backend.pinger))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)

	// Cart notifications.
	notifications := notify.NewChannel(16)
	toast := notify.NewToast(notifications, cfg.ToastTTL)
	go func() {
		if err := toast.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			lg.Error("Toast stopped", zap.Error(err))
		}
	}()

	store, err := cart.Open(ctx, backend.slot, cart.WithNotifier(notifications))
	if err != nil {
		return errors.Wrap(err, "open cart")
	}

	publisher := catalog.NewPublisher(products, cfg.FilterDelay)
	publisher.OnPublish(func(res catalog.Result) {
		lg.Debug("Search published",
			zap.Uint64("seq", res.Seq),
			zap.Int("visible", len(res.Products)),
		)
	})

	var exporterOpts []quote.ExporterOption
	if backend.archive != nil {
		exporterOpts = append(exporterOpts, quote.WithArchive(backend.archive))
	}

	h, err := handler.New(handler.Config{
		Products:       products,
		Publisher:      publisher,
		Cart:           store,
		Exporter:       quote.NewExporter(products, exporterOpts...),
		Toast:          toast,
		Archive:        backend.archive,
		TracerProvider: m.TracerProvider(),
		MeterProvider:  m.MeterProvider(),
	})
	if err != nil {
		return errors.Wrap(err, "create handler")
	}

	instrument, err := httpmiddleware.Instrument(m.MeterProvider().Meter(serviceName))
	if err != nil {
		return errors.Wrap(err, "create http metrics")
	}
	api := h.Router(instrument, httpmiddleware.LogRequests())

	// Mux: health endpoints + API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", api)

	traced := otelhttp.NewHandler(mux, serviceName,
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(traced,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", httpmiddleware.HeaderRequestID},
				ExposeHeaders:    []string{"Content-Disposition", "X-Quote-ID", httpmiddleware.HeaderRequestID},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.RequestID(),
		),
	}
	healthSvc.SetReady(true)

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// loadCatalog reads path, or the embedded seed catalog when path is empty.
func loadCatalog(path string) (*catalog.Repository, error) {
	if path != "" {
		return catalog.LoadFile(path)
	}
	products, err := catalog.Decode(bytes.NewReader(db.SeedCatalog))
	if err != nil {
		return nil, errors.Wrap(err, "decode seed catalog")
	}
	return catalog.NewRepository(products)
}

// backend is the storage selected by StorageConfig.Driver.
type backend struct {
	slot    cart.Storage
	pinger  health.Pinger
	archive quote.ArchiveReader
	close   func()
}

func openBackend(ctx context.Context, cfg StorageConfig) (*backend, error) {
	lg := zctx.From(ctx)
	switch cfg.Driver {
	case DriverMemory:
		s := memory.New()
		return &backend{slot: s, pinger: s, close: func() {}}, nil
	case DriverFile:
		s, err := file.New(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return &backend{slot: s, pinger: s, close: func() {}}, nil
	case DriverRedis:
		s, err := redis.New(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, err
		}
		return &backend{slot: s, pinger: s, close: func() {
			if err := s.Close(); err != nil {
				lg.Warn("Close redis", zap.Error(err))
			}
		}}, nil
	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		kv := postgres.NewKVStore(pool)
		b := &backend{slot: kv, pinger: kv, close: pool.Close}
		if cfg.Archive {
			b.archive = postgres.NewQuoteRepository(pool)
		}
		return b, nil
	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
