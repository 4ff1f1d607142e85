package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/perkcart/perkcart/internal/api"
	"github.com/perkcart/perkcart/internal/domain/cart"
	"github.com/perkcart/perkcart/internal/domain/coupon"
	"github.com/perkcart/perkcart/internal/domain/order"
	"github.com/perkcart/perkcart/internal/memstore"
	"github.com/perkcart/perkcart/internal/notify"
	"github.com/perkcart/perkcart/pkg/health"
	"github.com/perkcart/perkcart/pkg/httpmiddleware"
	"github.com/perkcart/perkcart/pkg/kmutex"
)

// Run creates all dependencies, starts the HTTP server and the notification
// dispatcher, and handles graceful shutdown. It is the single wiring point
// for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.Int("nth_order", cfg.NthOrder),
	)

	// In-memory stores.
	products := memstore.NewProductStore()
	customers := memstore.NewCustomerStore()
	carts := memstore.NewCartStore()
	orders := memstore.NewOrderStore()
	ledger := memstore.NewLedgerStore()

	if cfg.SeedFile != "" {
		if err := loadSeed(ctx, cfg.SeedFile, products, customers); err != nil {
			return errors.Wrap(err, "load seed")
		}
		lg.Info("Seed loaded", zap.String("file", cfg.SeedFile))
	}

	// Domain services. Cart and order operations for one customer share a
	// critical section via the keyed lock.
	locks := kmutex.New()
	dispatcher := notify.NewDispatcher(
		notify.NewEmailSender(lg.Named("notify")),
		lg.Named("notify"),
		cfg.Notify.QueueSize,
		cfg.Notify.Timeout,
	)
	issuer := coupon.NewIssuer(cfg.NthOrder, customers, dispatcher, locks)
	cartSvc := cart.NewService(customers, products, carts, locks)
	orderSvc := order.NewService(customers, carts, orders, ledger, issuer, locks)

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Mux: health endpoints + API routes on one server.
	h := api.NewHandler(products, customers, cartSvc, orderSvc, issuer)
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", h.Routes())

	handler := httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins: cfg.CORS.Origins,
			AllowHeaders: []string{"Content-Type"},
			MaxAge:       86400,
		}),
		httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.LogRequests(),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: otelhttp.NewHandler(handler, "perkcart-api",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(gctx)
	})
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		// Graceful shutdown: wait for cancellation, drain, then stop.
		<-gctx.Done()
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
		return nil
	})
	return g.Wait()
}
