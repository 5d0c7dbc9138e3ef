// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/clubgate/clubgate/adapters/clock"
	"github.com/clubgate/clubgate/adapters/http/admin"
	"github.com/clubgate/clubgate/adapters/idgen"
	"github.com/clubgate/clubgate/adapters/memory"
	"github.com/clubgate/clubgate/adapters/metrics"
	"github.com/clubgate/clubgate/adapters/random"
	"github.com/clubgate/clubgate/adapters/sqlite"
	"github.com/clubgate/clubgate/app"
	"github.com/clubgate/clubgate/config"
	"github.com/clubgate/clubgate/domain/plan"
	"github.com/clubgate/clubgate/ports"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	DB         *sqlite.DB
	HTTPServer *http.Server
	Metrics    *metrics.Collector
	Holder     *config.Holder

	Membership *app.MembershipService
	Billing    *app.BillingService
	Lifecycle  *app.LifecycleService
	Renewal    *app.RenewalService

	sweepStop chan struct{}
}

// stores bundles one backend's implementations of the data ports.
type stores struct {
	plans    ports.PlanStore
	members  ports.MemberStore
	subs     ports.SubscriptionStore
	txns     ports.TransactionStore
	invoices ports.InvoiceStore
	checkins ports.CheckInStore
}

// New creates and initializes the application from a loaded config.
func New(cfg *config.Config) (*App, error) {
	return build(cfg, nil)
}

// NewWithHotReload loads the config from path and watches it for
// changes. Billing parameters and the log level apply without restart.
func NewWithHotReload(path string) (*App, error) {
	bootLogger := setupLogger(config.LoggingConfig{Level: "info", Format: "console"})
	holder, err := config.NewHolder(path, bootLogger)
	if err != nil {
		return nil, err
	}

	a, err := build(holder.Get(), holder)
	if err != nil {
		holder.Stop()
		return nil, err
	}

	if err := holder.WatchFile(); err != nil {
		a.Logger.Warn().Err(err).Msg("config file watch unavailable")
	}
	holder.WatchSignals()
	return a, nil
}

func build(cfg *config.Config, holder *config.Holder) (*App, error) {
	logger := setupLogger(cfg.Logging)
	logger.Info().Msg("initializing clubgate")

	a := &App{
		Logger:    logger,
		Holder:    holder,
		Metrics:   metrics.New(),
		sweepStop: make(chan struct{}),
	}

	st, err := a.buildStores(cfg)
	if err != nil {
		return nil, err
	}

	realClock := clock.Real{}
	ids := idgen.UUID{}
	rnd := random.Real{}

	params := func() app.BillingParams {
		current := cfg
		if holder != nil {
			current = holder.Get()
		}
		return app.BillingParams{
			Currency:        current.Billing.Currency,
			TaxRatePercent:  current.Billing.TaxRateDecimal(),
			ReferenceScheme: current.Billing.ReferenceScheme,
			DueDays:         current.Billing.DueDays,
		}
	}

	a.Membership = app.NewMembershipService(st.plans, st.members, st.subs, st.checkins, realClock, ids, logger)
	a.Billing = app.NewBillingService(st.subs, st.plans, st.invoices, st.checkins, realClock, ids, rnd,
		params, a.Metrics, logger)
	a.Lifecycle = app.NewLifecycleService(st.subs, st.plans, st.members, st.txns, st.invoices,
		realClock, ids, a.Metrics, logger)
	a.Renewal = app.NewRenewalService(st.subs, st.plans, a.Billing, a.Lifecycle, realClock,
		a.Metrics, logger)

	if err := a.seedPlans(cfg); err != nil {
		return nil, err
	}

	if holder != nil {
		holder.OnChange(func(*config.Config) { a.Metrics.ConfigReloads.Inc() })
	}

	a.HTTPServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      a.router(cfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return a, nil
}

func (a *App) buildStores(cfg *config.Config) (stores, error) {
	if cfg.Database.Driver == "memory" {
		a.Logger.Warn().Msg("using in-memory stores, data will not survive restarts")
		return stores{
			plans:    memory.NewPlanStore(),
			members:  memory.NewMemberStore(),
			subs:     memory.NewSubscriptionStore(),
			txns:     memory.NewTransactionStore(),
			invoices: memory.NewInvoiceStore(),
			checkins: memory.NewCheckInStore(),
		}, nil
	}

	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return stores{}, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return stores{}, fmt.Errorf("migrate database: %w", err)
	}
	a.DB = db
	a.Logger.Info().Str("dsn", cfg.Database.DSN).Msg("database ready")

	return stores{
		plans:    sqlite.NewPlanStore(db),
		members:  sqlite.NewMemberStore(db),
		subs:     sqlite.NewSubscriptionStore(db),
		txns:     sqlite.NewTransactionStore(db),
		invoices: sqlite.NewInvoiceStore(db),
		checkins: sqlite.NewCheckInStore(db),
	}, nil
}

func (a *App) seedPlans(cfg *config.Config) error {
	if len(cfg.Plans) == 0 {
		return nil
	}

	seeds := make([]plan.Plan, 0, len(cfg.Plans))
	for _, pc := range cfg.Plans {
		p, err := app.PlanFromSeed(pc.ID, pc.Name, pc.Price, pc.Duration, pc.DurationUnit, pc.IsEnabled())
		if err != nil {
			return err
		}
		seeds = append(seeds, p)
	}
	if err := a.Membership.SeedPlans(context.Background(), seeds); err != nil {
		return fmt.Errorf("seed plans: %w", err)
	}
	a.Logger.Info().Int("count", len(seeds)).Msg("plans seeded")
	return nil
}

func (a *App) router(cfg *config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(a.instrument)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.Metrics.Enabled {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, promhttp.Handler())
		a.Logger.Info().Str("path", path).Msg("prometheus metrics enabled")
	}

	adminHandler := admin.NewHandler(admin.Deps{
		Membership: a.Membership,
		Billing:    a.Billing,
		Lifecycle:  a.Lifecycle,
		Renewal:    a.Renewal,
		Logger:     a.Logger,
	})
	r.Mount("/admin", adminHandler.Router())

	return r
}

// instrument records request counts and latency.
func (a *App) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unmatched"
		}
		a.Metrics.RequestsTotal.WithLabelValues(
			r.Method, routePattern, fmt.Sprintf("%d", ww.Status())).Inc()
		a.Metrics.RequestDuration.WithLabelValues(
			r.Method, routePattern).Observe(time.Since(start).Seconds())
	})
}

// Run starts the HTTP server and the background sweeps, blocking until
// SIGINT/SIGTERM, then shuts down gracefully.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", a.HTTPServer.Addr).Msg("http server listening")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	go a.sweepLoop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// sweepLoop periodically expires lapsed subscriptions and flags overdue
// invoices.
func (a *App) sweepLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if n, err := a.Lifecycle.ExpireDue(ctx); err != nil {
				a.Logger.Error().Err(err).Msg("expiry sweep failed")
			} else if n > 0 {
				a.Logger.Info().Int("count", n).Msg("expiry sweep done")
			}
			if n, err := a.Billing.MarkOverdue(ctx); err != nil {
				a.Logger.Error().Err(err).Msg("overdue sweep failed")
			} else if n > 0 {
				a.Logger.Info().Int("count", n).Msg("overdue sweep done")
			}
			cancel()
		case <-a.sweepStop:
			return
		}
	}
}

// Shutdown stops the server and closes resources.
func (a *App) Shutdown() error {
	close(a.sweepStop)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HTTPServer.Shutdown(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("http shutdown")
	}

	if a.Holder != nil {
		a.Holder.Stop()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
