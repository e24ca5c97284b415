package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/backend-kitshop/internal/catalog"
	"github.com/noah-isme/backend-kitshop/internal/config"
	"github.com/noah-isme/backend-kitshop/internal/health"
	"github.com/noah-isme/backend-kitshop/internal/lock"
	"github.com/noah-isme/backend-kitshop/internal/obs"
	"github.com/noah-isme/backend-kitshop/internal/order"
	"github.com/noah-isme/backend-kitshop/internal/quote"
	"github.com/noah-isme/backend-kitshop/internal/ratelimit"
	"github.com/noah-isme/backend-kitshop/internal/resilience"
	"github.com/noah-isme/backend-kitshop/internal/security"
)

const serviceName = "kitshop-pricing"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)
	resilience.RegisterMetrics(nil)
	ratelimit.RegisterMetrics(nil)

	tracingEnabled := cfg.Obs.TracingEnabled
	shutdownTracer, err := obs.InitTracer(context.Background(), obs.TracingConfig{
		Enabled:       tracingEnabled,
		ServiceName:   serviceName,
		Endpoint:      cfg.Obs.OTLPEndpoint,
		Exporter:      cfg.Obs.TracingExporter,
		SamplingRatio: cfg.Obs.SamplingRatio,
		Environment:   cfg.AppEnv,
	})
	if err != nil {
		logger.Error().Err(err).Msg("initialise tracing")
		tracingEnabled = false
	} else {
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				logger.Error().Err(err).Msg("shutdown tracer")
			}
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool = connectDatabase(ctx, cfg, logger)
		defer pool.Close()
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient = connectRedis(ctx, cfg, logger)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
	}

	source, err := newCatalogSource(cfg, pool, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog source")
	}
	catalogCfg := catalog.ServiceConfig{
		Source:      source,
		Logger:      logger.With().Str("component", "catalog").Logger(),
		LoadTimeout: cfg.CatalogLoadTimeout,
	}
	if redisClient != nil {
		catalogCfg.Cache = catalog.NewCache(redisClient, cfg.CatalogCacheTTL)
		catalogCfg.Locker = lock.Locker{R: redisClient}
	}
	catalogService, err := catalog.NewService(catalogCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: catalogService})

	quoteHandler := quote.NewHandler(quote.HandlerConfig{
		Service:  quote.NewService(catalogService),
		Currency: cfg.CurrencyCode,
	})

	orderCfg := order.HandlerConfig{
		Catalog: catalogService,
		Logger:  logger.With().Str("component", "order").Logger(),
	}
	if pool != nil {
		orderCfg.Store = &order.PGStore{Pool: pool}
	}
	orderHandler := order.NewHandler(orderCfg)

	healthHandler := health.Handler{
		Checks:  readinessChecks(pool, redisClient, catalogService),
		Timeout: cfg.Obs.ReadyTimeout,
	}

	var limiter ratelimit.Limiter
	if redisClient != nil {
		limiter = ratelimit.Limiter{Client: redisClient, Prefix: "ratelimit:"}
	}
	limit := func(group string) func(http.Handler) http.Handler {
		return ratelimit.Handler{
			Limiter: limiter,
			Config: ratelimit.Config{
				Group:  group,
				Key:    ratelimit.ByClientIP(group),
				Window: cfg.RateLimitWindow,
				Max:    cfg.RateLimitMax,
			},
			OnError: func(err error) {
				logger.Warn().Err(err).Str("group", group).Msg("rate limiter unavailable")
			},
		}.Middleware
	}

	var httpMetrics *obs.HTTPMetrics
	if cfg.Obs.MetricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets), nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
		r.Use(obs.RoutePatternMiddleware)
	}
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.CORS(cfg.CORSAllowedOrigins))
	r.Use(security.Headers{Enable: cfg.SecurityHeadersEnabled, EnableHSTS: cfg.AppEnv == "production"}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)

	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)
	if cfg.Obs.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if cfg.Obs.PprofEnabled {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), cfg.Obs.PprofUser, cfg.Obs.PprofPass))
	}

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/catalog", catalogHandler.Snapshot)
		v.Group(func(public chi.Router) {
			public.Use(limit("quote"))
			public.Post("/quote", quoteHandler.Quote)
			public.Post("/patches/toggle", quoteHandler.TogglePatch)
			public.Post("/orders/snapshot", orderHandler.Create)
		})
		v.Route("/admin", func(admin chi.Router) {
			admin.Use(limit("admin"))
			admin.Post("/quote", quoteHandler.AdminQuote)
			admin.Post("/cost-suggestions", quoteHandler.CostSuggestions)
			admin.Post("/catalog/invalidate", catalogHandler.Invalidate)
			admin.Get("/orders/{id}", orderHandler.Get)
			admin.Patch("/orders/{id}/price", orderHandler.PatchPrice)
			admin.Patch("/orders/{id}/items/{itemID}/cost", orderHandler.PatchItemCost)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop, release := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer release()

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", srv.Addr).Msg("listen")
	}
	logger.Info().Str("addr", srv.Addr).Str("catalog_source", cfg.CatalogSource).Msg("server starting")
	if err := runServer(stop, srv, ln, 15*time.Second, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

// runServer serves on ln until ctx is cancelled, then marks the service unready
// and drains in-flight requests for at most drain. It returns only once the
// drain has finished.
func runServer(ctx context.Context, srv *http.Server, ln net.Listener, drain time.Duration, logger zerolog.Logger) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		health.SetReady(false)
		logger.Info().Msg("shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), drain)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
		}
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

func connectDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = serviceName

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

func connectRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	client := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if cfg.Obs.MetricsEnabled {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return client
}

func newCatalogSource(cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (catalog.Source, error) {
	if cfg.CatalogSource == config.CatalogSourcePostgres {
		return &catalog.PGSource{Pool: pool}, nil
	}
	breaker := resilience.NewBreaker(resilience.BreakerConfig{
		Target:       "catalog",
		MinRequests:  cfg.Circuit.MinRequests,
		FailureRatio: cfg.Circuit.FailureRate,
		OpenFor:      cfg.Circuit.OpenFor,
		Logger:       logger,
	})
	return catalog.NewHTTPSource(catalog.HTTPSourceConfig{
		BaseURL: cfg.CatalogBaseURL,
		Client: resilience.HTTPClient{
			Client:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
			Breaker: breaker,
			Retry: resilience.RetryPolicy{
				BaseBackoff: cfg.Outbound.RetryBase,
				MaxAttempts: cfg.Outbound.RetryAttempts,
				Jitter:      cfg.Outbound.JitterPercent,
			},
			Timeout: cfg.Outbound.Timeout,
		},
	})
}

func readinessChecks(pool *pgxpool.Pool, redisClient *redis.Client, catalogService *catalog.Service) []health.Check {
	var checks []health.Check
	if pool != nil {
		checks = append(checks, health.Check{Name: "postgres", Probe: pool.Ping})
	}
	if redisClient != nil {
		checks = append(checks, health.Check{Name: "redis", Probe: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}
	checks = append(checks, health.Check{Name: "catalog", Probe: func(ctx context.Context) error {
		_, err := catalogService.Snapshot(ctx)
		return err
	}})
	return checks
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
