package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/kdblegal/kdbweb/internal/auth"
	"github.com/kdblegal/kdbweb/internal/cache"
	"github.com/kdblegal/kdbweb/internal/company"
	"github.com/kdblegal/kdbweb/internal/config"
	"github.com/kdblegal/kdbweb/internal/contact"
	"github.com/kdblegal/kdbweb/internal/db"
	"github.com/kdblegal/kdbweb/internal/kdbweb"
	"github.com/kdblegal/kdbweb/internal/media"
	"github.com/kdblegal/kdbweb/internal/middleware"
	"github.com/kdblegal/kdbweb/internal/pages"
	"github.com/kdblegal/kdbweb/internal/publications"
	"github.com/kdblegal/kdbweb/internal/sanitize"
	"github.com/kdblegal/kdbweb/internal/subscriptions"
	"github.com/kdblegal/kdbweb/internal/telemetry/metrics"
	"github.com/kdblegal/kdbweb/internal/telemetry/tracing"
	"github.com/kdblegal/kdbweb/pkg"
)

const sessionPruneInterval = time.Hour

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config        *config.Config
	dbPool        *pgxpool.Pool
	redisClient   *redis.Client
	rateLimiter   middleware.RequestRateLimiter
	authService   *auth.Service
	mediaStorage  *media.Storage
	responseCache cache.Cache
	policy        *sanitize.Policy

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	DBPassword              string
	RedisPassword           string
	AdminUsername           string
	AdminPassword           string
	S3AccessKeyID           string
	S3SecretAccessKey       string
	VersionInfo             string
	HoneycombTracingEnabled bool
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "kdbweb-backend")
	if err != nil {
		return nil, err
	}

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		DBUser:         cfg.PostgresUser,
		DBPassword:     params.DBPassword,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := db.NewSchema(dbPool).Ensure(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("ensure db schema: %w", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": cfg.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("backend", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	s := &Server{
		config:      cfg,
		dbPool:      dbPool,
		versionInfo: params.VersionInfo,
		policy:      sanitize.NewPolicy(),
		authService: auth.NewService(
			auth.NewRepo(dbPool),
			time.Duration(cfg.AdminSessionHours)*time.Hour,
		),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	if err := s.authService.EnsureBootstrapAdmin(ctx, params.AdminUsername, params.AdminPassword); err != nil {
		log.Errorf("bootstrap admin from env: %s", err)
	}

	if cfg.RedisHost != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: params.RedisPassword,
			DB:       0, // use default DB
		})
		if params.HoneycombTracingEnabled {
			rdb.AddHook(redisotel.NewTracingHook())
		}

		rdbStatus := rdb.Ping(ctx)
		if err := rdbStatus.Err(); err != nil {
			log.Errorf("--> failed to ping redis: %s", err)
		} else {
			log.Debugf("redis ping: %s", rdbStatus.Val())
		}
		s.redisClient = rdb
		s.rateLimiter = redis_rate.NewLimiter(rdb)
	} else {
		log.Warnln("redis not configured, public writes are not rate limited")
	}

	if cfg.CacheTTLSeconds > 0 {
		s.responseCache = cache.NewResponseCache(cfg.CacheSizeMB, time.Duration(cfg.CacheTTLSeconds)*time.Second)
	}

	if cfg.S3Bucket != "" {
		client, presignClient, err := media.NewS3Client(ctx, media.ClientOptions{
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			UsePathStyle:    cfg.S3UsePathStyle,
			AccessKeyID:     params.S3AccessKeyID,
			SecretAccessKey: params.S3SecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("new s3 client: %w", err)
		}
		s.mediaStorage = media.NewStorage(client, presignClient, media.Config{
			Bucket:         cfg.S3Bucket,
			Region:         cfg.S3Region,
			PublicBaseURL:  cfg.S3PublicBaseURL,
			Prefixes:       cfg.S3Prefixes,
			UploadMaxBytes: cfg.S3UploadMaxBytes,
			UploadExpires:  time.Duration(cfg.S3UploadExpiresSeconds) * time.Second,
		})
	} else {
		log.Warnln("s3 bucket not configured, media routes disabled")
	}

	return s, nil
}

func chain(middlewares ...mux.MiddlewareFunc) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.authService)
	cacheHandler := middleware.NewResponseCacheHandler(s.responseCache, s.metricsManager)
	cached := cacheHandler.Cached()
	adminOnly := chain(authMiddleware.RequireAdmin(), cacheHandler.PurgeOnWrite())
	superOnly := chain(authMiddleware.RequireRoles(auth.RoleSuper), cacheHandler.PurgeOnWrite())

	settingsRepo := pages.NewSettingsRepo(s.dbPool)
	pageGate := middleware.NewPageGate(pages.NewVisibilityGate(settingsRepo, s.authService))
	gated := func(page string) mux.MiddlewareFunc {
		return chain(pageGate.Page(page), cached)
	}
	rateLimited := func(route string) mux.MiddlewareFunc {
		return middleware.RateLimit(s.rateLimiter, route, s.config.PublicWriteRateLimitPerMin, s.metricsManager)
	}

	r.HandleFunc("/health", s.handleHealth).Methods("GET", "OPTIONS").Name("health")

	auth.NewHandler(s.authService, s.metricsManager).SetupRoutes(r, adminOnly, superOnly)

	company.NewHandler(company.NewRepo(s.dbPool)).SetupRoutes(r, adminOnly, cached)

	publicationsService := publications.NewService(publications.NewRepo(s.dbPool), s.policy)
	publications.NewHandler(publicationsService, s.authService).
		SetupRoutes(r, adminOnly, gated(pages.Publicaciones))

	pagesService := pages.NewService(
		pages.NewContentRepo(s.dbPool),
		settingsRepo,
		publicationsService,
		s.policy,
	)
	pages.NewHandler(pagesService).
		SetupRoutes(r, adminOnly, chain(pageGate.PageFromVar("page"), cached), cached)

	kdbweb.NewHandler(kdbweb.NewRepo(s.dbPool), s.policy).
		SetupRoutes(r, adminOnly, gated(pages.KDBWeb))

	subscriptions.NewHandler(subscriptions.NewRepo(s.dbPool), s.metricsManager).
		SetupRoutes(r, adminOnly, rateLimited("subscribe"))

	contact.NewHandler(contact.NewRepo(s.dbPool), s.metricsManager).
		SetupRoutes(r, adminOnly, pageGate.Page(pages.Contacto), rateLimited("contact"))

	mediaHandler := media.NewHandler(nil, s.metricsManager)
	if s.mediaStorage != nil {
		mediaHandler = media.NewHandler(s.mediaStorage, s.metricsManager)
	}
	mediaHandler.SetupRoutes(r, authMiddleware.RequireAdmin())

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.CorsOrigins))
	r.Use(middleware.LimitAndDrainRequest(middleware.DefaultMaxBodyBytes))

	return r, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteJSONOK(w, healthResponse{Status: "ok", Version: s.versionInfo})
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
		s.promRegistry,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	go s.pruneSessions(ctx, sessionPruneInterval)

	s.metricsManager.GaugeLifeSignal.Set(1)
}

// pruneSessions deletes expired sessions until ctx is done. Expired tokens
// are rejected regardless, this only keeps the table small.
func (s *Server) pruneSessions(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.authService.PruneExpiredSessions(ctx)
			if err != nil {
				log.Errorf("prune expired sessions: %s", err)
				continue
			}
			log.Debugf("pruned %d expired sessions", removed)
		}
	}
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
