package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"marketplace-admin/internal/audit"
	"marketplace-admin/internal/auth"
	dashboardapp "marketplace-admin/internal/dashboard/application"
	dashboardhttp "marketplace-admin/internal/dashboard/interfaces/http"
	"marketplace-admin/internal/observability/metrics"
	"marketplace-admin/internal/period"
	recordsapp "marketplace-admin/internal/records/application"
	records "marketplace-admin/internal/records/domain"
	"marketplace-admin/internal/records/infrastructure/memory"
	recordsrepo "marketplace-admin/internal/records/infrastructure/postgres"
	"marketplace-admin/internal/records/infrastructure/upstream"
	"marketplace-admin/internal/records/notify"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	location, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		logger.Fatalf("dashboard timezone error: %v", err)
	}

	catalog, err := recordsapp.LoadCatalog()
	if err != nil {
		logger.Fatalf("catalog error: %v", err)
	}

	client, err := upstream.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamToken,
		upstream.WithHTTPClient(&http.Client{Timeout: cfg.UpstreamTimeout}),
		upstream.WithRateLimit(cfg.UpstreamRPS, cfg.UpstreamBurst),
	)
	if err != nil {
		logger.Fatalf("upstream client error: %v", err)
	}

	syncOpts := []recordsapp.SyncOption{recordsapp.WithConcurrency(cfg.SyncConcurrency)}
	if cfg.SyncAlertWebhookURL != "" {
		syncOpts = append(syncOpts, recordsapp.WithNotifier(notify.NewWebhookNotifier(cfg.SyncAlertWebhookURL, cfg.SyncAlertCooldown)))
	}

	var (
		db          *sql.DB
		source      records.Source
		syncer      *recordsapp.Syncer
		auditLogger audit.Logger = audit.LogWriter{Printf: logger.Printf}
	)
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}

		mirror := recordsrepo.NewRepository(db)
		metrics.Init(mirror, logger)
		source = mirror
		auditLogger = audit.NewRepository(db)
		syncer, err = recordsapp.NewSyncer(client, mirror, catalog, logger, syncOpts...)
		if err != nil {
			logger.Fatalf("syncer error: %v", err)
		}
		logger.Printf("records source: postgres mirror")
	} else if cfg.SyncInterval > 0 {
		mirror := memory.NewRepository()
		metrics.Init(mirror, logger)
		source = mirror
		syncer, err = recordsapp.NewSyncer(client, mirror, catalog, logger, syncOpts...)
		if err != nil {
			logger.Fatalf("syncer error: %v", err)
		}
		logger.Printf("records source: in-memory mirror")
	} else {
		metrics.Init(nil, logger)
		source = client
		logger.Printf("records source: upstream %s", cfg.UpstreamBaseURL)
	}

	if syncer != nil {
		go syncer.Run(ctx, cfg.SyncInterval)
	}

	resolver := period.NewResolver(period.SystemClock{}, location)
	dashboardService, err := dashboardapp.NewService(source, catalog, resolver)
	if err != nil {
		logger.Fatalf("dashboard service error: %v", err)
	}
	dashboardHandler, err := dashboardhttp.NewHandler(dashboardService)
	if err != nil {
		logger.Fatalf("dashboard handler error: %v", err)
	}
	var syncRunner dashboardhttp.SyncRunner
	if syncer != nil {
		syncRunner = syncer
	}
	syncHandler := dashboardhttp.NewSyncHandler(syncRunner, auditLogger, logger)

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/periods", dashboardHandler)
	mux.Handle("/api/v1/resources", dashboardHandler)
	mux.Handle("/api/v1/dashboard", dashboardHandler)
	mux.Handle("/api/v1/dashboard/", dashboardHandler)
	mux.Handle("/api/v1/sync", syncHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           loggingMiddleware(authMiddleware.Wrap(mux), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Printf("http listening on %s (timezone %s, resources %v)", cfg.HTTPAddr, location, catalog.Names())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal(err)
	}
}

type config struct {
	DatabaseURL     string
	HTTPAddr        string
	UpstreamBaseURL string
	UpstreamToken   string
	UpstreamRPS     float64
	UpstreamBurst   int
	UpstreamTimeout time.Duration
	JWTSecret       string
	TimeZone        string
	SyncInterval    time.Duration
	SyncConcurrency int

	SyncAlertWebhookURL string
	SyncAlertCooldown   time.Duration
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:     getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:        getenvDefault("HTTP_ADDR", ":8080"),
		UpstreamBaseURL: getenvDefault("UPSTREAM_BASE_URL", ""),
		UpstreamToken:   getenvDefault("UPSTREAM_TOKEN", ""),
		UpstreamRPS:     getenvFloatDefault("UPSTREAM_RPS", 0),
		UpstreamBurst:   getenvIntDefault("UPSTREAM_BURST", 1),
		UpstreamTimeout: getenvDuration("UPSTREAM_TIMEOUT", 15*time.Second),
		JWTSecret:       getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		TimeZone:        getenvDefault("DASHBOARD_TZ", "UTC"),
		SyncInterval:    getenvDuration("SYNC_INTERVAL", 5*time.Minute),
		SyncConcurrency: getenvIntDefault("SYNC_CONCURRENCY", 4),

		SyncAlertWebhookURL: getenvDefault("SYNC_ALERT_WEBHOOK_URL", ""),
		SyncAlertCooldown:   getenvDuration("SYNC_ALERT_COOLDOWN", time.Hour),
	}
	if cfg.UpstreamBaseURL == "" {
		log.Fatal("UPSTREAM_BASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s request_id=%s", r.Method, r.URL.Path, resp.status, time.Since(start), requestID)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
