// Package serve exposes the core-relevant HTTP surface described for this
// engine: webhook intake, the backfill and settlement trigger endpoints, and
// queue operator endpoints. Everything else (admin CRUD, the dashboard, the
// web UI session) is peripheral glue and lives outside this package.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/cors"

	"github.com/marketledger/reconciler/db"
	"github.com/marketledger/reconciler/internal/crashtracker"
	"github.com/marketledger/reconciler/internal/monitor"
	"github.com/marketledger/reconciler/internal/serve/httperror"
	"github.com/marketledger/reconciler/internal/serve/httphandler"
	"github.com/marketledger/reconciler/internal/support/log"
	"github.com/marketledger/reconciler/internal/utils"
)

const ServiceID = "serve"

// HTTPServerInterface abstracts http.Server so tests can substitute a mock
// and assert on the resolved configuration instead of binding a socket.
type HTTPServerInterface interface {
	Run(conf Config)
}

// Config mirrors the handful of net/http.Server knobs this service tunes.
type Config struct {
	ListenAddr          string
	Handler             http.Handler
	ShutdownGracePeriod time.Duration
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	IdleTimeout         time.Duration
	OnStarting          func()
	OnStopping          func()
}

// HTTPServer is the production HTTPServerInterface, backed by net/http with
// graceful shutdown on SIGINT/SIGTERM delegated to the caller's context.
type HTTPServer struct {
	Ctx context.Context
}

func (h *HTTPServer) Run(conf Config) {
	server := &http.Server{
		Addr:         conf.ListenAddr,
		Handler:      conf.Handler,
		ReadTimeout:  conf.ReadTimeout,
		WriteTimeout: conf.WriteTimeout,
		IdleTimeout:  conf.IdleTimeout,
	}

	if conf.OnStarting != nil {
		conf.OnStarting()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	ctx := h.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("serve: listener stopped unexpectedly: %v", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.ShutdownGracePeriod)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Errorf("serve: error during graceful shutdown: %v", err)
		}
	}

	if conf.OnStopping != nil {
		conf.OnStopping()
	}
}

// QueueService is the subset of the job queue the HTTP surface needs:
// operator visibility into dead-lettered jobs and the ability to requeue them.
type QueueService interface {
	Status(ctx context.Context) (httphandler.QueueStatus, error)
	DeadJobs(ctx context.Context, page, pageLimit int) ([]httphandler.JobView, int, error)
	Retry(ctx context.Context, jobID string) error
	RetryAllDead(ctx context.Context) (int, error)
}

// BackfillService runs the onboarding backfill described in §4, batch-reading
// the marketplace for a historical window and enqueuing posting jobs.
type BackfillService interface {
	Run(ctx context.Context, params httphandler.BackfillParams) (httphandler.BackfillResult, error)
}

// SettlementService invokes the daily settlement (baixa) scheduler on demand
// for a single seller, outside of its normal cron trigger.
type SettlementService interface {
	Run(ctx context.Context, params httphandler.SettlementParams) (httphandler.SettlementResult, error)
}

// WebhookService acknowledges marketplace webhook deliveries within the
// latency budget and hands the payload off for asynchronous processing.
type WebhookService interface {
	Accept(ctx context.Context, body []byte, headers http.Header) error
}

type ServeOptions struct {
	Environment        string
	GitCommit          string
	Port               int
	Version            string
	InstanceName       string
	CorsAllowedOrigins []string
	MonitorService     monitor.MonitorServiceInterface
	DBConnectionPool   db.DBConnectionPool
	CrashTrackerClient crashtracker.CrashTrackerClient
	Queue              QueueService
	Backfill           BackfillService
	Settlement         SettlementService
	Webhooks           WebhookService
}

func (opts *ServeOptions) Validate() error {
	if opts.Port <= 0 {
		return fmt.Errorf("port must be positive")
	}
	if opts.Queue == nil {
		return fmt.Errorf("queue service is required")
	}
	if opts.Webhooks == nil {
		return fmt.Errorf("webhook service is required")
	}
	return nil
}

func Serve(opts ServeOptions, httpServer HTTPServerInterface) error {
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("validating serve options: %w", err)
	}

	defer opts.CrashTrackerClient.FlushEvents(2 * time.Second)
	defer opts.CrashTrackerClient.Recover()
	httperror.SetDefaultReportErrorFunc(opts.CrashTrackerClient.LogAndReportErrors)

	listenAddr := fmt.Sprintf(":%d", opts.Port)
	serverConfig := Config{
		ListenAddr:          listenAddr,
		Handler:             handleHTTP(opts),
		ShutdownGracePeriod: time.Second * 50,
		ReadTimeout:         time.Second * 5,
		WriteTimeout:        time.Second * 35,
		IdleTimeout:         time.Minute * 2,
		OnStarting: func() {
			log.Info("Starting reconciliation engine HTTP server")
			log.Infof("Listening on %s", listenAddr)
		},
		OnStopping: func() {
			log.Info("Closing the server's database connection pool")
			if err := db.CloseConnectionPoolIfNeeded(context.Background(), opts.DBConnectionPool); err != nil {
				log.Errorf("error closing database connection: %v", err)
			}
			log.Info("Server stopped")
		},
	}
	httpServer.Run(serverConfig)
	return nil
}

const (
	rateLimitPer20Seconds = 40
	rateLimitWindow       = 20 * time.Second
)

func handleHTTP(o ServeOptions) *chi.Mux {
	mux := chi.NewMux()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   o.CorsAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowCredentials: true,
	})

	mux.Use(corsHandler.Handler)
	mux.Use(httprate.Limit(
		rateLimitPer20Seconds,
		rateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
	))
	mux.Use(chimiddleware.RequestID)
	mux.Use(chimiddleware.Logger)
	mux.Use(chimiddleware.Recoverer)
	mux.Use(metricsMiddleware(o.MonitorService))
	mux.Use(chimiddleware.CleanPath)

	mux.Get("/health", httphandler.HealthHandler{DBConnectionPool: o.DBConnectionPool}.Get)
	if o.MonitorService != nil {
		if metricsHandler, err := o.MonitorService.GetMetricHTTPHandler(); err == nil {
			mux.Handle("/metrics", metricsHandler)
		}
	}

	webhookHandler := httphandler.WebhookHandler{Service: o.Webhooks}
	mux.Post("/webhooks/ml", webhookHandler.Post)

	backfillHandler := httphandler.BackfillHandler{Service: o.Backfill}
	mux.Get("/backfill/{seller}", backfillHandler.Get)

	settlementHandler := httphandler.SettlementHandler{Service: o.Settlement}
	mux.Get("/baixas/processar/{seller}", settlementHandler.Get)

	queueHandler := httphandler.QueueHandler{Service: o.Queue}
	mux.Route("/queue", func(r chi.Router) {
		r.Get("/status", queueHandler.Status)
		r.Get("/dead", queueHandler.Dead)
		r.Post("/retry/{job_id}", queueHandler.Retry)
		r.Post("/retry-all-dead", queueHandler.RetryAllDead)
	})

	return mux
}

// metricsMiddleware records request duration against the monitor service,
// mirroring the teacher's request-instrumentation middleware.
func metricsMiddleware(m monitor.MonitorServiceInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			_ = m.MonitorHTTPRequestDuration(time.Since(start), monitor.HTTPRequestLabels{
				Status: fmt.Sprintf("%d", ww.Status()),
				Route:  utils.GetRoutePattern(r),
				Method: r.Method,
			})
		})
	}
}
