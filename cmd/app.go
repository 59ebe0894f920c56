package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/marketledger/reconciler/db"
	"github.com/marketledger/reconciler/internal/backfill"
	"github.com/marketledger/reconciler/internal/closing"
	"github.com/marketledger/reconciler/internal/coverage"
	"github.com/marketledger/reconciler/internal/crashtracker"
	"github.com/marketledger/reconciler/internal/data"
	"github.com/marketledger/reconciler/internal/erpclient"
	"github.com/marketledger/reconciler/internal/expense"
	"github.com/marketledger/reconciler/internal/feevalidator"
	"github.com/marketledger/reconciler/internal/ingest"
	"github.com/marketledger/reconciler/internal/jobqueue"
	"github.com/marketledger/reconciler/internal/marketplace"
	"github.com/marketledger/reconciler/internal/monitor"
	"github.com/marketledger/reconciler/internal/orchestrator"
	"github.com/marketledger/reconciler/internal/ratelimit"
	"github.com/marketledger/reconciler/internal/reconcile"
	"github.com/marketledger/reconciler/internal/settlement"
	"github.com/marketledger/reconciler/internal/support/log"
	"github.com/marketledger/reconciler/internal/token"
	"github.com/marketledger/reconciler/internal/utils"
	"github.com/marketledger/reconciler/internal/webhook"
)

// appOptions is the flag surface shared by every subcommand that talks to
// the ERP and marketplace (serve, worker, pipeline, backfill).
type appOptions struct {
	erpBaseURL         string
	marketplaceBaseURL string
	crashTrackerType   string
	metricType         string
	erpRateCapacity    int
	erpRateRefill      float64
}

func bindAppFlags(cmd *cobra.Command, opts *appOptions) {
	flags := cmd.Flags()
	flags.StringVar(&opts.erpBaseURL, "erp-base-url", "", "Base URL of the ERP's contas-a-receber/contas-a-pagar API.")
	flags.StringVar(&opts.marketplaceBaseURL, "marketplace-base-url", "", "Base URL of the marketplace's payments/orders/shipments API.")
	flags.StringVar(&opts.crashTrackerType, "crash-tracker-type", string(crashtracker.CrashTrackerTypeDryRun), `Crash tracker type: "SENTRY" or "DRY_RUN".`)
	flags.StringVar(&opts.metricType, "metrics-type", string(monitor.MetricTypePrometheus), `Metrics type: "PROMETHEUS".`)
	flags.IntVar(&opts.erpRateCapacity, "erp-rate-capacity", ratelimit.DefaultCapacity, "Token bucket capacity for outbound ERP calls.")
	flags.Float64Var(&opts.erpRateRefill, "erp-rate-refill", ratelimit.DefaultRefillRate, "Token bucket refill rate (tokens/second) for outbound ERP calls.")

	_ = viper.BindPFlag("erp_base_url", flags.Lookup("erp-base-url"))
	_ = viper.BindPFlag("marketplace_base_url", flags.Lookup("marketplace-base-url"))
}

// app bundles every collaborator a subcommand needs; each subcommand wires
// only the pieces its own Run func touches.
type app struct {
	DBConnectionPool   db.DBConnectionPool
	Models             *data.Models
	MonitorService     *monitor.MonitorService
	CrashTrackerClient crashtracker.CrashTrackerClient
	Tokens             *token.Manager
	Marketplace        *marketplace.Client
	ERP                *erpclient.Client
	Processor          *reconcile.Processor
	Settlement         *settlement.Service
	FeeValidator       *feevalidator.Validator
	Ingester           *ingest.Ingester
	Coverage           *coverage.Checker
	Closer             *closing.Closer
	ExpenseClassifier  *expense.Classifier
	ExpenseExporter    *expense.Exporter
	Queue              *jobqueue.Service
	Worker             *jobqueue.Worker
	Backfill           *backfill.Service
	Webhooks           *webhook.Service
	Pipeline           *orchestrator.Pipeline
}

func (a *app) Close(ctx context.Context) {
	if a.CrashTrackerClient != nil {
		a.CrashTrackerClient.FlushEvents(2 * time.Second)
	}
	if err := db.CloseConnectionPoolIfNeeded(ctx, a.DBConnectionPool); err != nil {
		log.Ctx(ctx).Errorf("closing database connection pool: %v", err)
	}
}

// buildApp opens the database connection, wires every domain collaborator,
// and returns the assembled app. Subcommands that don't need a piece (e.g.
// `db migrate` needs only the connection pool) call a narrower constructor
// instead.
func buildApp(ctx context.Context, opts appOptions) (*app, error) {
	monitorService := &monitor.MonitorService{}
	if err := monitorService.Start(monitor.MetricOptions{
		MetricType:  monitor.MetricType(opts.metricType),
		Environment: globalOptions.environment,
	}); err != nil {
		return nil, fmt.Errorf("starting monitor service: %w", err)
	}

	crashTrackerClient, err := crashtracker.GetClient(ctx, crashtracker.CrashTrackerOptions{
		CrashTrackerType: crashtracker.CrashTrackerType(opts.crashTrackerType),
		Environment:      globalOptions.environment,
		GitCommit:        globalOptions.gitCommit,
		SentryDSN:        globalOptions.sentryDSN,
	})
	if err != nil {
		return nil, fmt.Errorf("building crash tracker client: %w", err)
	}

	dbConnectionPool, err := db.OpenDBConnectionPoolWithMetrics(ctx, globalOptions.databaseURL, monitorService)
	if err != nil {
		return nil, fmt.Errorf("opening database connection pool: %w", err)
	}

	models, err := data.NewModels(dbConnectionPool)
	if err != nil {
		return nil, fmt.Errorf("building data models: %w", err)
	}

	marketplaceBaseURL, err := utils.GetURLWithScheme(opts.marketplaceBaseURL)
	if err != nil {
		return nil, fmt.Errorf("resolving marketplace base URL: %w", err)
	}

	mktClient, err := marketplace.NewClient(marketplace.ClientOptions{
		BaseURL:        marketplaceBaseURL,
		MonitorService: monitorService,
	})
	if err != nil {
		return nil, fmt.Errorf("building marketplace client: %w", err)
	}

	tokens := token.NewManager(models.Sellers, models.SyncState, &unimplementedMarketplaceAuthenticator{}, &unimplementedERPAuthenticator{})

	erpRateLimiter, err := ratelimit.NewTokenBucket(opts.erpRateCapacity, opts.erpRateRefill)
	if err != nil {
		return nil, fmt.Errorf("building ERP rate limiter: %w", err)
	}

	erpBaseURL, err := utils.GetURLWithScheme(opts.erpBaseURL)
	if err != nil {
		return nil, fmt.Errorf("resolving ERP base URL: %w", err)
	}

	erpClient := erpclient.NewClient(erpclient.ClientOptions{
		BaseURL:        erpBaseURL,
		Tokens:         tokens,
		Limiter:        erpRateLimiter,
		MonitorService: monitorService,
	})

	processor := reconcile.NewProcessor(models.Payments, models.Jobs, mktClient, mktClient)

	sellerTokenFunc := func(ctx context.Context, sellerID string) (string, error) {
		return tokens.MarketplaceToken(ctx, sellerID)
	}

	settlementSvc := settlement.NewService(erpClient, models.Jobs, mktClient, sellerTokenFunc)
	feeValidator := feevalidator.NewValidator(models.Payments, models.Jobs, mktClient)
	ingester := ingest.NewIngester(models.Payments, models.Expenses)
	coverageChecker := coverage.NewChecker(models.Payments, models.Expenses)
	expenseClassifier := expense.NewClassifier(models.Payments, models.Expenses)
	expenseExporter := expense.NewExporter(models.Expenses, models.ExpenseBatches)

	queueSvc := jobqueue.NewService(models.Jobs)
	worker := jobqueue.NewWorker(models.Jobs, models.Payments, erpClient, erpRateLimiter, monitorService.MonitorClient)

	backfillSvc := backfill.NewService(models.Sellers, mktClient, sellerTokenFunc, processor, expenseClassifier, settlementSvc, feeValidator)
	webhookSvc := webhook.NewService(models.WebhookEvents)

	closer := closing.NewCloser(models.Payments, models.Expenses, models.Jobs, models.SyncState)

	pipeline := orchestrator.NewPipeline(
		models.Sellers,
		mktClient,
		sellerTokenFunc,
		processor,
		expenseClassifier,
		feeValidator,
		ingester,
		nil, // StatementFetcher: no production implementation ships (see internal/orchestrator doc comment)
		settlementSvc,
		expenseExporter,
		coverageChecker,
		closer,
		24*time.Hour,
	)

	return &app{
		DBConnectionPool:   dbConnectionPool,
		Models:             models,
		MonitorService:     monitorService,
		CrashTrackerClient: crashTrackerClient,
		Tokens:             tokens,
		Marketplace:        mktClient,
		ERP:                erpClient,
		Processor:          processor,
		Settlement:         settlementSvc,
		FeeValidator:       feeValidator,
		Ingester:           ingester,
		Coverage:           coverageChecker,
		Closer:             closer,
		ExpenseClassifier:  expenseClassifier,
		ExpenseExporter:    expenseExporter,
		Queue:              queueSvc,
		Worker:             worker,
		Backfill:           backfillSvc,
		Webhooks:           webhookSvc,
		Pipeline:           pipeline,
	}, nil
}

// unimplementedMarketplaceAuthenticator and unimplementedERPAuthenticator
// stand in for the OAuth refresh dance, which spec.md's Non-goals exclude
// from this engine's scope: the identity provider's redirect/consent/code
// exchange is owned by the admin web app, not this process. A seller or ERP
// token that has not been seeded directly in the database will fail to
// refresh with a clear error instead of silently hanging.
type unimplementedMarketplaceAuthenticator struct{}

func (unimplementedMarketplaceAuthenticator) RefreshMarketplaceToken(_ context.Context, _, _, _ string) (string, string, time.Time, error) {
	return "", "", time.Time{}, fmt.Errorf("marketplace OAuth refresh is not implemented by this process; seed a valid token via the admin app")
}

type unimplementedERPAuthenticator struct{}

func (unimplementedERPAuthenticator) RefreshERPToken(_ context.Context) (string, time.Time, error) {
	return "", time.Time{}, fmt.Errorf("ERP OAuth refresh is not implemented by this process; seed a valid token via the admin app")
}
