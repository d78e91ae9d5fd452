// Package bootstrap builds the service graph from configuration. cmd/server
// runs the result; the e2e suite serves it from an httptest.Server.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	apphandler "dhruva/internal/approval/handler"
	appmetrics "dhruva/internal/approval/metrics"
	appservice "dhruva/internal/approval/service"
	appstore "dhruva/internal/approval/store"
	"dhruva/internal/cleanup"
	credhandler "dhruva/internal/credential/handler"
	credservice "dhruva/internal/credential/service"
	credstore "dhruva/internal/credential/store"
	idhandler "dhruva/internal/identity/handler"
	idservice "dhruva/internal/identity/service"
	idstore "dhruva/internal/identity/store"
	"dhruva/internal/ledger"
	"dhruva/internal/ledger/ethereum"
	"dhruva/internal/ledger/memory"
	"dhruva/internal/platform/config"
	"dhruva/internal/platform/database"
	"dhruva/internal/platform/health"
	"dhruva/internal/platform/jwt"
	"dhruva/internal/platform/kafka"
	"dhruva/internal/platform/redis"
	"dhruva/internal/platform/tracer"
	"dhruva/internal/reconcile"
	rechandler "dhruva/internal/reconcile/handler"
	recmetrics "dhruva/internal/reconcile/metrics"
	"dhruva/internal/seeder"
	httptransport "dhruva/internal/transport/http"
	vethandler "dhruva/internal/vetting/handler"
	vetmetrics "dhruva/internal/vetting/metrics"
	vetservice "dhruva/internal/vetting/service"
	vetstore "dhruva/internal/vetting/store"
	"dhruva/migrations"
	"dhruva/pkg/platform/audit"
	"dhruva/pkg/platform/audit/publisher"
	kafkasink "dhruva/pkg/platform/audit/sink/kafka"
	auditpg "dhruva/pkg/platform/audit/store/postgres"
	"dhruva/pkg/platform/circuit"
)

const cleanupQueueKey = "dhruva:cleanup"

// App is the assembled process. Close releases every backend.
type App struct {
	Config config.Server
	Logger *slog.Logger
	Router http.Handler
	Tokens *jwt.Service

	Ledger   ledger.Gateway
	Operator string

	Identity   *idservice.Service
	Vetting    *vetservice.Service
	Approval   *appservice.Service
	Credential *credservice.Service
	Reconcile  *reconcile.Service
	AuditStore audit.Store

	CleanupWorker   *cleanup.Worker
	ReconcileWorker *reconcile.Worker

	closers []func()
}

type Option func(*options)

type options struct {
	gateway  ledger.Gateway
	operator string
}

// WithLedger replaces the configured ledger adapter, for tests that need
// to drive the simulated ledger directly.
func WithLedger(g ledger.Gateway, operator string) Option {
	return func(o *options) {
		o.gateway = g
		o.operator = operator
	}
}

// vettingStore is what both the vetting service and the reconciler read.
type vettingStore interface {
	vetservice.Store
	reconcile.VettingStore
}

type stores struct {
	accounts    idservice.Store
	vetting     vettingStore
	approvals   appservice.Store
	credentials credservice.Store
	audit       audit.Store
}

// Build wires the stores, ledger, services, workers and router. Backends
// that fail to connect abort the build; whatever was opened is closed.
func Build(ctx context.Context, cfg config.Server, logger *slog.Logger, opts ...Option) (*App, error) {
	app := &App{Config: cfg, Logger: logger}
	if err := app.build(ctx, opts...); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) build(ctx context.Context, opts ...Option) error {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	cfg, logger := a.Config, a.Logger

	checks := health.New(cfg.Environment)

	st, err := a.buildStores(ctx, checks)
	if err != nil {
		return err
	}

	a.Ledger, a.Operator = o.gateway, o.operator
	if a.Ledger == nil {
		if a.Ledger, a.Operator, err = a.buildLedger(ctx); err != nil {
			return err
		}
	}
	a.Ledger = ledger.Instrument(a.Ledger, tracer.NewOTel("dhruva/ledger"))

	auditStore, err := a.buildAuditSink(st.audit, checks)
	if err != nil {
		return err
	}
	a.AuditStore = auditStore
	pub := publisher.New(auditStore, publisher.WithAsyncBuffer(256), publisher.WithLogger(logger))
	a.closers = append(a.closers, pub.Close)
	auditor := audit.NewLogger(logger, pub)

	queue, err := a.buildCleanupQueue(ctx, checks)
	if err != nil {
		return err
	}
	scheduler := cleanup.NewScheduler(queue, logger, cleanup.WithPendingBuffer(cfg.Cleanup.Buffer))
	a.closers = append(a.closers, scheduler.Close)

	if a.Vetting, err = vetservice.New(st.vetting, st.accounts,
		vetservice.WithLogger(logger),
		vetservice.WithAuditor(auditor),
		vetservice.WithMetrics(vetmetrics.New()),
		vetservice.WithCleanup(scheduler),
		vetservice.WithLedger(a.Ledger, a.Operator),
		vetservice.WithRequireLedgerAuth(cfg.Vetting.RequireLedgerAuth),
	); err != nil {
		return err
	}
	if a.Identity, err = idservice.New(st.accounts,
		idservice.WithLogger(logger),
		idservice.WithAuditor(auditor),
		idservice.WithVetting(a.Vetting),
	); err != nil {
		return err
	}
	if a.Credential, err = credservice.New(st.credentials, a.Ledger,
		credservice.WithLogger(logger),
		credservice.WithAuditor(auditor),
	); err != nil {
		return err
	}
	if a.Approval, err = appservice.New(st.approvals,
		appservice.WithLogger(logger),
		appservice.WithAuditor(auditor),
		appservice.WithMetrics(appmetrics.New()),
		appservice.WithCredentials(a.Credential),
		appservice.WithIssuer(a.Ledger),
	); err != nil {
		return err
	}
	if a.Reconcile, err = reconcile.New(st.vetting, st.accounts, a.Ledger,
		reconcile.WithLogger(logger),
		reconcile.WithAuditor(auditor),
		reconcile.WithMetrics(recmetrics.New()),
		reconcile.WithOperator(a.Operator),
	); err != nil {
		return err
	}

	if cfg.SeedDemoData {
		// Seeding an already populated store conflicts on the first
		// account; that is not worth failing startup over.
		if _, err := seeder.New(a.Identity, a.Approval, logger).SeedAll(ctx); err != nil {
			logger.Warn("demo data not seeded", "error", err)
		}
	}

	if a.CleanupWorker, err = cleanup.NewWorker(queue, cleanup.WithLogger(logger)); err != nil {
		return err
	}
	a.CleanupWorker.Handle(cleanup.KindVettingRequest, a.Vetting)

	caller := cfg.Reconcile.Caller
	if caller == "" {
		caller = a.Operator
	}
	if a.ReconcileWorker, err = reconcile.NewWorker(a.Reconcile,
		reconcile.WithInterval(cfg.Reconcile.Interval),
		reconcile.WithCaller(caller),
		reconcile.WithWorkerLogger(logger),
	); err != nil {
		return err
	}

	a.Tokens = jwt.NewService(cfg.JWTSigningKey, cfg.TokenTTL)
	a.Router = httptransport.NewRouter(httptransport.Config{
		AdminToken:     cfg.AdminToken,
		RequestTimeout: cfg.RequestTimeout,
		Tokens:         a.Tokens,
	}, httptransport.Routes{
		Health: checks,
		Public: []httptransport.Registrar{
			idhandler.New(a.Identity, logger),
			apphandler.New(a.Approval, logger),
			credhandler.New(a.Credential, logger),
		},
		Admin: []httptransport.Registrar{
			vethandler.New(a.Vetting, logger),
			rechandler.New(a.Reconcile, logger),
		},
	}, logger)

	return nil
}

func (a *App) buildStores(ctx context.Context, checks *health.Handler) (*stores, error) {
	if a.Config.Database.URL == "" {
		a.Logger.Info("using in-memory stores")
		return &stores{
			accounts:    idstore.NewInMemory(),
			vetting:     vetstore.NewInMemory(),
			approvals:   appstore.NewInMemory(),
			credentials: credstore.NewInMemory(),
			audit:       audit.NewInMemoryStore(),
		}, nil
	}

	pool, err := database.New(ctx, a.Config.Database)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = pool.Close() })
	if err := migrations.Apply(ctx, pool.DB()); err != nil {
		return nil, err
	}
	checks.RegisterCheck(pool)

	db := pool.DB()
	return &stores{
		accounts:    idstore.NewPostgres(db),
		vetting:     vetstore.NewPostgres(db),
		approvals:   appstore.NewPostgres(db),
		credentials: credstore.NewPostgres(db),
		audit:       auditpg.New(db),
	}, nil
}

// buildLedger returns the gateway and the operator address it signs as.
func (a *App) buildLedger(ctx context.Context) (ledger.Gateway, string, error) {
	cfg := a.Config.Ledger
	if cfg.Simulated() {
		owner := cfg.OwnerAddress
		if owner == "" {
			owner = cfg.OperatorAddress
		}
		operator := cfg.OperatorAddress
		if operator == "" {
			operator = owner
		}
		a.Logger.Info("using simulated ledger", "owner", owner, "operator", operator)
		return memory.New(owner), operator, nil
	}

	g, err := ethereum.Dial(ctx, cfg.RPCURL, ethereum.Config{
		ContractAddress: cfg.ContractAddress,
		ChainID:         cfg.ChainID,
		OperatorKey:     cfg.OperatorKey,
		Timeout:         cfg.Timeout,
		RPS:             cfg.RPS,
	}, ethereum.WithBreaker(circuit.New("ledger")), ethereum.WithLogger(a.Logger))
	if err != nil {
		return nil, "", fmt.Errorf("connect ledger: %w", err)
	}
	a.closers = append(a.closers, g.Close)
	return g, g.Operator(), nil
}

// buildAuditSink mirrors audit events to Kafka when brokers are configured.
func (a *App) buildAuditSink(primary audit.Store, checks *health.Handler) (audit.Store, error) {
	if a.Config.Kafka.Brokers == "" {
		return primary, nil
	}
	producer, err := kafka.New(kafka.DefaultConfig(a.Config.Kafka.Brokers), a.Logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, producer.Close)
	checks.RegisterCheck(producer)
	return audit.NewTee(primary, kafkasink.New(producer, a.Config.Kafka.AuditTopic)), nil
}

func (a *App) buildCleanupQueue(ctx context.Context, checks *health.Handler) (cleanup.Queue, error) {
	if a.Config.Redis.URL == "" {
		return cleanup.NewChannelQueue(a.Config.Cleanup.Buffer), nil
	}
	client, err := redis.New(ctx, a.Config.Redis)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	checks.RegisterCheck(client)
	return cleanup.NewRedisQueue(client.Client, cleanupQueueKey), nil
}

// RunWorkers runs the background workers until ctx is cancelled.
func (a *App) RunWorkers(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.CleanupWorker.Start(ctx) })
	g.Go(func() error { return a.ReconcileWorker.Start(ctx) })
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Close releases backends in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
