package walletd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/canopy-network/walletsync/app/walletd/activity"
	"github.com/canopy-network/walletsync/pkg/db/postgres"
	"github.com/canopy-network/walletsync/pkg/db/postgres/wallet"
	"github.com/canopy-network/walletsync/pkg/dispatch"
	"github.com/canopy-network/walletsync/pkg/ledger"
	"github.com/canopy-network/walletsync/pkg/logging"
	"github.com/canopy-network/walletsync/pkg/metrics"
	"github.com/canopy-network/walletsync/pkg/network"
	"github.com/canopy-network/walletsync/pkg/reconcile"
	"github.com/canopy-network/walletsync/pkg/redis"
	"github.com/canopy-network/walletsync/pkg/rpc"
	"github.com/canopy-network/walletsync/pkg/unlock"
)

// App owns every long-lived resource of the wallet daemon.
type App struct {
	Config Config
	Logger *zap.Logger

	// Postgres pool and the wallet accessor layer on top of it
	DBClient *postgres.Client
	WalletDB *wallet.DB

	// Ledger daemon client and the normalized view over it
	RPC    rpc.Client
	Ledger *ledger.Status

	Dispatcher  *dispatch.Dispatcher
	Activities  *activity.Context
	Metrics     *metrics.Metrics
	Registry    *prometheus.Registry
	RedisClient *redis.Client

	// Cron drives the chain refresh and the account refresh fan-out.
	Cron *cron.Cron

	Server    *http.Server
	serverRun *dispatch.Scoped
}

// Initialize builds the App from cfg. Every resource is created here and released in Stop.
func Initialize(ctx context.Context, cfg Config) (*App, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		// nothing else to do here, we'll just log to stderr'
		panic(err)
	}

	chainNet, err := network.Parse(cfg.Ledger.Network)
	if err != nil {
		return nil, err
	}

	dbClient, err := postgres.New(ctx, logger, cfg.Postgres.URL, postgres.PoolConfig{
		MinConns:          cfg.Postgres.MinConns,
		MaxConns:          cfg.Postgres.MaxConns,
		ConnMaxLifetime:   cfg.Postgres.MaxLifetime,
		ConnMaxIdleTime:   cfg.Postgres.IdleTimeout,
		HealthCheckPeriod: 30 * time.Second,
		Component:         "walletd",
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	walletDB, err := wallet.New(ctx, dbClient)
	if err != nil {
		dbClient.Close()
		return nil, fmt.Errorf("wallet schema: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry, cfg.Metrics.Namespace)

	rpcClient := rpc.NewHTTPFactory(rpc.Opts{
		Timeout:         cfg.Daemon.Timeout,
		RPS:             cfg.Daemon.RPS,
		Burst:           cfg.Daemon.Burst,
		BreakerFailures: cfg.Daemon.BreakerFailures,
		BreakerCooldown: cfg.Daemon.BreakerCooldown,
	}).NewClient(cfg.Daemon.Endpoints)

	status := ledger.New(
		logger,
		rpcClient,
		rpcClient,
		unlock.NewChecker(chainNet, clock.NewDefaultClock()),
		ledger.Config{
			SpendableAge:   cfg.Ledger.SpendableAge,
			FeeCacheTTL:    cfg.Ledger.FeeCacheTTL,
			FeeGraceBlocks: cfg.Ledger.FeeGraceBlocks,
		},
		ledger.WithObserver(m),
	)

	// Redis events are optional
	observers := reconcile.Observers{m}
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(ctx, logger, redis.Config{
			Addr:          cfg.Redis.Addr,
			Password:      cfg.Redis.Password,
			DB:            cfg.Redis.DB,
			ChannelPrefix: cfg.Redis.ChannelPrefix,
		})
		if err != nil {
			logger.Warn("Failed to initialize Redis client - reconciliation events will be disabled",
				zap.Error(err))
			redisClient = nil
		} else {
			observers = append(observers, redisClient)
		}
	} else {
		logger.Info("Redis disabled - reconciliation events will not be published")
	}

	dispatcher := dispatch.New(ctx, logger, dispatch.Config{
		Workers:   cfg.Dispatch.Workers,
		QueueSize: cfg.Dispatch.QueueSize,
	}, m)

	app := &App{
		Config:     cfg,
		Logger:     logger,
		DBClient:   dbClient,
		WalletDB:   walletDB,
		RPC:        rpcClient,
		Ledger:     status,
		Dispatcher: dispatcher,
		Activities: &activity.Context{
			Logger:     logger,
			Ledger:     status,
			Store:      walletDB,
			Dispatcher: dispatcher,
			Locks:      dispatch.NewKeyedLocks(),
			Observer:   observers,
			Recorder:   m,
			Clock:      clock.NewDefaultClock(),
		},
		Metrics:     m,
		Registry:    registry,
		RedisClient: redisClient,
	}

	// Prime the snapshots so the first requests see a height.
	if err := app.Activities.RefreshChain(ctx); err != nil {
		logger.Warn("Initial chain refresh failed", zap.Error(err))
	}

	if err := app.SetupScheduler(ctx); err != nil {
		app.Stop()
		return nil, err
	}
	if err := app.SetupServer(); err != nil {
		app.Stop()
		return nil, err
	}

	logger.Info("Wallet daemon initialized",
		zap.String("network", chainNet.String()),
		zap.Strings("daemon", cfg.Daemon.Endpoints),
		zap.Int("workers", cfg.Dispatch.Workers))

	return app, nil
}

// Start serves HTTP and runs the scheduler until ctx is canceled.
func (a *App) Start(ctx context.Context) {
	a.StartCron()
	a.serverRun = dispatch.Go(dispatch.Join, func() {
		a.Logger.Info("Starting server", zap.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.Error("HTTP server stopped", zap.Error(err))
		}
	})
	<-ctx.Done()
	a.Stop()
}

// Stop releases resources in reverse order of their creation.
func (a *App) Stop() {
	a.StopCron()

	if a.Server != nil {
		timeout := a.Config.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		_ = a.Server.Shutdown(shutdownCtx)
		cancel()
	}
	if a.serverRun != nil {
		if err := a.serverRun.Close(); err != nil {
			a.Logger.Error("HTTP server goroutine failed", zap.Error(err))
		}
	}

	if a.Dispatcher != nil {
		a.Dispatcher.Stop()
	}
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Logger.Error("Failed to close Redis client", zap.Error(err))
		}
	}
	if a.DBClient != nil {
		a.DBClient.Close()
	}

	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("さようなら!")
}
