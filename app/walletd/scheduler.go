package walletd

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	chainRefreshTimeout   = 25 * time.Second
	accountRefreshTimeout = 25 * time.Second
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}

// SetupScheduler registers the chain refresh and the account refresh fan-out.
// A run still in progress when its next tick fires is skipped.
func (a *App) SetupScheduler(ctx context.Context) error {
	logger := cronLogger{logger: a.Logger.With(zap.String("component", "cron")).Sugar()}
	a.Cron = cron.New(
		cron.WithSeconds(),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	_, err := a.Cron.AddFunc(a.Config.Schedule.ChainRefresh, func() {
		// keep each run bounded
		rctx, cancel := context.WithTimeout(ctx, chainRefreshTimeout)
		defer cancel()
		if err := a.Activities.RefreshChain(rctx); err != nil {
			a.Logger.Warn("Chain refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	_, err = a.Cron.AddFunc(a.Config.Schedule.AccountRefresh, func() {
		rctx, cancel := context.WithTimeout(ctx, accountRefreshTimeout)
		defer cancel()
		if _, err := a.Activities.ScheduleAccountRefresh(rctx); err != nil {
			a.Logger.Warn("Account refresh fan-out failed", zap.Error(err))
		}
	})
	return err
}

// StartCron starts the cron scheduler.
func (a *App) StartCron() {
	a.Cron.Start()
	a.Logger.Info("Cron started",
		zap.String("chain_refresh", a.Config.Schedule.ChainRefresh),
		zap.String("account_refresh", a.Config.Schedule.AccountRefresh))
}

// StopCron stops the scheduler and waits for running jobs.
func (a *App) StopCron() {
	if a.Cron != nil {
		<-a.Cron.Stop().Done()
	}
}
