package activity

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/canopy-network/walletsync/app/walletd/types"
	"github.com/canopy-network/walletsync/pkg/dispatch"
)

const refreshAccountJob = "refresh_account"

// RefreshChain refreshes the height and mempool snapshots. A failed read keeps
// the previous snapshot and is reported in the returned error.
func (c *Context) RefreshChain(ctx context.Context) error {
	var errs []error
	if !c.Ledger.UpdateCurrentHeight(ctx) {
		errs = append(errs, errors.New("height refresh failed"))
	}
	if !c.Ledger.ReadMempool(ctx) {
		errs = append(errs, errors.New("mempool refresh failed"))
	}
	if c.Dispatcher != nil {
		c.recorder().DispatcherLoad(c.Dispatcher.RunningWorkers(), c.Dispatcher.WaitingTasks())
	}
	return errors.Join(errs...)
}

// refreshJob wraps RefreshAccount as a dispatcher job.
func (c *Context) refreshJob(accountID uint64) dispatch.Job {
	return func(ctx context.Context) {
		if err := c.RefreshAccount(ctx, accountID); err != nil {
			c.Logger.Warn("Account refresh failed", zap.Uint64("account_id", accountID), zap.Error(err))
		}
	}
}

// ScheduleAccountRefresh queues a refresh for every account that has none in
// flight and returns how many were queued. When the queue fills up the remaining
// accounts wait for the next pass.
func (c *Context) ScheduleAccountRefresh(ctx context.Context) (int, error) {
	ids, err := c.Store.AccountIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list accounts: %w", err)
	}

	queued := 0
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return queued, err
		}
		_, err := c.Dispatcher.SubmitForAccount(id, refreshAccountJob, c.refreshJob(id))
		switch {
		case err == nil:
			queued++
		case errors.Is(err, dispatch.ErrAccountBusy):
		case errors.Is(err, dispatch.ErrQueueFull):
			c.Logger.Warn("Refresh queue full, deferring remaining accounts",
				zap.Int("queued", queued),
				zap.Int("deferred", len(ids)-i))
			return queued, nil
		default:
			return queued, err
		}
	}

	c.Logger.Debug("Account refresh scheduled", zap.Int("queued", queued), zap.Int("accounts", len(ids)))
	return queued, nil
}

// RequestAccountRefresh queues a refresh for one account. It fails with
// dispatch.ErrAccountBusy while a job for the account is pending, and with
// dispatch.ErrQueueFull or dispatch.ErrStopped when the job cannot be queued.
func (c *Context) RequestAccountRefresh(ctx context.Context, address string) (types.RefreshQueued, error) {
	acc, err := c.Store.AccountByAddress(ctx, address)
	if err != nil {
		return types.RefreshQueued{}, err
	}
	if _, err := c.Dispatcher.SubmitForAccount(acc.ID, refreshAccountJob, c.refreshJob(acc.ID)); err != nil {
		return types.RefreshQueued{}, err
	}
	return types.RefreshQueued{AccountID: acc.ID, Status: "queued"}, nil
}
