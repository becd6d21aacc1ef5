package activity

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/canopy-network/walletsync/app/walletd/types"
	models "github.com/canopy-network/walletsync/pkg/db/models/wallet"
	"github.com/canopy-network/walletsync/pkg/reconcile"
)

// passReason labels a failed pass for metrics.
func passReason(err error) string {
	switch {
	case errors.Is(err, reconcile.ErrStoreInconsistency):
		return "store_inconsistency"
	case errors.Is(err, reconcile.ErrLedgerUnavailable):
		return "ledger_unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "store_error"
	}
}

// reconcileAccount runs one pass over the account's cached txs. Ledger lookups
// are made up front; the store mutations then run in one transaction, and then
// runs in the same transaction after the pass succeeds. Events are only
// forwarded once the transaction commits.
func (c *Context) reconcileAccount(
	ctx context.Context,
	accountID uint64,
	then func(ctx context.Context) error,
) ([]models.Transaction, error) {
	kept, err := c.runPass(ctx, accountID, then)
	if err != nil {
		c.recorder().PassFailed(passReason(err))
		return nil, err
	}
	return kept, nil
}

func (c *Context) runPass(
	ctx context.Context,
	accountID uint64,
	then func(ctx context.Context) error,
) ([]models.Transaction, error) {
	cached, err := c.Store.TxsForAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	l, err := reconcile.Prefetch(ctx, c.Ledger, cached)
	if err != nil {
		return nil, err
	}

	var (
		kept    []models.Transaction
		pending pendingEvents
	)
	err = c.Store.BeginFunc(ctx, func(txCtx context.Context) error {
		pending.reset()
		r := reconcile.New(c.Logger, l, c.Store, &pending)
		var passErr error
		kept, passErr = r.Reconcile(txCtx, cached)
		if passErr != nil {
			return passErr
		}
		if then != nil {
			return then(txCtx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	pending.flush(c.Observer)
	return kept, nil
}

// AccountTxs returns the account's transactions after bringing them in line with
// the ledger. When the pass fails the stored records are returned with Fresh unset.
func (c *Context) AccountTxs(ctx context.Context, address string) (types.AccountTxs, error) {
	acc, err := c.Store.AccountByAddress(ctx, address)
	if err != nil {
		return types.AccountTxs{}, err
	}

	unlock := c.Locks.Lock(acc.ID)
	defer unlock()

	out := types.AccountTxs{
		AccountID: acc.ID,
		Address:   acc.Address,
		Height:    c.Ledger.CurrentHeight(),
	}

	txs, passErr := c.reconcileAccount(ctx, acc.ID, nil)
	if passErr == nil {
		out.Txs = txs
		out.Fresh = true
		return out, nil
	}

	c.Logger.Warn("Reconciliation pass failed, serving stored records",
		zap.Uint64("account_id", acc.ID),
		zap.Error(passErr))

	stored, err := c.Store.TxsForAccount(ctx, acc.ID)
	if err != nil {
		return types.AccountTxs{}, errors.Join(passErr, err)
	}
	out.Txs = stored
	return out, nil
}

// RefreshAccount reconciles the account, recomputes its received total and moves
// its scanned height to the current snapshot, all in one store transaction.
func (c *Context) RefreshAccount(ctx context.Context, accountID uint64) error {
	unlock := c.Locks.Lock(accountID)
	defer unlock()

	height := c.Ledger.CurrentHeight()
	_, err := c.reconcileAccount(ctx, accountID, func(txCtx context.Context) error {
		total, err := c.Store.TotalReceived(txCtx, accountID)
		if err != nil {
			return err
		}
		n, err := c.Store.UpdateAccountScan(txCtx, accountID, total, height, c.now())
		if err != nil {
			return err
		}
		if n != 1 {
			return fmt.Errorf("%w: scan update of account %d touched %d rows",
				reconcile.ErrStoreInconsistency, accountID, n)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("refresh account %d: %w", accountID, err)
	}

	c.Logger.Debug("Account refreshed", zap.Uint64("account_id", accountID), zap.Uint64("height", height))
	return nil
}
