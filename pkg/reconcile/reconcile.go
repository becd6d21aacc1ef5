// Package reconcile brings an account's cached transactions in line with the ledger.
//
// A pass promotes transactions whose unlock constraint is met, evicts locked
// transactions the ledger no longer knows under the same id, and leaves the rest.
// Transactions older than the spendable age are taken as final, so once promoted
// they are never checked against the ledger again.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	models "github.com/canopy-network/walletsync/pkg/db/models/wallet"
	"github.com/canopy-network/walletsync/pkg/ledger"
	"go.uber.org/zap"
)

var (
	// ErrStoreInconsistency means a mutation touched a row count other than one.
	// The cache and the ledger have diverged and the pass cannot continue.
	ErrStoreInconsistency = errors.New("store inconsistency")

	// ErrLedgerUnavailable means an existence check could not be answered.
	ErrLedgerUnavailable = errors.New("ledger unavailable")
)

// Ledger is the subset of ledger.Status a pass needs.
type Ledger interface {
	IsTxUnlocked(unlockTime, txHeight uint64) bool
	LookupTxID(ctx context.Context, hash ledger.Hash) ledger.Outcome[uint64]
	SpendableAge() uint64
}

// Store is the subset of the accessor layer a pass mutates. Both calls report the
// number of affected rows.
type Store interface {
	MarkTxSpendable(ctx context.Context, id uint64) (int64, error)
	DeleteTx(ctx context.Context, id uint64) (int64, error)
}

// Observer is told about every applied decision.
type Observer interface {
	Promoted(tx models.Transaction)
	Evicted(tx models.Transaction)
}

type noopObserver struct{}

func (noopObserver) Promoted(models.Transaction) {}
func (noopObserver) Evicted(models.Transaction)  {}

type Reconciler struct {
	logger   *zap.Logger
	ledger   Ledger
	store    Store
	observer Observer
}

func New(logger *zap.Logger, l Ledger, s Store, o Observer) *Reconciler {
	if o == nil {
		o = noopObserver{}
	}
	return &Reconciler{
		logger:   logger.With(zap.String("component", "reconciler")),
		ledger:   l,
		store:    s,
		observer: o,
	}
}

// Reconcile runs one pass over txs and returns the surviving records. txs is not modified.
//
// Any error means the pass stopped early: records after the failing one were not
// examined and the returned slice is nil. Callers should treat the account as stale
// and retry on a later pass.
func (r *Reconciler) Reconcile(ctx context.Context, txs []models.Transaction) ([]models.Transaction, error) {
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		keep, err := r.reconcileOne(ctx, &tx)
		if err != nil {
			r.logger.Error("Reconciliation pass aborted",
				zap.Uint64("account_id", tx.AccountID),
				zap.Uint64("tx_id", tx.ID),
				zap.String("tx_hash", tx.Hash),
				zap.Error(err))
			return nil, err
		}
		if keep {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, tx *models.Transaction) (bool, error) {
	if tx.Spendable {
		return true, nil
	}

	if r.ledger.IsTxUnlocked(effectiveUnlockTime(r.ledger, tx), tx.Height) {
		n, err := r.store.MarkTxSpendable(ctx, tx.ID)
		if err != nil {
			return false, fmt.Errorf("mark tx %d spendable: %w", tx.ID, err)
		}
		if n != 1 {
			return false, fmt.Errorf("%w: mark tx %d spendable affected %d rows", ErrStoreInconsistency, tx.ID, n)
		}
		tx.Spendable = true
		r.observer.Promoted(*tx)
		return true, nil
	}

	ledgerID, err := r.currentLedgerID(ctx, tx.Hash)
	if err != nil {
		return false, err
	}
	if ledgerID != tx.BlockchainTxID {
		n, err := r.store.DeleteTx(ctx, tx.ID)
		if err != nil {
			return false, fmt.Errorf("delete tx %d: %w", tx.ID, err)
		}
		if n != 1 {
			return false, fmt.Errorf("%w: delete tx %d affected %d rows", ErrStoreInconsistency, tx.ID, n)
		}
		r.logger.Info("Evicted orphaned transaction",
			zap.Uint64("account_id", tx.AccountID),
			zap.String("tx_hash", tx.Hash),
			zap.Uint64("cached_id", tx.BlockchainTxID),
			zap.Uint64("ledger_id", ledgerID))
		r.observer.Evicted(*tx)
		return false, nil
	}

	if tx.UnlockTime == 0 {
		tx.UnlockTime = tx.Height + r.ledger.SpendableAge()
	}
	return true, nil
}

// effectiveUnlockTime treats an unset constraint as the spendable age past the tx height.
func effectiveUnlockTime(l Ledger, tx *models.Transaction) uint64 {
	if tx.UnlockTime != 0 {
		return tx.UnlockTime
	}
	return tx.Height + l.SpendableAge()
}

// currentLedgerID returns the ledger id for hash, or 0 when the ledger does not know it.
// A malformed cached hash can never match and is also reported as 0.
func (r *Reconciler) currentLedgerID(ctx context.Context, hexHash string) (uint64, error) {
	hash, err := ledger.ParseHash(hexHash)
	if err != nil {
		return 0, nil
	}
	opt, err := r.ledger.LookupTxID(ctx, hash).Unpack()
	if err != nil {
		return 0, fmt.Errorf("%w: tx %s: %v", ErrLedgerUnavailable, hexHash, err)
	}
	return opt.UnwrapOr(0), nil
}
