package reconcile

import (
	"context"
	"fmt"

	models "github.com/canopy-network/walletsync/pkg/db/models/wallet"
	"github.com/canopy-network/walletsync/pkg/ledger"
)

// Prefetch resolves the ledger ids a pass over txs will ask for and returns a
// Ledger that answers those lookups from memory. Run it before opening the store
// transaction so no connection is held across ledger round trips.
//
// Only locked, non-spendable records are looked up. Hashes the pass asks for that
// were not prefetched fall through to l.
func Prefetch(ctx context.Context, l Ledger, txs []models.Transaction) (Ledger, error) {
	ids := make(map[ledger.Hash]ledger.Outcome[uint64])
	for i := range txs {
		tx := &txs[i]
		if tx.Spendable || l.IsTxUnlocked(effectiveUnlockTime(l, tx), tx.Height) {
			continue
		}
		hash, err := ledger.ParseHash(tx.Hash)
		if err != nil {
			continue
		}
		if _, seen := ids[hash]; seen {
			continue
		}
		outcome := l.LookupTxID(ctx, hash)
		if _, err := outcome.Unpack(); err != nil {
			return nil, fmt.Errorf("%w: tx %s: %v", ErrLedgerUnavailable, tx.Hash, err)
		}
		ids[hash] = outcome
	}
	return &prefetched{Ledger: l, ids: ids}, nil
}

type prefetched struct {
	Ledger
	ids map[ledger.Hash]ledger.Outcome[uint64]
}

func (p *prefetched) LookupTxID(ctx context.Context, hash ledger.Hash) ledger.Outcome[uint64] {
	if outcome, ok := p.ids[hash]; ok {
		return outcome
	}
	return p.Ledger.LookupTxID(ctx, hash)
}
