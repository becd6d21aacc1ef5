package ledger

import (
	"context"

	"go.uber.org/zap"
)

// ReadMempool replaces the mempool snapshot with a fresh read. The previous snapshot
// is kept when the fetch fails, any blob fails to decode, or two entries share a hash.
func (s *Status) ReadMempool(ctx context.Context) bool {
	entries, err := s.reader.MempoolEntries(ctx)
	if err != nil {
		s.fail("mempool", err)
		return false
	}

	txs := make([]MempoolTx, 0, len(entries))
	seen := make(map[Hash]struct{}, len(entries))
	for i, e := range entries {
		tx, err := s.decoder.Decode(e.Blob)
		if err != nil {
			s.observer.LedgerFailure("mempool_decode")
			s.logger.Warn("Failed to decode mempool tx", zap.Int("index", i), zap.Error(err))
			return false
		}
		seen[tx.Hash] = struct{}{}
		txs = append(txs, MempoolTx{Hash: tx.Hash, Tx: tx, ReceiveTime: e.ReceiveTime, Fee: e.Fee})
	}

	if len(seen) != len(entries) {
		s.observer.LedgerFailure("mempool_corrupt")
		s.logger.Error("Rejecting mempool read",
			zap.Int("entries", len(entries)),
			zap.Int("unique", len(seen)),
			zap.Error(ErrCorruptMempool))
		return false
	}

	s.mempool.Store(&MempoolSnapshot{Txs: txs})
	s.observer.MempoolSize(len(txs))
	return true
}

// MempoolTxs returns the current snapshot. Callers must not modify it.
func (s *Status) MempoolTxs() []MempoolTx {
	return s.mempool.Load().Txs
}

// FindInMempool looks up a tx in the current snapshot.
func (s *Status) FindInMempool(hash Hash) (MempoolTx, bool) {
	for _, mtx := range s.mempool.Load().Txs {
		if mtx.Hash == hash {
			return mtx, true
		}
	}
	return MempoolTx{}, false
}
