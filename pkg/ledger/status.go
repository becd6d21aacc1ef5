// Package ledger is the single point of contact with the ledger. Reader and daemon
// failures never escape it: they become false, empty or None results and a log line.
package ledger

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/canopy-network/walletsync/pkg/network"
	"github.com/canopy-network/walletsync/pkg/unlock"
	"github.com/canopy-network/walletsync/pkg/utils"
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"
)

const feeKey = "fee_per_kb"

// Config tunes a Status.
type Config struct {
	SpendableAge   uint64
	FeeCacheTTL    time.Duration
	FeeGraceBlocks uint64
}

func DefaultConfig() Config {
	return Config{
		SpendableAge:   unlock.DefaultSpendableAge,
		FeeCacheTTL:    30 * time.Second,
		FeeGraceBlocks: 10,
	}
}

type Option func(*Status)

func WithDecoder(d TxDecoder) Option {
	return func(s *Status) { s.decoder = d }
}

func WithObserver(o Observer) Option {
	return func(s *Status) { s.observer = o }
}

// Status normalizes ledger queries for the rest of the service.
type Status struct {
	logger   *zap.Logger
	reader   Reader
	daemon   Daemon
	decoder  TxDecoder
	checker  *unlock.Checker
	observer Observer
	cfg      Config

	chain   atomic.Pointer[BlockchainSnapshot]
	mempool atomic.Pointer[MempoolSnapshot]
	fees    *ttlcache.Cache[string, uint64]
}

func New(logger *zap.Logger, reader Reader, daemon Daemon, checker *unlock.Checker, cfg Config, opts ...Option) *Status {
	if cfg.SpendableAge == 0 {
		cfg.SpendableAge = unlock.DefaultSpendableAge
	}
	s := &Status{
		logger:   logger.With(zap.String("component", "ledger_status"), zap.Stringer("network", checker.Network())),
		reader:   reader,
		daemon:   daemon,
		decoder:  KeccakDecoder{},
		checker:  checker,
		observer: noopObserver{},
		cfg:      cfg,
		fees: ttlcache.New[string, uint64](
			ttlcache.WithTTL[string, uint64](cfg.FeeCacheTTL),
			ttlcache.WithDisableTouchOnHit[string, uint64](),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.chain.Store(&BlockchainSnapshot{})
	s.mempool.Store(&MempoolSnapshot{})
	return s
}

func (s *Status) Network() network.Type { return s.checker.Network() }

func (s *Status) SpendableAge() uint64 { return s.cfg.SpendableAge }

// fail records a swallowed reader error. Not-found is expected and logged quietly.
func (s *Status) fail(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("op", op), zap.Error(err))
	if IsNotFound(err) {
		s.logger.Debug("Ledger entity not found", fields...)
		return
	}
	s.observer.LedgerFailure(op)
	s.logger.Warn("Ledger query failed", fields...)
}

// UpdateCurrentHeight refreshes the chain snapshot. The stored height is one below the
// raw ledger height so it always names a block whose data is complete.
func (s *Status) UpdateCurrentHeight(ctx context.Context) bool {
	raw, err := s.reader.Height(ctx)
	if err != nil {
		s.fail("height", err)
		return false
	}
	h := uint64(0)
	if raw > 0 {
		h = raw - 1
	}
	s.chain.Store(&BlockchainSnapshot{Height: h})
	s.observer.ChainHeight(h)
	return true
}

// CurrentHeight returns the cached height. It is only refreshed by UpdateCurrentHeight.
func (s *Status) CurrentHeight() uint64 {
	return s.chain.Load().Height
}

func (s *Status) LookupBlock(ctx context.Context, height uint64) Outcome[*Block] {
	blk, err := s.reader.BlockByHeight(ctx, height)
	return Classify(blk, err)
}

func (s *Status) Block(ctx context.Context, height uint64) (*Block, bool) {
	blk, err := s.reader.BlockByHeight(ctx, height)
	if err != nil {
		s.fail("block", err, zap.Uint64("height", height))
		return nil, false
	}
	return blk, true
}

// BlocksRange returns [from, to] or nothing at all.
func (s *Status) BlocksRange(ctx context.Context, from, to uint64) []*Block {
	blks, err := s.reader.BlocksRange(ctx, from, to)
	if err != nil {
		s.fail("blocks_range", err, zap.Uint64("from", from), zap.Uint64("to", to))
		return []*Block{}
	}
	return blks
}

// Txs fetches transactions by hash. ok is false only when the call itself failed;
// unknown hashes come back in missed.
func (s *Status) Txs(ctx context.Context, hashes []Hash) (ok bool, txs []*Tx, missed []Hash) {
	txs, missed, err := s.reader.Transactions(ctx, hashes)
	if err != nil {
		s.fail("transactions", err, zap.Int("count", len(hashes)))
		return false, nil, nil
	}
	return true, txs, missed
}

func (s *Status) BlockTxs(ctx context.Context, blk *Block) (ok bool, txs []*Tx, missed []Hash) {
	if blk == nil {
		return false, nil, nil
	}
	return s.Txs(ctx, blk.TxHashes)
}

func (s *Status) LookupTxID(ctx context.Context, hash Hash) Outcome[uint64] {
	id, err := s.reader.TxID(ctx, hash)
	return Classify(id, err)
}

// TxExistsWithID reports whether hash is in the ledger and its ledger-assigned id.
func (s *Status) TxExistsWithID(ctx context.Context, hash Hash) (bool, uint64) {
	id, err := s.reader.TxID(ctx, hash)
	if err != nil {
		s.fail("tx_id", err, zap.Stringer("tx_hash", hash))
		return false, 0
	}
	return true, id
}

func (s *Status) TxExists(ctx context.Context, hash Hash) bool {
	ok, _ := s.TxExistsWithID(ctx, hash)
	return ok
}

// TxExistsHex is TxExistsWithID for a hex encoded hash. Malformed input never reaches the ledger.
func (s *Status) TxExistsHex(ctx context.Context, hexHash string) (bool, uint64) {
	b, ok := utils.ParseHash32(hexHash)
	if !ok {
		s.logger.Debug("Rejecting malformed tx hash", zap.String("tx_hash", hexHash))
		return false, 0
	}
	return s.TxExistsWithID(ctx, Hash(b))
}

// TxWithOutput finds the transaction that created a global output and the output's index in it.
func (s *Status) TxWithOutput(ctx context.Context, amount, globalIndex uint64) (*Tx, uint64, bool) {
	hash, idx, err := s.reader.OutputTx(ctx, amount, globalIndex)
	if err != nil {
		s.fail("output_tx", err, zap.Uint64("amount", amount), zap.Uint64("global_index", globalIndex))
		return nil, 0, false
	}
	ok, txs, _ := s.Txs(ctx, []Hash{hash})
	if !ok || len(txs) == 0 {
		return nil, 0, false
	}
	return txs[0], idx, true
}

// OutputKeys returns nil, false on any failure.
func (s *Status) OutputKeys(ctx context.Context, amount uint64, offsets []uint64) ([]OutputData, bool) {
	outs, err := s.reader.OutputKeys(ctx, amount, offsets)
	if err != nil {
		s.fail("output_keys", err, zap.Uint64("amount", amount), zap.Int("offsets", len(offsets)))
		return nil, false
	}
	return outs, true
}

// AmountSpecificIndices returns the global output indices of every output of a tx.
func (s *Status) AmountSpecificIndices(ctx context.Context, hash Hash) ([]uint64, bool) {
	exists, id := s.TxExistsWithID(ctx, hash)
	if !exists {
		return nil, false
	}
	idx, err := s.reader.TxAmountOutputIndices(ctx, id)
	if err != nil {
		s.fail("amount_output_indices", err, zap.Stringer("tx_hash", hash))
		return nil, false
	}
	return idx, true
}

func (s *Status) RandomOutputs(ctx context.Context, amounts []uint64, count uint64) ([]OutsForAmount, bool) {
	outs, err := s.reader.RandomOutputs(ctx, amounts, count)
	if err != nil {
		s.fail("random_outputs", err, zap.Int("amounts", len(amounts)), zap.Uint64("count", count))
		return nil, false
	}
	return outs, true
}

func (s *Status) Output(ctx context.Context, amount, globalIndex uint64) (OutKey, bool) {
	out, err := s.reader.Output(ctx, amount, globalIndex)
	if err != nil {
		s.fail("output", err, zap.Uint64("amount", amount), zap.Uint64("global_index", globalIndex))
		return OutKey{}, false
	}
	return out, true
}

// FeeEstimate returns the per-kb fee, or 0 when the ledger cannot be asked.
// Successful answers are cached for FeeCacheTTL.
func (s *Status) FeeEstimate(ctx context.Context) uint64 {
	if item := s.fees.Get(feeKey); item != nil {
		return item.Value()
	}
	fee, err := s.reader.FeeEstimate(ctx, s.cfg.FeeGraceBlocks)
	if err != nil {
		s.fail("fee_estimate", err)
		return 0
	}
	s.fees.Set(feeKey, fee, ttlcache.DefaultTTL)
	return fee
}

// IsTxUnlocked evaluates an unlock constraint against the cached height and the clock.
func (s *Status) IsTxUnlocked(unlockTime, txHeight uint64) bool {
	return s.checker.IsUnlocked(unlockTime, txHeight, s.CurrentHeight())
}

// CommitTx relays a hex encoded tx through the daemon.
func (s *Status) CommitTx(ctx context.Context, txBlob string, doNotRelay bool) (bool, string) {
	accepted, reason, err := s.daemon.CommitTx(ctx, txBlob, doNotRelay)
	if err != nil {
		s.fail("commit_tx", err)
		return false, err.Error()
	}
	if !accepted {
		s.logger.Info("Daemon rejected transaction", zap.String("reason", reason))
	}
	return accepted, reason
}
