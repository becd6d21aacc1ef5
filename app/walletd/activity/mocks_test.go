package activity_test

import (
	"context"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/mock"

	models "github.com/canopy-network/walletsync/pkg/db/models/wallet"
	"github.com/canopy-network/walletsync/pkg/ledger"
	"github.com/canopy-network/walletsync/pkg/network"
	"github.com/canopy-network/walletsync/pkg/unlock"
)

// fakeLedger answers unlock checks with a real Checker at a fixed height.
type fakeLedger struct {
	mu         sync.Mutex
	checker    *unlock.Checker
	height     uint64
	ids        map[ledger.Hash]uint64
	lookupErr  error
	heightOK   bool
	mempoolOK  bool
	mempool    []ledger.MempoolTx
	fee        uint64
	commitOK   bool
	commitWhy  string
	committed  []string
	heightRuns int
	lookups    int
	onLookup   func()
}

func newFakeLedger(height uint64) *fakeLedger {
	return &fakeLedger{
		checker:   unlock.NewChecker(network.Testnet, clock.NewTestClock(time.Unix(1000000000, 0))),
		height:    height,
		ids:       map[ledger.Hash]uint64{},
		heightOK:  true,
		mempoolOK: true,
	}
}

func (f *fakeLedger) IsTxUnlocked(unlockTime, txHeight uint64) bool {
	return f.checker.IsUnlocked(unlockTime, txHeight, f.height)
}

func (f *fakeLedger) LookupTxID(_ context.Context, hash ledger.Hash) ledger.Outcome[uint64] {
	f.lookups++
	if f.onLookup != nil {
		f.onLookup()
	}
	if f.lookupErr != nil {
		return fn.Err[fn.Option[uint64]](f.lookupErr)
	}
	id, ok := f.ids[hash]
	if !ok {
		return fn.Ok(fn.None[uint64]())
	}
	return fn.Ok(fn.Some(id))
}

func (f *fakeLedger) SpendableAge() uint64           { return unlock.DefaultSpendableAge }
func (f *fakeLedger) Network() network.Type          { return f.checker.Network() }
func (f *fakeLedger) CurrentHeight() uint64          { return f.height }
func (f *fakeLedger) MempoolTxs() []ledger.MempoolTx { return f.mempool }

func (f *fakeLedger) UpdateCurrentHeight(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heightRuns++
	return f.heightOK
}

func (f *fakeLedger) ReadMempool(context.Context) bool { return f.mempoolOK }

func (f *fakeLedger) FeeEstimate(context.Context) uint64 { return f.fee }

func (f *fakeLedger) CommitTx(_ context.Context, txBlob string, _ bool) (bool, string) {
	f.committed = append(f.committed, txBlob)
	return f.commitOK, f.commitWhy
}

// mockStore runs BeginFunc inline; rollback is modelled by the returned error.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) BeginFunc(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Called(ctx)
	return fn(ctx)
}

func (m *mockStore) MarkTxSpendable(ctx context.Context, id uint64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) DeleteTx(ctx context.Context, id uint64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) AccountByAddress(ctx context.Context, address string) (*models.Account, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *mockStore) AccountIDs(ctx context.Context) ([]uint64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint64), args.Error(1)
}

func (m *mockStore) TxsForAccount(ctx context.Context, accountID uint64) ([]models.Transaction, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *mockStore) TotalReceived(ctx context.Context, accountID uint64) (uint64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockStore) UpdateAccountScan(ctx context.Context, id, totalReceived, scannedHeight uint64, scannedAt time.Time) (int64, error) {
	args := m.Called(ctx, id, totalReceived, scannedHeight, scannedAt)
	return args.Get(0).(int64), args.Error(1)
}

type recordingObserver struct {
	mu       sync.Mutex
	promoted []uint64
	evicted  []uint64
}

func (r *recordingObserver) Promoted(tx models.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.promoted = append(r.promoted, tx.ID)
}

func (r *recordingObserver) Evicted(tx models.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evicted = append(r.evicted, tx.ID)
}

type recordingRecorder struct {
	mu       sync.Mutex
	failures []string
	samples  int
}

func (r *recordingRecorder) PassFailed(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, reason)
}

func (r *recordingRecorder) DispatcherLoad(int64, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples++
}
