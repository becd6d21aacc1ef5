package activity

import (
	"context"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"go.uber.org/zap"

	models "github.com/canopy-network/walletsync/pkg/db/models/wallet"
	"github.com/canopy-network/walletsync/pkg/dispatch"
	"github.com/canopy-network/walletsync/pkg/ledger"
	"github.com/canopy-network/walletsync/pkg/network"
	"github.com/canopy-network/walletsync/pkg/reconcile"
)

// Ledger is the slice of ledger.Status the activities use.
type Ledger interface {
	reconcile.Ledger
	Network() network.Type
	UpdateCurrentHeight(ctx context.Context) bool
	CurrentHeight() uint64
	ReadMempool(ctx context.Context) bool
	MempoolTxs() []ledger.MempoolTx
	FeeEstimate(ctx context.Context) uint64
	CommitTx(ctx context.Context, txBlob string, doNotRelay bool) (bool, string)
}

// Store is the slice of the wallet accessor layer the activities use.
type Store interface {
	reconcile.Store
	BeginFunc(ctx context.Context, fn func(ctx context.Context) error) error
	AccountByAddress(ctx context.Context, address string) (*models.Account, error)
	AccountIDs(ctx context.Context) ([]uint64, error)
	TxsForAccount(ctx context.Context, accountID uint64) ([]models.Transaction, error)
	TotalReceived(ctx context.Context, accountID uint64) (uint64, error)
	UpdateAccountScan(ctx context.Context, id, totalReceived, scannedHeight uint64, scannedAt time.Time) (int64, error)
}

// Recorder receives pass and dispatcher samples.
type Recorder interface {
	PassFailed(reason string)
	DispatcherLoad(running int64, waiting uint64)
}

type noopRecorder struct{}

func (noopRecorder) PassFailed(string)            {}
func (noopRecorder) DispatcherLoad(int64, uint64) {}

type Context struct {
	Logger *zap.Logger
	// Ledger view and wallet store
	Ledger Ledger
	Store  Store
	// Background jobs and per account serialization
	Dispatcher *dispatch.Dispatcher
	Locks      *dispatch.KeyedLocks
	// Observer is told about committed promotions and evictions
	Observer reconcile.Observer
	Recorder Recorder
	Clock    clock.Clock
}

func (c *Context) recorder() Recorder {
	if c.Recorder == nil {
		return noopRecorder{}
	}
	return c.Recorder
}

func (c *Context) now() time.Time {
	if c.Clock == nil {
		return time.Now()
	}
	return c.Clock.Now()
}
