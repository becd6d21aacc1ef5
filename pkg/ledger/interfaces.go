package ledger

import (
	"context"
	"errors"
)

var (
	ErrBlockNotFound  = errors.New("block not found")
	ErrTxNotFound     = errors.New("transaction not found")
	ErrOutputNotFound = errors.New("output not found")

	// ErrCorruptMempool means a mempool read decoded to fewer unique hashes than entries.
	ErrCorruptMempool = errors.New("mempool read has duplicate transactions")
)

// IsNotFound reports whether err is one of the ledger not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBlockNotFound) ||
		errors.Is(err, ErrTxNotFound) ||
		errors.Is(err, ErrOutputNotFound)
}

// Reader is the local ledger view. Absent entities are reported with the
// not-found sentinels; any other error is a transport or decoding failure.
type Reader interface {
	Height(ctx context.Context) (uint64, error)
	BlockByHeight(ctx context.Context, height uint64) (*Block, error)
	BlocksRange(ctx context.Context, from, to uint64) ([]*Block, error)
	// Transactions returns the found txs plus the hashes the ledger does not know.
	Transactions(ctx context.Context, hashes []Hash) ([]*Tx, []Hash, error)
	TxID(ctx context.Context, hash Hash) (uint64, error)
	// OutputTx resolves a global output to the tx that created it and its index in that tx.
	OutputTx(ctx context.Context, amount, globalIndex uint64) (Hash, uint64, error)
	OutputKeys(ctx context.Context, amount uint64, offsets []uint64) ([]OutputData, error)
	TxAmountOutputIndices(ctx context.Context, txID uint64) ([]uint64, error)
	RandomOutputs(ctx context.Context, amounts []uint64, count uint64) ([]OutsForAmount, error)
	Output(ctx context.Context, amount, globalIndex uint64) (OutKey, error)
	FeeEstimate(ctx context.Context, graceBlocks uint64) (uint64, error)
	MempoolEntries(ctx context.Context) ([]MempoolEntry, error)
}

// Daemon relays transactions to the network.
type Daemon interface {
	// CommitTx submits a hex encoded tx. A rejection is reported through accepted
	// and reason; err is reserved for transport failures.
	CommitTx(ctx context.Context, txBlob string, doNotRelay bool) (accepted bool, reason string, err error)
}

// TxDecoder turns a raw transaction blob into a Tx with its content hash.
type TxDecoder interface {
	Decode(blob []byte) (*Tx, error)
}

// Observer receives ledger health signals. All methods must be safe for concurrent use.
type Observer interface {
	LedgerFailure(op string)
	ChainHeight(height uint64)
	MempoolSize(n int)
}

type noopObserver struct{}

func (noopObserver) LedgerFailure(string) {}
func (noopObserver) ChainHeight(uint64)   {}
func (noopObserver) MempoolSize(int)      {}
