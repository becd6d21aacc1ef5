package ledger

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockReader struct {
	mock.Mock
}

func (m *mockReader) Height(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockReader) BlockByHeight(ctx context.Context, height uint64) (*Block, error) {
	args := m.Called(ctx, height)
	blk, _ := args.Get(0).(*Block)
	return blk, args.Error(1)
}

func (m *mockReader) BlocksRange(ctx context.Context, from, to uint64) ([]*Block, error) {
	args := m.Called(ctx, from, to)
	blks, _ := args.Get(0).([]*Block)
	return blks, args.Error(1)
}

func (m *mockReader) Transactions(ctx context.Context, hashes []Hash) ([]*Tx, []Hash, error) {
	args := m.Called(ctx, hashes)
	txs, _ := args.Get(0).([]*Tx)
	missed, _ := args.Get(1).([]Hash)
	return txs, missed, args.Error(2)
}

func (m *mockReader) TxID(ctx context.Context, hash Hash) (uint64, error) {
	args := m.Called(ctx, hash)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockReader) OutputTx(ctx context.Context, amount, globalIndex uint64) (Hash, uint64, error) {
	args := m.Called(ctx, amount, globalIndex)
	return args.Get(0).(Hash), args.Get(1).(uint64), args.Error(2)
}

func (m *mockReader) OutputKeys(ctx context.Context, amount uint64, offsets []uint64) ([]OutputData, error) {
	args := m.Called(ctx, amount, offsets)
	outs, _ := args.Get(0).([]OutputData)
	return outs, args.Error(1)
}

func (m *mockReader) TxAmountOutputIndices(ctx context.Context, txID uint64) ([]uint64, error) {
	args := m.Called(ctx, txID)
	idx, _ := args.Get(0).([]uint64)
	return idx, args.Error(1)
}

func (m *mockReader) RandomOutputs(ctx context.Context, amounts []uint64, count uint64) ([]OutsForAmount, error) {
	args := m.Called(ctx, amounts, count)
	outs, _ := args.Get(0).([]OutsForAmount)
	return outs, args.Error(1)
}

func (m *mockReader) Output(ctx context.Context, amount, globalIndex uint64) (OutKey, error) {
	args := m.Called(ctx, amount, globalIndex)
	return args.Get(0).(OutKey), args.Error(1)
}

func (m *mockReader) FeeEstimate(ctx context.Context, graceBlocks uint64) (uint64, error) {
	args := m.Called(ctx, graceBlocks)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockReader) MempoolEntries(ctx context.Context) ([]MempoolEntry, error) {
	args := m.Called(ctx)
	entries, _ := args.Get(0).([]MempoolEntry)
	return entries, args.Error(1)
}

type mockDaemon struct {
	mock.Mock
}

func (m *mockDaemon) CommitTx(ctx context.Context, txBlob string, doNotRelay bool) (bool, string, error) {
	args := m.Called(ctx, txBlob, doNotRelay)
	return args.Bool(0), args.String(1), args.Error(2)
}

// aliasDecoder decodes blobs listed in alias as if they were another blob.
type aliasDecoder struct {
	alias map[string]string
}

func (d aliasDecoder) Decode(blob []byte) (*Tx, error) {
	if other, ok := d.alias[string(blob)]; ok {
		blob = []byte(other)
	}
	return KeccakDecoder{}.Decode(blob)
}

type recordingObserver struct {
	failures []string
	height   uint64
	mempool  int
}

func (r *recordingObserver) LedgerFailure(op string) { r.failures = append(r.failures, op) }
func (r *recordingObserver) ChainHeight(h uint64)    { r.height = h }
func (r *recordingObserver) MempoolSize(n int)       { r.mempool = n }
