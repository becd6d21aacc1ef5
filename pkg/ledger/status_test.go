package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/canopy-network/walletsync/pkg/network"
	"github.com/canopy-network/walletsync/pkg/unlock"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const mockNow int64 = 1000000000

var errTransport = errors.New("connection refused")

type fixture struct {
	status   *Status
	reader   *mockReader
	daemon   *mockDaemon
	observer *recordingObserver
}

func newFixture(t *testing.T, net network.Type, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		reader:   &mockReader{},
		daemon:   &mockDaemon{},
		observer: &recordingObserver{},
	}
	checker := unlock.NewChecker(net, clock.NewTestClock(time.Unix(mockNow, 0)))
	opts = append([]Option{WithObserver(f.observer)}, opts...)
	f.status = New(zaptest.NewLogger(t), f.reader, f.daemon, checker, DefaultConfig(), opts...)
	return f
}

func forEachNetwork(t *testing.T, fn func(t *testing.T, net network.Type)) {
	for _, net := range network.All {
		t.Run(net.String(), func(t *testing.T) { fn(t, net) })
	}
}

func hashOf(b byte) Hash { return Hash{b} }

func TestUpdateCurrentHeight(t *testing.T) {
	forEachNetwork(t, func(t *testing.T, net network.Type) {
		f := newFixture(t, net)
		f.reader.On("Height", mock.Anything).Return(uint64(1619148), nil).Once()
		f.reader.On("Height", mock.Anything).Return(uint64(0), errTransport).Once()

		require.True(t, f.status.UpdateCurrentHeight(context.Background()))
		assert.Equal(t, uint64(1619147), f.status.CurrentHeight())
		assert.Equal(t, uint64(1619147), f.observer.height)

		assert.False(t, f.status.UpdateCurrentHeight(context.Background()))
		assert.Equal(t, uint64(1619147), f.status.CurrentHeight(), "failed refresh keeps snapshot")
		f.reader.AssertExpectations(t)
	})
}

func TestUpdateCurrentHeightGenesis(t *testing.T) {
	f := newFixture(t, network.Mainnet)
	f.reader.On("Height", mock.Anything).Return(uint64(0), nil)
	require.True(t, f.status.UpdateCurrentHeight(context.Background()))
	assert.Equal(t, uint64(0), f.status.CurrentHeight())
}

func TestBlock(t *testing.T) {
	forEachNetwork(t, func(t *testing.T, net network.Type) {
		f := newFixture(t, net)
		blk := &Block{Height: 1, Hash: hashOf(1)}
		f.reader.On("BlockByHeight", mock.Anything, uint64(1)).Return(blk, nil)
		f.reader.On("BlockByHeight", mock.Anything, uint64(2)).Return(nil, ErrBlockNotFound)
		f.reader.On("BlockByHeight", mock.Anything, uint64(3)).Return(nil, errTransport)

		got, ok := f.status.Block(context.Background(), 1)
		require.True(t, ok)
		assert.Equal(t, blk, got)

		_, ok = f.status.Block(context.Background(), 2)
		assert.False(t, ok)
		_, ok = f.status.Block(context.Background(), 3)
		assert.False(t, ok)
		assert.Equal(t, []string{"block"}, f.observer.failures, "not found is not a failure")
	})
}

func TestLookupBlockOutcomes(t *testing.T) {
	f := newFixture(t, network.Mainnet)
	blk := &Block{Height: 1}
	f.reader.On("BlockByHeight", mock.Anything, uint64(1)).Return(blk, nil)
	f.reader.On("BlockByHeight", mock.Anything, uint64(2)).Return(nil, ErrBlockNotFound)
	f.reader.On("BlockByHeight", mock.Anything, uint64(3)).Return(nil, errTransport)

	found := f.status.LookupBlock(context.Background(), 1)
	got, ok := Found(found)
	require.True(t, ok)
	assert.Equal(t, blk, got)

	missing, err := f.status.LookupBlock(context.Background(), 2).Unpack()
	require.NoError(t, err)
	assert.True(t, missing.IsNone())

	failed := f.status.LookupBlock(context.Background(), 3)
	assert.True(t, failed.IsErr())
	_, ok = Found(failed)
	assert.False(t, ok)
}

func TestBlocksRange(t *testing.T) {
	forEachNetwork(t, func(t *testing.T, net network.Type) {
		f := newFixture(t, net)
		blks := []*Block{{Height: 1}, {Height: 2}}
		f.reader.On("BlocksRange", mock.Anything, uint64(1), uint64(2)).Return(blks, nil)
		f.reader.On("BlocksRange", mock.Anything, uint64(1), uint64(9)).Return(nil, ErrBlockNotFound)

		assert.Equal(t, blks, f.status.BlocksRange(context.Background(), 1, 2))
		got := f.status.BlocksRange(context.Background(), 1, 9)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestTxs(t *testing.T) {
	forEachNetwork(t, func(t *testing.T, net network.Type) {
		f := newFixture(t, net)
		ids := []Hash{hashOf(1), hashOf(2)}
		txs := []*Tx{{Hash: hashOf(1)}}
		f.reader.On("Transactions", mock.Anything, ids).Return(txs, []Hash{hashOf(2)}, nil).Once()
		f.reader.On("Transactions", mock.Anything, ids).Return(nil, nil, errTransport).Once()

		ok, got, missed := f.status.Txs(context.Background(), ids)
		require.True(t, ok)
		assert.Equal(t, txs, got)
		assert.Equal(t, []Hash{hashOf(2)}, missed)

		ok, _, _ = f.status.Txs(context.Background(), ids)
		assert.False(t, ok)
	})
}

func TestBlockTxs(t *testing.T) {
	f := newFixture(t, network.Stagenet)
	blk := &Block{TxHashes: []Hash{hashOf(4)}}
	f.reader.On("Transactions", mock.Anything, blk.TxHashes).Return([]*Tx{{Hash: hashOf(4)}}, []Hash(nil), nil)

	ok, txs, missed := f.status.BlockTxs(context.Background(), blk)
	require.True(t, ok)
	assert.Len(t, txs, 1)
	assert.Empty(t, missed)

	ok, _, _ = f.status.BlockTxs(context.Background(), nil)
	assert.False(t, ok)
}

func TestTxExists(t *testing.T) {
	forEachNetwork(t, func(t *testing.T, net network.Type) {
		f := newFixture(t, net)
		known, unknown := hashOf(1), hashOf(2)
		f.reader.On("TxID", mock.Anything, known).Return(uint64(123), nil)
		f.reader.On("TxID", mock.Anything, unknown).Return(uint64(0), ErrTxNotFound)

		assert.True(t, f.status.TxExists(context.Background(), known))
		assert.False(t, f.status.TxExists(context.Background(), unknown))

		ok, id := f.status.TxExistsWithID(context.Background(), known)
		assert.True(t, ok)
		assert.Equal(t, uint64(123), id)

		ok, id = f.status.TxExistsHex(context.Background(), known.String())
		assert.True(t, ok)
		assert.Equal(t, uint64(123), id)
	})
}

func TestTxExistsHexRejectsMalformed(t *testing.T) {
	f := newFixture(t, network.Mainnet)
	for _, in := range []string{"", "abc", strings.Repeat("g", 64), strings.Repeat("a", 66)} {
		ok, id := f.status.TxExistsHex(context.Background(), in)
		assert.False(t, ok, in)
		assert.Zero(t, id)
	}
	f.reader.AssertNotCalled(t, "TxID", mock.Anything, mock.Anything)
}

func TestLookupTxID(t *testing.T) {
	f := newFixture(t, network.Mainnet)
	f.reader.On("TxID", mock.Anything, hashOf(1)).Return(uint64(7), nil)
	f.reader.On("TxID", mock.Anything, hashOf(2)).Return(uint64(0), ErrTxNotFound)
	f.reader.On("TxID", mock.Anything, hashOf(3)).Return(uint64(0), errTransport)

	id, ok := Found(f.status.LookupTxID(context.Background(), hashOf(1)))
	assert.True(t, ok)
	assert.Equal(t, uint64(7), id)

	opt, err := f.status.LookupTxID(context.Background(), hashOf(2)).Unpack()
	require.NoError(t, err)
	assert.True(t, opt.IsNone())

	_, err = f.status.LookupTxID(context.Background(), hashOf(3)).Unpack()
	assert.ErrorIs(t, err, errTransport)
}

func TestTxWithOutput(t *testing.T) {
	forEachNetwork(t, func(t *testing.T, net network.Type) {
		f := newFixture(t, net)
		txHash := hashOf(9)
		f.reader.On("OutputTx", mock.Anything, uint64(0), uint64(55)).Return(txHash, uint64(1), nil)
		f.reader.On("OutputTx", mock.Anything, uint64(0), uint64(56)).Return(Hash{}, uint64(0), ErrOutputNotFound)
		f.reader.On("Transactions", mock.Anything, []Hash{txHash}).Return([]*Tx{{Hash: txHash}}, []Hash(nil), nil)

		tx, idx, ok := f.status.TxWithOutput(context.Background(), 0, 55)
		require.True(t, ok)
		assert.Equal(t, txHash, tx.Hash)
		assert.Equal(t, uint64(1), idx)

		_, _, ok = f.status.TxWithOutput(context.Background(), 0, 56)
		assert.False(t, ok)
	})
}

func TestTxWithOutputTxMissing(t *testing.T) {
	f := newFixture(t, network.Mainnet)
	txHash := hashOf(9)
	f.reader.On("OutputTx", mock.Anything, uint64(0), uint64(55)).Return(txHash, uint64(1), nil)
	f.reader.On("Transactions", mock.Anything, []Hash{txHash}).Return([]*Tx{}, []Hash{txHash}, nil)

	_, _, ok := f.status.TxWithOutput(context.Background(), 0, 55)
	assert.False(t, ok)
}

func TestOutputKeys(t *testing.T) {
	forEachNetwork(t, func(t *testing.T, net network.Type) {
		f := newFixture(t, net)
		offsets := []uint64{1, 2}
		outs := []OutputData{{Height: 1}, {Height: 2}}
		f.reader.On("OutputKeys", mock.Anything, uint64(0), offsets).Return(outs, nil).Once()
		f.reader.On("OutputKeys", mock.Anything, uint64(0), offsets).Return(nil, ErrOutputNotFound).Once()

		got, ok := f.status.OutputKeys(context.Background(), 0, offsets)
		require.True(t, ok)
		assert.Equal(t, outs, got)

		got, ok = f.status.OutputKeys(context.Background(), 0, offsets)
		assert.False(t, ok)
		assert.Nil(t, got)
		assert.Equal(t, []uint64{1, 2}, offsets)
	})
}

func TestAmountSpecificIndices(t *testing.T) {
	forEachNetwork(t, func(t *testing.T, net network.Type) {
		f := newFixture(t, net)
		ok1, missing, broken := hashOf(1), hashOf(2), hashOf(3)
		f.reader.On("TxID", mock.Anything, ok1).Return(uint64(10), nil)
		f.reader.On("TxID", mock.Anything, missing).Return(uint64(0), ErrTxNotFound)
		f.reader.On("TxID", mock.Anything, broken).Return(uint64(11), nil)
		f.reader.On("TxAmountOutputIndices", mock.Anything, uint64(10)).Return([]uint64{1, 2, 3}, nil)
		f.reader.On("TxAmountOutputIndices", mock.Anything, uint64(11)).Return(nil, errTransport)

		idx, ok := f.status.AmountSpecificIndices(context.Background(), ok1)
		require.True(t, ok)
		assert.Equal(t, []uint64{1, 2, 3}, idx)

		_, ok = f.status.AmountSpecificIndices(context.Background(), missing)
		assert.False(t, ok)
		_, ok = f.status.AmountSpecificIndices(context.Background(), broken)
		assert.False(t, ok)
		f.reader.AssertNotCalled(t, "TxAmountOutputIndices", mock.Anything, uint64(0))
	})
}

func TestRandomOutputs(t *testing.T) {
	forEachNetwork(t, func(t *testing.T, net network.Type) {
		f := newFixture(t, net)
		amounts := []uint64{0}
		outs := []OutsForAmount{{Amount: 0, Outs: []OutEntry{{GlobalIndex: 5}}}}
		f.reader.On("RandomOutputs", mock.Anything, amounts, uint64(11)).Return(outs, nil).Once()
		f.reader.On("RandomOutputs", mock.Anything, amounts, uint64(11)).Return(nil, errTransport).Once()

		got, ok := f.status.RandomOutputs(context.Background(), amounts, 11)
		require.True(t, ok)
		assert.Equal(t, outs, got)

		_, ok = f.status.RandomOutputs(context.Background(), amounts, 11)
		assert.False(t, ok)
	})
}

func TestOutput(t *testing.T) {
	forEachNetwork(t, func(t *testing.T, net network.Type) {
		f := newFixture(t, net)
		out := OutKey{Key: hashOf(1), Unlocked: true}
		f.reader.On("Output", mock.Anything, uint64(0), uint64(3)).Return(out, nil)
		f.reader.On("Output", mock.Anything, uint64(0), uint64(4)).Return(OutKey{}, ErrOutputNotFound)

		got, ok := f.status.Output(context.Background(), 0, 3)
		require.True(t, ok)
		assert.Equal(t, out, got)

		_, ok = f.status.Output(context.Background(), 0, 4)
		assert.False(t, ok)
	})
}

func TestFeeEstimateCached(t *testing.T) {
	f := newFixture(t, network.Mainnet)
	f.reader.On("FeeEstimate", mock.Anything, uint64(10)).Return(uint64(0), errTransport).Once()
	f.reader.On("FeeEstimate", mock.Anything, uint64(10)).Return(uint64(3320000), nil).Once()

	assert.Equal(t, uint64(0), f.status.FeeEstimate(context.Background()))
	assert.Equal(t, uint64(3320000), f.status.FeeEstimate(context.Background()))
	assert.Equal(t, uint64(3320000), f.status.FeeEstimate(context.Background()))
	f.reader.AssertNumberOfCalls(t, "FeeEstimate", 2)
}

func TestIsTxUnlocked(t *testing.T) {
	forEachNetwork(t, func(t *testing.T, net network.Type) {
		f := newFixture(t, net)
		f.reader.On("Height", mock.Anything).Return(uint64(101), nil)
		require.True(t, f.status.UpdateCurrentHeight(context.Background()))
		current := f.status.CurrentHeight()
		require.Equal(t, uint64(100), current)

		assert.False(t, f.status.IsTxUnlocked(current+10, 0))
		assert.False(t, f.status.IsTxUnlocked(current+1, 0))
		assert.True(t, f.status.IsTxUnlocked(current-10, 0))
		assert.True(t, f.status.IsTxUnlocked(current, 0))

		now := uint64(mockNow)
		leeway := unlock.Leeway(net, 0)
		assert.True(t, f.status.IsTxUnlocked(now, 0))
		assert.False(t, f.status.IsTxUnlocked(now+leeway+1, 0))
	})
}

func TestCommitTx(t *testing.T) {
	forEachNetwork(t, func(t *testing.T, net network.Type) {
		f := newFixture(t, net)
		f.daemon.On("CommitTx", mock.Anything, "aa", false).Return(true, "", nil)
		f.daemon.On("CommitTx", mock.Anything, "bb", true).Return(false, "double spend", nil)
		f.daemon.On("CommitTx", mock.Anything, "cc", false).Return(false, "", errTransport)

		ok, msg := f.status.CommitTx(context.Background(), "aa", false)
		assert.True(t, ok)
		assert.Empty(t, msg)

		ok, msg = f.status.CommitTx(context.Background(), "bb", true)
		assert.False(t, ok)
		assert.Equal(t, "double spend", msg)

		ok, msg = f.status.CommitTx(context.Background(), "cc", false)
		assert.False(t, ok)
		assert.Contains(t, msg, "connection refused")
	})
}
