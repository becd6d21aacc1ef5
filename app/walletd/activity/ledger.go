package activity

import (
	"context"
	"errors"

	"github.com/canopy-network/walletsync/app/walletd/types"
)

var ErrEmptyTx = errors.New("empty transaction blob")

func (c *Context) Status() types.Status {
	s := types.Status{
		Network:     c.Ledger.Network().String(),
		Height:      c.Ledger.CurrentHeight(),
		MempoolSize: len(c.Ledger.MempoolTxs()),
	}
	if c.Dispatcher != nil {
		s.InFlight = c.Dispatcher.RunningWorkers()
		s.Queued = c.Dispatcher.WaitingTasks()
	}
	return s
}

func (c *Context) FeeEstimate(ctx context.Context) types.Fee {
	return types.Fee{Fee: c.Ledger.FeeEstimate(ctx)}
}

// CommitTx relays a hex encoded transaction. Rejections are part of the response.
func (c *Context) CommitTx(ctx context.Context, req types.CommitTxRequest) (types.CommitTxResponse, error) {
	if req.TxBlob == "" {
		return types.CommitTxResponse{}, ErrEmptyTx
	}
	accepted, reason := c.Ledger.CommitTx(ctx, req.TxBlob, req.DoNotRelay)
	return types.CommitTxResponse{Accepted: accepted, Reason: reason}, nil
}
