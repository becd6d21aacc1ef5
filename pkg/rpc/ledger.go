package rpc

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/canopy-network/walletsync/pkg/ledger"
)

var (
	_ ledger.Reader = (*HTTPClient)(nil)
	_ ledger.Daemon = (*HTTPClient)(nil)
)

// call runs doJSON and folds HTTP 404 and NOT_FOUND replies into notFound.
func (c *HTTPClient) call(ctx context.Context, path string, req any, out statusReply, notFound error) error {
	if err := c.doJSON(ctx, path, req, out); err != nil {
		if notFound != nil && isHTTPNotFound(err) {
			return notFound
		}
		return err
	}
	return out.reply().check(notFound)
}

func (c *HTTPClient) Height(ctx context.Context) (uint64, error) {
	var resp heightResponse
	if err := c.call(ctx, heightPath, nil, &resp, nil); err != nil {
		return 0, err
	}
	return resp.Height, nil
}

func (c *HTTPClient) BlockByHeight(ctx context.Context, height uint64) (*ledger.Block, error) {
	var resp blockResponse
	if err := c.call(ctx, blockPath, heightRequest{Height: height}, &resp, ledger.ErrBlockNotFound); err != nil {
		return nil, err
	}
	return &resp.Block, nil
}

// BlocksRange fails with ErrBlockNotFound unless every height in [from, to] is returned.
func (c *HTTPClient) BlocksRange(ctx context.Context, from, to uint64) ([]*ledger.Block, error) {
	if to < from {
		return nil, fmt.Errorf("invalid range %d..%d", from, to)
	}
	var resp blocksRangeResponse
	req := blocksRangeRequest{StartHeight: from, EndHeight: to}
	if err := c.call(ctx, blocksRangePath, req, &resp, ledger.ErrBlockNotFound); err != nil {
		return nil, err
	}
	if uint64(len(resp.Blocks)) != to-from+1 {
		return nil, fmt.Errorf("%w: got %d blocks for %d..%d", ledger.ErrBlockNotFound, len(resp.Blocks), from, to)
	}
	return resp.Blocks, nil
}

func (c *HTTPClient) Transactions(ctx context.Context, hashes []ledger.Hash) ([]*ledger.Tx, []ledger.Hash, error) {
	var resp transactionsResponse
	if err := c.call(ctx, transactionsPath, transactionsRequest{TxsHashes: hashes}, &resp, nil); err != nil {
		return nil, nil, err
	}
	txs := make([]*ledger.Tx, 0, len(resp.Txs))
	for _, e := range resp.Txs {
		blob, err := hex.DecodeString(e.AsHex)
		if err != nil {
			return nil, nil, fmt.Errorf("decode tx %s: %w", e.TxHash, err)
		}
		txs = append(txs, &ledger.Tx{
			Hash:       e.TxHash,
			Blob:       blob,
			Height:     e.BlockHeight,
			UnlockTime: e.UnlockTime,
			InPool:     e.InPool,
		})
	}
	return txs, resp.MissedTx, nil
}

func (c *HTTPClient) TxID(ctx context.Context, hash ledger.Hash) (uint64, error) {
	var resp txIDResponse
	if err := c.call(ctx, txIDPath, txHashRequest{TxHash: hash}, &resp, ledger.ErrTxNotFound); err != nil {
		return 0, err
	}
	return resp.TxID, nil
}

func (c *HTTPClient) OutputTx(ctx context.Context, amount, globalIndex uint64) (ledger.Hash, uint64, error) {
	var resp outputTxResponse
	req := outputRequest{Amount: amount, Index: globalIndex}
	if err := c.call(ctx, outputTxPath, req, &resp, ledger.ErrOutputNotFound); err != nil {
		return ledger.Hash{}, 0, err
	}
	return resp.TxHash, resp.OutIndex, nil
}

func (c *HTTPClient) OutputKeys(ctx context.Context, amount uint64, offsets []uint64) ([]ledger.OutputData, error) {
	var resp outputKeysResponse
	req := outputKeysRequest{Amount: amount, Offsets: offsets}
	if err := c.call(ctx, outputKeysPath, req, &resp, ledger.ErrOutputNotFound); err != nil {
		return nil, err
	}
	return resp.Outs, nil
}

func (c *HTTPClient) TxAmountOutputIndices(ctx context.Context, txID uint64) ([]uint64, error) {
	var resp outputIndexesResponse
	if err := c.call(ctx, outputIndexesPath, outputIndexesRequest{TxID: txID}, &resp, ledger.ErrTxNotFound); err != nil {
		return nil, err
	}
	return resp.OIndexes, nil
}

func (c *HTTPClient) RandomOutputs(ctx context.Context, amounts []uint64, count uint64) ([]ledger.OutsForAmount, error) {
	var resp randomOutsResponse
	req := randomOutsRequest{Amounts: amounts, Count: count}
	if err := c.call(ctx, randomOutsPath, req, &resp, nil); err != nil {
		return nil, err
	}
	return resp.Outs, nil
}

func (c *HTTPClient) Output(ctx context.Context, amount, globalIndex uint64) (ledger.OutKey, error) {
	var resp outputResponse
	req := outputRequest{Amount: amount, Index: globalIndex}
	if err := c.call(ctx, outputPath, req, &resp, ledger.ErrOutputNotFound); err != nil {
		return ledger.OutKey{}, err
	}
	return resp.Out, nil
}

func (c *HTTPClient) FeeEstimate(ctx context.Context, graceBlocks uint64) (uint64, error) {
	var resp feeEstimateResponse
	if err := c.call(ctx, feeEstimatePath, feeEstimateRequest{GraceBlocks: graceBlocks}, &resp, nil); err != nil {
		return 0, err
	}
	return resp.Fee, nil
}

func (c *HTTPClient) MempoolEntries(ctx context.Context) ([]ledger.MempoolEntry, error) {
	var resp transactionPoolResponse
	if err := c.call(ctx, transactionPoolPath, nil, &resp, nil); err != nil {
		return nil, err
	}
	entries := make([]ledger.MempoolEntry, 0, len(resp.Transactions))
	for i, e := range resp.Transactions {
		blob, err := hex.DecodeString(e.TxBlob)
		if err != nil {
			return nil, fmt.Errorf("decode pool entry %d: %w", i, err)
		}
		entries = append(entries, ledger.MempoolEntry{Blob: blob, ReceiveTime: e.ReceiveTime, Fee: e.Fee})
	}
	return entries, nil
}
