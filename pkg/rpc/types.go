package rpc

import (
	"fmt"

	"github.com/canopy-network/walletsync/pkg/ledger"
)

// envelope is embedded in every daemon reply.
type envelope struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func (e envelope) reply() envelope { return e }

type statusReply interface {
	reply() envelope
}

// check maps a daemon status to an error. notFound is returned for NOT_FOUND.
func (e envelope) check(notFound error) error {
	switch e.Status {
	case statusOK, "":
		return nil
	case statusNotFound:
		if notFound != nil {
			return notFound
		}
		return fmt.Errorf("daemon status %s", e.Status)
	default:
		return fmt.Errorf("daemon status %s: %s", e.Status, e.Reason)
	}
}

type heightResponse struct {
	envelope
	Height uint64 `json:"height"`
}

type heightRequest struct {
	Height uint64 `json:"height"`
}

type blockResponse struct {
	envelope
	Block ledger.Block `json:"block"`
}

type blocksRangeRequest struct {
	StartHeight uint64 `json:"start_height"`
	EndHeight   uint64 `json:"end_height"`
}

type blocksRangeResponse struct {
	envelope
	Blocks []*ledger.Block `json:"blocks"`
}

type transactionsRequest struct {
	TxsHashes []ledger.Hash `json:"txs_hashes"`
}

type txEntry struct {
	TxHash      ledger.Hash `json:"tx_hash"`
	AsHex       string      `json:"as_hex"`
	BlockHeight uint64      `json:"block_height"`
	UnlockTime  uint64      `json:"unlock_time"`
	InPool      bool        `json:"in_pool"`
}

type transactionsResponse struct {
	envelope
	Txs      []txEntry     `json:"txs"`
	MissedTx []ledger.Hash `json:"missed_tx"`
}

type txHashRequest struct {
	TxHash ledger.Hash `json:"tx_hash"`
}

type txIDResponse struct {
	envelope
	TxID uint64 `json:"tx_id"`
}

type outputRequest struct {
	Amount uint64 `json:"amount"`
	Index  uint64 `json:"index"`
}

type outputTxResponse struct {
	envelope
	TxHash   ledger.Hash `json:"tx_hash"`
	OutIndex uint64      `json:"out_index"`
}

type outputKeysRequest struct {
	Amount  uint64   `json:"amount"`
	Offsets []uint64 `json:"offsets"`
}

type outputKeysResponse struct {
	envelope
	Outs []ledger.OutputData `json:"outs"`
}

type outputIndexesRequest struct {
	TxID uint64 `json:"tx_id"`
}

type outputIndexesResponse struct {
	envelope
	OIndexes []uint64 `json:"o_indexes"`
}

type randomOutsRequest struct {
	Amounts []uint64 `json:"amounts"`
	Count   uint64   `json:"count"`
}

type randomOutsResponse struct {
	envelope
	Outs []ledger.OutsForAmount `json:"outs"`
}

type outputResponse struct {
	envelope
	Out ledger.OutKey `json:"out"`
}

type feeEstimateRequest struct {
	GraceBlocks uint64 `json:"grace_blocks"`
}

type feeEstimateResponse struct {
	envelope
	Fee uint64 `json:"fee"`
}

type poolEntry struct {
	TxBlob      string `json:"tx_blob"`
	ReceiveTime uint64 `json:"receive_time"`
	Fee         uint64 `json:"fee"`
}

type transactionPoolResponse struct {
	envelope
	Transactions []poolEntry `json:"transactions"`
}

type sendRawTransactionRequest struct {
	TxAsHex    string `json:"tx_as_hex"`
	DoNotRelay bool   `json:"do_not_relay"`
}

type sendRawTransactionResponse struct {
	envelope
	NotRelayed bool `json:"not_relayed"`
}
