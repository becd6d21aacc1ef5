package types

import (
	models "github.com/canopy-network/walletsync/pkg/db/models/wallet"
)

// AccountTxs is an account's cached transactions after a reconciliation pass.
// Fresh is false when the pass failed and Txs are the records as stored.
type AccountTxs struct {
	AccountID uint64               `json:"account_id"`
	Address   string               `json:"address"`
	Height    uint64               `json:"height"`
	Fresh     bool                 `json:"fresh"`
	Txs       []models.Transaction `json:"txs"`
}

type Status struct {
	Network     string `json:"network"`
	Height      uint64 `json:"height"`
	MempoolSize int    `json:"mempool_size"`
	InFlight    int64  `json:"running_jobs"`
	Queued      uint64 `json:"queued_jobs"`
}

type Fee struct {
	Fee uint64 `json:"fee"`
}

type CommitTxRequest struct {
	TxBlob     string `json:"tx_blob"`
	DoNotRelay bool   `json:"do_not_relay"`
}

type CommitTxResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

type RefreshQueued struct {
	AccountID uint64 `json:"account_id"`
	Status    string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
