// Package wallet holds the row models of the wallet cache.
package wallet

import "time"

// Account is a registered wallet. Totals are derived from its transactions.
type Account struct {
	ID                    uint64    `db:"id" json:"id"`
	Address               string    `db:"address" json:"address"`
	ViewKeyHash           string    `db:"viewkey_hash" json:"-"`
	TotalReceived         uint64    `db:"total_received" json:"total_received"`
	ScannedBlockHeight    uint64    `db:"scanned_block_height" json:"scanned_block_height"`
	ScannedBlockTimestamp time.Time `db:"scanned_block_timestamp" json:"scanned_block_timestamp"`
	StartHeight           uint64    `db:"start_height" json:"start_height"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	ModifiedAt            time.Time `db:"modified_at" json:"modified_at"`
}

// Transaction is a cached ledger transaction that touches an account.
// Spendable only moves from false to true outside of administrative action.
type Transaction struct {
	ID             uint64    `db:"id" json:"id"`
	Hash           string    `db:"hash" json:"hash"`
	PrefixHash     string    `db:"prefix_hash" json:"prefix_hash"`
	TxPubKey       string    `db:"tx_pub_key" json:"tx_pub_key"`
	AccountID      uint64    `db:"account_id" json:"account_id"`
	BlockchainTxID uint64    `db:"blockchain_tx_id" json:"blockchain_tx_id"`
	TotalReceived  uint64    `db:"total_received" json:"total_received"`
	TotalSent      uint64    `db:"total_sent" json:"total_sent"`
	UnlockTime     uint64    `db:"unlock_time" json:"unlock_time"`
	Height         uint64    `db:"height" json:"height"`
	Coinbase       bool      `db:"coinbase" json:"coinbase"`
	IsRct          bool      `db:"is_rct" json:"is_rct"`
	RctType        int32     `db:"rct_type" json:"rct_type"`
	Spendable      bool      `db:"spendable" json:"spendable"`
	PaymentID      string    `db:"payment_id" json:"payment_id"`
	Mixin          uint64    `db:"mixin" json:"mixin"`
	Timestamp      time.Time `db:"timestamp" json:"timestamp"`
}

type Output struct {
	ID          uint64    `db:"id" json:"id"`
	AccountID   uint64    `db:"account_id" json:"account_id"`
	TxID        uint64    `db:"tx_id" json:"tx_id"`
	OutPubKey   string    `db:"out_pub_key" json:"out_pub_key"`
	RctOutPk    string    `db:"rct_outpk" json:"rct_outpk"`
	RctOutMask  string    `db:"rct_outmask" json:"rct_outmask"`
	RctAmount   string    `db:"rct_amount" json:"rct_amount"`
	TxPubKey    string    `db:"tx_pub_key" json:"tx_pub_key"`
	Amount      uint64    `db:"amount" json:"amount"`
	GlobalIndex uint64    `db:"global_index" json:"global_index"`
	OutIndex    uint64    `db:"out_index" json:"out_index"`
	Mixin       uint64    `db:"mixin" json:"mixin"`
	Timestamp   time.Time `db:"timestamp" json:"timestamp"`
}

// Input is a key image seen spending one of the account's outputs.
type Input struct {
	ID        uint64    `db:"id" json:"id"`
	AccountID uint64    `db:"account_id" json:"account_id"`
	TxID      uint64    `db:"tx_id" json:"tx_id"`
	OutputID  uint64    `db:"output_id" json:"output_id"`
	KeyImage  string    `db:"key_image" json:"key_image"`
	Amount    uint64    `db:"amount" json:"amount"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// Payment is an import request keyed by an opaque payment id.
type Payment struct {
	ID               uint64 `db:"id" json:"id"`
	AccountID        uint64 `db:"account_id" json:"account_id"`
	PaymentID        string `db:"payment_id" json:"payment_id"`
	TxHash           string `db:"tx_hash" json:"tx_hash"`
	RequestFulfilled bool   `db:"request_fulfilled" json:"request_fulfilled"`
	ImportFee        uint64 `db:"import_fee" json:"import_fee"`
	PaymentAddress   string `db:"payment_address" json:"payment_address"`
}
