package ledger

import (
	"encoding/hex"
	"fmt"

	"github.com/canopy-network/walletsync/pkg/utils"
)

// Hash is a 32 byte ledger identifier (block, transaction or key).
type Hash [32]byte

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

func (h Hash) IsZero() bool { return h == Hash{} }

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(b []byte) error {
	parsed, err := ParseHash(string(b))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHash decodes a 64 character hex string.
func ParseHash(s string) (Hash, error) {
	b, ok := utils.ParseHash32(s)
	if !ok {
		return Hash{}, fmt.Errorf("invalid hash %q", s)
	}
	return Hash(b), nil
}

type Block struct {
	Height      uint64 `json:"height"`
	Hash        Hash   `json:"hash"`
	PrevHash    Hash   `json:"prev_hash"`
	Timestamp   uint64 `json:"timestamp"`
	MinerTxHash Hash   `json:"miner_tx_hash"`
	TxHashes    []Hash `json:"tx_hashes"`
}

// Tx is a decoded transaction. Blob is the serialized form it was decoded from.
type Tx struct {
	Hash       Hash   `json:"hash"`
	Blob       []byte `json:"-"`
	Height     uint64 `json:"height"`
	UnlockTime uint64 `json:"unlock_time"`
	InPool     bool   `json:"in_pool"`
}

// OutputData describes one output selected by amount and global offset.
type OutputData struct {
	PubKey     Hash   `json:"pub_key"`
	Commitment Hash   `json:"commitment"`
	UnlockTime uint64 `json:"unlock_time"`
	Height     uint64 `json:"height"`
}

// OutKey is a single output addressed by amount and global index.
type OutKey struct {
	Key      Hash   `json:"key"`
	Mask     Hash   `json:"mask"`
	TxHash   Hash   `json:"tx_hash"`
	Height   uint64 `json:"height"`
	Unlocked bool   `json:"unlocked"`
}

type OutEntry struct {
	GlobalIndex uint64 `json:"global_index"`
	PubKey      Hash   `json:"pub_key"`
}

// OutsForAmount is a random sample of outputs sharing one amount, used as ring decoys.
type OutsForAmount struct {
	Amount uint64     `json:"amount"`
	Outs   []OutEntry `json:"outs"`
}

// MempoolEntry is one raw pool entry as reported by the ledger.
type MempoolEntry struct {
	Blob        []byte `json:"blob"`
	ReceiveTime uint64 `json:"receive_time"`
	Fee         uint64 `json:"fee"`
}

// MempoolTx is a decoded pool entry.
type MempoolTx struct {
	Hash        Hash
	Tx          *Tx
	ReceiveTime uint64
	Fee         uint64
}

// BlockchainSnapshot holds the last observed usable height.
type BlockchainSnapshot struct {
	Height uint64
}

// MempoolSnapshot is the last accepted mempool read, in daemon order.
type MempoolSnapshot struct {
	Txs []MempoolTx
}
