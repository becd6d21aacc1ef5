package ledger

import (
	"errors"

	"golang.org/x/crypto/sha3"
)

// KeccakDecoder treats a blob as opaque and identifies it by its Keccak-256 digest.
type KeccakDecoder struct{}

func (KeccakDecoder) Decode(blob []byte) (*Tx, error) {
	if len(blob) == 0 {
		return nil, errors.New("empty transaction blob")
	}
	h := sha3.NewLegacyKeccak256()
	h.Write(blob)
	var tx Tx
	copy(tx.Hash[:], h.Sum(nil))
	tx.Blob = append([]byte(nil), blob...)
	tx.InPool = true
	return &tx, nil
}
