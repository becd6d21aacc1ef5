package wallet

import (
	"context"
	"fmt"

	models "github.com/canopy-network/walletsync/pkg/db/models/wallet"
	"github.com/canopy-network/walletsync/pkg/db/postgres"
	"github.com/jackc/pgx/v5"
)

const txColumns = `id, hash, prefix_hash, tx_pub_key, account_id, blockchain_tx_id, total_received,
	total_sent, unlock_time, height, coinbase, is_rct, rct_type, spendable, payment_id, mixin, timestamp`

func isNoRows(err error) bool {
	return postgres.IsNoRows(err)
}

// TxsForAccount returns the account's transactions ordered by height then id.
func (db *DB) TxsForAccount(ctx context.Context, accountID uint64) ([]models.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE account_id = $1 ORDER BY height, id`
	rows, err := db.GetExecutor(ctx).Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("select txs for account %d: %w", accountID, err)
	}
	txs, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Transaction])
	if err != nil {
		return nil, fmt.Errorf("scan txs for account %d: %w", accountID, err)
	}
	return txs, nil
}

// TxExists reports whether the account already has a tx with hash, and its id.
func (db *DB) TxExists(ctx context.Context, accountID uint64, hash string) (bool, uint64, error) {
	var id uint64
	err := db.GetExecutor(ctx).QueryRow(ctx,
		`SELECT id FROM transactions WHERE account_id = $1 AND hash = $2`, accountID, hash,
	).Scan(&id)
	if err != nil {
		if isNoRows(err) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("tx exists: %w", err)
	}
	return true, id, nil
}

func (db *DB) InsertTx(ctx context.Context, tx models.Transaction) (uint64, error) {
	query := `
		INSERT INTO transactions (hash, prefix_hash, tx_pub_key, account_id, blockchain_tx_id, total_received,
			total_sent, unlock_time, height, coinbase, is_rct, rct_type, spendable, payment_id, mixin, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`
	var id uint64
	err := db.GetExecutor(ctx).QueryRow(ctx, query,
		tx.Hash, tx.PrefixHash, tx.TxPubKey, tx.AccountID, tx.BlockchainTxID, tx.TotalReceived,
		tx.TotalSent, tx.UnlockTime, tx.Height, tx.Coinbase, tx.IsRct, tx.RctType, tx.Spendable,
		tx.PaymentID, tx.Mixin, tx.Timestamp,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert tx %s: %w", tx.Hash, err)
	}
	return id, nil
}

// MarkTxSpendable flips the spendable flag and reports how many rows changed.
func (db *DB) MarkTxSpendable(ctx context.Context, id uint64) (int64, error) {
	tag, err := db.GetExecutor(ctx).Exec(ctx, `UPDATE transactions SET spendable = true WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("mark tx %d spendable: %w", id, err)
	}
	return tag.RowsAffected(), nil
}

// MarkTxNonSpendable is the administrative reverse of MarkTxSpendable.
func (db *DB) MarkTxNonSpendable(ctx context.Context, id uint64) (int64, error) {
	tag, err := db.GetExecutor(ctx).Exec(ctx, `UPDATE transactions SET spendable = false WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("mark tx %d non-spendable: %w", id, err)
	}
	return tag.RowsAffected(), nil
}

// DeleteTx removes a tx together with its outputs and inputs.
func (db *DB) DeleteTx(ctx context.Context, id uint64) (int64, error) {
	tag, err := db.GetExecutor(ctx).Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete tx %d: %w", id, err)
	}
	return tag.RowsAffected(), nil
}

// TotalReceived sums total_received over the account's txs.
func (db *DB) TotalReceived(ctx context.Context, accountID uint64) (uint64, error) {
	var total uint64
	err := db.GetExecutor(ctx).QueryRow(ctx,
		`SELECT COALESCE(SUM(total_received), 0)::BIGINT FROM transactions WHERE account_id = $1`, accountID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total received for account %d: %w", accountID, err)
	}
	return total, nil
}
