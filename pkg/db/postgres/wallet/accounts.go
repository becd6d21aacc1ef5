package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	models "github.com/canopy-network/walletsync/pkg/db/models/wallet"
	"github.com/jackc/pgx/v5"
)

// ErrAccountNotFound is returned when no account matches.
var ErrAccountNotFound = errors.New("account not found")

const accountColumns = `id, address, viewkey_hash, total_received, scanned_block_height,
	scanned_block_timestamp, start_height, created_at, modified_at`

func (db *DB) selectAccount(ctx context.Context, where string, arg any) (*models.Account, error) {
	rows, err := db.GetExecutor(ctx).Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE `+where, arg)
	if err != nil {
		return nil, fmt.Errorf("select account: %w", err)
	}
	acc, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[models.Account])
	if err != nil {
		if isNoRows(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return acc, nil
}

func (db *DB) AccountByAddress(ctx context.Context, address string) (*models.Account, error) {
	return db.selectAccount(ctx, `address = $1`, address)
}

func (db *DB) AccountByID(ctx context.Context, id uint64) (*models.Account, error) {
	return db.selectAccount(ctx, `id = $1`, id)
}

// AccountIDs lists every account id in ascending order.
func (db *DB) AccountIDs(ctx context.Context) ([]uint64, error) {
	rows, err := db.GetExecutor(ctx).Query(ctx, `SELECT id FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select account ids: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[uint64])
}

// InsertAccount stores acc and returns its new id.
func (db *DB) InsertAccount(ctx context.Context, acc models.Account) (uint64, error) {
	query := `
		INSERT INTO accounts (address, viewkey_hash, scanned_block_height, scanned_block_timestamp, start_height)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var id uint64
	err := db.GetExecutor(ctx).QueryRow(ctx, query,
		acc.Address, acc.ViewKeyHash, acc.ScannedBlockHeight, acc.ScannedBlockTimestamp, acc.StartHeight,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert account: %w", err)
	}
	return id, nil
}

// UpdateAccountScan records the derived total and how far the account has been reconciled.
func (db *DB) UpdateAccountScan(ctx context.Context, id, totalReceived, scannedHeight uint64, scannedAt time.Time) (int64, error) {
	query := `
		UPDATE accounts
		SET total_received = $2, scanned_block_height = $3, scanned_block_timestamp = $4, modified_at = now()
		WHERE id = $1
	`
	tag, err := db.GetExecutor(ctx).Exec(ctx, query, id, totalReceived, scannedHeight, scannedAt)
	if err != nil {
		return 0, fmt.Errorf("update account %d: %w", id, err)
	}
	return tag.RowsAffected(), nil
}
