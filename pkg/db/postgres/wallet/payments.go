package wallet

import (
	"context"
	"errors"
	"fmt"

	models "github.com/canopy-network/walletsync/pkg/db/models/wallet"
	"github.com/jackc/pgx/v5"
)

var ErrPaymentNotFound = errors.New("payment not found")

const paymentColumns = `id, account_id, payment_id, tx_hash, request_fulfilled, import_fee, payment_address`

func (db *DB) PaymentByID(ctx context.Context, paymentID string) (*models.Payment, error) {
	rows, err := db.GetExecutor(ctx).Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE payment_id = $1`, paymentID)
	if err != nil {
		return nil, fmt.Errorf("select payment: %w", err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[models.Payment])
	if err != nil {
		if isNoRows(err) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	return p, nil
}

func (db *DB) PaymentsForAccount(ctx context.Context, accountID uint64) ([]models.Payment, error) {
	rows, err := db.GetExecutor(ctx).Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE account_id = $1 ORDER BY id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("select payments: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[models.Payment])
}

func (db *DB) InsertPayment(ctx context.Context, p models.Payment) (uint64, error) {
	query := `
		INSERT INTO payments (account_id, payment_id, tx_hash, request_fulfilled, import_fee, payment_address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	var id uint64
	err := db.GetExecutor(ctx).QueryRow(ctx, query,
		p.AccountID, p.PaymentID, p.TxHash, p.RequestFulfilled, p.ImportFee, p.PaymentAddress,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert payment: %w", err)
	}
	return id, nil
}

// FulfillPayment records the tx that settled a payment request.
func (db *DB) FulfillPayment(ctx context.Context, paymentID, txHash string) (int64, error) {
	tag, err := db.GetExecutor(ctx).Exec(ctx,
		`UPDATE payments SET request_fulfilled = true, tx_hash = $2 WHERE payment_id = $1`, paymentID, txHash)
	if err != nil {
		return 0, fmt.Errorf("fulfill payment: %w", err)
	}
	return tag.RowsAffected(), nil
}
