package wallet

import (
	"context"
	"fmt"

	models "github.com/canopy-network/walletsync/pkg/db/models/wallet"
	"github.com/jackc/pgx/v5"
)

const inputColumns = `id, account_id, tx_id, output_id, key_image, amount, timestamp`

func (db *DB) selectInputs(ctx context.Context, where string, arg any) ([]models.Input, error) {
	query := `SELECT ` + inputColumns + ` FROM inputs WHERE ` + where + ` ORDER BY id`
	rows, err := db.GetExecutor(ctx).Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("select inputs: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[models.Input])
}

func (db *DB) InputsForAccount(ctx context.Context, accountID uint64) ([]models.Input, error) {
	return db.selectInputs(ctx, `account_id = $1`, accountID)
}

func (db *DB) InputsForTx(ctx context.Context, txID uint64) ([]models.Input, error) {
	return db.selectInputs(ctx, `tx_id = $1`, txID)
}

// InputsForOutput returns the key images seen spending an output.
func (db *DB) InputsForOutput(ctx context.Context, outputID uint64) ([]models.Input, error) {
	return db.selectInputs(ctx, `output_id = $1`, outputID)
}

func (db *DB) InsertInputs(ctx context.Context, ins []models.Input) (int64, error) {
	if len(ins) == 0 {
		return 0, nil
	}
	query := `
		INSERT INTO inputs (account_id, tx_id, output_id, key_image, amount, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (output_id, key_image) DO NOTHING
	`
	batch := &pgx.Batch{}
	for _, in := range ins {
		batch.Queue(query, in.AccountID, in.TxID, in.OutputID, in.KeyImage, in.Amount, in.Timestamp)
	}
	return sendBatch(ctx, db.GetExecutor(ctx), batch, "inputs")
}
