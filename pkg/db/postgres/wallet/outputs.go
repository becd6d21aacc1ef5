package wallet

import (
	"context"
	"fmt"

	models "github.com/canopy-network/walletsync/pkg/db/models/wallet"
	"github.com/jackc/pgx/v5"
)

const outputColumns = `id, account_id, tx_id, out_pub_key, rct_outpk, rct_outmask, rct_amount,
	tx_pub_key, amount, global_index, out_index, mixin, timestamp`

func (db *DB) selectOutputs(ctx context.Context, where string, arg any) ([]models.Output, error) {
	query := `SELECT ` + outputColumns + ` FROM outputs WHERE ` + where + ` ORDER BY id`
	rows, err := db.GetExecutor(ctx).Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("select outputs: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[models.Output])
}

func (db *DB) OutputsForAccount(ctx context.Context, accountID uint64) ([]models.Output, error) {
	return db.selectOutputs(ctx, `account_id = $1`, accountID)
}

func (db *DB) OutputsForTx(ctx context.Context, txID uint64) ([]models.Output, error) {
	return db.selectOutputs(ctx, `tx_id = $1`, txID)
}

// OutputExists looks an output up by its one-time public key.
func (db *DB) OutputExists(ctx context.Context, outPubKey string) (bool, uint64, error) {
	var id uint64
	err := db.GetExecutor(ctx).QueryRow(ctx, `SELECT id FROM outputs WHERE out_pub_key = $1`, outPubKey).Scan(&id)
	if err != nil {
		if isNoRows(err) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("output exists: %w", err)
	}
	return true, id, nil
}

// InsertOutputs stores outs in one batch and returns the number of rows written.
func (db *DB) InsertOutputs(ctx context.Context, outs []models.Output) (int64, error) {
	if len(outs) == 0 {
		return 0, nil
	}
	query := `
		INSERT INTO outputs (account_id, tx_id, out_pub_key, rct_outpk, rct_outmask, rct_amount,
			tx_pub_key, amount, global_index, out_index, mixin, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	batch := &pgx.Batch{}
	for _, o := range outs {
		batch.Queue(query, o.AccountID, o.TxID, o.OutPubKey, o.RctOutPk, o.RctOutMask, o.RctAmount,
			o.TxPubKey, o.Amount, o.GlobalIndex, o.OutIndex, o.Mixin, o.Timestamp)
	}
	return sendBatch(ctx, db.GetExecutor(ctx), batch, "outputs")
}

func sendBatch(ctx context.Context, exec interface {
	SendBatch(context.Context, *pgx.Batch) pgx.BatchResults
}, batch *pgx.Batch, what string) (int64, error) {
	br := exec.SendBatch(ctx, batch)
	defer br.Close()

	var affected int64
	for i := 0; i < batch.Len(); i++ {
		tag, err := br.Exec()
		if err != nil {
			return affected, fmt.Errorf("insert %s row %d: %w", what, i, err)
		}
		affected += tag.RowsAffected()
	}
	return affected, nil
}
