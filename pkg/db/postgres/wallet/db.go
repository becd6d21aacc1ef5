// Package wallet is the relational accessor layer for accounts, transactions,
// outputs, inputs and payments. Every method uses the transaction carried by ctx
// when there is one, and the shared pool otherwise.
package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/canopy-network/walletsync/pkg/db/postgres"
	"go.uber.org/zap"
)

// DB wraps the pool with wallet queries.
type DB struct {
	*postgres.Client
}

// New wraps an already connected client and creates missing tables.
func New(ctx context.Context, client *postgres.Client) (*DB, error) {
	db := &DB{Client: client}
	if err := db.InitializeDB(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// InitializeDB creates the schema. Tables are created in foreign key order.
func (db *DB) InitializeDB(ctx context.Context) error {
	initStart := time.Now()

	initOps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"accounts", db.initAccounts},
		{"transactions", db.initTransactions},
		{"outputs", db.initOutputs},
		{"inputs", db.initInputs},
		{"payments", db.initPayments},
	}

	for _, op := range initOps {
		db.Logger.Debug("Initializing table", zap.String("table", op.name))
		if err := op.fn(ctx); err != nil {
			return fmt.Errorf("init %s: %w", op.name, err)
		}
	}

	db.Logger.Info("Wallet database initialized",
		zap.Int("tables", len(initOps)),
		zap.Duration("duration", time.Since(initStart)))
	return nil
}

func (db *DB) initAccounts(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS accounts (
			id BIGSERIAL PRIMARY KEY,
			address TEXT NOT NULL UNIQUE,
			viewkey_hash TEXT NOT NULL DEFAULT '',
			total_received BIGINT NOT NULL DEFAULT 0,
			scanned_block_height BIGINT NOT NULL DEFAULT 0,
			scanned_block_timestamp TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT to_timestamp(0),
			start_height BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
			modified_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
		);
	`
	return db.Exec(ctx, query)
}

func (db *DB) initTransactions(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			hash TEXT NOT NULL,
			prefix_hash TEXT NOT NULL DEFAULT '',
			tx_pub_key TEXT NOT NULL DEFAULT '',
			account_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			blockchain_tx_id BIGINT NOT NULL,
			total_received BIGINT NOT NULL DEFAULT 0,
			total_sent BIGINT NOT NULL DEFAULT 0,
			unlock_time BIGINT NOT NULL DEFAULT 0,
			height BIGINT NOT NULL,
			coinbase BOOLEAN NOT NULL DEFAULT false,
			is_rct BOOLEAN NOT NULL DEFAULT true,
			rct_type INTEGER NOT NULL DEFAULT -1,
			spendable BOOLEAN NOT NULL DEFAULT false,
			payment_id TEXT NOT NULL DEFAULT '',
			mixin BIGINT NOT NULL DEFAULT 0,
			timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
			UNIQUE (account_id, hash)
		);

		CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id, height);
		CREATE INDEX IF NOT EXISTS idx_transactions_unspendable ON transactions(account_id) WHERE NOT spendable;
	`
	return db.Exec(ctx, query)
}

func (db *DB) initOutputs(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS outputs (
			id BIGSERIAL PRIMARY KEY,
			account_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			tx_id BIGINT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
			out_pub_key TEXT NOT NULL UNIQUE,
			rct_outpk TEXT NOT NULL DEFAULT '',
			rct_outmask TEXT NOT NULL DEFAULT '',
			rct_amount TEXT NOT NULL DEFAULT '',
			tx_pub_key TEXT NOT NULL DEFAULT '',
			amount BIGINT NOT NULL DEFAULT 0,
			global_index BIGINT NOT NULL,
			out_index BIGINT NOT NULL,
			mixin BIGINT NOT NULL DEFAULT 0,
			timestamp TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_outputs_account ON outputs(account_id);
		CREATE INDEX IF NOT EXISTS idx_outputs_tx ON outputs(tx_id);
	`
	return db.Exec(ctx, query)
}

func (db *DB) initInputs(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS inputs (
			id BIGSERIAL PRIMARY KEY,
			account_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			tx_id BIGINT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
			output_id BIGINT NOT NULL REFERENCES outputs(id) ON DELETE CASCADE,
			key_image TEXT NOT NULL,
			amount BIGINT NOT NULL DEFAULT 0,
			timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
			UNIQUE (output_id, key_image)
		);

		CREATE INDEX IF NOT EXISTS idx_inputs_account ON inputs(account_id);
		CREATE INDEX IF NOT EXISTS idx_inputs_tx ON inputs(tx_id);
	`
	return db.Exec(ctx, query)
}

func (db *DB) initPayments(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS payments (
			id BIGSERIAL PRIMARY KEY,
			account_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			payment_id TEXT NOT NULL UNIQUE,
			tx_hash TEXT NOT NULL DEFAULT '',
			request_fulfilled BOOLEAN NOT NULL DEFAULT false,
			import_fee BIGINT NOT NULL DEFAULT 0,
			payment_address TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_payments_account ON payments(account_id);
	`
	return db.Exec(ctx, query)
}
