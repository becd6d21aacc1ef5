package rpc

// Daemon JSON endpoints. Every call is a POST with a JSON body.
const (
	heightPath             = "/get_height"
	blockPath              = "/get_block"
	blocksRangePath        = "/get_blocks_range"
	transactionsPath       = "/get_transactions"
	txIDPath               = "/get_tx_id"
	outputTxPath           = "/get_output_tx"
	outputKeysPath         = "/get_output_keys"
	outputIndexesPath      = "/get_o_indexes"
	randomOutsPath         = "/get_random_outs"
	outputPath             = "/get_output"
	feeEstimatePath        = "/get_fee_estimate"
	transactionPoolPath    = "/get_transaction_pool"
	sendRawTransactionPath = "/send_raw_transaction"
)

const (
	statusOK       = "OK"
	statusNotFound = "NOT_FOUND"
)
