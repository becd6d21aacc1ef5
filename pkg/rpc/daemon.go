package rpc

import (
	"context"
	"errors"
)

// CommitTx relays a hex encoded transaction. A daemon rejection is not an error.
func (c *HTTPClient) CommitTx(ctx context.Context, txBlob string, doNotRelay bool) (bool, string, error) {
	var resp sendRawTransactionResponse
	req := sendRawTransactionRequest{TxAsHex: txBlob, DoNotRelay: doNotRelay}
	if err := c.doJSON(ctx, sendRawTransactionPath, req, &resp); err != nil {
		return false, "", err
	}
	if resp.Status != statusOK {
		reason := resp.Reason
		if reason == "" {
			reason = "rejected with status " + resp.Status
		}
		return false, reason, nil
	}
	return true, "", nil
}

// Ping checks that at least one endpoint answers.
func (c *HTTPClient) Ping(ctx context.Context) error {
	if _, err := c.Height(ctx); err != nil {
		return errors.Join(errors.New("daemon unreachable"), err)
	}
	return nil
}
