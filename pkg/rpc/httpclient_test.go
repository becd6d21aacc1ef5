package rpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/canopy-network/walletsync/pkg/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonHandler(t *testing.T, path string, reply any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, path, r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(reply)
	}
}

func TestHTTPClient_Height(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, heightPath, map[string]any{"status": "OK", "height": 1234}))
	defer server.Close()

	client := NewHTTPWithOpts(Opts{Endpoints: []string{server.URL}})
	h, err := client.Height(context.Background())

	require.NoError(t, err)
	assert.Equal(t, uint64(1234), h)
}

func TestHTTPClient_TxIDNotFoundStatus(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, txIDPath, map[string]any{"status": "NOT_FOUND"}))
	defer server.Close()

	client := NewHTTPWithOpts(Opts{Endpoints: []string{server.URL}})
	_, err := client.TxID(context.Background(), ledger.Hash{1})

	require.ErrorIs(t, err, ledger.ErrTxNotFound)
	assert.True(t, ledger.IsNotFound(err))
}

func TestHTTPClient_BlockHTTP404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewHTTPWithOpts(Opts{Endpoints: []string{server.URL}})
	_, err := client.BlockByHeight(context.Background(), 7)

	require.ErrorIs(t, err, ledger.ErrBlockNotFound)
}

func TestHTTPClient_UnexpectedStatusIsError(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, feeEstimatePath, map[string]any{"status": "BUSY", "reason": "syncing"}))
	defer server.Close()

	client := NewHTTPWithOpts(Opts{Endpoints: []string{server.URL}})
	_, err := client.FeeEstimate(context.Background(), 10)

	require.Error(t, err)
	assert.False(t, ledger.IsNotFound(err))
	assert.Contains(t, err.Error(), "syncing")
}

func TestHTTPClient_FailoverOn5xx(t *testing.T) {
	var badHits atomic.Int32
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		badHits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()
	good := httptest.NewServer(jsonHandler(t, heightPath, map[string]any{"status": "OK", "height": 9}))
	defer good.Close()

	client := NewHTTPWithOpts(Opts{Endpoints: []string{bad.URL, good.URL}})
	h, err := client.Height(context.Background())

	require.NoError(t, err)
	assert.Equal(t, uint64(9), h)
	assert.Equal(t, int32(1), badHits.Load())
}

func TestHTTPClient_BreakerSkipsFailingEndpoint(t *testing.T) {
	var badHits atomic.Int32
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		badHits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()
	good := httptest.NewServer(jsonHandler(t, heightPath, map[string]any{"status": "OK", "height": 1}))
	defer good.Close()

	client := NewHTTPWithOpts(Opts{
		Endpoints:       []string{bad.URL, good.URL},
		BreakerFailures: 2,
		BreakerCooldown: time.Minute,
	})
	for i := 0; i < 5; i++ {
		_, err := client.Height(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, int32(2), badHits.Load())
}

func TestHTTPClient_AllEndpointsDown(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer bad.Close()

	client := NewHTTPWithOpts(Opts{Endpoints: []string{bad.URL}})
	_, err := client.Height(context.Background())

	require.Error(t, err)
	assert.False(t, ledger.IsNotFound(err))
}

func TestHTTPClient_Transactions(t *testing.T) {
	found := ledger.Hash{0xaa}
	missed := ledger.Hash{0xbb}
	blob := []byte{0x01, 0x02, 0x03}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, transactionsPath, r.URL.Path)
		var req transactionsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []ledger.Hash{found, missed}, req.TxsHashes)

		_ = json.NewEncoder(w).Encode(transactionsResponse{
			envelope: envelope{Status: statusOK},
			Txs: []txEntry{{
				TxHash:      found,
				AsHex:       hex.EncodeToString(blob),
				BlockHeight: 100,
				UnlockTime:  110,
			}},
			MissedTx: []ledger.Hash{missed},
		})
	}))
	defer server.Close()

	client := NewHTTPWithOpts(Opts{Endpoints: []string{server.URL}})
	txs, miss, err := client.Transactions(context.Background(), []ledger.Hash{found, missed})

	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, found, txs[0].Hash)
	assert.Equal(t, blob, txs[0].Blob)
	assert.Equal(t, uint64(100), txs[0].Height)
	assert.Equal(t, uint64(110), txs[0].UnlockTime)
	assert.Equal(t, []ledger.Hash{missed}, miss)
}

func TestHTTPClient_BlocksRangeShort(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, blocksRangePath, map[string]any{
		"status": "OK",
		"blocks": []ledger.Block{{Height: 5}},
	}))
	defer server.Close()

	client := NewHTTPWithOpts(Opts{Endpoints: []string{server.URL}})
	_, err := client.BlocksRange(context.Background(), 5, 6)

	require.ErrorIs(t, err, ledger.ErrBlockNotFound)
}

func TestHTTPClient_MempoolEntries(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, transactionPoolPath, map[string]any{
		"status": "OK",
		"transactions": []poolEntry{
			{TxBlob: "0a0b", ReceiveTime: 50, Fee: 7},
			{TxBlob: "0c", ReceiveTime: 51, Fee: 8},
		},
	}))
	defer server.Close()

	client := NewHTTPWithOpts(Opts{Endpoints: []string{server.URL}})
	entries, err := client.MempoolEntries(context.Background())

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, []byte{0x0a, 0x0b}, entries[0].Blob)
	assert.Equal(t, uint64(51), entries[1].ReceiveTime)
	assert.Equal(t, uint64(8), entries[1].Fee)
}

func TestHTTPClient_MempoolEntriesBadHex(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, transactionPoolPath, map[string]any{
		"status":       "OK",
		"transactions": []poolEntry{{TxBlob: "zz"}},
	}))
	defer server.Close()

	client := NewHTTPWithOpts(Opts{Endpoints: []string{server.URL}})
	_, err := client.MempoolEntries(context.Background())

	require.Error(t, err)
}

func TestHTTPClient_CommitTx(t *testing.T) {
	tests := []struct {
		name     string
		reply    map[string]any
		accepted bool
		reason   string
	}{
		{name: "accepted", reply: map[string]any{"status": "OK"}, accepted: true},
		{name: "rejected with reason", reply: map[string]any{"status": "Failed", "reason": "double spend"}, reason: "double spend"},
		{name: "rejected without reason", reply: map[string]any{"status": "Failed"}, reason: "rejected with status Failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, sendRawTransactionPath, r.URL.Path)
				var req sendRawTransactionRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "deadbeef", req.TxAsHex)
				assert.True(t, req.DoNotRelay)
				_ = json.NewEncoder(w).Encode(tt.reply)
			}))
			defer server.Close()

			client := NewHTTPWithOpts(Opts{Endpoints: []string{server.URL}})
			accepted, reason, err := client.CommitTx(context.Background(), "deadbeef", true)

			require.NoError(t, err)
			assert.Equal(t, tt.accepted, accepted)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestHTTPClient_NoEndpoints(t *testing.T) {
	client := NewHTTPWithOpts(Opts{})
	_, err := client.Height(context.Background())
	require.Error(t, err)
}

func TestHTTPFactory(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, heightPath, map[string]any{"status": "OK", "height": 3}))
	defer server.Close()

	c := NewHTTPFactory(Opts{Timeout: time.Second}).NewClient([]string{server.URL, server.URL})
	h, err := c.Height(context.Background())

	require.NoError(t, err)
	assert.Equal(t, uint64(3), h)
	assert.NoError(t, c.Ping(context.Background()))
}
