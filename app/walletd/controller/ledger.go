package controller

import (
	"errors"
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
	"go.uber.org/zap"

	"github.com/canopy-network/walletsync/app/walletd/activity"
	"github.com/canopy-network/walletsync/app/walletd/types"
)

const maxTxBody = 1 << 20

func (c *Controller) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.Service.Status())
}

func (c *Controller) HandleFee(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.Service.FeeEstimate(r.Context()))
}

// HandleCommitTx relays a transaction. A daemon rejection is a 200 with accepted=false.
func (c *Controller) HandleCommitTx(w http.ResponseWriter, r *http.Request) {
	var req types.CommitTxRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := c.Service.CommitTx(r.Context(), req)
	if err != nil {
		if errors.Is(err, activity.ErrEmptyTx) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		c.Logger.Error("Failed to commit transaction", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to commit transaction")
		return
	}

	writeJSON(w, http.StatusOK, out)
}
