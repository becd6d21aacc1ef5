package controller

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/canopy-network/walletsync/pkg/db/postgres/wallet"
	"github.com/canopy-network/walletsync/pkg/dispatch"
)

// HandleAccountTxs serves the account's reconciled transactions. A failed pass
// still answers 200 with the stored records and fresh=false.
func (c *Controller) HandleAccountTxs(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	out, err := c.Service.AccountTxs(r.Context(), address)
	if err != nil {
		if errors.Is(err, wallet.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		c.Logger.Error("Failed to load account transactions", zap.String("address", address), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}

	writeJSON(w, http.StatusOK, out)
}

func (c *Controller) HandleAccountRefresh(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	out, err := c.Service.RequestAccountRefresh(r.Context(), address)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, out)
	case errors.Is(err, wallet.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "account not found")
	case errors.Is(err, dispatch.ErrAccountBusy):
		writeError(w, http.StatusConflict, "refresh already in progress")
	case errors.Is(err, dispatch.ErrQueueFull), errors.Is(err, dispatch.ErrStopped):
		c.Logger.Warn("Refresh not queued", zap.String("address", address), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "refresh queue unavailable")
	default:
		c.Logger.Error("Failed to queue account refresh", zap.String("address", address), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to queue refresh")
	}
}
