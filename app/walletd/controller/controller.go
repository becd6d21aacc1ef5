package controller

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/canopy-network/walletsync/app/walletd/types"
)

// Service is what the handlers need from the activity layer.
type Service interface {
	AccountTxs(ctx context.Context, address string) (types.AccountTxs, error)
	RequestAccountRefresh(ctx context.Context, address string) (types.RefreshQueued, error)
	Status() types.Status
	FeeEstimate(ctx context.Context) types.Fee
	CommitTx(ctx context.Context, req types.CommitTxRequest) (types.CommitTxResponse, error)
}

// Pinger is a dependency checked by the health probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Controller struct {
	Service Service
	// Checks run by /health, keyed by name
	Checks   map[string]Pinger
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// NewController returns a new controller.
func NewController(svc Service, checks map[string]Pinger, gatherer prometheus.Gatherer, logger *zap.Logger) *Controller {
	return &Controller{
		Service:  svc,
		Checks:   checks,
		Gatherer: gatherer,
		Logger:   logger,
	}
}

// NewRouter returns a new router with all the routes defined in this file.
func (c *Controller) NewRouter() (*mux.Router, error) {
	r := mux.NewRouter()

	r.Handle("/health", http.HandlerFunc(c.HandleHealth)).Methods("GET")
	if c.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(c.Gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	// Routes live on the root router: a mux subrouter answers a method mismatch with 404.
	r.HandleFunc("/v1/status", c.HandleStatus).Methods("GET")
	r.HandleFunc("/v1/fee", c.HandleFee).Methods("GET")
	r.HandleFunc("/v1/accounts/{address}/txs", c.HandleAccountTxs).Methods("GET")
	r.HandleFunc("/v1/accounts/{address}/refresh", c.HandleAccountRefresh).Methods("POST")
	r.HandleFunc("/v1/tx", c.HandleCommitTx).Methods("POST")

	return r, nil
}
