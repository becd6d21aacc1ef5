package rpc

import (
	"context"

	"github.com/canopy-network/walletsync/pkg/ledger"
)

// Client is everything the service needs from a daemon.
type Client interface {
	ledger.Reader
	ledger.Daemon
	Ping(ctx context.Context) error
}

// Factory produces RPC clients for a given set of endpoints.
type Factory interface {
	NewClient(endpoints []string) Client
}

type httpFactory struct {
	opts Opts
}

// NewHTTPFactory returns a factory that builds HTTP clients with shared defaults.
func NewHTTPFactory(opts Opts) Factory {
	return &httpFactory{opts: opts}
}

func (f *httpFactory) NewClient(endpoints []string) Client {
	o := f.opts
	o.Endpoints = endpoints
	return NewHTTPWithOpts(o)
}
