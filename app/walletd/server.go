package walletd

import (
	"net/http"

	"github.com/canopy-network/walletsync/app/walletd/controller"
)

// SetupServer builds the HTTP server. It is started by Start.
func (a *App) SetupServer() error {
	checks := map[string]controller.Pinger{
		"postgres": a.DBClient,
		"daemon":   a.RPC,
	}
	if a.RedisClient != nil {
		checks["redis"] = pingFunc(a.RedisClient.Health)
	}

	ctler := controller.NewController(a.Activities, checks, a.Registry, a.Logger)
	router, err := ctler.NewRouter()
	if err != nil {
		return err
	}

	a.Server = &http.Server{Addr: a.Config.Server.HTTPHost, Handler: router}
	return nil
}
