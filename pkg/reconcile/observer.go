package reconcile

import models "github.com/canopy-network/walletsync/pkg/db/models/wallet"

// Observers fans decisions out to several observers in order.
type Observers []Observer

func (o Observers) Promoted(tx models.Transaction) {
	for _, obs := range o {
		obs.Promoted(tx)
	}
}

func (o Observers) Evicted(tx models.Transaction) {
	for _, obs := range o {
		obs.Evicted(tx)
	}
}
