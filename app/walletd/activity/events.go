package activity

import (
	models "github.com/canopy-network/walletsync/pkg/db/models/wallet"
	"github.com/canopy-network/walletsync/pkg/reconcile"
)

// pendingEvents holds pass decisions until the store transaction commits.
type pendingEvents struct {
	promoted []models.Transaction
	evicted  []models.Transaction
}

func (p *pendingEvents) Promoted(tx models.Transaction) { p.promoted = append(p.promoted, tx) }
func (p *pendingEvents) Evicted(tx models.Transaction)  { p.evicted = append(p.evicted, tx) }

func (p *pendingEvents) reset() {
	p.promoted = p.promoted[:0]
	p.evicted = p.evicted[:0]
}

func (p *pendingEvents) flush(o reconcile.Observer) {
	if o == nil {
		return
	}
	for _, tx := range p.promoted {
		o.Promoted(tx)
	}
	for _, tx := range p.evicted {
		o.Evicted(tx)
	}
}
