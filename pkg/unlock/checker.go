// Package unlock decides whether a transaction's unlock constraint has been met.
package unlock

import (
	"github.com/canopy-network/walletsync/pkg/network"
	"github.com/lightningnetwork/lnd/clock"
)

const (
	// MaxBlockNumber separates the two encodings of an unlock constraint:
	// values below it are block heights, values at or above are unix timestamps.
	MaxBlockNumber uint64 = 500000000

	// DefaultSpendableAge is the number of blocks after which a transaction is treated as final.
	DefaultSpendableAge uint64 = 10

	// LeewayV1 and LeewayV2 are the timestamp tolerances, in seconds, before and after
	// the v2 fork. They track the block target time of each rule set.
	LeewayV1 uint64 = 60
	LeewayV2 uint64 = 120
)

// Checker is stateless apart from its time source.
type Checker struct {
	net   network.Type
	clock clock.Clock
}

// NewChecker returns a Checker for net. A nil clk uses wall-clock time.
func NewChecker(net network.Type, clk clock.Clock) *Checker {
	if clk == nil {
		clk = clock.NewDefaultClock()
	}
	return &Checker{net: net, clock: clk}
}

func (c *Checker) Network() network.Type { return c.net }

// IsHeight reports whether constraint is a block height rather than a timestamp.
func IsHeight(constraint uint64) bool {
	return constraint < MaxBlockNumber
}

// Leeway returns the timestamp tolerance for a transaction mined at txHeight on net.
func Leeway(net network.Type, txHeight uint64) uint64 {
	if txHeight < net.V2ForkHeight() {
		return LeewayV1
	}
	return LeewayV2
}

// IsUnlocked evaluates constraint against currentHeight or the clock.
// A height equal to the constraint counts as unlocked.
func (c *Checker) IsUnlocked(constraint, txHeight, currentHeight uint64) bool {
	if IsHeight(constraint) {
		return currentHeight >= constraint
	}
	now := uint64(c.clock.Now().Unix())
	return now+Leeway(c.net, txHeight) >= constraint
}
