// Package network describes the ledger networks a wallet backend can follow.
package network

import (
	"fmt"
	"strings"
)

type Type uint8

const (
	Mainnet Type = iota
	Testnet
	Stagenet
)

// All lists every supported network in declaration order.
var All = []Type{Mainnet, Testnet, Stagenet}

// v2 block rules start at these heights; the unlock leeway depends on them.
var v2ForkHeights = map[Type]uint64{
	Mainnet:  1009827,
	Testnet:  624634,
	Stagenet: 32000,
}

func (t Type) String() string {
	switch t {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	case Stagenet:
		return "stagenet"
	default:
		return fmt.Sprintf("network(%d)", uint8(t))
	}
}

// V2ForkHeight returns the first height at which v2 block rules apply.
func (t Type) V2ForkHeight() uint64 {
	return v2ForkHeights[t]
}

// Parse maps a config value to a network. Matching is case-insensitive.
func Parse(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mainnet", "main", "":
		return Mainnet, nil
	case "testnet", "test":
		return Testnet, nil
	case "stagenet", "stage":
		return Stagenet, nil
	default:
		return Mainnet, fmt.Errorf("unknown network %q", s)
	}
}
