package dispatch

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
)

// KeyedLocks serializes work per key, e.g. reconciliation passes for one account.
type KeyedLocks struct {
	locks *xsync.Map[uint64, *sync.Mutex]
}

func NewKeyedLocks() *KeyedLocks {
	return &KeyedLocks{locks: xsync.NewMap[uint64, *sync.Mutex]()}
}

// Lock blocks until key is free and returns the matching unlock.
func (k *KeyedLocks) Lock(key uint64) (unlock func()) {
	mu, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mu.Lock()
	return mu.Unlock
}

// TryLock is Lock without waiting.
func (k *KeyedLocks) TryLock(key uint64) (unlock func(), ok bool) {
	mu, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	if !mu.TryLock() {
		return nil, false
	}
	return mu.Unlock, true
}
