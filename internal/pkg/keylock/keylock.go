// Package keylock provides striped mutexes keyed by string. Two calls with
// the same key are serialized; calls with keys hashing to different stripes
// proceed in parallel. Collisions across keys are harmless: they only cost
// extra contention, never correctness.
package keylock

import (
	"hash/fnv"
	"sync"
)

const defaultStripes = 64

// KeyLock is a fixed set of mutexes with consistent key-to-stripe hashing.
type KeyLock struct {
	stripes []sync.Mutex
}

// New creates a KeyLock with n stripes. If n <= 0, defaultStripes is used.
func New(n int) *KeyLock {
	if n <= 0 {
		n = defaultStripes
	}
	return &KeyLock{stripes: make([]sync.Mutex, n)}
}

// Lock acquires the stripe for key and returns its unlock function.
func (k *KeyLock) Lock(key string) func() {
	m := &k.stripes[k.stripeIndex(key)]
	m.Lock()
	return m.Unlock
}

// stripeIndex maps a key deterministically to a stripe.
func (k *KeyLock) stripeIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()) % len(k.stripes)
}
