package util

import (
	"math/rand"
	"sync"
)

// LockedSource is a random source that is uses a mutex to ensure it is threadsafe
type LockedSource struct {
	lk  sync.Mutex
	src rand.Source
}

func (r *LockedSource) Int63() (n int64) {
	r.lk.Lock()
	n = r.src.Int63()
	r.lk.Unlock()
	return
}

func (r *LockedSource) Seed(seed int64) {
	r.lk.Lock()
	r.src.Seed(seed)
	r.lk.Unlock()
}

// NewThreadsafeRand Returns a *rand.Rand that is safe to share across multiple goroutines
func NewThreadsafeRand(seed int64) *rand.Rand {
	return rand.New(&LockedSource{
		lk:  sync.Mutex{},
		src: rand.NewSource(seed),
	})
}

// Random is the subset of *rand.Rand used to make random choices.
type Random interface {
	Intn(n int) int
}

// RandInt returns a uniformly distributed int in the closed interval [min, max].
func RandInt(r Random, min, max int) int {
	if max <= min {
		return min
	}
	return min + r.Intn(max-min+1)
}

// RandBool returns true with probability numerator/denominator.
func RandBool(r Random, numerator, denominator int) bool {
	return r.Intn(denominator) < numerator
}

// RandChoice returns a uniformly chosen element of choices. choices must not be empty.
func RandChoice[T any](r Random, choices []T) T {
	return choices[r.Intn(len(choices))]
}
