package router

import (
	"fmt"
	"math/rand/v2"
	"sync/atomic"
)

// newSelector builds the selector implementing policy.
func newSelector(policy Policy) (selector, error) {
	switch policy {
	case RoundRobin, "":
		return &roundRobinSelector{}, nil
	case Random:
		return &randomSelector{}, nil
	case SmallestMailbox:
		return &smallestMailboxSelector{}, nil
	default:
		return nil, fmt.Errorf("router: unknown policy %q", policy)
	}
}

// roundRobinSelector picks (last + 1) mod n using a lock-free counter so
// concurrent Route calls never contend on a mutex just to advance the
// index. Fair by construction: over N*k routed jobs each of the N slots
// is visited exactly k times, modulo crashed-slot skips.
type roundRobinSelector struct {
	counter atomic.Uint64
}

func (s *roundRobinSelector) next(_ func(i int) int, n int) int {
	i := s.counter.Add(1) - 1
	return int(i % uint64(n))
}

// randomSelector picks a uniform index over [0, n).
type randomSelector struct{}

func (s *randomSelector) next(_ func(i int) int, n int) int {
	return rand.N(n)
}

// smallestMailboxSelector picks the index with the minimum mailbox size,
// breaking ties toward the lowest index. The caller (Router.pickLocked)
// already holds the pool's mutex, so the sizes read here form one
// consistent snapshot.
type smallestMailboxSelector struct{}

func (s *smallestMailboxSelector) next(sizes func(i int) int, n int) int {
	best := 0
	bestSize := sizes(0)
	for i := 1; i < n; i++ {
		if size := sizes(i); size < bestSize {
			best = i
			bestSize = size
		}
	}
	return best
}
