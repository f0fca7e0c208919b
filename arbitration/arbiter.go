// Package arbitration decides which of several requesters is served in a
// cycle.
package arbitration

import "log"

// An Arbiter grants one of the asserted requests. Grant does not change the
// arbiter state, so it can be evaluated during the compute phase of a cycle.
type Arbiter interface {
	// Grant returns the index of the granted request, or -1 if none is
	// asserted.
	Grant(requests []bool) int
}

// FixedPriority grants the asserted request with the lowest index.
type FixedPriority struct{}

// Grant returns the first asserted request.
func (FixedPriority) Grant(requests []bool) int {
	for i, r := range requests {
		if r {
			return i
		}
	}

	return -1
}

// RoundRobin rotates the priority among n requesters every time a grant is
// consumed.
type RoundRobin struct {
	n    int
	next int
}

// NewRoundRobin creates a round-robin arbiter whose first priority goes to
// requester 0.
func NewRoundRobin(n int) *RoundRobin {
	if n <= 0 {
		log.Panicf("round robin arbiter needs requesters, got %d", n)
	}

	return &RoundRobin{n: n}
}

// Grant returns the first asserted request starting from the current
// priority.
func (a *RoundRobin) Grant(requests []bool) int {
	if len(requests) != a.n {
		log.Panicf("round robin arbiter expects %d requests, got %d",
			a.n, len(requests))
	}

	for i := 0; i < a.n; i++ {
		idx := (a.next + i) % a.n
		if requests[idx] {
			return idx
		}
	}

	return -1
}

// Advance moves the priority to the next requester. It is called once per
// consumed grant, whichever requester was granted.
func (a *RoundRobin) Advance() {
	a.next = (a.next + 1) % a.n
}

// Next returns the requester that currently has the priority.
func (a *RoundRobin) Next() int {
	return a.next
}
