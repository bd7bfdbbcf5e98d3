// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

// Package ports allocates daemon ports from a fixed inclusive range.
//
// The allocator consults only the registry's bookkeeping, never the
// OS: a port occupied by a process outside the registry's knowledge
// surfaces as a startup failure of the daemon, not as a pre-flight
// error. Port 0 always means "unassigned".
package ports

import (
	"errors"
	"fmt"
	"math/rand"
)

// maxAttempts bounds the random draws per allocation. Random sampling
// instead of a linear scan avoids deterministic clustering at the low
// end of the range when many environments are created in sequence;
// the trade-off is a small retry probability under high occupancy.
const maxAttempts = 100

// ErrRangeExhausted is returned when no free port was found within
// the attempt budget. Check with errors.Is.
var ErrRangeExhausted = errors.New("port range exhausted")

// Allocator picks unused ports from the inclusive range [First, Last].
type Allocator struct {
	First int
	Last  int

	// intn draws a random number in [0, n). Tests replace it to make
	// draw sequences deterministic.
	intn func(n int) int
}

// NewAllocator returns an Allocator over the inclusive range
// [first, last].
func NewAllocator(first, last int) *Allocator {
	return &Allocator{First: first, Last: last, intn: rand.Intn}
}

// Allocate returns a port in the range that is not present in used.
// used holds the ports currently recorded in the registry. Fails with
// ErrRangeExhausted after the attempt budget; never returns 0 or a
// port from used.
func (a *Allocator) Allocate(used map[int]bool) (int, error) {
	if a.First > a.Last {
		return 0, fmt.Errorf("invalid port range %d-%d", a.First, a.Last)
	}

	intn := a.intn
	if intn == nil {
		intn = rand.Intn
	}

	span := a.Last - a.First + 1
	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate := a.First + intn(span)
		if !used[candidate] {
			return candidate, nil
		}
	}

	return 0, fmt.Errorf("%w: no free port in %d-%d after %d attempts",
		ErrRangeExhausted, a.First, a.Last, maxAttempts)
}
