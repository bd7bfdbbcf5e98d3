// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time operations for testability. Production
// code injects Real(); tests inject Fake() and inspect recorded sleeps
// instead of waiting out real delays.
package clock

import "time"

// Clock abstracts the time operations the supervisor and resolver
// perform. Every production function that would call time.Now or
// time.Sleep accepts a Clock parameter (or is a method on a struct
// with a Clock field) instead of calling the time package directly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep pauses the current goroutine for at least duration d.
	// Equivalent to time.Sleep.
	Sleep(d time.Duration)
}

// Real returns a Clock backed by the time package.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }
