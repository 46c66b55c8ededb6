// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package asm2824

// Default I²C adapter number range. Numbers below are left to the buses
// declared by the host.
const (
	DefaultFirstAdapter = 32
	DefaultLastAdapter  = 64
)

// Allocator hands out I²C adapter numbers in [First, Last].
//
// A number is free when no bus is registered with it and it is not already
// reserved by this Allocator. It is not safe for concurrent use; the driver
// serializes calls.
type Allocator struct {
	First int
	Last  int
	// InUse reports whether a bus is already registered with number n. It
	// must not have side effects.
	InUse func(n int) bool

	reserved map[int]bool
}

// Allocate reserves and returns the lowest free number.
func (a *Allocator) Allocate() (int, error) {
	for n := a.First; n <= a.Last; n++ {
		if a.reserved[n] || (a.InUse != nil && a.InUse(n)) {
			continue
		}
		if a.reserved == nil {
			a.reserved = map[int]bool{}
		}
		a.reserved[n] = true
		return n, nil
	}
	return 0, fail(ErrNoAdapterAvailable, nil, "all of [%d, %d] are taken", a.First, a.Last)
}

// Release returns n to the pool.
func (a *Allocator) Release(n int) {
	delete(a.reserved, n)
}

// Reserved returns the number of reservations held.
func (a *Allocator) Reserved() int {
	return len(a.reserved)
}
