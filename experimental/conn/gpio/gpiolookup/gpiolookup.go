// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gpiolookup is a registry of GPIO lookup tables.
//
// A lookup table tells a consumer, identified by its device id, which GPIO
// lines it must use. Lines are named by the header they are registered under
// in pinreg and their 0-based index on that header.
//
// This permits a driver to publish a bus whose engine resolves its pins lazily
// at open time, without knowing how the pins were created.
package gpiolookup

import (
	"errors"
	"sort"
	"strconv"
	"sync"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/pin/pinreg"
)

// Entry maps one consumer index to a line.
type Entry struct {
	// Key is the pinreg header name of the line provider.
	Key string
	// HWNum is the 0-based line number on the header.
	HWNum int
	// Idx is the consumer's index for this line.
	Idx int
	// Role is informative, e.g. "SDA".
	Role string
}

// Table is the set of lines used by one consumer.
type Table struct {
	DevID   string
	Entries []Entry
}

// Add registers a lookup table.
//
// It is an error to register two tables with the same DevID.
func Add(t *Table) error {
	if t == nil || len(t.DevID) == 0 {
		return errors.New("gpiolookup: can't register a table without a device id")
	}
	mu.Lock()
	defer mu.Unlock()
	if _, ok := byDevID[t.DevID]; ok {
		return errors.New("gpiolookup: table " + strconv.Quote(t.DevID) + " was already registered")
	}
	byDevID[t.DevID] = t
	return nil
}

// Remove unregisters a lookup table previously added with Add.
func Remove(devID string) error {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := byDevID[devID]; !ok {
		return errors.New("gpiolookup: can't remove unknown table " + strconv.Quote(devID))
	}
	delete(byDevID, devID)
	return nil
}

// All returns the device ids of all the registered tables, sorted.
func All() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, 0, len(byDevID))
	for k := range byDevID {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Find returns the entry for the consumer devID at index idx.
func Find(devID string, idx int) (Entry, error) {
	mu.Lock()
	defer mu.Unlock()
	t, ok := byDevID[devID]
	if !ok {
		return Entry{}, errors.New("gpiolookup: no table for " + strconv.Quote(devID))
	}
	for _, e := range t.Entries {
		if e.Idx == idx {
			return e, nil
		}
	}
	return Entry{}, errors.New("gpiolookup: " + strconv.Quote(devID) + " has no line at index " + strconv.Itoa(idx))
}

// Get resolves the line for the consumer devID at index idx.
//
// The line provider must have registered its pins as a pinreg header, one
// pin per row.
func Get(devID string, idx int) (gpio.PinIO, error) {
	e, err := Find(devID, idx)
	if err != nil {
		return nil, err
	}
	hdr, ok := pinreg.All()[e.Key]
	if !ok {
		return nil, errors.New("gpiolookup: unknown line provider " + strconv.Quote(e.Key))
	}
	if e.HWNum < 0 || e.HWNum >= len(hdr) || len(hdr[e.HWNum]) == 0 {
		return nil, errors.New("gpiolookup: " + strconv.Quote(e.Key) + " has no line " + strconv.Itoa(e.HWNum))
	}
	p, ok := hdr[e.HWNum][0].(gpio.PinIO)
	if !ok {
		return nil, errors.New("gpiolookup: line " + strconv.Itoa(e.HWNum) + " of " + strconv.Quote(e.Key) + " is not a GPIO")
	}
	return p, nil
}

//

var (
	mu      sync.Mutex
	byDevID = map[string]*Table{}
)
