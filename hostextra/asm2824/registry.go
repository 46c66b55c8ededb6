// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package asm2824

import (
	"sync"

	log "github.com/sirupsen/logrus"
	"periph.io/x/periph/conn"
	"periph.io/x/periph/conn/i2c"
	"periph.io/x/qm2/experimental/conn/gpio/gpiolookup"
	"periph.io/x/qm2/experimental/conn/pci"
)

// Dev is an ASM2824 with its GPIO chip and I²C bus published.
//
// A Dev only exists fully built; it is created by Builder.Build and destroyed
// by Registry.Close.
type Dev struct {
	// pci is owned by the catalog that found it.
	pci     pci.Dev
	label   string
	wiring  Wiring
	adapter int
	chip    *Chip
	bus     *Bus
	lookup  *gpiolookup.Table

	res    arena
	logger log.FieldLogger
}

func (d *Dev) String() string {
	return d.label
}

// Halt implements conn.Resource.
//
// It stops driving both lines, releasing the bus.
func (d *Dev) Halt() error {
	err := d.chip.DirectionInput(LineSDA)
	if err1 := d.chip.DirectionInput(LineSCL); err == nil {
		err = err1
	}
	return err
}

// PCI returns the PCI function backing the controller.
func (d *Dev) PCI() pci.Dev {
	return d.pci
}

// Label returns the GPIO chip label, e.g. "gpio-asm2824_0003:00_32".
func (d *Dev) Label() string {
	return d.label
}

// Wiring returns the register bits used by the lines.
func (d *Dev) Wiring() Wiring {
	return d.wiring
}

// Adapter returns the I²C adapter number.
func (d *Dev) Adapter() int {
	return d.adapter
}

// Chip returns the GPIO controller.
func (d *Dev) Chip() *Chip {
	return d.chip
}

// Bus returns the published bus.
func (d *Dev) Bus() *Bus {
	return d.bus
}

// Lookup returns the lookup table of the bus lines.
func (d *Dev) Lookup() *gpiolookup.Table {
	return d.lookup
}

// I2C opens the bit-banged bus.
func (d *Dev) I2C() (i2c.BusCloser, error) {
	return d.bus.Open()
}

// Registry holds the built controllers in construction order.
type Registry struct {
	mu   sync.Mutex
	devs []*Dev
}

// Add appends a fully built controller.
func (r *Registry) Add(d *Dev) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devs = append(r.devs, d)
}

// All returns the controllers in construction order.
func (r *Registry) All() []*Dev {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Dev, len(r.devs))
	copy(out, r.devs)
	return out
}

// Len returns the number of controllers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.devs)
}

// Close tears down every controller, oldest first.
//
// Each controller is removed from the registry before its resources are
// released in reverse acquisition order. Failures are logged and don't stop
// the teardown. It returns the first error.
func (r *Registry) Close() error {
	var first error
	for {
		d := r.pop()
		if d == nil {
			return first
		}
		d.logger.Debug("Tearing down")
		if err := d.res.release(d.logger); err != nil && first == nil {
			first = err
		}
	}
}

func (r *Registry) pop() *Dev {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.devs) == 0 {
		return nil
	}
	d := r.devs[0]
	r.devs[0] = nil
	r.devs = r.devs[1:]
	return d
}

var _ conn.Resource = &Dev{}
