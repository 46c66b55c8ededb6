// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package asm2824

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/qm2/experimental/conn/gpio/gpiolookup"
	"periph.io/x/qm2/experimental/conn/pci"
)

// arena is the list of resources acquired for one controller, in acquisition
// order. Releasing walks it backward.
type arena struct {
	steps []step
}

type step struct {
	name    string
	release func() error
}

func (a *arena) push(name string, release func() error) {
	a.steps = append(a.steps, step{name: name, release: release})
}

// release frees every resource, last acquired first.
//
// A failing step is logged and doesn't stop the following ones. It returns the
// first error.
func (a *arena) release(logger log.FieldLogger) error {
	var first error
	for i := len(a.steps) - 1; i >= 0; i-- {
		s := a.steps[i]
		logger.Debugf("Releasing %s", s.name)
		if err := s.release(); err != nil {
			logger.Warnf("Failed to release %s: %v", s.name, err)
			if first == nil {
				first = err
			}
		}
	}
	a.steps = nil
	return first
}

// names returns the resources held, in acquisition order.
func (a *arena) names() []string {
	out := make([]string, len(a.steps))
	for i, s := range a.steps {
		out[i] = s.name
	}
	return out
}

// Builder publishes a GPIO chip and an I²C bus for one ASM2824.
type Builder struct {
	Platform Platform
	Alloc    *Allocator
	Wiring   Wiring
	Delay    time.Duration
	Log      log.FieldLogger
}

// Build acquires, in order, an adapter number, a label, a published GPIO
// chip, a bus with its bit-bang data, a lookup table and finally publishes
// the bus.
//
// On failure everything acquired so far is released, last first, and no
// trace of the controller is left in any registry.
func (b *Builder) Build(pd pci.Dev) (*Dev, error) {
	logger := b.Log
	if logger == nil {
		logger = log.StandardLogger()
	}
	logger = logger.WithField("dev", pd.String())
	d, err := b.build(pd, logger)
	if err != nil {
		if err1 := d.res.release(logger); err1 != nil {
			logger.Warnf("Rollback was incomplete: %v", err1)
		}
		return nil, err
	}
	return d, nil
}

func (b *Builder) build(pd pci.Dev, logger log.FieldLogger) (*Dev, error) {
	w := b.Wiring
	if w == (Wiring{}) {
		w = DefaultWiring
	}
	d := &Dev{pci: pd, wiring: w}
	delay := b.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}

	nr, err := b.Alloc.Allocate()
	if err != nil {
		return d, err
	}
	d.adapter = nr
	d.res.push("adapter number", func() error {
		b.Alloc.Release(nr)
		return nil
	})
	logger = logger.WithField("adapter", nr)
	logger.Debugf("Found next available I2C adapter: %d", nr)

	desc := pd.Desc()
	d.label = fmt.Sprintf("gpio-asm2824_%04x:%02x_%d", desc.Bus, desc.Slot, nr)
	d.res.push("label", func() error {
		d.label = ""
		return nil
	})
	logger = logger.WithField("label", d.label)
	logger.Debugf("Allocated label '%s'", d.label)

	d.logger = logger
	d.chip = newChip(d.label, pd, w, logger)
	if err := b.Platform.AddChip(d.chip); err != nil {
		return d, fail(ErrRegistration, err, "gpio chip %s", d.label)
	}
	d.res.push("gpio chip", func() error {
		return b.Platform.RemoveChip(d.chip)
	})
	logger.Debug("Added GPIO chip")

	if d.bus, err = b.Platform.AllocBus(BusName, nr); err != nil {
		return d, fail(ErrAllocation, err, "platform bus %s.%d", BusName, nr)
	}
	d.res.push("platform bus", func() error {
		b.Platform.PutBus(d.bus)
		return nil
	})
	logger.Debug("Allocated platform device")

	if err := d.bus.AddData(&BusData{Delay: delay}); err != nil {
		return d, fail(ErrAllocation, err, "platform data of %s", d.bus)
	}
	d.res.push("platform data", func() error {
		d.bus.data = nil
		return nil
	})
	logger.Debug("Added platform device gpio data")

	d.lookup = &gpiolookup.Table{
		DevID: d.bus.String(),
		Entries: []gpiolookup.Entry{
			{Key: d.label, HWNum: LineSDA, Idx: LineSDA, Role: "SDA"},
			{Key: d.label, HWNum: LineSCL, Idx: LineSCL, Role: "SCL"},
		},
	}
	if err := b.Platform.AddLookup(d.lookup); err != nil {
		return d, fail(ErrRegistration, err, "lookup table %s", d.lookup.DevID)
	}
	d.res.push("lookup table", func() error {
		return b.Platform.RemoveLookup(d.lookup)
	})
	logger.Debug("Lookup table added")

	if err := b.Platform.AddBus(d.bus); err != nil {
		return d, fail(ErrRegistration, err, "platform bus %s", d.bus)
	}
	d.res.push("published bus", func() error {
		return b.Platform.RemoveBus(d.bus)
	})
	logger.Debug("Platform device registered")
	return d, nil
}
