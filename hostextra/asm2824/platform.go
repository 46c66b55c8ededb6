// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package asm2824

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/pin"
	"periph.io/x/periph/conn/pin/pinreg"
	"periph.io/x/periph/experimental/devices/bitbang"
	"periph.io/x/qm2/experimental/conn/gpio/gpiolookup"
)

// BusName is the name of the buses created by this package. The bus
// identifier is appended, e.g. "i2c-gpio.32".
const BusName = "i2c-gpio"

// DefaultDelay is the half period of the bit-banged clock, 100kHz.
const DefaultDelay = 5 * time.Microsecond

// MaxDelay is the longest half period, 1Hz. A longer one has no integral
// frequency.
const MaxDelay = 500 * time.Millisecond

// BusData is the configuration of the bit-bang engine.
type BusData struct {
	// Delay is the half period of the clock.
	Delay time.Duration
}

// Bus is a bit-banged I²C bus over the lines of a Chip.
//
// The bus doesn't refer to the chip directly; it finds its lines through the
// lookup table registered under its String() name.
type Bus struct {
	Name string
	ID   int

	data *BusData
}

func (b *Bus) String() string {
	return b.Name + "." + strconv.Itoa(b.ID)
}

// AddData attaches the bit-bang configuration. It can be done only once.
func (b *Bus) AddData(d *BusData) error {
	if b.data != nil {
		return errors.New("platform data already attached")
	}
	if d == nil || d.Delay <= 0 || d.Delay > MaxDelay {
		return errors.New("invalid platform data")
	}
	c := *d
	b.data = &c
	return nil
}

// Data returns the bit-bang configuration, or nil.
func (b *Bus) Data() *BusData {
	return b.data
}

// Frequency returns the clock frequency derived from the delay.
func (b *Bus) Frequency() physic.Frequency {
	d := DefaultDelay
	if b.data != nil {
		d = b.data.Delay
	}
	return physic.Frequency(time.Second/(2*d)) * physic.Hertz
}

// Open resolves the lines of the bus and returns the bit-banged bus.
func (b *Bus) Open() (i2c.BusCloser, error) {
	sda, err := gpiolookup.Get(b.String(), LineSDA)
	if err != nil {
		return nil, err
	}
	scl, err := gpiolookup.Get(b.String(), LineSCL)
	if err != nil {
		return nil, err
	}
	return bitbang.New(scl, sda, b.Frequency())
}

// Platform is the set of registries a controller is published into.
//
// Each Add has its Remove; the builder pairs them.
type Platform interface {
	// BusInUse reports whether an I²C bus is registered with number n.
	BusInUse(n int) bool
	// AddChip publishes the lines of c.
	AddChip(c *Chip) error
	RemoveChip(c *Chip) error
	// AllocBus creates an unpublished bus.
	AllocBus(name string, id int) (*Bus, error)
	// PutBus discards a bus returned by AllocBus. The bus must not be
	// published.
	PutBus(b *Bus)
	AddLookup(t *gpiolookup.Table) error
	RemoveLookup(t *gpiolookup.Table) error
	// AddBus publishes the bus, making it usable.
	AddBus(b *Bus) error
	RemoveBus(b *Bus) error
}

// Host is the Platform of the periph registries: gpioreg and pinreg for the
// lines, gpiolookup for the lookup tables and i2creg for the buses.
var Host Platform = &host{}

type host struct{}

func (h *host) BusInUse(n int) bool {
	for _, r := range i2creg.All() {
		if r.Number == n {
			return true
		}
	}
	return false
}

func (h *host) AddChip(c *Chip) error {
	pins := c.Pins()
	for i, p := range pins {
		if err := gpioreg.Register(p); err != nil {
			for _, q := range pins[:i] {
				_ = gpioreg.Unregister(q.Name())
			}
			return err
		}
	}
	hdr := make([][]pin.Pin, len(pins))
	for i := range pins {
		hdr[i] = []pin.Pin{pins[i]}
	}
	if err := pinreg.Register(c.Label(), hdr); err != nil {
		for _, p := range pins {
			_ = gpioreg.Unregister(p.Name())
		}
		return err
	}
	return nil
}

func (h *host) RemoveChip(c *Chip) error {
	err := pinreg.Unregister(c.Label())
	for _, p := range c.Pins() {
		if err1 := gpioreg.Unregister(p.Name()); err == nil {
			err = err1
		}
	}
	return err
}

func (h *host) AllocBus(name string, id int) (*Bus, error) {
	if id < 0 {
		return nil, errors.Errorf("invalid bus id %d", id)
	}
	return &Bus{Name: name, ID: id}, nil
}

func (h *host) PutBus(b *Bus) {
	b.data = nil
}

func (h *host) AddLookup(t *gpiolookup.Table) error {
	return gpiolookup.Add(t)
}

func (h *host) RemoveLookup(t *gpiolookup.Table) error {
	return gpiolookup.Remove(t.DevID)
}

func (h *host) AddBus(b *Bus) error {
	return i2creg.Register(b.String(), nil, b.ID, b.Open)
}

func (h *host) RemoveBus(b *Bus) error {
	return i2creg.Unregister(b.String())
}
