// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package asm2824

import (
	"sync"

	log "github.com/sirupsen/logrus"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/qm2/experimental/conn/pci"
)

// Line numbers on a Chip.
const (
	LineSDA  = 0
	LineSCL  = 1
	NumLines = 2
)

// Wiring is the bit position of each line in the GPIO registers.
type Wiring struct {
	SDA uint8
	SCL uint8
}

// DefaultWiring is how QM2 cards wire the I²C lines on the ASM2824.
var DefaultWiring = Wiring{SDA: 1, SCL: 0}

// Bit returns the register bit used by line.
func (w *Wiring) Bit(line int) (uint8, error) {
	switch line {
	case LineSDA:
		return w.SDA, nil
	case LineSCL:
		return w.SCL, nil
	default:
		return 0, fail(ErrInvalidLine, nil, "line %d", line)
	}
}

// LineController is the set of operations on the lines of a GPIO controller.
type LineController interface {
	// DirectionInput stops driving the line.
	DirectionInput(line int) error
	// DirectionOutput drives the line with the level previously set with Set.
	DirectionOutput(line int) error
	// Get returns the level sensed on the line.
	Get(line int) (gpio.Level, error)
	// Set sets the level to drive on the line when it is an output.
	Set(line int, l gpio.Level) error
}

// Chip is the GPIO controller of one ASM2824. It has NumLines lines.
//
// Each operation is a read-modify-write of a shared register; Chip serializes
// them. It cannot protect against another process touching the same
// registers.
type Chip struct {
	// Immutable.
	label  string
	cs     pci.ConfigSpace
	w      Wiring
	pins   [NumLines]Pin
	logger log.FieldLogger

	mu sync.Mutex
}

func newChip(label string, cs pci.ConfigSpace, w Wiring, logger log.FieldLogger) *Chip {
	c := &Chip{label: label, cs: cs, w: w, logger: logger.WithField("chip", label)}
	c.pins[LineSDA] = Pin{c: c, num: LineSDA, n: label + ".SDA", f: "I2C/SDA"}
	c.pins[LineSCL] = Pin{c: c, num: LineSCL, n: label + ".SCL", f: "I2C/SCL"}
	return c
}

func (c *Chip) String() string {
	return c.label
}

// Label returns the chip label, which is also its pinreg header name.
func (c *Chip) Label() string {
	return c.label
}

// Pins returns the lines as GPIO pins, indexed by line number.
func (c *Chip) Pins() []gpio.PinIO {
	out := make([]gpio.PinIO, NumLines)
	for i := range c.pins {
		out[i] = &c.pins[i]
	}
	return out
}

// DirectionInput implements LineController.
func (c *Chip) DirectionInput(line int) error {
	return c.setDirection(line, false)
}

// DirectionOutput implements LineController.
func (c *Chip) DirectionOutput(line int) error {
	return c.setDirection(line, true)
}

// Get implements LineController.
func (c *Chip) Get(line int) (gpio.Level, error) {
	bit, err := c.w.Bit(line)
	if err != nil {
		return gpio.Low, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, err := readReg(c.cs, regInput)
	if err != nil {
		return gpio.Low, err
	}
	return gpio.Level((v>>bit)&1 != 0), nil
}

// Set implements LineController.
func (c *Chip) Set(line int, l gpio.Level) error {
	bit, err := c.w.Bit(line)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return updateReg(c.cs, regOutput, 1<<bit, bool(l))
}

func (c *Chip) setDirection(line int, out bool) error {
	bit, err := c.w.Bit(line)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := writeReg(c.cs, regEnable, 1); err != nil {
		return err
	}
	return updateReg(c.cs, regDirection, 1<<bit, out)
}

var _ LineController = &Chip{}
