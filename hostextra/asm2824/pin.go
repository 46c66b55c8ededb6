// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package asm2824

import (
	"time"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/physic"
)

// pollInterval is how often WaitForEdge samples the line.
const pollInterval = 50 * time.Microsecond

// Pin is one line of a Chip. It is stateless.
//
// Both lines of a QM2 card are pulled up on the card. The pull cannot be
// changed.
type Pin struct {
	c   *Chip
	num int
	n   string
	f   string
}

// String implements conn.Resource.
func (p *Pin) String() string {
	return p.n
}

// Halt implements conn.Resource.
func (p *Pin) Halt() error {
	return nil
}

// Name implements pin.Pin.
func (p *Pin) Name() string {
	return p.n
}

// Number implements pin.Pin.
func (p *Pin) Number() int {
	return p.num
}

// Function implements pin.Pin.
func (p *Pin) Function() string {
	return p.f
}

// In implements gpio.PinIn.
//
// Edge detection is emulated by polling in WaitForEdge.
func (p *Pin) In(pull gpio.Pull, e gpio.Edge) error {
	if pull == gpio.PullDown {
		return errors.New("asm2824: pull down is not supported")
	}
	return p.c.DirectionInput(p.num)
}

// Read implements gpio.PinIn.
//
// A register access failure reads as Low.
func (p *Pin) Read() gpio.Level {
	l, err := p.c.Get(p.num)
	if err != nil {
		p.c.logger.WithField("pin", p.n).Warnf("read: %v", err)
	}
	return l
}

// WaitForEdge implements gpio.PinIn.
//
// The chip has no interrupt; it samples the line until it changes or the
// timeout expires. A negative timeout waits forever.
func (p *Pin) WaitForEdge(t time.Duration) bool {
	var end time.Time
	if t >= 0 {
		end = time.Now().Add(t)
	}
	prev := p.Read()
	for {
		if t >= 0 && !time.Now().Before(end) {
			return false
		}
		time.Sleep(pollInterval)
		if l := p.Read(); l != prev {
			return true
		}
	}
}

// DefaultPull implements gpio.PinIn.
func (p *Pin) DefaultPull() gpio.Pull {
	return gpio.PullUp
}

// Pull implements gpio.PinIn.
func (p *Pin) Pull() gpio.Pull {
	return gpio.PullUp
}

// Out implements gpio.PinOut.
//
// The level is latched before the line is turned to output so it never
// glitches.
func (p *Pin) Out(l gpio.Level) error {
	if err := p.c.Set(p.num, l); err != nil {
		return err
	}
	return p.c.DirectionOutput(p.num)
}

// PWM implements gpio.PinOut.
func (p *Pin) PWM(d gpio.Duty, f physic.Frequency) error {
	return errors.New("asm2824: not implemented")
}

var _ gpio.PinIO = &Pin{}
