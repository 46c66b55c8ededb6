// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package asm2824smoketest is leveraged by qm2i2c to verify that the I²C
// lines of the QM2 cards found on the host are working as expected.
package asm2824smoketest

import (
	"errors"
	"flag"
	"fmt"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/i2c"
	"periph.io/x/qm2/hostextra/asm2824"
)

// SmokeTest is imported by qm2i2c.
type SmokeTest struct {
	// All returns the controllers to test. Defaults to asm2824.All.
	All func() []*asm2824.Dev
}

// Name implements the SmokeTest interface.
func (s *SmokeTest) Name() string {
	return "asm2824"
}

// Description implements the SmokeTest interface.
func (s *SmokeTest) Description() string {
	return "Tests the I²C lines of the ASM2824 on QM2 cards"
}

// Run implements the SmokeTest interface.
func (s *SmokeTest) Run(f *flag.FlagSet, args []string) error {
	addr := f.Uint("addr", 0, "optional I²C address to read one byte from on each bus")
	if err := f.Parse(args); err != nil {
		return err
	}
	if f.NArg() != 0 {
		f.Usage()
		return errors.New("unrecognized arguments")
	}
	if *addr > 0x7F {
		return fmt.Errorf("invalid address %#x", *addr)
	}
	all := asm2824.All
	if s.All != nil {
		all = s.All
	}
	devs := all()
	if len(devs) == 0 {
		return errors.New("no ASM2824 found")
	}
	for _, d := range devs {
		if err := testLines(d.Chip()); err != nil {
			return fmt.Errorf("%s: %v", d, err)
		}
		if *addr != 0 {
			if err := testBus(d, uint16(*addr)); err != nil {
				return fmt.Errorf("%s: %v", d, err)
			}
		}
	}
	return nil
}

// testLines drives each line low then releases it. A released line must read
// high thanks to the bus pull up.
func testLines(c asm2824.LineController) (err error) {
	for _, line := range []int{asm2824.LineSDA, asm2824.LineSCL} {
		defer func(line int) {
			if err1 := c.DirectionInput(line); err == nil {
				err = err1
			}
		}(line)
		if err := c.Set(line, gpio.Low); err != nil {
			return err
		}
		if err := c.DirectionOutput(line); err != nil {
			return err
		}
		if l, err := c.Get(line); err != nil {
			return err
		} else if l != gpio.Low {
			return fmt.Errorf("line %d: driven low, read %s", line, l)
		}
		if err := c.DirectionInput(line); err != nil {
			return err
		}
		if l, err := c.Get(line); err != nil {
			return err
		} else if l != gpio.High {
			return fmt.Errorf("line %d: released, read %s; is the pull up missing?", line, l)
		}
	}
	return nil
}

func testBus(d *asm2824.Dev, addr uint16) error {
	b, err := d.I2C()
	if err != nil {
		return err
	}
	defer b.Close()
	dev := i2c.Dev{Bus: b, Addr: addr}
	var r [1]byte
	if err := dev.Tx(nil, r[:]); err != nil {
		return fmt.Errorf("reading %#x: %v", addr, err)
	}
	return nil
}
