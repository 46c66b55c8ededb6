// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pcitest is meant to be used to test drivers over a fake PCI
// configuration space.
package pcitest

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/qm2/experimental/conn/pci"
)

// Op is one recorded configuration space access.
type Op struct {
	Write  bool
	Offset int
	Value  byte
}

func (o Op) String() string {
	if o.Write {
		return fmt.Sprintf("W %#04x=%#02x", o.Offset, o.Value)
	}
	return fmt.Sprintf("R %#04x=%#02x", o.Offset, o.Value)
}

// Config is a fake configuration space backed by a register file.
//
// Unset registers read as zero. Every access is recorded in Ops.
type Config struct {
	sync.Mutex
	Regs map[int]byte
	Ops  []Op
	// Fail lists the offsets that return an error on access.
	Fail map[int]bool
	// OnWrite, if set, is called after every successful write with the lock
	// held. It can be used to emulate side effects between registers.
	OnWrite func(c *Config, offset int, v byte)
}

// ReadConfigByte implements pci.ConfigSpace.
func (c *Config) ReadConfigByte(offset int) (byte, error) {
	c.Lock()
	defer c.Unlock()
	if c.Fail[offset] {
		return 0, errors.New("pcitest: read failure")
	}
	v := c.Regs[offset]
	c.Ops = append(c.Ops, Op{Offset: offset, Value: v})
	return v, nil
}

// WriteConfigByte implements pci.ConfigSpace.
func (c *Config) WriteConfigByte(offset int, v byte) error {
	c.Lock()
	defer c.Unlock()
	if c.Fail[offset] {
		return errors.New("pcitest: write failure")
	}
	if c.Regs == nil {
		c.Regs = map[int]byte{}
	}
	c.Regs[offset] = v
	c.Ops = append(c.Ops, Op{Write: true, Offset: offset, Value: v})
	if c.OnWrite != nil {
		c.OnWrite(c, offset, v)
	}
	return nil
}

// Reg returns the current value of a register without recording an access.
func (c *Config) Reg(offset int) byte {
	c.Lock()
	defer c.Unlock()
	return c.Regs[offset]
}

// Dev is a fake PCI function.
type Dev struct {
	Config
	D pci.Desc
}

func (d *Dev) String() string {
	return d.D.Addr()
}

// Desc implements pci.Dev.
func (d *Dev) Desc() *pci.Desc {
	return &d.D
}

// Catalog is a fake pci.Catalog over a fixed list of functions.
type Catalog struct {
	Devs []*Dev
	// Err, if set, is returned by Walk after all the functions were visited.
	Err error
	// Walks counts the number of enumerations done.
	Walks int
}

// Walk implements pci.Catalog.
func (c *Catalog) Walk(id pci.ID, fn func(d pci.Dev) bool) error {
	c.Walks++
	for _, d := range c.Devs {
		if d.D.ID != id {
			continue
		}
		if !fn(d) {
			return nil
		}
	}
	return c.Err
}

var _ pci.ConfigSpace = &Config{}
var _ pci.Dev = &Dev{}
var _ pci.Catalog = &Catalog{}
