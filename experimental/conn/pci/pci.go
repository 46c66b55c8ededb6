// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pci describes PCI functions and their configuration space.
//
// A driver uses a Catalog to find the functions it supports, then talks to
// each function through its ConfigSpace.
//
// The actual OS specific implementation lives in
// periph.io/x/qm2/experimental/host/pcibus.
package pci

import (
	"fmt"
)

// ClassBridgePCI is the base class and subclass of a PCI-to-PCI bridge, as
// found in the upper 16 bits of Desc.Class.
const ClassBridgePCI = 0x0604

// ID represents a PCI vendor and device pair.
type ID struct {
	Vendor uint16
	Device uint16
}

func (i *ID) String() string {
	return fmt.Sprintf("%04x:%04x", i.Vendor, i.Device)
}

// Desc is the description of one PCI function.
//
// It is a snapshot taken at enumeration time. It is not updated if the
// function goes away.
type Desc struct {
	ID        ID
	Subsystem ID
	Domain    int
	Bus       int
	Slot      int
	Func      int
	// Class is the 24 bits class code: base class, subclass and programming
	// interface.
	Class uint32
}

// DevFn returns the slot and function packed in one byte, as in a PCI
// configuration address.
func (d *Desc) DevFn() int {
	return d.Slot<<3 | d.Func
}

// Addr returns the canonical address of the function, e.g. "0000:03:00.0".
func (d *Desc) Addr() string {
	return fmt.Sprintf("%04x:%02x:%02x.%d", d.Domain, d.Bus, d.Slot, d.Func)
}

func (d *Desc) String() string {
	return fmt.Sprintf("%s [Subsystem %s, DevFn: %08x, Class: %04x]", d.ID.String(), d.Subsystem.String(), d.DevFn(), d.Class)
}

// ConfigSpace is the byte wide access to a function's configuration space.
//
// Accesses are not atomic across calls. The caller must serialize
// read-modify-write sequences.
type ConfigSpace interface {
	ReadConfigByte(offset int) (byte, error)
	WriteConfigByte(offset int, v byte) error
}

// Dev is one PCI function found by a Catalog.
//
// The Dev is owned by the Catalog. Holders must not assume it outlives the
// next enumeration.
type Dev interface {
	fmt.Stringer
	ConfigSpace
	// Desc returns the description of the function.
	Desc() *Desc
}

// Catalog enumerates the PCI functions present on the host.
type Catalog interface {
	// Walk calls fn for every function matching id in enumeration order,
	// until fn returns false.
	//
	// Each call enumerates again; the Dev values of two walks are unrelated.
	Walk(id ID, fn func(d Dev) bool) error
}
