// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package asm2824

import (
	log "github.com/sirupsen/logrus"
	"periph.io/x/qm2/experimental/conn/pci"
)

// ID is the PCI id of the ASMedia ASM2824 PCIe switch.
var ID = pci.ID{Vendor: 0x1B21, Device: 0x2824}

// DefaultExclusions lists the subsystems known to not wire the GPIO lines.
var DefaultExclusions = []pci.ID{
	{Vendor: 0x1BAA, Device: 0xC027},
	{Vendor: 0x1BAA, Device: 0xE009},
}

// Excluded returns a non empty reason when the function must not get a bus.
//
// Only function 0 of the upstream bridge carries the GPIO block.
func Excluded(d *pci.Desc, subsystems []pci.ID) string {
	if d.Func != 0 {
		return "not function 0"
	}
	if d.Class>>8 != pci.ClassBridgePCI {
		return "not a PCI bridge"
	}
	for _, s := range subsystems {
		if d.Subsystem == s {
			return "subsystem has no GPIO"
		}
	}
	return ""
}

// Scanner finds the ASM2824 functions that get a bus.
type Scanner struct {
	Catalog pci.Catalog
	// Exclude lists the subsystems to skip. Nil means none.
	Exclude []pci.ID
	Log     log.FieldLogger
}

// Each calls fn for each eligible function in enumeration order, until fn
// returns false.
//
// Each call enumerates the catalog again.
func (s *Scanner) Each(fn func(d pci.Dev) bool) error {
	return s.Catalog.Walk(ID, func(d pci.Dev) bool {
		desc := d.Desc()
		if r := Excluded(desc, s.Exclude); r != "" {
			s.logger().WithField("dev", d.String()).Debugf("Skipping PCI device %s: %s", desc, r)
			return true
		}
		s.logger().WithField("dev", d.String()).Debugf("Found PCI device %s", desc)
		return fn(d)
	})
}

func (s *Scanner) logger() log.FieldLogger {
	if s.Log == nil {
		return log.StandardLogger()
	}
	return s.Log
}
