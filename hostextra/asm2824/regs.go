// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package asm2824

import (
	"periph.io/x/qm2/experimental/conn/pci"
)

// Configuration space registers controlling the GPIO block.
//
// All are one byte wide, one bit per line.
const (
	// regEnable must be written with 1 before changing a line direction. It
	// is write only.
	regEnable = 0x0FFF
	// regDirection has the bit set for lines driven as output and cleared for
	// lines used as input.
	regDirection = 0x0920
	// regOutput is the level driven on output lines.
	regOutput = 0x0928
	// regInput is the level sensed on the lines. It is read only.
	regInput = 0x0930
)

func readReg(cs pci.ConfigSpace, offset int) (byte, error) {
	v, err := cs.ReadConfigByte(offset)
	if err != nil {
		return 0, fail(ErrRegisterAccess, err, "read %#04x", offset)
	}
	return v, nil
}

func writeReg(cs pci.ConfigSpace, offset int, v byte) error {
	if err := cs.WriteConfigByte(offset, v); err != nil {
		return fail(ErrRegisterAccess, err, "write %#04x", offset)
	}
	return nil
}

// updateReg sets or clears the bits of mask in the register at offset.
func updateReg(cs pci.ConfigSpace, offset int, mask byte, set bool) error {
	v, err := readReg(cs, offset)
	if err != nil {
		return err
	}
	if set {
		v |= mask
	} else {
		v &^= mask
	}
	return writeReg(cs, offset, v)
}
