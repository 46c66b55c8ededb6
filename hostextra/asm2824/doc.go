// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package asm2824 exposes the I²C bus hidden in the ASMedia ASM2824 PCIe
// switch found on QNAP QM2 cards.
//
// The switch has a small GPIO block in its extended configuration space. The
// card wires two of its lines to an I²C bus, used to reach the card sensors
// and EEPROM. This package publishes:
//
// - the two lines as GPIO pins in gpioreg, and as a header in pinreg named
// after the chip label, e.g. "gpio-asm2824_0003:00_32";
//
// - a lookup table in gpiolookup named after the bus;
//
// - a bit-banged I²C bus in i2creg, e.g. "i2c-gpio.32", numbered from 32.
//
// Registers
//
// All registers are one byte, one bit per line. SDA is bit 1, SCL is bit 0.
//
//  0x0FFF  enable; write 1 before changing a direction (write only)
//  0x0920  direction; bit set is output, bit cleared is input
//  0x0928  output level
//  0x0930  input level (read only)
//
// Eligible functions
//
// Only function 0 of a PCI-to-PCI bridge is used. Cards with subsystem
// 1baa:c027 and 1baa:e009 don't have the bus wired and are skipped.
//
// Access to the extended configuration space requires root.
package asm2824
