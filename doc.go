// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package qm2 is for documentation only. Explains how to reach the I²C bus of
// QNAP QM2 cards.
//
// The QM2 cards carry an ASMedia ASM2824 PCIe switch. Two GPIO lines of the
// switch are wired to an I²C bus that leads to the card sensors and EEPROM.
// The package periph.io/x/qm2/hostextra/asm2824 publishes that bus in i2creg
// as "i2c-gpio.N", N starting at 32.
//
// Permissions
//
// The GPIO registers live in the extended PCI configuration space, which only
// root can access:
//
//  sudo qm2i2c scan
//
// Usage
//
// Import periph.io/x/qm2/hostextra and call hostextra.Init() instead of
// host.Init(), then open the bus by name:
//
//  b, err := i2creg.Open("i2c-gpio.32")
//
// Use qm2i2c run to keep the buses published from the command line.
package qm2
