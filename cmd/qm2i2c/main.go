// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// qm2i2c publishes the I²C bus of the QNAP QM2 cards found on the host.
//
// It must run as root to access the PCI extended configuration space.
package main

func main() {
	Execute()
}
