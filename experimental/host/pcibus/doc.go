// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pcibus implements OS specific functions for conn/pci.
//
// On linux, functions are enumerated from sysfs and their configuration space
// is accessed through the "config" file of each function. Access beyond the
// first 64 bytes of configuration space requires root, or CAP_SYS_ADMIN.
//
// Configuration space access is currently only supported on linux.
package pcibus
