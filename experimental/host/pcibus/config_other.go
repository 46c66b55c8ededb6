// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build !linux
// +build !linux

package pcibus

import "errors"

func readConfig(path string, offset int, b []byte) error {
	return errors.New("configuration space access is not supported on this OS")
}

func writeConfig(path string, offset int, b []byte) error {
	return errors.New("configuration space access is not supported on this OS")
}
