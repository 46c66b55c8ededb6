// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcibus

import (
	"io"

	"golang.org/x/sys/unix"
)

func readConfig(path string, offset int, b []byte) error {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return err
	}
	defer unix.Close(fd)
	n, err := unix.Pread(fd, b, int64(offset))
	if err != nil {
		return err
	}
	if n != len(b) {
		// sysfs truncates the config file to 256 bytes for unprivileged users.
		return io.ErrUnexpectedEOF
	}
	return nil
}

func writeConfig(path string, offset int, b []byte) error {
	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return err
	}
	defer unix.Close(fd)
	n, err := unix.Pwrite(fd, b, int64(offset))
	if err != nil {
		return err
	}
	if n != len(b) {
		return io.ErrShortWrite
	}
	return nil
}
