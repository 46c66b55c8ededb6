// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcibus

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"periph.io/x/qm2/experimental/conn/pci"
)

// DefaultRoot is where linux exposes the PCI functions.
const DefaultRoot = "/sys/bus/pci/devices"

// Catalog enumerates the PCI functions from a sysfs tree.
//
// The zero value uses DefaultRoot.
type Catalog struct {
	Root string
}

// Walk implements pci.Catalog.
//
// Functions are visited sorted by address. Functions whose attributes cannot
// be read are skipped.
func (c *Catalog) Walk(id pci.ID, fn func(d pci.Dev) bool) error {
	root := c.Root
	if root == "" {
		root = DefaultRoot
	}
	fis, err := ioutil.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var all descriptors
	for _, fi := range fis {
		d := dev{path: filepath.Join(root, fi.Name())}
		if err := d.load(fi.Name()); err != nil {
			continue
		}
		if d.desc.ID == id {
			all = append(all, d)
		}
	}
	sort.Sort(all)
	for i := range all {
		if !fn(&all[i]) {
			return nil
		}
	}
	return nil
}

//

type descriptors []dev

func (d descriptors) Len() int      { return len(d) }
func (d descriptors) Swap(i, j int) { d[i], d[j] = d[j], d[i] }
func (d descriptors) Less(i, j int) bool {
	a, b := &d[i].desc, &d[j].desc
	if a.Domain != b.Domain {
		return a.Domain < b.Domain
	}
	if a.Bus != b.Bus {
		return a.Bus < b.Bus
	}
	return a.DevFn() < b.DevFn()
}

// dev is a PCI function exposed in sysfs.
//
// It is stateless past enumeration; every configuration space access opens
// the config file again so a removed function fails cleanly.
type dev struct {
	path string
	desc pci.Desc
}

func (d *dev) String() string {
	return d.desc.Addr()
}

// Desc implements pci.Dev.
func (d *dev) Desc() *pci.Desc {
	return &d.desc
}

// ReadConfigByte implements pci.ConfigSpace.
func (d *dev) ReadConfigByte(offset int) (byte, error) {
	var b [1]byte
	if err := readConfig(filepath.Join(d.path, "config"), offset, b[:]); err != nil {
		return 0, fmt.Errorf("pcibus: %s: %v", d, err)
	}
	return b[0], nil
}

// WriteConfigByte implements pci.ConfigSpace.
func (d *dev) WriteConfigByte(offset int, v byte) error {
	if err := writeConfig(filepath.Join(d.path, "config"), offset, []byte{v}); err != nil {
		return fmt.Errorf("pcibus: %s: %v", d, err)
	}
	return nil
}

// load parses the address in name and the identification attributes.
func (d *dev) load(name string) error {
	p := &d.desc
	if _, err := fmt.Sscanf(name, "%x:%x:%x.%x", &p.Domain, &p.Bus, &p.Slot, &p.Func); err != nil {
		return err
	}
	var err error
	if p.ID.Vendor, err = d.attr16("vendor"); err != nil {
		return err
	}
	if p.ID.Device, err = d.attr16("device"); err != nil {
		return err
	}
	// Subsystem ids are absent on some bridges; leave them as zero.
	p.Subsystem.Vendor, _ = d.attr16("subsystem_vendor")
	p.Subsystem.Device, _ = d.attr16("subsystem_device")
	c, err := d.attr("class", 24)
	if err != nil {
		return err
	}
	p.Class = uint32(c)
	return nil
}

func (d *dev) attr16(name string) (uint16, error) {
	v, err := d.attr(name, 16)
	return uint16(v), err
}

// attr reads a sysfs attribute formatted as "0x1b21\n".
func (d *dev) attr(name string, bits int) (uint64, error) {
	b, err := ioutil.ReadFile(filepath.Join(d.path, name))
	if err != nil {
		return 0, err
	}
	s := strings.TrimPrefix(strings.TrimSpace(string(b)), "0x")
	return strconv.ParseUint(s, 16, bits)
}

var _ pci.Catalog = &Catalog{}
var _ pci.Dev = &dev{}
