// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package asm2824

import (
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"periph.io/x/periph"
	"periph.io/x/qm2/experimental/conn/pci"
	"periph.io/x/qm2/experimental/host/pcibus"
)

// Opts configures a Controllers. The zero value uses the host.
type Opts struct {
	// Catalog enumerates the PCI functions. Defaults to sysfs.
	Catalog pci.Catalog
	// Platform is where chips and buses are published. Defaults to Host.
	Platform Platform
	// FirstAdapter and LastAdapter bound the I²C adapter numbers. Default to
	// DefaultFirstAdapter and DefaultLastAdapter.
	FirstAdapter int
	LastAdapter  int
	// Delay is the half period of the bit-banged clock. Defaults to
	// DefaultDelay.
	Delay time.Duration
	// Wiring defaults to DefaultWiring.
	Wiring Wiring
	// Exclude lists the subsystems to skip. Nil means DefaultExclusions.
	Exclude []pci.ID
	Log     log.FieldLogger
}

// Controllers owns the buses built for the ASM2824 found on the host.
//
// It is the only owner of the adapter numbers it allocates; use a single
// Controllers per Platform.
type Controllers struct {
	mu      sync.Mutex
	scanner Scanner
	alloc   Allocator
	builder Builder
	reg     Registry
	logger  log.FieldLogger
}

// New returns a Controllers configured with opts. Nothing is scanned yet.
func New(opts *Opts) *Controllers {
	o := Opts{}
	if opts != nil {
		o = *opts
	}
	if o.Catalog == nil {
		o.Catalog = &pcibus.Catalog{}
	}
	if o.Platform == nil {
		o.Platform = Host
	}
	if o.FirstAdapter == 0 && o.LastAdapter == 0 {
		o.FirstAdapter = DefaultFirstAdapter
		o.LastAdapter = DefaultLastAdapter
	}
	if o.Delay <= 0 {
		o.Delay = DefaultDelay
	}
	if o.Wiring == (Wiring{}) {
		o.Wiring = DefaultWiring
	}
	if o.Exclude == nil {
		o.Exclude = DefaultExclusions
	}
	if o.Log == nil {
		o.Log = log.StandardLogger()
	}
	c := &Controllers{logger: o.Log}
	c.scanner = Scanner{Catalog: o.Catalog, Exclude: o.Exclude, Log: o.Log}
	c.alloc = Allocator{First: o.FirstAdapter, Last: o.LastAdapter, InUse: o.Platform.BusInUse}
	c.builder = Builder{Platform: o.Platform, Alloc: &c.alloc, Wiring: o.Wiring, Delay: o.Delay, Log: o.Log}
	return c
}

// Scan builds a bus for every eligible ASM2824 not already built.
//
// A controller that fails to build is logged and skipped; it doesn't stop the
// scan. It returns the number of controllers built by this call. The error is
// the enumeration error, if any.
func (c *Controllers) Scan() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	built := map[string]bool{}
	for _, d := range c.reg.All() {
		built[d.pci.Desc().Addr()] = true
	}
	n := 0
	err := c.scanner.Each(func(pd pci.Dev) bool {
		if built[pd.Desc().Addr()] {
			return true
		}
		d, err := c.builder.Build(pd)
		if err != nil {
			c.logger.WithField("dev", pd.String()).Warnf("Skipping: %v", err)
			return true
		}
		c.reg.Add(d)
		n++
		return true
	})
	return n, err
}

// All returns the built controllers in construction order.
func (c *Controllers) All() []*Dev {
	return c.reg.All()
}

// Close tears down every controller. The Controllers can be scanned again.
func (c *Controllers) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reg.Close()
}

// All returns the controllers published by the periph driver.
func All() []*Dev {
	mu.Lock()
	defer mu.Unlock()
	if drv.c == nil {
		return nil
	}
	return drv.c.All()
}

// Close tears down the controllers published by the periph driver.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if drv.c == nil {
		return nil
	}
	return drv.c.Close()
}

//

var (
	mu  sync.Mutex
	drv driver
)

// driver implements periph.Driver.
type driver struct {
	opts Opts
	c    *Controllers
}

func (d *driver) String() string {
	return "asm2824"
}

func (d *driver) Prerequisites() []string {
	return nil
}

func (d *driver) After() []string {
	return nil
}

func (d *driver) Init() (bool, error) {
	if runtime.GOOS != "linux" {
		return false, errors.New("asm2824: only supported on linux")
	}
	mu.Lock()
	defer mu.Unlock()
	if d.c != nil {
		// Init was called again; drop what the previous call published.
		if err := d.c.Close(); err != nil {
			return true, errors.Wrap(err, "asm2824")
		}
	}
	d.c = New(&d.opts)
	n, err := d.c.Scan()
	if err != nil {
		return true, errors.Wrap(err, "asm2824")
	}
	if n == 0 {
		return false, errors.New("asm2824: no eligible device found")
	}
	return true, nil
}

func (d *driver) reset() {
	mu.Lock()
	defer mu.Unlock()
	if d.c != nil {
		_ = d.c.Close()
	}
	*d = driver{}
}

func init() {
	periph.MustRegister(&drv)
}

var _ periph.Driver = &drv
