// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package asm2824

import (
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/qm2/experimental/conn/gpio/gpiolookup"
	"periph.io/x/qm2/experimental/conn/pci"
)

func TestBuild(t *testing.T) {
	p := &fakePlatform{}
	b, a := newTestBuilder(p)
	d, err := b.Build(newFakeASM2824(bridge(3, 0, 0x1BAA, 0xAAAA)))
	if err != nil {
		t.Fatal(err)
	}
	if d.Adapter() != 32 || d.Label() != "gpio-asm2824_0003:00_32" || d.String() != d.Label() {
		t.Fatalf("unexpected controller %s #%d", d, d.Adapter())
	}
	if d.Bus().String() != "i2c-gpio.32" || d.Bus().Data().Delay != DefaultDelay {
		t.Fatalf("unexpected bus %s", d.Bus())
	}
	if f := d.Bus().Frequency(); f != 100*physic.KiloHertz {
		t.Fatalf("frequency %s", f)
	}
	if d.Wiring() != DefaultWiring || d.Chip().Label() != d.Label() {
		t.Fatal("unexpected chip")
	}
	l := d.Lookup()
	want := gpiolookup.Table{
		DevID: "i2c-gpio.32",
		Entries: []gpiolookup.Entry{
			{Key: "gpio-asm2824_0003:00_32", HWNum: 0, Idx: 0, Role: "SDA"},
			{Key: "gpio-asm2824_0003:00_32", HWNum: 1, Idx: 1, Role: "SCL"},
		},
	}
	if l.DevID != want.DevID || len(l.Entries) != 2 || l.Entries[0] != want.Entries[0] || l.Entries[1] != want.Entries[1] {
		t.Fatalf("unexpected lookup %#v", l)
	}
	checkCalls(t, p.calls, "AddChip gpio-asm2824_0003:00_32", "AllocBus i2c-gpio.32", "AddLookup i2c-gpio.32", "AddBus i2c-gpio.32")
	names := d.res.names()
	if strings.Join(names, ",") != "adapter number,label,gpio chip,platform bus,platform data,lookup table,published bus" {
		t.Fatalf("unexpected resources %v", names)
	}
	if a.Reserved() != 1 {
		t.Fatal(a.Reserved())
	}

	// The next one gets the next number.
	d2, err := b.Build(newFakeASM2824(bridge(4, 0, 0x1BAA, 0xAAAA)))
	if err != nil {
		t.Fatal(err)
	}
	if d2.Label() != "gpio-asm2824_0004:00_33" || d2.Bus().String() != "i2c-gpio.33" {
		t.Fatalf("unexpected controller %s", d2)
	}
}

func TestBuild_Delay(t *testing.T) {
	p := &fakePlatform{}
	b, _ := newTestBuilder(p)
	b.Delay = 50 * time.Microsecond
	d, err := b.Build(newFakeASM2824(bridge(3, 0, 0x1BAA, 0xAAAA)))
	if err != nil {
		t.Fatal(err)
	}
	if f := d.Bus().Frequency(); f != 10*physic.KiloHertz {
		t.Fatalf("frequency %s", f)
	}
}

func TestBuild_DelayTooLong(t *testing.T) {
	p := &fakePlatform{}
	b, a := newTestBuilder(p)
	b.Delay = MaxDelay + time.Microsecond
	d, err := b.Build(newFakeASM2824(bridge(3, 0, 0x1BAA, 0xAAAA)))
	if d != nil || !errors.Is(err, ErrAllocation) {
		t.Fatalf("Build() = %v, %v", d, err)
	}
	if len(p.chips) != 0 || p.allocated != 0 || a.Reserved() != 0 {
		t.Fatalf("leftover %#v", p)
	}
}

func TestBus_AddData(t *testing.T) {
	data := []struct {
		delay time.Duration
		ok    bool
		f     physic.Frequency
	}{
		{DefaultDelay, true, 100 * physic.KiloHertz},
		{MaxDelay, true, physic.Hertz},
		{MaxDelay + time.Nanosecond, false, 0},
		{0, false, 0},
		{-time.Microsecond, false, 0},
	}
	for _, line := range data {
		b := &Bus{Name: BusName, ID: 32}
		err := b.AddData(&BusData{Delay: line.delay})
		if (err == nil) != line.ok {
			t.Fatalf("%s: AddData() = %v", line.delay, err)
		}
		if !line.ok {
			if b.Data() != nil {
				t.Fatalf("%s: data attached", line.delay)
			}
			continue
		}
		if f := b.Frequency(); f != line.f {
			t.Fatalf("%s: Frequency() = %s, want %s", line.delay, f, line.f)
		}
		if err := b.AddData(&BusData{Delay: line.delay}); err == nil {
			t.Fatal("data attached twice")
		}
	}
}

func TestBuild_Rollback(t *testing.T) {
	data := []struct {
		fail  string
		kind  error
		calls []string
	}{
		{"AddChip", ErrRegistration, []string{"AddChip gpio-asm2824_0003:00_32"}},
		{"AllocBus", ErrAllocation, []string{
			"AddChip gpio-asm2824_0003:00_32",
			"AllocBus i2c-gpio.32",
			"RemoveChip gpio-asm2824_0003:00_32",
		}},
		{"AddData", ErrAllocation, []string{
			"AddChip gpio-asm2824_0003:00_32",
			"AllocBus i2c-gpio.32",
			"PutBus i2c-gpio.32",
			"RemoveChip gpio-asm2824_0003:00_32",
		}},
		{"AddLookup", ErrRegistration, []string{
			"AddChip gpio-asm2824_0003:00_32",
			"AllocBus i2c-gpio.32",
			"AddLookup i2c-gpio.32",
			"PutBus i2c-gpio.32",
			"RemoveChip gpio-asm2824_0003:00_32",
		}},
		{"AddBus", ErrRegistration, []string{
			"AddChip gpio-asm2824_0003:00_32",
			"AllocBus i2c-gpio.32",
			"AddLookup i2c-gpio.32",
			"AddBus i2c-gpio.32",
			"RemoveLookup i2c-gpio.32",
			"PutBus i2c-gpio.32",
			"RemoveChip gpio-asm2824_0003:00_32",
		}},
	}
	for _, line := range data {
		t.Run(line.fail, func(t *testing.T) {
			p := &fakePlatform{fail: line.fail}
			b, a := newTestBuilder(p)
			d, err := b.Build(newFakeASM2824(bridge(3, 0, 0x1BAA, 0xAAAA)))
			if d != nil || !errors.Is(err, line.kind) {
				t.Fatalf("Build() = %v, %v", d, err)
			}
			checkCalls(t, p.calls, line.calls...)
			if len(p.chips) != 0 || len(p.lookups) != 0 || len(p.buses) != 0 || p.allocated != 0 {
				t.Fatalf("leftover %#v", p)
			}
			if a.Reserved() != 0 {
				t.Fatalf("adapter number still reserved")
			}
			// A retry gets the same number.
			p.fail = ""
			d, err = b.Build(newFakeASM2824(bridge(3, 0, 0x1BAA, 0xAAAA)))
			if err != nil || d.Adapter() != 32 {
				t.Fatalf("Build() = %v, %v", d, err)
			}
		})
	}
}

func TestBuild_NoAdapter(t *testing.T) {
	p := &fakePlatform{}
	b, _ := newTestBuilder(p)
	b.Alloc.InUse = func(n int) bool { return true }
	if _, err := b.Build(newFakeASM2824(bridge(3, 0, 0x1BAA, 0xAAAA))); !errors.Is(err, ErrNoAdapterAvailable) {
		t.Fatal(err)
	}
	if len(p.calls) != 0 {
		t.Fatalf("unexpected calls %v", p.calls)
	}
}

func TestArena(t *testing.T) {
	logger, hook := test.NewNullLogger()
	var order []string
	a := arena{}
	for _, n := range []string{"a", "b", "c"} {
		n := n
		a.push(n, func() error {
			order = append(order, n)
			if n == "b" {
				return errors.New("b failed")
			}
			return nil
		})
	}
	if err := a.release(logger); err == nil || err.Error() != "b failed" {
		t.Fatal(err)
	}
	if strings.Join(order, "") != "cba" {
		t.Fatalf("release order %v", order)
	}
	if len(a.names()) != 0 {
		t.Fatal("arena not emptied")
	}
	if len(hook.Entries) != 1 {
		t.Fatalf("unexpected logs %v", hook.Entries)
	}
	// Releasing twice is a no-op.
	if err := a.release(logger); err != nil {
		t.Fatal(err)
	}
}

//

func newTestBuilder(p Platform) (*Builder, *Allocator) {
	logger, _ := test.NewNullLogger()
	a := &Allocator{First: DefaultFirstAdapter, Last: DefaultLastAdapter, InUse: p.BusInUse}
	return &Builder{Platform: p, Alloc: a, Log: logger}, a
}

func checkCalls(t *testing.T, got []string, want ...string) {
	t.Helper()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("got calls:\n  %s\nwant:\n  %s", strings.Join(got, "\n  "), strings.Join(want, "\n  "))
	}
}

// fakePlatform records the calls and keeps track of what is published.
//
// fail names the call that fails. "AddData" makes AllocBus return a bus that
// already has data attached.
type fakePlatform struct {
	fail      string
	calls     []string
	chips     map[string]*Chip
	lookups   map[string]*gpiolookup.Table
	buses     map[int]*Bus
	allocated int
	// removeErr makes every Remove call fail after doing its job.
	removeErr error
}

func (f *fakePlatform) BusInUse(n int) bool {
	_, ok := f.buses[n]
	return ok
}

func (f *fakePlatform) AddChip(c *Chip) error {
	f.calls = append(f.calls, "AddChip "+c.Label())
	if f.fail == "AddChip" {
		return errors.New("injected")
	}
	if f.chips == nil {
		f.chips = map[string]*Chip{}
	}
	f.chips[c.Label()] = c
	return nil
}

func (f *fakePlatform) RemoveChip(c *Chip) error {
	f.calls = append(f.calls, "RemoveChip "+c.Label())
	delete(f.chips, c.Label())
	return f.removeErr
}

func (f *fakePlatform) AllocBus(name string, id int) (*Bus, error) {
	b := &Bus{Name: name, ID: id}
	f.calls = append(f.calls, "AllocBus "+b.String())
	if f.fail == "AllocBus" {
		return nil, errors.New("injected")
	}
	if f.fail == "AddData" {
		b.data = &BusData{Delay: time.Second}
	}
	f.allocated++
	return b, nil
}

func (f *fakePlatform) PutBus(b *Bus) {
	f.calls = append(f.calls, "PutBus "+b.String())
	f.allocated--
	b.data = nil
}

func (f *fakePlatform) AddLookup(t *gpiolookup.Table) error {
	f.calls = append(f.calls, "AddLookup "+t.DevID)
	if f.fail == "AddLookup" {
		return errors.New("injected")
	}
	if f.lookups == nil {
		f.lookups = map[string]*gpiolookup.Table{}
	}
	f.lookups[t.DevID] = t
	return nil
}

func (f *fakePlatform) RemoveLookup(t *gpiolookup.Table) error {
	f.calls = append(f.calls, "RemoveLookup "+t.DevID)
	delete(f.lookups, t.DevID)
	return f.removeErr
}

func (f *fakePlatform) AddBus(b *Bus) error {
	f.calls = append(f.calls, "AddBus "+b.String())
	if f.fail == "AddBus" {
		return errors.New("injected")
	}
	if f.buses == nil {
		f.buses = map[int]*Bus{}
	}
	f.buses[b.ID] = b
	return nil
}

func (f *fakePlatform) RemoveBus(b *Bus) error {
	f.calls = append(f.calls, "RemoveBus "+b.String())
	delete(f.buses, b.ID)
	return f.removeErr
}

var _ Platform = &fakePlatform{}
var _ pci.Dev = newFakeASM2824(pci.Desc{})
