// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"periph.io/x/qm2/experimental/conn/pci"
	"periph.io/x/qm2/experimental/host/pcibus"
	"periph.io/x/qm2/hostextra/asm2824"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sysfs != pcibus.DefaultRoot || cfg.Adapters.First != 32 || cfg.Adapters.Last != 64 || cfg.DelayUS != 5 {
		t.Fatalf("unexpected defaults %#v", cfg)
	}
	if strings.Join(cfg.Exclude, ",") != "1baa:c027,1baa:e009" {
		t.Fatalf("unexpected exclusions %v", cfg.Exclude)
	}
	logger, _ := test.NewNullLogger()
	o := cfg.Opts(logger)
	if o.Delay != asm2824.DefaultDelay || len(o.Exclude) != 2 || o.Exclude[0] != asm2824.DefaultExclusions[0] || o.Exclude[1] != asm2824.DefaultExclusions[1] {
		t.Fatalf("unexpected options %#v", o)
	}
	if c, ok := o.Catalog.(*pcibus.Catalog); !ok || c.Root != pcibus.DefaultRoot {
		t.Fatalf("unexpected catalog %#v", o.Catalog)
	}
}

func TestLoad_File(t *testing.T) {
	content := `
sysfs: /tmp/pci
adapters:
  first: 40
  last: 41
delay_us: 50
exclude: []
log_level: debug
`
	p := filepath.Join(t.TempDir(), "qm2i2c.yaml")
	if err := os.WriteFile(p, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sysfs != "/tmp/pci" || cfg.Adapters.First != 40 || cfg.Adapters.Last != 41 || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected config %#v", cfg)
	}
	logger, _ := test.NewNullLogger()
	o := cfg.Opts(logger)
	if o.Delay != 50*time.Microsecond || o.FirstAdapter != 40 || o.LastAdapter != 41 {
		t.Fatalf("unexpected options %#v", o)
	}
	// An empty list disables the exclusions instead of using the defaults.
	if o.Exclude == nil || len(o.Exclude) != 0 {
		t.Fatalf("unexpected exclusions %v", o.Exclude)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("QM2I2C_SYSFS", "/env/pci")
	t.Setenv("QM2I2C_LOG_LEVEL", "warn")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sysfs != "/env/pci" || cfg.LogLevel != "warn" {
		t.Fatalf("unexpected config %#v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load("/nonexistent/path/qm2i2c.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
	data := []string{
		"sysfs: [",
		"adapters: {first: 64, last: 32}",
		"adapters: {first: -1, last: 32}",
		"delay_us: 0",
		"delay_us: 500001",
		"exclude: [1baa]",
		"exclude: [zzzz:0000]",
		"exclude: [\"1baa:10000\"]",
		"log_level: chatty",
	}
	for _, content := range data {
		p := filepath.Join(t.TempDir(), "qm2i2c.yaml")
		if err := os.WriteFile(p, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(p); err == nil {
			t.Fatalf("%q: expected error", content)
		}
	}
}

func TestLoad_LongestDelay(t *testing.T) {
	p := filepath.Join(t.TempDir(), "qm2i2c.yaml")
	if err := os.WriteFile(p, []byte("delay_us: 500000"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	logger, _ := test.NewNullLogger()
	if d := cfg.Opts(logger).Delay; d != asm2824.MaxDelay {
		t.Fatalf("Delay = %s", d)
	}
}

func TestParseID(t *testing.T) {
	id, err := parseID("1BAA:c027")
	if err != nil || id != (pci.ID{Vendor: 0x1BAA, Device: 0xC027}) {
		t.Fatalf("parseID() = %v, %v", id, err)
	}
}
