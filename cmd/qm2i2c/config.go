// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"periph.io/x/qm2/experimental/conn/pci"
	"periph.io/x/qm2/experimental/host/pcibus"
	"periph.io/x/qm2/hostextra/asm2824"
)

// Config is the configuration of qm2i2c. It is loaded from YAML and can be
// overridden by environment variables.
type Config struct {
	Sysfs    string         `yaml:"sysfs"`
	Adapters AdaptersConfig `yaml:"adapters"`
	// DelayUS is the half period of the I²C clock in microseconds.
	DelayUS  int      `yaml:"delay_us"`
	Exclude  []string `yaml:"exclude"`
	LogLevel string   `yaml:"log_level"`
}

// AdaptersConfig is the range of I²C adapter numbers to use.
type AdaptersConfig struct {
	First int `yaml:"first"`
	Last  int `yaml:"last"`
}

// Load returns the defaults, overridden by the YAML file at path if not empty,
// then by the environment.
//
// Environment variables: QM2I2C_SYSFS, QM2I2C_LOG_LEVEL.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %v", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %v", err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %v", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	c := &Config{
		Sysfs: pcibus.DefaultRoot,
		Adapters: AdaptersConfig{
			First: asm2824.DefaultFirstAdapter,
			Last:  asm2824.DefaultLastAdapter,
		},
		DelayUS:  int(asm2824.DefaultDelay / time.Microsecond),
		LogLevel: "info",
	}
	for _, id := range asm2824.DefaultExclusions {
		c.Exclude = append(c.Exclude, id.String())
	}
	return c
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("QM2I2C_SYSFS"); v != "" {
		cfg.Sysfs = v
	}
	if v := os.Getenv("QM2I2C_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string
	if c.Sysfs == "" {
		errs = append(errs, "sysfs is required")
	}
	if c.Adapters.First < 0 || c.Adapters.Last < c.Adapters.First {
		errs = append(errs, fmt.Sprintf("adapters [%d, %d] is not a valid range", c.Adapters.First, c.Adapters.Last))
	}
	if longest := int(asm2824.MaxDelay / time.Microsecond); c.DelayUS <= 0 || c.DelayUS > longest {
		errs = append(errs, fmt.Sprintf("delay_us must be in [1, %d]", longest))
	}
	for _, s := range c.Exclude {
		if _, err := parseID(s); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Opts returns the options of the asm2824 driver. The configuration must be
// valid.
func (c *Config) Opts(l log.FieldLogger) *asm2824.Opts {
	o := &asm2824.Opts{
		Catalog:      &pcibus.Catalog{Root: c.Sysfs},
		FirstAdapter: c.Adapters.First,
		LastAdapter:  c.Adapters.Last,
		Delay:        time.Duration(c.DelayUS) * time.Microsecond,
		Exclude:      []pci.ID{},
		Log:          l,
	}
	for _, s := range c.Exclude {
		id, _ := parseID(s)
		o.Exclude = append(o.Exclude, id)
	}
	return o
}

// parseID parses "vvvv:dddd".
func parseID(s string) (pci.ID, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return pci.ID{}, fmt.Errorf("invalid subsystem %q, expected vendor:device", s)
	}
	v, err := strconv.ParseUint(parts[0], 16, 16)
	if err != nil {
		return pci.ID{}, fmt.Errorf("invalid subsystem vendor %q", parts[0])
	}
	d, err := strconv.ParseUint(parts[1], 16, 16)
	if err != nil {
		return pci.ID{}, fmt.Errorf("invalid subsystem device %q", parts[1])
	}
	return pci.ID{Vendor: uint16(v), Device: uint16(d)}, nil
}
