// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"flag"

	"github.com/spf13/cobra"
	"periph.io/x/qm2/hostextra/asm2824"
	"periph.io/x/qm2/hostextra/asm2824/asm2824smoketest"
)

var smoketestCmd = &cobra.Command{
	Use:   "smoketest [-addr 0x50]",
	Short: "Check the lines of every ASM2824",
	Long: `Publish the buses, drive each line low then release it, and optionally read
one byte from a device on each bus.`,
	// Flags are parsed by the smoke test.
	DisableFlagParsing: true,
	RunE:               runSmoketest,
}

func init() {
	rootCmd.AddCommand(smoketestCmd)
}

func runSmoketest(cmd *cobra.Command, args []string) error {
	return smoketest(asm2824.New(cfg.Opts(logger)), args)
}

// smoketest builds the controllers, runs the smoke test on them and tears
// them down. A teardown failure fails the smoke test.
func smoketest(c *asm2824.Controllers, args []string) (err error) {
	defer func() {
		if err1 := teardown(c); err == nil {
			err = err1
		}
	}()
	if _, err := c.Scan(); err != nil {
		return err
	}
	s := asm2824smoketest.SmokeTest{All: c.All}
	f := flag.NewFlagSet(s.Name(), flag.ContinueOnError)
	if err := s.Run(f, args); err != nil {
		return err
	}
	logger.Infof("%s: %s passed", s.Name(), s.Description())
	return nil
}
