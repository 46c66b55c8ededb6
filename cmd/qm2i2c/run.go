// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"
	"periph.io/x/qm2/hostextra/asm2824"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Publish the I²C buses until interrupted",
	Long: `Build a GPIO chip and an I²C bus for every eligible ASM2824, print them, then
wait for SIGINT or SIGTERM and tear everything down.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	c := asm2824.New(cfg.Opts(logger))
	if err := publish(colorable.NewColorableStdout(), c); err != nil {
		_ = teardown(c)
		return err
	}
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	s := <-sig
	logger.Infof("Received %s, tearing down", s)
	return teardown(c)
}

// teardown closes the controllers and logs an incomplete teardown.
func teardown(c *asm2824.Controllers) error {
	err := c.Close()
	if err != nil {
		logger.Warnf("Teardown was incomplete: %v", err)
	}
	return err
}

// publish scans and prints the controllers built.
func publish(w io.Writer, c *asm2824.Controllers) error {
	if _, err := c.Scan(); err != nil {
		logger.Warnf("Enumeration was incomplete: %v", err)
	}
	all := c.All()
	if len(all) == 0 {
		return errors.New("no eligible ASM2824 found")
	}
	for _, d := range all {
		fmt.Fprintf(w, "%s %s  %s  %s\n", accepted, d.Bus(), d.Label(), d.PCI())
	}
	return nil
}
