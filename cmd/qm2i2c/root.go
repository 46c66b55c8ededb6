// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *Config
	logger = log.New()
)

var rootCmd = &cobra.Command{
	Use:   "qm2i2c",
	Short: "I²C bus of QNAP QM2 cards",
	Long: `Find the ASMedia ASM2824 PCIe switches of QNAP QM2 cards and publish the
I²C bus wired to their GPIO lines.

Examples:
  qm2i2c scan                        # List the switches found
  qm2i2c run                         # Publish the buses until interrupted
  qm2i2c smoketest -addr 0x50        # Check the lines and an EEPROM`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "qm2i2c: %s.\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func setup(cmd *cobra.Command, args []string) error {
	c, err := Load(configPath)
	if err != nil {
		return err
	}
	cfg = c
	lvl, _ := log.ParseLevel(cfg.LogLevel)
	if verbose {
		lvl = log.DebugLevel
	}
	logger.SetLevel(lvl)
	logger.SetOutput(os.Stderr)
	return nil
}
