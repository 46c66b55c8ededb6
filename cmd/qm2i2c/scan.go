// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"
	"periph.io/x/qm2/experimental/conn/pci"
	"periph.io/x/qm2/hostextra/asm2824"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List the ASM2824 found, without touching them",
	Long: `Enumerate the PCI functions of the ASMedia ASM2824 and print whether each one
would get an I²C bus. Nothing is published. Doesn't need root.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

var (
	accepted = ansi256.Default.Block(color.NRGBA{0, 192, 0, 255})
	rejected = ansi256.Default.Block(color.NRGBA{192, 0, 0, 255})
)

func runScan(cmd *cobra.Command, args []string) error {
	o := cfg.Opts(logger)
	return scan(colorable.NewColorableStdout(), o.Catalog, o.Exclude)
}

// scan prints one line per ASM2824 function and returns the enumeration
// error, if any.
func scan(w io.Writer, c pci.Catalog, exclude []pci.ID) error {
	n := 0
	err := c.Walk(asm2824.ID, func(d pci.Dev) bool {
		n++
		desc := d.Desc()
		if r := asm2824.Excluded(desc, exclude); r != "" {
			fmt.Fprintf(w, "%s %s  %s: %s\n", rejected, desc.Addr(), desc, r)
			return true
		}
		fmt.Fprintf(w, "%s %s  %s\n", accepted, desc.Addr(), desc)
		return true
	})
	if n == 0 {
		fmt.Fprintln(w, "No ASM2824 found.")
	}
	return err
}
