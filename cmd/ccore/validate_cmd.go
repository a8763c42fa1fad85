// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ManuGH/ccore/internal/config"
)

func runValidate(args []string) int {
	fs := flag.NewFlagSet("ccore validate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var file string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	configPath := strings.TrimSpace(file)
	if configPath == "" {
		configPath = strings.TrimSpace(config.ParseString("CCORE_CONFIG_FILE", ""))
	}
	if configPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --file is required (or set CCORE_CONFIG_FILE)")
		return 2
	}

	if _, err := config.NewLoader(configPath).Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error in %s:\n  %v\n", configPath, err)
		return 1
	}

	fmt.Printf("✓ %s is valid\n", configPath)
	return 0
}
