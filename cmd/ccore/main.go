// SPDX-License-Identifier: MIT

// ccore is the one-shot extraction CLI. It runs the same engine registry
// as the daemon against a single source and prints the result.
//
// Usage:
//
//	ccore extract [-engine E] [-format F] [-o FILE] <url|path|->
//	ccore engines [-json]
//	ccore validate [--file|-f config.yaml]
//	ccore version
//
// Exit codes:
//   - 0: success
//   - 1: extraction or configuration error
//   - 2: usage error
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ManuGH/ccore/internal/config"
	"github.com/ManuGH/ccore/internal/log"
	"github.com/ManuGH/ccore/internal/version"
)

func main() {
	// Logs go to stderr so stdout stays clean for extracted content.
	log.Configure(log.Config{
		Level:  config.ParseString("CCORE_LOG_LEVEL", "warn"),
		Output: os.Stderr,
	})

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "extract":
		os.Exit(runExtract(os.Args[2:]))
	case "engines":
		os.Exit(runEngines(os.Args[2:]))
	case "validate":
		os.Exit(runValidate(os.Args[2:]))
	case "version", "-version", "--version":
		fmt.Printf("ccore %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  ccore extract [-engine E] [-engines A,B] [-format F] [-mime M] [-timeout N] [-json] [-o FILE] <url|path|->")
	fmt.Fprintln(os.Stderr, "  ccore engines [-json]")
	fmt.Fprintln(os.Stderr, "  ccore validate [--file|-f config.yaml]")
	fmt.Fprintln(os.Stderr, "  ccore version")
}

// loadConfig resolves the effective configuration for one-shot commands,
// honoring CCORE_CONFIG_FILE.
func loadConfig() (config.Config, error) {
	path := strings.TrimSpace(config.ParseString("CCORE_CONFIG_FILE", ""))
	return config.NewLoader(path).Load()
}
