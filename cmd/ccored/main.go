// SPDX-License-Identifier: MIT

// ccored is the extraction daemon. It serves the HTTP API, watches the
// config file for changes and shuts down gracefully on SIGINT/SIGTERM.
//
// Usage:
//
//	ccored [--config ccore.yaml]
//
// Configuration precedence is ENV > file > defaults; CCORE_CONFIG_FILE is
// the fallback when --config is not given.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ManuGH/ccore/internal/config"
	"github.com/ManuGH/ccore/internal/daemon"
	"github.com/ManuGH/ccore/internal/log"
	"github.com/ManuGH/ccore/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("ccored %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		os.Exit(0)
	}

	path := strings.TrimSpace(*configPath)
	if path == "" {
		path = strings.TrimSpace(config.ParseString("CCORE_CONFIG_FILE", ""))
	}

	d, err := daemon.New(daemon.Config{
		Version:    version.Version,
		ConfigPath: path,
		Server:     config.ParseServerConfig(),
	})
	if err != nil {
		logger := log.WithComponent("main")
		logger.Fatal().
			Err(err).
			Str("config_path", path).
			Msg("daemon startup failed")
	}

	ctx := daemon.WaitForShutdown()
	if err := d.Start(ctx); err != nil {
		logger := log.WithComponent("main")
		logger.Fatal().Err(err).Msg("daemon failed")
	}
}
