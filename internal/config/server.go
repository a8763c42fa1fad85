// SPDX-License-Identifier: MIT

package config

import (
	"strings"
	"time"
)

// ServerConfig holds the HTTP server settings of the daemon.
type ServerConfig struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration

	// WriteTimeout bounds response writes. Zero means no timeout; long
	// extractions are bounded per request by the router budget instead.
	WriteTimeout time.Duration

	// IdleTimeout is the maximum amount of time to wait for the next request
	IdleTimeout time.Duration

	// MaxHeaderBytes caps the request header size
	MaxHeaderBytes int

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown
	ShutdownTimeout time.Duration
}

const (
	defaultListenAddr      = ":8080"
	defaultReadTimeout     = 60 * time.Second
	defaultWriteTimeout    = 0
	defaultIdleTimeout     = 120 * time.Second
	defaultMaxHeaderBytes  = 1 << 20
	defaultShutdownTimeout = 15 * time.Second
)

// ParseServerConfig reads the server configuration from environment
// variables with built-in defaults.
func ParseServerConfig() ServerConfig {
	listen := strings.TrimSpace(ParseString("CCORE_LISTEN", ""))
	if listen == "" {
		listen = defaultListenAddr
	}

	maxHeaderBytes := ParseInt("CCORE_SERVER_MAX_HEADER_BYTES", defaultMaxHeaderBytes)
	if maxHeaderBytes <= 0 {
		maxHeaderBytes = defaultMaxHeaderBytes
	}

	shutdownTimeout := ParseDuration("CCORE_SERVER_SHUTDOWN_TIMEOUT", defaultShutdownTimeout)
	if shutdownTimeout < 3*time.Second {
		shutdownTimeout = 3 * time.Second
	}

	return ServerConfig{
		ListenAddr:      listen,
		ReadTimeout:     ParseDuration("CCORE_SERVER_READ_TIMEOUT", defaultReadTimeout),
		WriteTimeout:    ParseDuration("CCORE_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
		IdleTimeout:     ParseDuration("CCORE_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		MaxHeaderBytes:  maxHeaderBytes,
		ShutdownTimeout: shutdownTimeout,
	}
}
