// SPDX-License-Identifier: MIT

// Package daemon boots the extraction service: configuration, logging,
// telemetry, the engine registry and the HTTP server, with config hot
// reload and graceful shutdown.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/ccore/internal/api"
	"github.com/ManuGH/ccore/internal/config"
	"github.com/ManuGH/ccore/internal/extract"
	"github.com/ManuGH/ccore/internal/log"
	"github.com/ManuGH/ccore/internal/registry"
	"github.com/ManuGH/ccore/internal/telemetry"
	"github.com/ManuGH/ccore/internal/tls"
)

// Config holds daemon configuration.
type Config struct {
	// Version is the build version
	Version string

	// ConfigPath is the path to the YAML config file; empty means ENV-only
	ConfigPath string

	// Server carries the HTTP listener settings
	Server config.ServerConfig
}

// Daemon is the long-running extraction service instance.
type Daemon struct {
	config    Config
	holder    *config.Holder
	registry  *registry.Registry
	api       *api.Server
	server    *http.Server
	logger    zerolog.Logger
	telemetry *telemetry.Provider

	tlsCert string
	tlsKey  string
}

// New loads the configuration and assembles the engine registry. The
// registry is built once from the initial config; hot reload only affects
// routing policy, never engine construction.
func New(cfg Config) (*Daemon, error) {
	appCfg, err := config.NewLoader(cfg.ConfigPath).Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log.Configure(log.Config{
		Level:   config.ParseString("CCORE_LOG_LEVEL", "info"),
		Service: "ccore",
	})
	logger := log.WithComponent("daemon")

	holder := config.NewHolder(appCfg, config.NewLoader(cfg.ConfigPath), cfg.ConfigPath)
	reg := extract.NewRegistry(&appCfg)
	srv := api.NewServer(holder, reg,
		api.WithVersion(cfg.Version),
		api.WithRateLimit(
			config.ParseInt("CCORE_RATE_LIMIT", 60),
			config.ParseDuration("CCORE_RATE_WINDOW", time.Minute),
		),
	)

	tlsCert, tlsKey, err := resolveTLS(logger)
	if err != nil {
		return nil, err
	}

	return &Daemon{
		config:   cfg,
		holder:   holder,
		registry: reg,
		api:      srv,
		logger:   logger,
		tlsCert:  tlsCert,
		tlsKey:   tlsKey,
	}, nil
}

// resolveTLS returns the certificate pair to serve with, or empty paths
// for plain HTTP. Explicit paths win; CCORE_TLS_ENABLED alone provisions
// a self-signed pair.
func resolveTLS(logger zerolog.Logger) (certPath, keyPath string, err error) {
	certPath = config.ParseString("CCORE_TLS_CERT", "")
	keyPath = config.ParseString("CCORE_TLS_KEY", "")

	switch {
	case certPath != "" && keyPath != "":
		logger.Info().Str("cert", certPath).Str("key", keyPath).Msg("using provided tls certificates")
		return certPath, keyPath, nil
	case certPath != "" || keyPath != "":
		return "", "", errors.New("CCORE_TLS_CERT and CCORE_TLS_KEY must be set together")
	case config.ParseBool("CCORE_TLS_ENABLED", false):
		return tls.EnsureCertificates(tls.Config{Logger: log.WithComponent("tls")})
	default:
		return "", "", nil
	}
}

// Start runs the daemon until ctx is cancelled or the server fails. The
// readiness gate opens once the listener is bound.
func (d *Daemon) Start(ctx context.Context) error {
	d.logger.Info().
		Str("version", d.config.Version).
		Str("listen", d.config.Server.ListenAddr).
		Msg("starting ccore daemon")

	if err := d.initTelemetry(ctx); err != nil {
		d.logger.Warn().Err(err).Msg("telemetry initialization failed, continuing without tracing")
	}

	d.server = &http.Server{
		Handler:        d.api.Handler(),
		ReadTimeout:    d.config.Server.ReadTimeout,
		WriteTimeout:   d.config.Server.WriteTimeout,
		IdleTimeout:    d.config.Server.IdleTimeout,
		MaxHeaderBytes: d.config.Server.MaxHeaderBytes,
	}

	ln, err := net.Listen("tcp", d.config.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", d.config.Server.ListenAddr, err)
	}

	g, ctx := errgroup.WithContext(ctx)

	// Watcher failure is not fatal; reload stays available via SIGHUP.
	if err := d.holder.StartWatcher(ctx); err != nil {
		d.logger.Warn().Err(err).Msg("config watcher not started")
	}

	g.Go(func() error {
		d.reloadLoop(ctx)
		return nil
	})

	g.Go(func() error {
		scheme := "http"
		if d.tlsCert != "" {
			scheme = "https"
		}
		d.logger.Info().Str("addr", ln.Addr().String()).Str("scheme", scheme).Msg("server listening")
		d.api.SetReady(true)

		var serveErr error
		if d.tlsCert != "" {
			serveErr = d.server.ServeTLS(ln, d.tlsCert, d.tlsKey)
		} else {
			serveErr = d.server.Serve(ln)
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", serveErr)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return d.Shutdown(context.Background())
	})

	return g.Wait()
}

// Shutdown drains the server and flushes telemetry within the configured
// timeout.
func (d *Daemon) Shutdown(ctx context.Context) error {
	d.logger.Info().Msg("shutting down")
	d.api.SetReady(false)

	timeout := d.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if d.server != nil {
		if err := d.server.Shutdown(shutdownCtx); err != nil {
			d.logger.Error().Err(err).Msg("http server shutdown error")
		}
	}
	d.holder.Stop()
	if d.telemetry != nil {
		if err := d.telemetry.Shutdown(shutdownCtx); err != nil {
			d.logger.Error().Err(err).Msg("telemetry shutdown error")
		}
	}

	d.logger.Info().Msg("daemon stopped")
	return nil
}

// reloadLoop reloads the configuration on SIGHUP until ctx is cancelled.
func (d *Daemon) reloadLoop(ctx context.Context) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			d.logger.Info().Str("signal", "SIGHUP").Msg("reloading configuration")
			if err := d.holder.Reload(context.Background()); err != nil {
				d.logger.Warn().Err(err).Msg("config reload failed")
			}
		}
	}
}

// initTelemetry initializes OpenTelemetry tracing when enabled via
// environment.
func (d *Daemon) initTelemetry(ctx context.Context) error {
	if !config.ParseBool("CCORE_TELEMETRY_ENABLED", false) {
		return nil
	}

	telCfg := telemetry.Config{
		Enabled:        true,
		ServiceName:    config.ParseString("CCORE_SERVICE_NAME", "ccore"),
		ServiceVersion: d.config.Version,
		Environment:    config.ParseString("CCORE_ENVIRONMENT", "production"),
		ExporterType:   config.ParseString("CCORE_TELEMETRY_EXPORTER", "grpc"),
		Endpoint:       config.ParseString("CCORE_OTLP_ENDPOINT", "localhost:4317"),
		SamplingRate:   config.ParseFloat("CCORE_SAMPLING_RATE", 1.0),
	}

	provider, err := telemetry.NewProvider(ctx, telCfg)
	if err != nil {
		return fmt.Errorf("telemetry init failed: %w", err)
	}
	d.telemetry = provider

	d.logger.Info().
		Str("service", telCfg.ServiceName).
		Str("endpoint", telCfg.Endpoint).
		Float64("sampling_rate", telCfg.SamplingRate).
		Msg("telemetry initialized")
	return nil
}

// WaitForShutdown returns a context cancelled on interrupt or termination
// signals.
func WaitForShutdown() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx
}
