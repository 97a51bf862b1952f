// Package app wires configuration, the reconciliation engine and the
// process supervisor into one runnable unit.
package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/waste3d/vite-tunnel/internal/application"
	"github.com/waste3d/vite-tunnel/internal/config"
	"github.com/waste3d/vite-tunnel/internal/infrastructure/cloudflare"
	"github.com/waste3d/vite-tunnel/internal/infrastructure/persistence"
	"github.com/waste3d/vite-tunnel/internal/installer"
	"github.com/waste3d/vite-tunnel/internal/supervisor"
)

// defaultDevPort is Vite's default when neither config nor a host server
// provides one.
const defaultDevPort = 5173

// HostServer is what the engine consumes from the host development
// server: its port and a shutdown notification.
type HostServer interface {
	ConfiguredPort() int
	OnClose(func())
}

type App struct {
	cfg    *config.Config
	log    zerolog.Logger
	ledger *persistence.Ledger
	engine *application.Engine
	inst   installer.Installer
}

func New(cfg *config.Config) (*App, error) {
	log := newLogger(cfg)

	ledger, err := persistence.OpenLedger(cfg.LedgerPath)
	if err != nil {
		// The ledger is an audit aid; losing it must not block the tunnel.
		log.Warn().Err(err).Msg("provenance ledger unavailable, continuing without it")
		ledger = nil
	}

	api := cloudflare.NewClient(cfg.APIToken, log)
	return &App{
		cfg:    cfg,
		log:    log,
		ledger: ledger,
		engine: application.NewEngine(api, ledger, log),
		inst:   installer.Installer{Override: cfg.CloudflaredPath},
	}, nil
}

func (a *App) Engine() *application.Engine { return a.engine }

func (a *App) Ledger() *persistence.Ledger { return a.ledger }

func (a *App) Log() zerolog.Logger { return a.log }

// Run reconciles remote state and supervises the daemon until it exits.
// Interrupt, terminate, quit and hangup signals, a host-server close and
// a panic in this goroutine all funnel into the same idempotent Stop.
func (a *App) Run(ctx context.Context, host HostServer) error {
	cfg := a.cfg
	if cfg.Port == 0 {
		if host != nil {
			cfg.Port = host.ConfiguredPort()
		} else {
			cfg.Port = defaultDevPort
		}
	}

	res, err := a.engine.Provision(ctx, &cfg.TunnelConfig)
	if err != nil {
		return err
	}
	a.log.Info().Str("url", "https://"+cfg.Hostname).Msg("tunnel provisioned")

	daemonPath, err := a.inst.EnsureInstalled()
	if err != nil {
		return err
	}

	handle, err := supervisor.Start(daemonPath, res.Token, supervisor.Options{
		LogLevel: cfg.LogLevel,
		LogFile:  cfg.LogFile,
	}, a.log)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			handle.Stop()
			panic(r)
		}
	}()

	if host != nil {
		host.OnClose(handle.Stop)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	defer signal.Stop(quit)
	go func() {
		for sig := range quit {
			a.log.Info().Str("signal", sig.String()).Msg("shutdown requested")
			handle.Stop()
		}
	}()

	go func() {
		<-ctx.Done()
		handle.Stop()
	}()

	handle.Wait()
	return nil
}

func (a *App) Close() {
	if a.ledger != nil {
		if err := a.ledger.Close(); err != nil {
			a.log.Debug().Err(err).Msg("closing ledger")
		}
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level := zerolog.InfoLevel
	if cfg.LogLevel != "" {
		if parsed, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
			level = parsed
		}
	}
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
