// Package config loads the engine's declared target state from a config
// file, environment variables and defaults, in that order of precedence
// (viper handles the merge). The API token additionally falls back to
// CLOUDFLARE_API_TOKEN so it never has to live in a checked-in file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/waste3d/vite-tunnel/internal/domain"
)

const (
	envPrefix   = "VITE_TUNNEL"
	tokenEnvVar = "CLOUDFLARE_API_TOKEN"
)

// Config is the full surface the CLI recognizes: the engine's tunnel
// config plus local-only settings.
type Config struct {
	domain.TunnelConfig

	// CloudflaredPath overrides daemon discovery on PATH.
	CloudflaredPath string
	// LedgerPath is where the local provenance ledger lives.
	LedgerPath string
}

// Load reads vite-tunnel.yaml (or the explicit path) and the environment.
// A missing config file is fine; everything can come from flags and env.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("tunnelName", domain.DefaultTunnelName)
	v.SetDefault("cleanup.autoCleanup", true)
	v.SetDefault("cleanup.dryRun", true)
	v.SetDefault("ledgerPath", defaultLedgerPath())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("vite-tunnel")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		TunnelConfig: domain.TunnelConfig{
			Hostname:   v.GetString("hostname"),
			APIToken:   v.GetString("apiToken"),
			Port:       v.GetInt("port"),
			TunnelName: v.GetString("tunnelName"),
			AccountID:  domain.AccountID(v.GetString("accountId")),
			ZoneID:     domain.ZoneID(v.GetString("zoneId")),
			DNS:        v.GetString("dns"),
			SSL:        v.GetString("ssl"),
			LogLevel:   v.GetString("logLevel"),
			LogFile:    v.GetString("logFile"),
			Debug:      v.GetBool("debug"),
			Cleanup: domain.CleanupConfig{
				AutoCleanup: v.GetBool("cleanup.autoCleanup"),
				DryRun:      v.GetBool("cleanup.dryRun"),
			},
		},
		CloudflaredPath: v.GetString("cloudflaredPath"),
		LedgerPath:      v.GetString("ledgerPath"),
	}

	if cfg.APIToken == "" {
		cfg.APIToken = os.Getenv(tokenEnvVar)
	}
	return cfg, nil
}

func defaultLedgerPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vite-tunnel/ledger.db"
	}
	return home + "/.config/vite-tunnel/ledger.db"
}
