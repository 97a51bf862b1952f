package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultTunnelName is used when the config does not name a tunnel.
const DefaultTunnelName = "vite-tunnel"

var tunnelNameRe = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

var logLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "fatal": true,
}

type CleanupConfig struct {
	AutoCleanup bool
	DryRun      bool
}

// TunnelConfig is the engine's declared target state.
type TunnelConfig struct {
	Hostname   string
	APIToken   string
	Port       int
	TunnelName string
	AccountID  AccountID
	ZoneID     ZoneID

	// DNS is empty for the CNAME strategy, or a wildcard pattern like
	// "*.example.com" for the A/AAAA strategy.
	DNS string
	// SSL is empty for exact-hostname coverage, or a wildcard pattern.
	SSL string

	LogLevel string
	LogFile  string
	Debug    bool
	Cleanup  CleanupConfig
}

// Validate checks everything that can be checked without the network.
func (c *TunnelConfig) Validate() error {
	if c.Hostname == "" {
		return &ConfigValidationError{Field: "hostname", Reason: "required"}
	}
	if strings.Contains(c.Hostname, "*") || !strings.Contains(c.Hostname, ".") {
		return &ConfigValidationError{Field: "hostname", Reason: fmt.Sprintf("%q is not a valid public hostname", c.Hostname)}
	}
	if c.APIToken == "" {
		return &ConfigValidationError{Field: "apiToken", Reason: "required (set it in config or via CLOUDFLARE_API_TOKEN)"}
	}
	if c.Port < 1 || c.Port > 65535 {
		return &ConfigValidationError{Field: "port", Reason: fmt.Sprintf("%d is out of range", c.Port)}
	}
	if c.TunnelName == "" {
		c.TunnelName = DefaultTunnelName
	}
	if !tunnelNameRe.MatchString(c.TunnelName) {
		return &ConfigValidationError{Field: "tunnelName", Reason: fmt.Sprintf("%q must match [A-Za-z0-9-]+", c.TunnelName)}
	}
	if c.DNS != "" && !strings.HasPrefix(c.DNS, "*.") {
		return &ConfigValidationError{Field: "dns", Reason: fmt.Sprintf("%q must be a wildcard pattern like *.example.com", c.DNS)}
	}
	if c.LogLevel != "" && !logLevels[c.LogLevel] {
		return &ConfigValidationError{Field: "logLevel", Reason: fmt.Sprintf("%q is not one of debug, info, warn, error, fatal", c.LogLevel)}
	}
	return nil
}
