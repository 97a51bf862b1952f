package cli

import (
	"github.com/spf13/cobra"

	"github.com/waste3d/vite-tunnel/internal/app"
	"github.com/waste3d/vite-tunnel/internal/domain"
)

func newUpCmd() *cobra.Command {
	var (
		hostname   string
		port       int
		tunnelName string
		accountID  string
		zoneID     string
		dns        string
		ssl        string
		noCleanup  bool
		apply      bool
	)

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Provision the tunnel and run cloudflared until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("hostname") {
				cfg.Hostname = hostname
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("tunnel-name") {
				cfg.TunnelName = tunnelName
			}
			if cmd.Flags().Changed("account-id") {
				cfg.AccountID = domain.AccountID(accountID)
			}
			if cmd.Flags().Changed("zone-id") {
				cfg.ZoneID = domain.ZoneID(zoneID)
			}
			if cmd.Flags().Changed("dns") {
				cfg.DNS = dns
			}
			if cmd.Flags().Changed("ssl") {
				cfg.SSL = ssl
			}
			if noCleanup {
				cfg.Cleanup.AutoCleanup = false
			}
			if apply {
				cfg.Cleanup.DryRun = false
			}

			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(cmd.Context(), nil)
		},
	}

	cmd.Flags().StringVar(&hostname, "hostname", "", "Public hostname to route into the tunnel")
	cmd.Flags().IntVar(&port, "port", 0, "Local port to expose (defaults to the dev server's port)")
	cmd.Flags().StringVar(&tunnelName, "tunnel-name", domain.DefaultTunnelName, "Tunnel name")
	cmd.Flags().StringVar(&accountID, "account-id", "", "Force a Cloudflare account ID")
	cmd.Flags().StringVar(&zoneID, "zone-id", "", "Force a Cloudflare zone ID")
	cmd.Flags().StringVar(&dns, "dns", "", "Wildcard DNS pattern instead of a single CNAME (e.g. *.example.com)")
	cmd.Flags().StringVar(&ssl, "ssl", "", "Wildcard certificate scope instead of the exact hostname")
	cmd.Flags().BoolVar(&noCleanup, "no-cleanup", false, "Skip stale-record cleanup")
	cmd.Flags().BoolVar(&apply, "apply-cleanup", false, "Actually delete stale records instead of dry-run")

	return cmd
}
