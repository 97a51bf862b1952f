package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/waste3d/vite-tunnel/internal/app"
)

func newCleanupCmd() *cobra.Command {
	var (
		hostname   string
		tunnelName string
		apply      bool
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Find and remove DNS records left behind by previous configurations",
		Long: `Lists DNS records carrying this tunnel name's provenance tag and removes
them. Without --apply it only reports what would be deleted. Records not
created by this tool are never touched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("hostname") {
				cfg.Hostname = hostname
			}
			if cmd.Flags().Changed("tunnel-name") {
				cfg.TunnelName = tunnelName
			}
			if cfg.Port == 0 {
				cfg.Port = 1 // not used by cleanup, but validation wants a port
			}
			cfg.Cleanup.DryRun = !apply

			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Engine().CleanupOnly(cmd.Context(), &cfg.TunnelConfig)
			if err != nil {
				return err
			}
			for _, r := range res.Deleted {
				fmt.Printf("deleted %s %s -> %s\n", r.Type, r.Name, r.Content)
			}
			for _, r := range res.Skipped {
				fmt.Printf("would delete %s %s -> %s (re-run with --apply)\n", r.Type, r.Name, r.Content)
			}
			if len(res.Deleted) == 0 && len(res.Skipped) == 0 {
				fmt.Println("no tagged records found")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&hostname, "hostname", "", "Hostname whose zone should be cleaned")
	cmd.Flags().StringVar(&tunnelName, "tunnel-name", "", "Tunnel name whose records to clean")
	cmd.Flags().BoolVar(&apply, "apply", false, "Delete records instead of reporting them")

	return cmd
}
