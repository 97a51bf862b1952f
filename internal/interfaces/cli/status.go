package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/waste3d/vite-tunnel/internal/app"
	"github.com/waste3d/vite-tunnel/internal/domain"
)

func newStatusCmd() *cobra.Command {
	var tunnelName string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the ledger's history of resources owned by a tunnel name",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("tunnel-name") {
				cfg.TunnelName = tunnelName
			}
			if cfg.TunnelName == "" {
				cfg.TunnelName = domain.DefaultTunnelName
			}

			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.Ledger() == nil {
				return fmt.Errorf("no ledger available")
			}
			recs, err := a.Ledger().ForTunnel(cfg.TunnelName)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Printf("no recorded resources for tunnel %q\n", cfg.TunnelName)
				return nil
			}
			for _, r := range recs {
				fmt.Printf("%s  %-12s %-12s %-30s %s\n",
					r.CreatedAt.Format("2006-01-02 15:04"), r.Kind, r.Action, r.Name, r.Content)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tunnelName, "tunnel-name", "", "Tunnel name to inspect")

	return cmd
}
