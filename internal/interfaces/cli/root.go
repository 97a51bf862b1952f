package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/waste3d/vite-tunnel/internal/config"
)

var (
	configPath string
	debugFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "vite-tunnel",
	Short: "Expose a local dev server through a Cloudflare Tunnel",
	Long: `vite-tunnel provisions a Cloudflare Tunnel (tunnel, ingress, DNS and
certificate coverage) for a hostname you own and supervises the cloudflared
daemon that keeps it alive.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to vite-tunnel.yaml")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newUpCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCleanupCmd())
	rootCmd.AddCommand(newStatusCmd())
}

// loadConfig merges the config file, environment and persistent flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if debugFlag {
		cfg.Debug = true
	}
	return cfg, nil
}
