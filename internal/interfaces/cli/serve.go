package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/waste3d/vite-tunnel/internal/app"
	http_server "github.com/waste3d/vite-tunnel/internal/interfaces/http"
)

func newServeCmd() *cobra.Command {
	var (
		hostname string
		port     int
		dir      string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a local directory and expose it through the tunnel",
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
			if cfg.Port == 0 {
				cfg.Port = 5173
			}

			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			dev := http_server.NewDevServer(cfg.Port, dir, a.Log())

			errCh := make(chan error, 1)
			go func() { errCh <- dev.Start() }()

			runErr := a.Run(cmd.Context(), dev)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := dev.Shutdown(shutdownCtx); err != nil {
				log := a.Log()
				log.Warn().Err(err).Msg("dev server shutdown")
			}
			if runErr != nil {
				return runErr
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&hostname, "hostname", "", "Public hostname to route into the tunnel")
	cmd.Flags().IntVar(&port, "port", 0, "Port for the local dev server")
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to serve")

	return cmd
}
