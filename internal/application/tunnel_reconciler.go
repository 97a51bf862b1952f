package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/waste3d/vite-tunnel/internal/domain"
	"github.com/waste3d/vite-tunnel/internal/infrastructure/cloudflare"
)

// TunnelReconciler finds or creates the named tunnel and owns its ingress
// table.
type TunnelReconciler struct {
	api *cloudflare.Client
	log zerolog.Logger
}

func NewTunnelReconciler(api *cloudflare.Client, log zerolog.Logger) *TunnelReconciler {
	return &TunnelReconciler{api: api, log: log}
}

// Reconcile returns the existing tunnel with this name, creating one only
// if none exists. The API does not enforce name uniqueness; on duplicates
// the first listed tunnel wins.
func (s *TunnelReconciler) Reconcile(ctx context.Context, account domain.AccountID, name string) (domain.Tunnel, bool, error) {
	tunnels, err := s.api.ListTunnels(ctx, account, name)
	if err != nil {
		return domain.Tunnel{}, false, err
	}
	if len(tunnels) > 0 {
		if len(tunnels) > 1 {
			s.log.Debug().Int("count", len(tunnels)).Str("name", name).Msg("multiple tunnels share this name, using the first")
		}
		s.log.Info().Str("tunnel", string(tunnels[0].ID)).Str("name", name).Msg("reusing existing tunnel")
		return tunnels[0], false, nil
	}

	tunnel, err := s.api.CreateTunnel(ctx, account, name)
	if err != nil {
		return domain.Tunnel{}, false, err
	}
	s.log.Info().Str("tunnel", string(tunnel.ID)).Str("name", name).Msg("created tunnel")
	return tunnel, true, nil
}

// PushIngress overwrites the whole routing table with the exact-hostname
// rule plus the catch-all. No diffing: ingress is cheap to rewrite and has
// no side effects beyond itself.
func (s *TunnelReconciler) PushIngress(ctx context.Context, account domain.AccountID, tunnel domain.Tunnel, hostname string, port int) ([]domain.IngressRule, error) {
	rules := domain.IngressRules(hostname, port)
	if err := s.api.PutTunnelConfiguration(ctx, account, tunnel.ID, rules); err != nil {
		return nil, err
	}
	s.log.Info().Str("hostname", hostname).Int("port", port).Msg("pushed ingress configuration")
	return rules, nil
}

// Token fetches the connection credential the daemon will run with.
func (s *TunnelReconciler) Token(ctx context.Context, account domain.AccountID, tunnel domain.Tunnel) (string, error) {
	return s.api.TunnelToken(ctx, account, tunnel.ID)
}
