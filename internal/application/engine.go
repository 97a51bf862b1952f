package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/waste3d/vite-tunnel/internal/domain"
	"github.com/waste3d/vite-tunnel/internal/infrastructure/cloudflare"
	"github.com/waste3d/vite-tunnel/internal/infrastructure/persistence"
)

// Engine runs the full reconciliation sequence: resolve ownership, ensure
// the tunnel and its ingress, ensure DNS and certificate coverage, fetch
// the daemon token. Strictly sequential; any failure aborts startup and
// nothing is spawned.
type Engine struct {
	resolver *Resolver
	tunnels  *TunnelReconciler
	dnsssl   *DNSSSLReconciler
	ledger   *persistence.Ledger // optional
	log      zerolog.Logger
}

func NewEngine(api *cloudflare.Client, ledger *persistence.Ledger, log zerolog.Logger) *Engine {
	return &Engine{
		resolver: NewResolver(api, log),
		tunnels:  NewTunnelReconciler(api, log),
		dnsssl:   NewDNSSSLReconciler(api, log),
		ledger:   ledger,
		log:      log,
	}
}

// ProvisionResult carries everything the supervisor and the CLI need
// after a successful reconciliation.
type ProvisionResult struct {
	RunID    string
	Account  domain.AccountID
	Zone     domain.ZoneID
	Tunnel   domain.Tunnel
	Ingress  []domain.IngressRule
	Token    string
	DNS      *DNSResult
	Cleanup  *CleanupResult
	Coverage domain.CertificateCoverage
}

func (e *Engine) Provision(ctx context.Context, cfg *domain.TunnelConfig) (*ProvisionResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res := &ProvisionResult{RunID: uuid.New().String()}
	e.log.Info().Str("run", res.RunID).Str("hostname", cfg.Hostname).Str("tunnel", cfg.TunnelName).Msg("provisioning tunnel")

	account, zone, err := e.resolver.Resolve(ctx, cfg.Hostname, cfg.AccountID, cfg.ZoneID)
	if err != nil {
		return nil, err
	}
	res.Account, res.Zone = account, zone

	tunnel, created, err := e.tunnels.Reconcile(ctx, account, cfg.TunnelName)
	if err != nil {
		return nil, err
	}
	res.Tunnel = tunnel
	e.record(res.RunID, cfg.TunnelName, "tunnel", actionFor(created), string(tunnel.ID), tunnel.Name, "")

	res.Ingress, err = e.tunnels.PushIngress(ctx, account, tunnel, cfg.Hostname, cfg.Port)
	if err != nil {
		return nil, err
	}

	res.DNS, err = e.dnsssl.ReconcileDNS(ctx, cfg, zone, tunnel)
	if err != nil {
		return nil, err
	}
	for _, r := range res.DNS.Created {
		e.record(res.RunID, cfg.TunnelName, "dns", persistence.ActionCreated, r.ID, r.Name, r.Content)
	}
	for _, r := range res.DNS.Reused {
		e.record(res.RunID, cfg.TunnelName, "dns", persistence.ActionReused, r.ID, r.Name, r.Content)
	}

	// Cleanup runs after the desired records are in place, so the records
	// this run just created or reused are excluded by exact match.
	if cfg.Cleanup.AutoCleanup {
		res.Cleanup, err = e.dnsssl.CleanupDNS(ctx, cfg, zone, res.DNS.Desired)
		if err != nil {
			return nil, err
		}
		for _, r := range res.Cleanup.Deleted {
			e.record(res.RunID, cfg.TunnelName, "dns", persistence.ActionDeleted, r.ID, r.Name, r.Content)
		}
		for _, r := range res.Cleanup.Skipped {
			e.record(res.RunID, cfg.TunnelName, "dns", persistence.ActionWouldDelete, r.ID, r.Name, r.Content)
		}
	}

	var stale []domain.CertificatePack
	res.Coverage, stale, err = e.dnsssl.ReconcileSSL(ctx, cfg, zone)
	if err != nil {
		return nil, err
	}
	if res.Coverage.Source == domain.CoverageOrderedPack {
		e.record(res.RunID, cfg.TunnelName, "certificate", persistence.ActionCreated, res.Coverage.PackID, cfg.Hostname, "")
	}
	for _, p := range stale {
		e.record(res.RunID, cfg.TunnelName, "certificate", persistence.ActionReported, p.ID, "", "")
	}

	res.Token, err = e.tunnels.Token(ctx, account, tunnel)
	if err != nil {
		return nil, err
	}

	e.log.Info().Str("run", res.RunID).Str("tunnel", string(tunnel.ID)).Msg("provisioning complete")
	return res, nil
}

// CleanupOnly runs resolution plus tag-scoped DNS cleanup without
// touching tunnel, ingress or certificates. Used by the cleanup command.
func (e *Engine) CleanupOnly(ctx context.Context, cfg *domain.TunnelConfig) (*CleanupResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	_, zone, err := e.resolver.Resolve(ctx, cfg.Hostname, cfg.AccountID, cfg.ZoneID)
	if err != nil {
		return nil, err
	}
	// With no desired set, every record tagged for this tunnel name is stale.
	return e.dnsssl.CleanupDNS(ctx, cfg, zone, nil)
}

func actionFor(created bool) string {
	if created {
		return persistence.ActionCreated
	}
	return persistence.ActionReused
}

func (e *Engine) record(runID, tunnelName, kind, action, remoteID, name, content string) {
	if e.ledger == nil {
		return
	}
	err := e.ledger.Record(persistence.ResourceRecord{
		RunID: runID, TunnelName: tunnelName, Kind: kind, Action: action,
		RemoteID: remoteID, Name: name, Content: content,
	})
	if err != nil {
		e.log.Warn().Err(err).Msg("failed to write ledger record")
	}
}
