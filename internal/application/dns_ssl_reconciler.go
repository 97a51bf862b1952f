package application

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/waste3d/vite-tunnel/internal/domain"
	"github.com/waste3d/vite-tunnel/internal/infrastructure/cloudflare"
)

// Placeholder origin addresses for proxied wildcard records. The proxy
// never dials them; traffic is routed by the tunnel.
const (
	wildcardIPv4 = "192.0.2.1"
	wildcardIPv6 = "100::"
)

// DNSSSLReconciler drives DNS records and certificate coverage for the
// hostname. Everything it creates is stamped with a provenance tag so a
// later run can tell its own leftovers from foreign records.
type DNSSSLReconciler struct {
	api *cloudflare.Client
	log zerolog.Logger
	now func() time.Time
}

func NewDNSSSLReconciler(api *cloudflare.Client, log zerolog.Logger) *DNSSSLReconciler {
	return &DNSSSLReconciler{api: api, log: log, now: time.Now}
}

// DNSResult reports what ReconcileDNS did.
type DNSResult struct {
	Desired []domain.DNSRecord
	Created []domain.DNSRecord
	Reused  []domain.DNSRecord
}

// desiredRecords is the record set the current config calls for: a single
// CNAME to the tunnel target, or an A/AAAA pair for a wildcard pattern.
func (s *DNSSSLReconciler) desiredRecords(cfg *domain.TunnelConfig, tunnel domain.Tunnel) []domain.DNSRecord {
	tag := domain.NewProvisioningTag(cfg.TunnelName, "dns", s.now()).Encode()
	if cfg.DNS == "" {
		return []domain.DNSRecord{{
			Type: "CNAME", Name: cfg.Hostname, Content: tunnel.DNSTarget(), Proxied: true, Comment: tag,
		}}
	}
	return []domain.DNSRecord{
		{Type: "A", Name: cfg.DNS, Content: wildcardIPv4, Proxied: true, Comment: tag},
		{Type: "AAAA", Name: cfg.DNS, Content: wildcardIPv6, Proxied: true, Comment: tag},
	}
}

// ReconcileDNS ensures the desired records exist. A record that already
// matches on type, name and content is left alone regardless of who
// created it.
func (s *DNSSSLReconciler) ReconcileDNS(ctx context.Context, cfg *domain.TunnelConfig, zone domain.ZoneID, tunnel domain.Tunnel) (*DNSResult, error) {
	existing, err := s.api.ListDNSRecords(ctx, zone)
	if err != nil {
		return nil, err
	}

	res := &DNSResult{Desired: s.desiredRecords(cfg, tunnel)}
	for _, want := range res.Desired {
		if found, ok := findRecord(existing, want); ok {
			s.log.Info().Str("name", want.Name).Str("type", want.Type).Msg("dns record already in place")
			res.Reused = append(res.Reused, found)
			continue
		}
		created, err := s.api.CreateDNSRecord(ctx, zone, want)
		if err != nil {
			return nil, err
		}
		s.log.Info().Str("name", created.Name).Str("type", created.Type).Str("content", created.Content).Msg("created dns record")
		res.Created = append(res.Created, created)
	}
	return res, nil
}

func findRecord(records []domain.DNSRecord, want domain.DNSRecord) (domain.DNSRecord, bool) {
	for _, r := range records {
		if r.Type == want.Type && strings.EqualFold(r.Name, want.Name) && r.Content == want.Content {
			return r, true
		}
	}
	return domain.DNSRecord{}, false
}

// CleanupResult reports stale records found by CleanupDNS.
type CleanupResult struct {
	Deleted []domain.DNSRecord
	Skipped []domain.DNSRecord // stale but kept because of dry-run
}

// CleanupDNS removes records that carry this tunnel's provenance tag but
// no longer match the desired set, i.e. leftovers from a previous run
// with a different configuration. Untagged records are never touched,
// even on a name collision. Runs after the desired records are ensured so
// the current run's own records are always excluded by exact match.
func (s *DNSSSLReconciler) CleanupDNS(ctx context.Context, cfg *domain.TunnelConfig, zone domain.ZoneID, desired []domain.DNSRecord) (*CleanupResult, error) {
	existing, err := s.api.ListDNSRecords(ctx, zone)
	if err != nil {
		return nil, err
	}

	res := &CleanupResult{}
	for _, rec := range existing {
		tag, ok := domain.ParseProvisioningTag(rec.Comment)
		if !ok || !tag.OwnedBy(cfg.TunnelName) {
			continue
		}
		if _, match := findRecord(desired, rec); match {
			continue
		}
		if cfg.Cleanup.DryRun {
			s.log.Warn().Str("name", rec.Name).Str("content", rec.Content).Msg("stale dns record found (dry run, not deleting)")
			res.Skipped = append(res.Skipped, rec)
			continue
		}
		if err := s.api.DeleteDNSRecord(ctx, zone, rec.ID); err != nil {
			return nil, err
		}
		s.log.Info().Str("name", rec.Name).Str("content", rec.Content).Msg("deleted stale dns record")
		res.Deleted = append(res.Deleted, rec)
	}
	return res, nil
}

// ReconcileSSL resolves certificate coverage in priority order: an
// existing wildcard certificate, the zone-wide Total TLS feature, then a
// freshly ordered pack. Mismatched packs from earlier runs are reported
// but never deleted; certificate churn has trust-chain consequences the
// engine must not trigger on its own.
func (s *DNSSSLReconciler) ReconcileSSL(ctx context.Context, cfg *domain.TunnelConfig, zone domain.ZoneID) (domain.CertificateCoverage, []domain.CertificatePack, error) {
	target := cfg.Hostname
	if cfg.SSL != "" {
		target = cfg.SSL
	}
	apex := domain.ApexDomain(cfg.Hostname)

	packs, err := s.api.ListCertificatePacks(ctx, zone)
	if err != nil {
		return domain.CertificateCoverage{}, nil, err
	}

	stale := s.stalePacks(packs, cfg.TunnelName, target)
	for _, p := range stale {
		s.log.Warn().Str("pack", p.ID).Strs("hosts", p.Hosts).Msg("certificate pack from a previous configuration; review and delete manually if unwanted")
	}

	for _, p := range packs {
		if p.Covers(cfg.Hostname) {
			s.log.Info().Str("pack", p.ID).Msg("hostname covered by existing certificate pack")
			return domain.CertificateCoverage{Source: domain.CoverageWildcardCert, PackID: p.ID}, stale, nil
		}
	}

	totalTLS, err := s.api.TotalTLSEnabled(ctx, zone)
	if err != nil {
		return domain.CertificateCoverage{}, nil, err
	}
	if totalTLS {
		s.log.Info().Msg("hostname covered by total tls")
		return domain.CertificateCoverage{Source: domain.CoverageTotalTLS}, stale, nil
	}

	// Certificates cannot carry a comment, so a decoy hostname marks the
	// order for later human identification.
	hosts := []string{target, domain.DecoyHostname(cfg.TunnelName, apex, s.now())}
	pack, err := s.api.OrderCertificatePack(ctx, zone, hosts)
	if err != nil {
		return domain.CertificateCoverage{}, nil, err
	}
	s.log.Info().Str("pack", pack.ID).Strs("hosts", hosts).Msg("ordered certificate pack")
	return domain.CertificateCoverage{Source: domain.CoverageOrderedPack, PackID: pack.ID}, stale, nil
}

// stalePacks finds packs that carry this tunnel's decoy marker but do not
// cover the currently desired target.
func (s *DNSSSLReconciler) stalePacks(packs []domain.CertificatePack, tunnelName, target string) []domain.CertificatePack {
	marker := domain.EngineID + "-" + tunnelName + "-"
	var stale []domain.CertificatePack
	for _, p := range packs {
		tagged := false
		covers := false
		for _, h := range p.Hosts {
			if strings.HasPrefix(h, marker) {
				tagged = true
			}
			if h == target {
				covers = true
			}
		}
		if tagged && !covers {
			stale = append(stale, p)
		}
	}
	return stale
}
