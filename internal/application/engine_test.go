package application

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/waste3d/vite-tunnel/internal/domain"
)

func testConfig() *domain.TunnelConfig {
	return &domain.TunnelConfig{
		Hostname:   "dev.example.com",
		APIToken:   "test-token",
		Port:       5173,
		TunnelName: "vite-tunnel",
		Cleanup:    domain.CleanupConfig{AutoCleanup: true, DryRun: true},
	}
}

func newTestEngine(f *fakeAPI) *Engine {
	return NewEngine(f.client(), nil, zerolog.Nop())
}

func TestProvisionFreshAccount(t *testing.T) {
	f := newFakeAPI(t)
	engine := newTestEngine(f)

	res, err := engine.Provision(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("Provision() = %v", err)
	}

	if f.tunnelsCreated != 1 {
		t.Errorf("tunnels created = %d, want 1", f.tunnelsCreated)
	}
	if res.Token != "test-tunnel-token" {
		t.Errorf("token = %q", res.Token)
	}

	// Ingress: exactly one exact-hostname rule then the catch-all.
	if len(f.lastIngress) != 2 {
		t.Fatalf("ingress rules = %d, want 2", len(f.lastIngress))
	}
	if f.lastIngress[0]["hostname"] != "dev.example.com" || f.lastIngress[0]["service"] != "http://localhost:5173" {
		t.Errorf("exact rule = %v", f.lastIngress[0])
	}
	if f.lastIngress[1]["service"] != "http_status:404" {
		t.Errorf("catch-all rule = %v", f.lastIngress[1])
	}

	// One CNAME pointing at the tunnel.
	if f.recordsCreated != 1 {
		t.Fatalf("records created = %d, want 1", f.recordsCreated)
	}
	rec := f.records[0]
	if rec["type"] != "CNAME" || rec["name"] != "dev.example.com" || rec["content"] != string(res.Tunnel.ID)+".cfargotunnel.com" {
		t.Errorf("dns record = %v", rec)
	}
	if _, ok := domain.ParseProvisioningTag(rec["comment"].(string)); !ok {
		t.Errorf("dns record comment %q is not a provenance tag", rec["comment"])
	}

	// One pack ordered, scoped to the hostname plus a decoy.
	if f.packsOrdered != 1 {
		t.Fatalf("packs ordered = %d, want 1", f.packsOrdered)
	}
	hosts := f.packs[0]["hosts"].([]string)
	if hosts[0] != "dev.example.com" {
		t.Errorf("pack hosts = %v", hosts)
	}
	if len(hosts) != 2 || domain.ApexDomain(hosts[1]) != "example.com" {
		t.Errorf("pack decoy host = %v", hosts)
	}
}

func TestProvisionIsIdempotent(t *testing.T) {
	f := newFakeAPI(t)
	engine := newTestEngine(f)

	if _, err := engine.Provision(context.Background(), testConfig()); err != nil {
		t.Fatalf("first Provision() = %v", err)
	}
	if _, err := engine.Provision(context.Background(), testConfig()); err != nil {
		t.Fatalf("second Provision() = %v", err)
	}

	if f.tunnelsCreated != 1 {
		t.Errorf("tunnels created = %d, want 1 after two runs", f.tunnelsCreated)
	}
	if f.recordsCreated != 1 {
		t.Errorf("records created = %d, want 1 after two runs", f.recordsCreated)
	}
	if f.packsOrdered != 1 {
		t.Errorf("packs ordered = %d, want 1 after two runs", f.packsOrdered)
	}
	if len(f.recordsDeleted) != 0 {
		t.Errorf("records deleted = %v, want none", f.recordsDeleted)
	}
}

func TestProvisionWildcardDNS(t *testing.T) {
	f := newFakeAPI(t)
	engine := newTestEngine(f)

	cfg := testConfig()
	cfg.DNS = "*.example.com"

	if _, err := engine.Provision(context.Background(), cfg); err != nil {
		t.Fatalf("Provision() = %v", err)
	}
	if f.recordsCreated != 2 {
		t.Fatalf("records created = %d, want 2", f.recordsCreated)
	}
	types := map[string]bool{}
	for _, rec := range f.records {
		types[rec["type"].(string)] = true
		if rec["name"] != "*.example.com" {
			t.Errorf("record name = %v", rec["name"])
		}
	}
	if !types["A"] || !types["AAAA"] || types["CNAME"] {
		t.Errorf("record types = %v, want A and AAAA only", types)
	}
}

func TestProvisionZoneNotFound(t *testing.T) {
	f := newFakeAPI(t)
	f.zoneName = "other.org"
	engine := newTestEngine(f)

	_, err := engine.Provision(context.Background(), testConfig())
	var zErr *domain.ZoneNotFoundError
	if !errors.As(err, &zErr) {
		t.Fatalf("Provision() = %v, want ZoneNotFoundError", err)
	}
	if f.tunnelsCreated != 0 || f.recordsCreated != 0 || f.packsOrdered != 0 {
		t.Error("resources were created despite zone resolution failure")
	}
}

func TestProvisionReusesExistingCoverage(t *testing.T) {
	f := newFakeAPI(t)
	f.addPack("*.example.com")
	engine := newTestEngine(f)

	res, err := engine.Provision(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("Provision() = %v", err)
	}
	if f.packsOrdered != 0 {
		t.Errorf("packs ordered = %d, want 0", f.packsOrdered)
	}
	if res.Coverage.Source != domain.CoverageWildcardCert {
		t.Errorf("coverage = %v, want wildcard certificate", res.Coverage.Source)
	}
}

func TestProvisionTotalTLSCoverage(t *testing.T) {
	f := newFakeAPI(t)
	f.totalTLS = true
	engine := newTestEngine(f)

	res, err := engine.Provision(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("Provision() = %v", err)
	}
	if f.packsOrdered != 0 {
		t.Errorf("packs ordered = %d, want 0", f.packsOrdered)
	}
	if res.Coverage.Source != domain.CoverageTotalTLS {
		t.Errorf("coverage = %v, want total tls", res.Coverage.Source)
	}
}
