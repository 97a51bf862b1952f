package application

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/waste3d/vite-tunnel/internal/domain"
)

func tagFor(tunnelName string) string {
	return domain.NewProvisioningTag(tunnelName, "dns", time.Now()).Encode()
}

func TestCleanupDeletesOnlyOwnStaleRecords(t *testing.T) {
	f := newFakeAPI(t)
	// Leftover from a previous run of the same tunnel name, pointing at an
	// old tunnel ID.
	staleID := f.addRecord("CNAME", "old.example.com", "dead-tunnel.cfargotunnel.com", tagFor("vite-tunnel"))
	// Same stale shape but owned by a different tunnel name.
	otherID := f.addRecord("CNAME", "other.example.com", "dead-tunnel.cfargotunnel.com", tagFor("other-tunnel"))
	// Untagged record colliding with the desired name. Never touched.
	collidingID := f.addRecord("CNAME", "dev.example.com", "manual.example.net", "hand-made record")

	engine := newTestEngine(f)
	cfg := testConfig()
	cfg.Cleanup.DryRun = false

	if _, err := engine.Provision(context.Background(), cfg); err != nil {
		t.Fatalf("Provision() = %v", err)
	}

	if len(f.recordsDeleted) != 1 || f.recordsDeleted[0] != staleID {
		t.Fatalf("deleted = %v, want only %q", f.recordsDeleted, staleID)
	}
	remaining := map[any]bool{}
	for _, rec := range f.records {
		remaining[rec["id"]] = true
	}
	if !remaining[otherID] {
		t.Error("record owned by another tunnel name was deleted")
	}
	if !remaining[collidingID] {
		t.Error("untagged record was deleted despite only colliding by name")
	}
}

func TestCleanupDryRunDeletesNothing(t *testing.T) {
	f := newFakeAPI(t)
	f.addRecord("CNAME", "old.example.com", "dead-tunnel.cfargotunnel.com", tagFor("vite-tunnel"))

	engine := newTestEngine(f)
	cfg := testConfig() // DryRun is true by default

	res, err := engine.Provision(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Provision() = %v", err)
	}
	if len(f.recordsDeleted) != 0 {
		t.Errorf("deleted = %v, want none in dry run", f.recordsDeleted)
	}
	if len(res.Cleanup.Skipped) != 1 {
		t.Errorf("skipped = %d, want the stale record reported", len(res.Cleanup.Skipped))
	}
}

func TestCleanupDisabled(t *testing.T) {
	f := newFakeAPI(t)
	f.addRecord("CNAME", "old.example.com", "dead-tunnel.cfargotunnel.com", tagFor("vite-tunnel"))

	engine := newTestEngine(f)
	cfg := testConfig()
	cfg.Cleanup.AutoCleanup = false
	cfg.Cleanup.DryRun = false

	res, err := engine.Provision(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Provision() = %v", err)
	}
	if res.Cleanup != nil {
		t.Errorf("cleanup ran despite autoCleanup=false: %+v", res.Cleanup)
	}
	if len(f.recordsDeleted) != 0 {
		t.Errorf("deleted = %v, want none", f.recordsDeleted)
	}
}

func TestStalePackReportedNotDeleted(t *testing.T) {
	f := newFakeAPI(t)
	// A pack this tunnel name ordered for an older hostname: carries the
	// decoy marker but no longer covers the target.
	f.addPack("old.example.com", "cf-tunnel-plugin-vite-tunnel-2024-01-01.example.com")

	reconciler := NewDNSSSLReconciler(f.client(), zerolog.Nop())
	cfg := testConfig()

	coverage, stale, err := reconciler.ReconcileSSL(context.Background(), cfg, "zone-1")
	if err != nil {
		t.Fatalf("ReconcileSSL() = %v", err)
	}
	if len(stale) != 1 {
		t.Fatalf("stale packs = %d, want 1", len(stale))
	}
	// The old pack does not cover dev.example.com, so a new one is ordered;
	// the stale one stays untouched.
	if coverage.Source != domain.CoverageOrderedPack {
		t.Errorf("coverage = %v, want ordered pack", coverage.Source)
	}
	if len(f.packs) != 2 {
		t.Errorf("packs = %d, want stale pack retained plus new order", len(f.packs))
	}
}
