package domain

import (
	"testing"
	"time"
)

func TestProvisioningTagRoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tag := NewProvisioningTag("vite-tunnel", "dns", now)

	encoded := tag.Encode()
	if encoded != "cf-tunnel-plugin:vite-tunnel:dns:2025-06-01" {
		t.Fatalf("Encode() = %q", encoded)
	}

	parsed, ok := ParseProvisioningTag(encoded)
	if !ok {
		t.Fatalf("ParseProvisioningTag(%q) not recognized", encoded)
	}
	if parsed != tag {
		t.Errorf("round trip = %+v, want %+v", parsed, tag)
	}
	if !parsed.OwnedBy("vite-tunnel") {
		t.Error("OwnedBy(vite-tunnel) = false")
	}
	if parsed.OwnedBy("other-tunnel") {
		t.Error("OwnedBy(other-tunnel) = true")
	}
}

func TestParseProvisioningTagRejectsForeignComments(t *testing.T) {
	tests := []struct {
		name    string
		comment string
	}{
		{"empty", ""},
		{"free text", "managed by terraform"},
		{"wrong prefix", "other-tool:vite-tunnel:dns:2025-06-01"},
		{"too few parts", "cf-tunnel-plugin:vite-tunnel:dns"},
		{"too many parts", "cf-tunnel-plugin:vite-tunnel:dns:2025-06-01:extra"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := ParseProvisioningTag(tt.comment); ok {
				t.Errorf("ParseProvisioningTag(%q) = ok, want rejected", tt.comment)
			}
		})
	}
}

func TestApexDomain(t *testing.T) {
	tests := []struct {
		hostname string
		want     string
	}{
		{"dev.example.com", "example.com"},
		{"a.b.example.com", "example.com"},
		{"example.com", "example.com"},
		{"localhost", "localhost"},
	}
	for _, tt := range tests {
		if got := ApexDomain(tt.hostname); got != tt.want {
			t.Errorf("ApexDomain(%q) = %q, want %q", tt.hostname, got, tt.want)
		}
	}
}

func TestDecoyHostname(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	got := DecoyHostname("my-tunnel", "example.com", now)
	want := "cf-tunnel-plugin-my-tunnel-2025-06-01.example.com"
	if got != want {
		t.Errorf("DecoyHostname() = %q, want %q", got, want)
	}
}
