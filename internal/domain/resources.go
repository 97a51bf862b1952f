package domain

import (
	"fmt"
	"time"
)

type AccountID string
type ZoneID string
type TunnelID string

// TunnelDomain is the provider-side domain every tunnel is reachable
// under; the canonical DNS target for a tunnel is "{id}.{TunnelDomain}".
const TunnelDomain = "cfargotunnel.com"

// CatchAllService terminates every ingress table.
const CatchAllService = "http_status:404"

type Account struct {
	ID   AccountID
	Name string
}

type Zone struct {
	ID   ZoneID
	Name string
}

type Tunnel struct {
	ID         TunnelID
	Name       string
	AccountTag string
	CreatedAt  time.Time
}

// DNSTarget returns the CNAME content that routes a hostname into this tunnel.
func (t Tunnel) DNSTarget() string {
	return fmt.Sprintf("%s.%s", t.ID, TunnelDomain)
}

// IngressRule maps a public hostname to a local service. A rule with an
// empty hostname is the catch-all and must come last.
type IngressRule struct {
	Hostname string `json:"hostname,omitempty"`
	Service  string `json:"service"`
}

// IngressRules builds the full routing table for a single hostname:
// exactly one exact-hostname rule followed by the mandatory catch-all.
func IngressRules(hostname string, port int) []IngressRule {
	return []IngressRule{
		{Hostname: hostname, Service: fmt.Sprintf("http://localhost:%d", port)},
		{Service: CatchAllService},
	}
}

type DNSRecord struct {
	ID      string
	Type    string
	Name    string
	Content string
	Proxied bool
	Comment string
}

// CertificatePack is a provider certificate order covering one or more hosts.
type CertificatePack struct {
	ID     string
	Type   string
	Hosts  []string
	Status string
}

// Covers reports whether the pack covers hostname, including via a
// wildcard entry one label up.
func (p CertificatePack) Covers(hostname string) bool {
	for _, h := range p.Hosts {
		if h == hostname || h == "*."+ApexDomain(hostname) {
			return true
		}
	}
	return false
}

// CoverageSource says which mechanism satisfied certificate coverage.
type CoverageSource string

const (
	CoverageWildcardCert CoverageSource = "wildcard-certificate"
	CoverageTotalTLS     CoverageSource = "total-tls"
	CoverageOrderedPack  CoverageSource = "ordered-pack"
)

type CertificateCoverage struct {
	Source CoverageSource
	PackID string
}
