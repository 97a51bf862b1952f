package domain

import (
	"fmt"
	"strings"
	"time"
)

// EngineID prefixes every provenance tag so records created by this tool
// are recognizable across runs.
const EngineID = "cf-tunnel-plugin"

// ProvisioningTag marks a remote resource as owned by a tunnel name. It is
// embedded in a DNS record comment, or synthesized as a decoy hostname on
// certificate orders (certificates have no comment field).
type ProvisioningTag struct {
	TunnelName string
	Kind       string
	Date       string
}

func NewProvisioningTag(tunnelName, kind string, now time.Time) ProvisioningTag {
	return ProvisioningTag{
		TunnelName: tunnelName,
		Kind:       kind,
		Date:       now.UTC().Format("2006-01-02"),
	}
}

func (t ProvisioningTag) Encode() string {
	return fmt.Sprintf("%s:%s:%s:%s", EngineID, t.TunnelName, t.Kind, t.Date)
}

// ParseProvisioningTag decodes a comment previously written by Encode.
// The second return is false for comments written by anything else.
func ParseProvisioningTag(s string) (ProvisioningTag, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 || parts[0] != EngineID {
		return ProvisioningTag{}, false
	}
	return ProvisioningTag{TunnelName: parts[1], Kind: parts[2], Date: parts[3]}, true
}

// OwnedBy reports whether the tagged resource belongs to tunnelName.
func (t ProvisioningTag) OwnedBy(tunnelName string) bool {
	return t.TunnelName == tunnelName
}

// DecoyHostname is appended to certificate orders purely so a human can
// later identify which tunnel requested the pack.
func DecoyHostname(tunnelName, parentDomain string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s.%s", EngineID, tunnelName, now.UTC().Format("2006-01-02"), parentDomain)
}

// ApexDomain returns the registrable root of a hostname: its last two
// labels ("dev.example.com" -> "example.com").
func ApexDomain(hostname string) string {
	labels := strings.Split(hostname, ".")
	if len(labels) <= 2 {
		return hostname
	}
	return strings.Join(labels[len(labels)-2:], ".")
}
