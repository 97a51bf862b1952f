package cloudflare

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/waste3d/vite-tunnel/internal/domain"
)

type accountResult struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type zoneResult struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type tunnelResult struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	AccountTag string    `json:"account_tag"`
	CreatedAt  time.Time `json:"created_at"`
}

type dnsRecordResult struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	Proxied bool   `json:"proxied"`
	Comment string `json:"comment"`
}

type certPackResult struct {
	ID     string   `json:"id"`
	Type   string   `json:"type"`
	Hosts  []string `json:"hosts"`
	Status string   `json:"status"`
}

func (c *Client) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	var res []accountResult
	if err := c.call(ctx, http.MethodGet, "/accounts", nil, &res); err != nil {
		return nil, err
	}
	accounts := make([]domain.Account, 0, len(res))
	for _, a := range res {
		if a.ID == "" {
			return nil, &domain.SchemaError{Path: "/accounts", Detail: "account without id"}
		}
		accounts = append(accounts, domain.Account{ID: domain.AccountID(a.ID), Name: a.Name})
	}
	return accounts, nil
}

func (c *Client) ListZones(ctx context.Context, name string) ([]domain.Zone, error) {
	path := "/zones?name=" + url.QueryEscape(name)
	var res []zoneResult
	if err := c.call(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	zones := make([]domain.Zone, 0, len(res))
	for _, z := range res {
		if z.ID == "" {
			return nil, &domain.SchemaError{Path: path, Detail: "zone without id"}
		}
		zones = append(zones, domain.Zone{ID: domain.ZoneID(z.ID), Name: z.Name})
	}
	return zones, nil
}

func (c *Client) ListTunnels(ctx context.Context, account domain.AccountID, name string) ([]domain.Tunnel, error) {
	path := fmt.Sprintf("/accounts/%s/cfd_tunnel?name=%s&is_deleted=false", account, url.QueryEscape(name))
	var res []tunnelResult
	if err := c.call(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	tunnels := make([]domain.Tunnel, 0, len(res))
	for _, t := range res {
		if t.ID == "" {
			return nil, &domain.SchemaError{Path: path, Detail: "tunnel without id"}
		}
		tunnels = append(tunnels, domain.Tunnel{
			ID:         domain.TunnelID(t.ID),
			Name:       t.Name,
			AccountTag: t.AccountTag,
			CreatedAt:  t.CreatedAt,
		})
	}
	return tunnels, nil
}

func (c *Client) CreateTunnel(ctx context.Context, account domain.AccountID, name string) (domain.Tunnel, error) {
	path := fmt.Sprintf("/accounts/%s/cfd_tunnel", account)
	body := map[string]string{"name": name, "config_src": "cloudflare"}
	var res tunnelResult
	if err := c.call(ctx, http.MethodPost, path, body, &res); err != nil {
		return domain.Tunnel{}, err
	}
	if res.ID == "" {
		return domain.Tunnel{}, &domain.SchemaError{Path: path, Detail: "created tunnel without id"}
	}
	return domain.Tunnel{
		ID:         domain.TunnelID(res.ID),
		Name:       res.Name,
		AccountTag: res.AccountTag,
		CreatedAt:  res.CreatedAt,
	}, nil
}

// PutTunnelConfiguration overwrites the tunnel's whole ingress table.
func (c *Client) PutTunnelConfiguration(ctx context.Context, account domain.AccountID, tunnel domain.TunnelID, rules []domain.IngressRule) error {
	path := fmt.Sprintf("/accounts/%s/cfd_tunnel/%s/configurations", account, tunnel)
	body := map[string]any{"config": map[string]any{"ingress": rules}}
	return c.call(ctx, http.MethodPut, path, body, nil)
}

// TunnelToken returns the connection credential the daemon runs with.
func (c *Client) TunnelToken(ctx context.Context, account domain.AccountID, tunnel domain.TunnelID) (string, error) {
	path := fmt.Sprintf("/accounts/%s/cfd_tunnel/%s/token", account, tunnel)
	var token string
	if err := c.call(ctx, http.MethodGet, path, nil, &token); err != nil {
		return "", err
	}
	if token == "" {
		return "", &domain.SchemaError{Path: path, Detail: "empty tunnel token"}
	}
	return token, nil
}

func (c *Client) ListDNSRecords(ctx context.Context, zone domain.ZoneID) ([]domain.DNSRecord, error) {
	path := fmt.Sprintf("/zones/%s/dns_records?per_page=100", zone)
	var res []dnsRecordResult
	if err := c.call(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	records := make([]domain.DNSRecord, 0, len(res))
	for _, r := range res {
		if r.ID == "" {
			return nil, &domain.SchemaError{Path: path, Detail: "dns record without id"}
		}
		records = append(records, domain.DNSRecord(r))
	}
	return records, nil
}

func (c *Client) CreateDNSRecord(ctx context.Context, zone domain.ZoneID, rec domain.DNSRecord) (domain.DNSRecord, error) {
	path := fmt.Sprintf("/zones/%s/dns_records", zone)
	body := map[string]any{
		"type":    rec.Type,
		"name":    rec.Name,
		"content": rec.Content,
		"proxied": rec.Proxied,
		"comment": rec.Comment,
		"ttl":     1, // automatic
	}
	var res dnsRecordResult
	if err := c.call(ctx, http.MethodPost, path, body, &res); err != nil {
		return domain.DNSRecord{}, err
	}
	if res.ID == "" {
		return domain.DNSRecord{}, &domain.SchemaError{Path: path, Detail: "created dns record without id"}
	}
	return domain.DNSRecord(res), nil
}

func (c *Client) DeleteDNSRecord(ctx context.Context, zone domain.ZoneID, id string) error {
	path := fmt.Sprintf("/zones/%s/dns_records/%s", zone, id)
	return c.call(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) ListCertificatePacks(ctx context.Context, zone domain.ZoneID) ([]domain.CertificatePack, error) {
	path := fmt.Sprintf("/zones/%s/ssl/certificate_packs?status=all", zone)
	var res []certPackResult
	if err := c.call(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	packs := make([]domain.CertificatePack, 0, len(res))
	for _, p := range res {
		packs = append(packs, domain.CertificatePack(p))
	}
	return packs, nil
}

func (c *Client) OrderCertificatePack(ctx context.Context, zone domain.ZoneID, hosts []string) (domain.CertificatePack, error) {
	path := fmt.Sprintf("/zones/%s/ssl/certificate_packs/order", zone)
	body := map[string]any{
		"type":                  "advanced",
		"hosts":                 hosts,
		"validation_method":     "txt",
		"validity_days":         90,
		"certificate_authority": "lets_encrypt",
	}
	var res certPackResult
	if err := c.call(ctx, http.MethodPost, path, body, &res); err != nil {
		return domain.CertificatePack{}, err
	}
	if res.ID == "" {
		return domain.CertificatePack{}, &domain.SchemaError{Path: path, Detail: "ordered pack without id"}
	}
	return domain.CertificatePack(res), nil
}

// TotalTLSEnabled reports whether the zone has blanket edge certificates
// for all subdomains.
func (c *Client) TotalTLSEnabled(ctx context.Context, zone domain.ZoneID) (bool, error) {
	path := fmt.Sprintf("/zones/%s/acm/total_tls", zone)
	var res struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.call(ctx, http.MethodGet, path, nil, &res); err != nil {
		return false, err
	}
	return res.Enabled, nil
}
