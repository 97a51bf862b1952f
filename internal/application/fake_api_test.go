package application

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/waste3d/vite-tunnel/internal/infrastructure/cloudflare"
)

// fakeAPI is an in-memory Cloudflare v4 stand-in. It serves the envelope
// format, mutates its state on writes, and counts create/delete calls so
// tests can assert idempotence.
type fakeAPI struct {
	t  *testing.T
	mu sync.Mutex

	zoneName string
	tunnels  []map[string]any
	records  []map[string]any
	packs    []map[string]any
	totalTLS bool

	tunnelsCreated int
	recordsCreated int
	recordsDeleted []string
	packsOrdered   int
	lastIngress    []map[string]any

	srv *httptest.Server
}

func newFakeAPI(t *testing.T) *fakeAPI {
	f := &fakeAPI{t: t, zoneName: "example.com"}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) client() *cloudflare.Client {
	return cloudflare.NewClient("test-token", zerolog.Nop(), cloudflare.WithBaseURL(f.srv.URL))
}

// nonNil keeps empty collections encoding as [] rather than null,
// matching the envelopes the real API serves for empty lists.
func nonNil(s []map[string]any) []map[string]any {
	if s == nil {
		return []map[string]any{}
	}
	return s
}

func (f *fakeAPI) ok(w http.ResponseWriter, result any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true, "errors": []any{}, "messages": []any{}, "result": result,
	})
}

func (f *fakeAPI) addRecord(recType, name, content, comment string) string {
	id := fmt.Sprintf("rec-%d", len(f.records)+1)
	f.records = append(f.records, map[string]any{
		"id": id, "type": recType, "name": name, "content": content,
		"proxied": true, "comment": comment,
	})
	return id
}

func (f *fakeAPI) addPack(hosts ...string) string {
	id := fmt.Sprintf("pack-%d", len(f.packs)+1)
	f.packs = append(f.packs, map[string]any{
		"id": id, "type": "advanced", "hosts": hosts, "status": "active",
	})
	return id
}

func (f *fakeAPI) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	switch {
	case path == "/accounts":
		f.ok(w, []map[string]any{{"id": "acc-1", "name": "Test Account"}})

	case path == "/zones":
		if r.URL.Query().Get("name") == f.zoneName {
			f.ok(w, []map[string]any{{"id": "zone-1", "name": f.zoneName}})
		} else {
			f.ok(w, []map[string]any{})
		}

	case path == "/accounts/acc-1/cfd_tunnel" && r.Method == http.MethodGet:
		name := r.URL.Query().Get("name")
		matches := []map[string]any{}
		for _, tun := range f.tunnels {
			if tun["name"] == name {
				matches = append(matches, tun)
			}
		}
		f.ok(w, matches)

	case path == "/accounts/acc-1/cfd_tunnel" && r.Method == http.MethodPost:
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		f.tunnelsCreated++
		tun := map[string]any{
			"id": fmt.Sprintf("tun-%d", f.tunnelsCreated), "name": body["name"],
			"account_tag": "acc-1", "created_at": "2025-06-01T00:00:00Z",
		}
		f.tunnels = append(f.tunnels, tun)
		f.ok(w, tun)

	case strings.HasSuffix(path, "/configurations") && r.Method == http.MethodPut:
		var body struct {
			Config struct {
				Ingress []map[string]any `json:"ingress"`
			} `json:"config"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.lastIngress = body.Config.Ingress
		f.ok(w, map[string]any{})

	case strings.HasSuffix(path, "/token"):
		f.ok(w, "test-tunnel-token")

	case path == "/zones/zone-1/dns_records" && r.Method == http.MethodGet:
		f.ok(w, nonNil(f.records))

	case path == "/zones/zone-1/dns_records" && r.Method == http.MethodPost:
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.recordsCreated++
		comment, _ := body["comment"].(string)
		f.addRecord(body["type"].(string), body["name"].(string), body["content"].(string), comment)
		f.ok(w, f.records[len(f.records)-1])

	case strings.HasPrefix(path, "/zones/zone-1/dns_records/") && r.Method == http.MethodDelete:
		id := strings.TrimPrefix(path, "/zones/zone-1/dns_records/")
		f.recordsDeleted = append(f.recordsDeleted, id)
		kept := f.records[:0]
		for _, rec := range f.records {
			if rec["id"] != id {
				kept = append(kept, rec)
			}
		}
		f.records = kept
		f.ok(w, map[string]any{"id": id})

	case path == "/zones/zone-1/ssl/certificate_packs" && r.Method == http.MethodGet:
		f.ok(w, nonNil(f.packs))

	case path == "/zones/zone-1/ssl/certificate_packs/order":
		var body struct {
			Hosts []string `json:"hosts"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.packsOrdered++
		f.addPack(body.Hosts...)
		f.ok(w, f.packs[len(f.packs)-1])

	case path == "/zones/zone-1/acm/total_tls":
		f.ok(w, map[string]any{"enabled": f.totalTLS})

	default:
		f.t.Errorf("fake api: unexpected request %s %s", r.Method, path)
		http.NotFound(w, r)
	}
}
