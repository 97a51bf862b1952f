package application

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/waste3d/vite-tunnel/internal/domain"
	"github.com/waste3d/vite-tunnel/internal/infrastructure/cloudflare"
)

// Resolver figures out which account and DNS zone own a hostname.
type Resolver struct {
	api *cloudflare.Client
	log zerolog.Logger
}

func NewResolver(api *cloudflare.Client, log zerolog.Logger) *Resolver {
	return &Resolver{api: api, log: log}
}

// Resolve lists accounts and zones and picks the forced IDs when given,
// otherwise the first match. A missing zone is fatal: nothing is created
// and no daemon is spawned after this error.
func (r *Resolver) Resolve(ctx context.Context, hostname string, forcedAccount domain.AccountID, forcedZone domain.ZoneID) (domain.AccountID, domain.ZoneID, error) {
	accounts, err := r.api.ListAccounts(ctx)
	if err != nil {
		return "", "", err
	}
	accountID := forcedAccount
	if accountID == "" {
		if len(accounts) == 0 {
			return "", "", fmt.Errorf("the API token has no visible accounts")
		}
		accountID = accounts[0].ID
	}

	apex := domain.ApexDomain(hostname)
	zones, err := r.api.ListZones(ctx, apex)
	if err != nil {
		return "", "", err
	}
	zoneID := forcedZone
	if zoneID == "" {
		if len(zones) == 0 {
			return "", "", &domain.ZoneNotFoundError{Apex: apex}
		}
		zoneID = zones[0].ID
	}

	r.log.Debug().
		Str("account", string(accountID)).
		Str("zone", string(zoneID)).
		Str("apex", apex).
		Msg("resolved hostname ownership")
	return accountID, zoneID, nil
}
