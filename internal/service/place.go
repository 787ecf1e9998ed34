// Package service contains the business logic of the mileage pipeline:
// place resolution, route lookup with caching and retry, bounded-
// concurrency batch resolution, and export orchestration. Services depend
// on small consumer-defined interfaces, never on concrete clients, so
// every piece is unit-testable with function-field mocks.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hanlin-tw/mileage-report/backend/internal/domain"
	"github.com/hanlin-tw/mileage-report/backend/internal/repo"
)

// Geocoder is the external geocoding capability PlaceResolver falls back
// to on an alias miss.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (domain.Address, error)
}

// PlaceResolver maps free-text place names to geocodable addresses.
// It consults the operator-curated alias table first and only then calls
// the geocoder. Geocode results are NOT written back into the alias
// table: aliases are curated data, and an automatic write would let one
// bad geocode poison every later lookup of that name.
type PlaceResolver struct {
	geocoder Geocoder

	mu      sync.RWMutex
	aliases map[string]domain.Address // keyed by normalized place name
}

// NewPlaceResolver loads the alias table from the repo and returns a
// resolver over it. The snapshot is taken once at construction; call
// Reload to pick up operator edits.
func NewPlaceResolver(ctx context.Context, aliases repo.AliasRepo, geocoder Geocoder) (*PlaceResolver, error) {
	r := &PlaceResolver{geocoder: geocoder, aliases: map[string]domain.Address{}}
	if err := r.reload(ctx, aliases); err != nil {
		return nil, err
	}
	return r, nil
}

// Resolve returns the address for a place name.
//
// Alias hits never touch the network. On a miss the geocoder is called
// exactly once, with no retries, because a geocoding miss is almost
// always a data problem (typo, ambiguous name), and retrying a data
// problem just burns quota. Retry policy for transient faults lives in
// RouteService.
func (r *PlaceResolver) Resolve(ctx context.Context, name string) (domain.Address, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return domain.Address{}, fmt.Errorf("service.PlaceResolver.Resolve: empty place name: %w", domain.ErrPlaceNotFound)
	}

	r.mu.RLock()
	addr, ok := r.aliases[normalizePlace(trimmed)]
	r.mu.RUnlock()
	if ok {
		addr.Name = trimmed
		return addr, nil
	}

	addr, err := r.geocoder.Geocode(ctx, trimmed)
	if err != nil {
		return domain.Address{}, fmt.Errorf("service.PlaceResolver.Resolve %q: %w", trimmed, err)
	}
	return addr, nil
}

// Reload replaces the alias snapshot with the current repo contents.
// Stale aliases are never invalidated automatically; operators update
// the table and trigger a reload.
func (r *PlaceResolver) Reload(ctx context.Context, aliases repo.AliasRepo) error {
	return r.reload(ctx, aliases)
}

func (r *PlaceResolver) reload(ctx context.Context, aliases repo.AliasRepo) error {
	all, err := aliases.All(ctx)
	if err != nil {
		return fmt.Errorf("service.PlaceResolver: load aliases: %w", err)
	}

	table := make(map[string]domain.Address, len(all))
	for name, address := range all {
		table[normalizePlace(name)] = domain.Address{Name: name, Formatted: address}
	}

	r.mu.Lock()
	r.aliases = table
	r.mu.Unlock()
	return nil
}

// normalizePlace lowercases and collapses runs of whitespace so that
// " Taipei  Station " and "taipei station" hit the same alias entry.
func normalizePlace(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
