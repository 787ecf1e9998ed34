package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"

	"github.com/hanlin-tw/mileage-report/backend/internal/domain"
	"github.com/hanlin-tw/mileage-report/backend/internal/gmaps"
	"github.com/hanlin-tw/mileage-report/backend/internal/mapstore"
)

// RoutingAPI is the external routing capability RouteService wraps.
// *gmaps.Client satisfies it.
type RoutingAPI interface {
	Directions(ctx context.Context, origin, destination, mode string) (gmaps.Route, error)
	StaticMap(ctx context.Context, req gmaps.StaticMapRequest) ([]byte, error)
	Geocode(ctx context.Context, query string) (domain.Address, error)
}

// RouteMetrics is the distance/duration answer for one directed route.
type RouteMetrics struct {
	DistanceKm      float64
	RoundTripKm     float64
	DurationMinutes int
}

// RetryPolicy bounds how transient routing faults are retried.
// It is explicit data rather than inline sleep loops so tests can collapse
// the schedule to microseconds.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries uint64
	// BaseBackoff is the first retry delay; each subsequent delay doubles.
	BaseBackoff time.Duration
	// CallTimeout bounds each individual external call. A timeout counts
	// as a transient fault and consumes a retry.
	CallTimeout time.Duration
}

// DefaultRetryPolicy retries up to 3 times with 0.5s/1s/2s backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, BaseBackoff: 500 * time.Millisecond, CallTimeout: 30 * time.Second}
}

// routeEntry is one route cache entry: metrics plus the polylines needed
// to render the map image later without a second directions call.
type routeEntry struct {
	metrics              RouteMetrics
	polyline             string
	alternativePolylines []string
}

// RouteService wraps the routing API with a process-wide cache, a
// single-flight guard, and the retry policy.
//
// The cache is unbounded: entries are tiny and the set of place pairs an
// organization travels between is low-cardinality. It is shared across
// batches and across concurrent workers within a batch; a cache hit
// short-circuits the external call entirely, and concurrent misses on the
// same key collapse into exactly one upstream call.
type RouteService struct {
	api    RoutingAPI
	store  mapstore.Store
	policy RetryPolicy

	mu     sync.RWMutex
	routes map[string]routeEntry

	sf singleflight.Group
}

// NewRouteService constructs a RouteService over the given API, image
// store, and retry policy.
func NewRouteService(api RoutingAPI, store mapstore.Store, policy RetryPolicy) *RouteService {
	return &RouteService{
		api:    api,
		store:  store,
		policy: policy,
		routes: make(map[string]routeEntry),
	}
}

// Distance returns distance and duration between two resolved addresses.
// Fails with domain.ErrRouteUnavailable after the retry budget is spent,
// or domain.ErrQuotaExceeded immediately (quota errors are never retried;
// retrying them would burn the remaining quota of the whole batch).
func (s *RouteService) Distance(ctx context.Context, origin, destination domain.Address, driving bool) (RouteMetrics, error) {
	entry, err := s.route(ctx, origin, destination, driving)
	if err != nil {
		return RouteMetrics{}, fmt.Errorf("service.RouteService.Distance: %w", err)
	}
	return entry.metrics, nil
}

// MapImage renders (or reuses) the route map for a pair of addresses and
// returns its content-addressed reference in the map store.
// Fails with domain.ErrMapUnavailable if the image cannot be produced.
func (s *RouteService) MapImage(ctx context.Context, origin, destination domain.Address, driving bool) (string, error) {
	ref := mapstore.Ref(origin.Formatted, destination.Formatted, driving)

	v, err, _ := s.sf.Do("map:"+ref, func() (any, error) {
		// The store is the cache: same route, same file.
		if ok, err := s.store.Exists(ctx, ref); err == nil && ok {
			return ref, nil
		}

		entry, err := s.route(ctx, origin, destination, driving)
		if err != nil {
			return "", err
		}

		img, err := s.renderMap(ctx, entry, origin, destination)
		if err != nil {
			return "", err
		}
		if err := s.store.Put(ctx, ref, img); err != nil {
			return "", fmt.Errorf("%w: store image: %w", domain.ErrMapUnavailable, err)
		}
		return ref, nil
	})
	if err != nil {
		return "", fmt.Errorf("service.RouteService.MapImage: %w", err)
	}
	return v.(string), nil
}

// NavigationURL builds the Google Maps directions link for a route.
// Pure string assembly, no external call, nothing to cache.
func (s *RouteService) NavigationURL(origin, destination string, driving bool) string {
	return fmt.Sprintf(
		"https://www.google.com/maps/dir/?api=1&origin=%s&destination=%s&travelmode=%s",
		url.QueryEscape(origin), url.QueryEscape(destination), travelMode(driving),
	)
}

// route returns the cached entry for a directed route, calling the
// directions API (with retry) on a miss. The read-check-then-write is
// guarded by singleflight so concurrent misses on one key produce exactly
// one external call; the others wait and share the result.
func (s *RouteService) route(ctx context.Context, origin, destination domain.Address, driving bool) (routeEntry, error) {
	key := routeKey(origin.Formatted, destination.Formatted, driving)

	s.mu.RLock()
	entry, ok := s.routes[key]
	s.mu.RUnlock()
	if ok {
		return entry, nil
	}

	v, err, _ := s.sf.Do("route:"+key, func() (any, error) {
		// Re-check: a waiter may arrive after the winner already stored.
		s.mu.RLock()
		entry, ok := s.routes[key]
		s.mu.RUnlock()
		if ok {
			return entry, nil
		}

		route, err := s.directions(ctx, origin.Formatted, destination.Formatted, travelMode(driving))
		if err != nil {
			return routeEntry{}, err
		}

		entry = routeEntry{
			metrics: RouteMetrics{
				DistanceKm:      round2(float64(route.DistanceMeters) / 1000),
				RoundTripKm:     round2(2 * float64(route.DistanceMeters) / 1000),
				DurationMinutes: int(math.Round(float64(route.DurationSeconds) / 60)),
			},
			polyline:             route.Polyline,
			alternativePolylines: route.AlternativePolylines,
		}

		s.mu.Lock()
		s.routes[key] = entry
		s.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return routeEntry{}, err
	}
	return v.(routeEntry), nil
}

// directions calls the directions API under the retry policy.
// Only transient faults (domain.ErrRouteUnavailable, which includes
// network errors, 5xx, and per-call timeouts) are retried.
func (s *RouteService) directions(ctx context.Context, origin, destination, mode string) (gmaps.Route, error) {
	backoff := retry.WithMaxRetries(s.policy.MaxRetries, retry.NewExponential(s.policy.BaseBackoff))

	var route gmaps.Route
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, s.policy.CallTimeout)
		defer cancel()

		r, err := s.api.Directions(callCtx, origin, destination, mode)
		if err != nil {
			if errors.Is(err, domain.ErrRouteUnavailable) {
				return retry.RetryableError(err)
			}
			return err
		}
		route = r
		return nil
	})
	return route, err
}

// renderMap fetches the static map image for a cached route entry.
// Marker coordinates come from the resolved addresses when present, or
// from one geocode call per endpoint otherwise (alias-table addresses
// carry no coordinates).
func (s *RouteService) renderMap(ctx context.Context, entry routeEntry, origin, destination domain.Address) ([]byte, error) {
	originPt, err := s.coords(ctx, origin)
	if err != nil {
		return nil, fmt.Errorf("%w: locate origin: %w", domain.ErrMapUnavailable, err)
	}
	destPt, err := s.coords(ctx, destination)
	if err != nil {
		return nil, fmt.Errorf("%w: locate destination: %w", domain.ErrMapUnavailable, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.policy.CallTimeout)
	defer cancel()

	return s.api.StaticMap(callCtx, gmaps.StaticMapRequest{
		Polyline:             entry.polyline,
		AlternativePolylines: entry.alternativePolylines,
		Origin:               originPt,
		Destination:          destPt,
	})
}

func (s *RouteService) coords(ctx context.Context, addr domain.Address) (gmaps.LatLng, error) {
	if addr.Lat != 0 || addr.Lng != 0 {
		return gmaps.LatLng{Lat: addr.Lat, Lng: addr.Lng}, nil
	}
	geocoded, err := s.api.Geocode(ctx, addr.Formatted)
	if err != nil {
		return gmaps.LatLng{}, err
	}
	return gmaps.LatLng{Lat: geocoded.Lat, Lng: geocoded.Lng}, nil
}

// routeKey normalizes a directed route into its cache key. Case and
// whitespace are insignificant; direction and travel mode are not.
func routeKey(origin, destination string, driving bool) string {
	return fmt.Sprintf("%s|%s|%s", normalizePlace(origin), normalizePlace(destination), travelMode(driving))
}

func travelMode(driving bool) string {
	if driving {
		return "driving"
	}
	return "transit"
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
