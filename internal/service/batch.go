package service

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hanlin-tw/mileage-report/backend/internal/domain"
)

// Places is the place-resolution capability BatchResolver depends on.
// *PlaceResolver satisfies it.
type Places interface {
	Resolve(ctx context.Context, name string) (domain.Address, error)
}

// Router is the routing capability BatchResolver depends on.
// *RouteService satisfies it.
type Router interface {
	Distance(ctx context.Context, origin, destination domain.Address, driving bool) (RouteMetrics, error)
	MapImage(ctx context.Context, origin, destination domain.Address, driving bool) (string, error)
	NavigationURL(origin, destination string, driving bool) string
}

// BatchResolver resolves a set of trip records with bounded concurrency.
//
// It never fails as a whole: N input records always produce N results in
// input order, each independently success or failure. Re-driving a batch
// is idempotent: records that already resolved are served from cache and
// come back identical, so callers can re-submit just the failed subset.
type BatchResolver struct {
	places      Places
	router      Router
	concurrency int
}

// NewBatchResolver constructs a BatchResolver. concurrency is clamped to
// at least 1; keep it in low single digits to respect upstream rate
// limits.
func NewBatchResolver(places Places, router Router, concurrency int) *BatchResolver {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BatchResolver{places: places, router: router, concurrency: concurrency}
}

// ResolveAll resolves every record and returns one result per input, in
// input order. fixedOrigin, when non-empty, overrides each record's
// origin with a fixed address (used when all trips start from one office).
//
// Results are written into an index-addressed slot per record, not
// appended in completion order, so downstream grouping stays
// deterministic no matter how the workers interleave.
//
// Once any worker observes a quota error, records not yet dispatched are
// marked Failure{quota_exceeded} without further external calls; calls
// already in flight are allowed to finish so their work is not wasted.
func (b *BatchResolver) ResolveAll(ctx context.Context, records []domain.TripRecord, fixedOrigin string) []domain.ResolvedTrip {
	results := make([]domain.ResolvedTrip, len(records))

	var quotaHit atomic.Bool

	g := new(errgroup.Group)
	g.SetLimit(b.concurrency)

	for i, rec := range records {
		g.Go(func() error {
			if quotaHit.Load() {
				results[i] = domain.ResolvedTrip{
					Record: rec,
					Result: domain.Fail(domain.FailureQuotaExceeded, "routing quota exhausted earlier in this batch"),
				}
				return nil
			}
			results[i] = b.resolveOne(ctx, rec, fixedOrigin, &quotaHit)
			return nil
		})
	}

	// Workers only ever return nil; the group is used for its bounded
	// scheduling, not for error propagation.
	_ = g.Wait()

	return results
}

// resolveOne runs the per-record pipeline: places → distance → map → URL.
// Any step failing converts the record into a Failure result; nothing
// here returns an error.
func (b *BatchResolver) resolveOne(ctx context.Context, rec domain.TripRecord, fixedOrigin string, quotaHit *atomic.Bool) domain.ResolvedTrip {
	fail := func(reason domain.FailureReason, msg string) domain.ResolvedTrip {
		slog.WarnContext(ctx, "trip resolution failed",
			"origin", rec.Origin, "destination", rec.Destination, "reason", string(reason))
		return domain.ResolvedTrip{Record: rec, Result: domain.Fail(reason, msg)}
	}

	var origin domain.Address
	if fixedOrigin != "" {
		origin = domain.Address{Name: rec.Origin, Formatted: fixedOrigin}
	} else {
		var err error
		origin, err = b.places.Resolve(ctx, rec.Origin)
		if err != nil {
			return fail(domain.FailurePlaceNotFound, err.Error())
		}
	}

	destination, err := b.places.Resolve(ctx, rec.Destination)
	if err != nil {
		// Either endpoint failing to resolve short-circuits the record
		// before any routing call is spent on it.
		return fail(domain.FailurePlaceNotFound, err.Error())
	}

	metrics, err := b.router.Distance(ctx, origin, destination, rec.Driving)
	if err != nil {
		if errors.Is(err, domain.ErrQuotaExceeded) {
			quotaHit.Store(true)
			return fail(domain.FailureQuotaExceeded, err.Error())
		}
		if errors.Is(err, domain.ErrPlaceNotFound) {
			return fail(domain.FailurePlaceNotFound, err.Error())
		}
		return fail(domain.FailureRouteUnavailable, err.Error())
	}

	mapRef, err := b.router.MapImage(ctx, origin, destination, rec.Driving)
	if err != nil {
		if errors.Is(err, domain.ErrQuotaExceeded) {
			quotaHit.Store(true)
			return fail(domain.FailureQuotaExceeded, err.Error())
		}
		return fail(domain.FailureMapUnavailable, err.Error())
	}

	return domain.ResolvedTrip{
		Record: rec,
		Result: domain.Succeed(domain.Resolution{
			DistanceKm:         metrics.DistanceKm,
			RoundTripKm:        metrics.RoundTripKm,
			DurationMinutes:    metrics.DurationMinutes,
			MapImageRef:        mapRef,
			NavigationURL:      b.router.NavigationURL(origin.Formatted, destination.Formatted, rec.Driving),
			OriginAddress:      origin.Formatted,
			DestinationAddress: destination.Formatted,
		}),
	}
}
