package domain

// Resolution holds the computed travel figures for a successfully
// resolved trip.
type Resolution struct {
	// DistanceKm is the one-way driving distance, rounded to 2 decimals.
	DistanceKm float64 `json:"distance_km"`
	// RoundTripKm is twice the one-way distance, rounded to 2 decimals.
	// Reports claim the round-trip figure.
	RoundTripKm float64 `json:"round_trip_km"`
	// DurationMinutes is the estimated one-way travel time.
	DurationMinutes int `json:"duration_minutes"`
	// MapImageRef is the content-addressed filename of the route map
	// image within the map cache, e.g. "a1b2c3d4e5f6a7b8.png".
	MapImageRef string `json:"map_image_ref"`
	// NavigationURL opens the route in Google Maps.
	NavigationURL string `json:"navigation_url"`
	// OriginAddress and DestinationAddress are the resolved formatted
	// addresses the route was computed between.
	OriginAddress      string `json:"origin_address"`
	DestinationAddress string `json:"destination_address"`
}

// FailureReason classifies why a single record failed to resolve.
type FailureReason string

const (
	FailurePlaceNotFound    FailureReason = "place_not_found"
	FailureRouteUnavailable FailureReason = "route_unavailable"
	FailureQuotaExceeded    FailureReason = "quota_exceeded"
	FailureMapUnavailable   FailureReason = "map_unavailable"
)

// Failure records a per-record resolution failure. Failures are data, not
// errors: they flow through result sets and are rendered visibly in
// exported documents so operators can re-drive the failed subset.
type Failure struct {
	Reason  FailureReason `json:"reason"`
	Message string        `json:"message"`
}

// ResolutionResult is the outcome of resolving one trip record.
// Exactly one of Success or Failure is populated; use the Succeed and
// Fail constructors rather than building the struct by hand.
type ResolutionResult struct {
	Success *Resolution `json:"success,omitempty"`
	Failure *Failure    `json:"failure,omitempty"`
}

// Succeed wraps a Resolution in a success result.
func Succeed(r Resolution) ResolutionResult {
	return ResolutionResult{Success: &r}
}

// Fail wraps a failure reason and message in a failure result.
func Fail(reason FailureReason, message string) ResolutionResult {
	return ResolutionResult{Failure: &Failure{Reason: reason, Message: message}}
}

// Resolved reports whether the result is a success.
func (r ResolutionResult) Resolved() bool {
	return r.Success != nil
}

// Empty reports whether neither variant is populated, i.e. the record has
// not been through resolution yet.
func (r ResolutionResult) Empty() bool {
	return r.Success == nil && r.Failure == nil
}
