// Package domain contains the core data types for the mileage report
// pipeline. This package has zero external dependencies and is imported by
// every other internal package (repo, service, report, handler).
package domain

import "time"

// TripRecord is one row of travel data from an uploaded spreadsheet.
// Its identity is the positional index within the upload batch; there is
// no external key. A record is never mutated; resolution produces a
// ResolvedTrip that carries the record plus its result.
type TripRecord struct {
	Department  string    `json:"department"`
	PersonName  string    `json:"person_name"`
	Project     string    `json:"project"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Driving     bool      `json:"driving"`
}

// Address is a geocodable address resolved from a free-text place name.
type Address struct {
	// Name is the original free-text place name.
	Name string `json:"name"`
	// Formatted is the full resolvable address used for routing calls.
	Formatted string `json:"formatted"`
	Lat       float64 `json:"lat,omitempty"`
	Lng       float64 `json:"lng,omitempty"`
}

// ResolvedTrip is a TripRecord plus its ResolutionResult.
// Immutable after creation.
type ResolvedTrip struct {
	Record TripRecord       `json:"record"`
	Result ResolutionResult `json:"result"`
}
