// Package handler implements the HTTP handlers for the mileage report
// API. All handlers are methods on Server; methods are split into
// concern-specific files (upload.go, calculate.go, export.go, maps.go)
// but share the same Server struct so they can access its dependencies.
package handler

import (
	"context"
	"io"

	"github.com/go-chi/chi/v5"

	"github.com/hanlin-tw/mileage-report/backend/internal/domain"
)

// TripResolver resolves a batch of trip records against the alias table
// and the routing API. Defining the interface here (in the consumer
// package) follows the Go convention: "accept interfaces, return
// concrete types". It lets handler tests inject a mock without touching
// the network.
type TripResolver interface {
	ResolveAll(ctx context.Context, records []domain.TripRecord, fixedOrigin string) []domain.ResolvedTrip
}

// Exporter assembles export artifacts from trip records.
type Exporter interface {
	ExportExcel(ctx context.Context, records []domain.TripRecord, fixedOrigin string) (domain.Artifact, error)
	ExportWord(ctx context.Context, records []domain.TripRecord, fixedOrigin, project string) (domain.Artifact, error)
	ExportWordBatch(ctx context.Context, records []domain.TripRecord, fixedOrigin string) (domain.Artifact, error)
}

// MapOpener serves stored route map images by reference.
type MapOpener interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Server holds the dependencies shared by all API endpoints.
type Server struct {
	resolver TripResolver
	exports  Exporter
	maps     MapOpener
}

// NewServer constructs the Server with all its dependencies.
func NewServer(resolver TripResolver, exports Exporter, maps MapOpener) *Server {
	return &Server{resolver: resolver, exports: exports, maps: maps}
}

// Routes mounts every endpoint on a fresh chi router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", s.Health)
	r.Route("/api", func(r chi.Router) {
		r.Post("/upload/excel", s.UploadExcel)
		r.Post("/calculate/distance", s.CalculateDistance)
		r.Post("/calculate/batch", s.CalculateBatch)
		r.Post("/export/excel", s.ExportExcel)
		r.Post("/export/word", s.ExportWord)
		r.Post("/export/word/batch", s.ExportWordBatch)
		r.Get("/export/template", s.ExportTemplate)
	})
	r.Get("/maps/{filename}", s.ServeMap)
	return r
}
