package handler_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hanlin-tw/mileage-report/backend/internal/domain"
	"github.com/hanlin-tw/mileage-report/backend/internal/handler"
)

// ---- mocks -----------------------------------------------------------------

// mockResolver is a hand-written test double for handler.TripResolver.
type mockResolver struct {
	resolveAll func(ctx context.Context, records []domain.TripRecord, fixedOrigin string) []domain.ResolvedTrip
}

func (m *mockResolver) ResolveAll(ctx context.Context, records []domain.TripRecord, fixedOrigin string) []domain.ResolvedTrip {
	return m.resolveAll(ctx, records, fixedOrigin)
}

var _ handler.TripResolver = (*mockResolver)(nil)

// mockExporter is a hand-written test double for handler.Exporter.
type mockExporter struct {
	exportExcel     func(ctx context.Context, records []domain.TripRecord, fixedOrigin string) (domain.Artifact, error)
	exportWord      func(ctx context.Context, records []domain.TripRecord, fixedOrigin, project string) (domain.Artifact, error)
	exportWordBatch func(ctx context.Context, records []domain.TripRecord, fixedOrigin string) (domain.Artifact, error)
}

func (m *mockExporter) ExportExcel(ctx context.Context, records []domain.TripRecord, fixedOrigin string) (domain.Artifact, error) {
	return m.exportExcel(ctx, records, fixedOrigin)
}

func (m *mockExporter) ExportWord(ctx context.Context, records []domain.TripRecord, fixedOrigin, project string) (domain.Artifact, error) {
	return m.exportWord(ctx, records, fixedOrigin, project)
}

func (m *mockExporter) ExportWordBatch(ctx context.Context, records []domain.TripRecord, fixedOrigin string) (domain.Artifact, error) {
	return m.exportWordBatch(ctx, records, fixedOrigin)
}

var _ handler.Exporter = (*mockExporter)(nil)

// mockMaps is a hand-written test double for handler.MapOpener.
type mockMaps struct {
	files map[string][]byte
}

func (m *mockMaps) Open(_ context.Context, name string) (io.ReadCloser, error) {
	data, ok := m.files[name]
	if !ok {
		return nil, fmt.Errorf("mockMaps: %w: %s", domain.ErrMapUnavailable, name)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

var _ handler.MapOpener = (*mockMaps)(nil)

// ---- helpers ---------------------------------------------------------------

// newHTTPHandler wires a Server from the given mocks; nil mocks are fine
// for endpoints the test never touches.
func newHTTPHandler(r handler.TripResolver, e handler.Exporter, m handler.MapOpener) http.Handler {
	return handler.NewServer(r, e, m).Routes()
}

// echoResolver resolves every record successfully.
func echoResolver() *mockResolver {
	return &mockResolver{
		resolveAll: func(_ context.Context, records []domain.TripRecord, _ string) []domain.ResolvedTrip {
			out := make([]domain.ResolvedTrip, len(records))
			for i, rec := range records {
				out[i] = domain.ResolvedTrip{
					Record: rec,
					Result: domain.Succeed(domain.Resolution{
						DistanceKm:      12.7,
						RoundTripKm:     25.4,
						DurationMinutes: 30,
						MapImageRef:     "abc123.png",
						NavigationURL:   "https://www.google.com/maps/dir/?api=1",
					}),
				}
			}
			return out
		},
	}
}

func recordFixture() domain.TripRecord {
	return domain.TripRecord{
		Department:  "安環處",
		PersonName:  "張三",
		Project:     "IDA智慧工安",
		Origin:      "安環高雄處",
		Destination: "管理局",
		StartTime:   time.Date(2024, 10, 22, 9, 0, 0, 0, time.UTC),
		Driving:     true,
	}
}
