package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanlin-tw/mileage-report/backend/internal/domain"
	"github.com/hanlin-tw/mileage-report/backend/internal/service"
)

// mockTripResolver is a hand-written test double for service.TripResolver.
type mockTripResolver struct {
	resolveAll func(ctx context.Context, records []domain.TripRecord, fixedOrigin string) []domain.ResolvedTrip
}

func (m *mockTripResolver) ResolveAll(ctx context.Context, records []domain.TripRecord, fixedOrigin string) []domain.ResolvedTrip {
	return m.resolveAll(ctx, records, fixedOrigin)
}

var _ service.TripResolver = (*mockTripResolver)(nil)

// mockWordBuilder is a hand-written test double for service.WordBuilder.
type mockWordBuilder struct {
	buildProjectReport func(ctx context.Context, project string, trips []domain.ResolvedTrip) ([]byte, error)
	buildBatchArchive  func(ctx context.Context, groups domain.ProjectGroups) ([]byte, error)
}

func (m *mockWordBuilder) BuildProjectReport(ctx context.Context, project string, trips []domain.ResolvedTrip) ([]byte, error) {
	return m.buildProjectReport(ctx, project, trips)
}

func (m *mockWordBuilder) BuildBatchArchive(ctx context.Context, groups domain.ProjectGroups) ([]byte, error) {
	return m.buildBatchArchive(ctx, groups)
}

var _ service.WordBuilder = (*mockWordBuilder)(nil)

// ---- helpers ---------------------------------------------------------------

// succeedAll echoes every record back as a resolved trip.
func succeedAll() *mockTripResolver {
	return &mockTripResolver{
		resolveAll: func(_ context.Context, records []domain.TripRecord, _ string) []domain.ResolvedTrip {
			out := make([]domain.ResolvedTrip, len(records))
			for i, rec := range records {
				out[i] = domain.ResolvedTrip{
					Record: rec,
					Result: domain.Succeed(domain.Resolution{
						DistanceKm:  12.7,
						RoundTripKm: 25.4,
						MapImageRef: "abc123.png",
					}),
				}
			}
			return out
		},
	}
}

func docWords() *mockWordBuilder {
	return &mockWordBuilder{
		buildProjectReport: func(_ context.Context, _ string, _ []domain.ResolvedTrip) ([]byte, error) {
			return []byte("docx bytes"), nil
		},
		buildBatchArchive: func(_ context.Context, _ domain.ProjectGroups) ([]byte, error) {
			return []byte("zip bytes"), nil
		},
	}
}

func exportRecords() []domain.TripRecord {
	return []domain.TripRecord{
		{Project: "IDA智慧工安", Origin: "安環高雄處", Destination: "管理局",
			StartTime: time.Date(2024, 10, 22, 9, 0, 0, 0, time.UTC), Driving: true},
		{Project: "淨零碳排", Origin: "安環高雄處", Destination: "台積電",
			StartTime: time.Date(2024, 10, 23, 9, 0, 0, 0, time.UTC), Driving: true},
	}
}

// ---- ExportExcel tests -----------------------------------------------------

func TestExportService_ExportExcel(t *testing.T) {
	svc := service.NewExportService(succeedAll(), docWords())

	artifact, err := svc.ExportExcel(context.Background(), exportRecords(), "")

	require.NoError(t, err)
	assert.Equal(t, "里程報表.xlsx", artifact.Filename)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		artifact.ContentType)
	// An .xlsx file is a ZIP container.
	require.Greater(t, len(artifact.Data), 2)
	assert.Equal(t, []byte("PK"), artifact.Data[:2])
}

func TestExportService_ExportExcel_NoRecords(t *testing.T) {
	svc := service.NewExportService(succeedAll(), docWords())

	_, err := svc.ExportExcel(context.Background(), nil, "")

	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ---- ExportWord tests ------------------------------------------------------

func TestExportService_ExportWord(t *testing.T) {
	svc := service.NewExportService(succeedAll(), docWords())

	artifact, err := svc.ExportWord(context.Background(), exportRecords(), "", "IDA智慧工安")

	require.NoError(t, err)
	assert.Equal(t, "IDA智慧工安_里程報表.docx", artifact.Filename)
	assert.Equal(t, []byte("docx bytes"), artifact.Data)
}

func TestExportService_ExportWord_UnknownProject(t *testing.T) {
	svc := service.NewExportService(succeedAll(), docWords())

	_, err := svc.ExportWord(context.Background(), exportRecords(), "", "不存在的計畫")

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestExportService_ExportWord_AssemblyFailure(t *testing.T) {
	words := docWords()
	words.buildProjectReport = func(_ context.Context, _ string, _ []domain.ResolvedTrip) ([]byte, error) {
		return nil, fmt.Errorf("write: %w", domain.ErrAssembly)
	}
	svc := service.NewExportService(succeedAll(), words)

	_, err := svc.ExportWord(context.Background(), exportRecords(), "", "IDA智慧工安")

	assert.ErrorIs(t, err, domain.ErrAssembly)
}

// ---- ExportWordBatch tests -------------------------------------------------

func TestExportService_ExportWordBatch(t *testing.T) {
	var gotGroups domain.ProjectGroups
	words := docWords()
	words.buildBatchArchive = func(_ context.Context, groups domain.ProjectGroups) ([]byte, error) {
		gotGroups = groups
		return []byte("zip bytes"), nil
	}
	svc := service.NewExportService(succeedAll(), words)

	artifact, err := svc.ExportWordBatch(context.Background(), exportRecords(), "")

	require.NoError(t, err)
	assert.Equal(t, "里程報表.zip", artifact.Filename)
	assert.Equal(t, "application/zip", artifact.ContentType)
	require.Len(t, gotGroups, 2, "one group per project, first-seen order")
	assert.Equal(t, "IDA智慧工安", gotGroups[0].Project)
	assert.Equal(t, "淨零碳排", gotGroups[1].Project)
}

func TestExportService_ExportWordBatch_FailedRecordsStillExported(t *testing.T) {
	resolver := &mockTripResolver{
		resolveAll: func(_ context.Context, records []domain.TripRecord, _ string) []domain.ResolvedTrip {
			out := make([]domain.ResolvedTrip, len(records))
			for i, rec := range records {
				out[i] = domain.ResolvedTrip{
					Record: rec,
					Result: domain.Fail(domain.FailureRouteUnavailable, "no route"),
				}
			}
			return out
		},
	}
	var gotGroups domain.ProjectGroups
	words := docWords()
	words.buildBatchArchive = func(_ context.Context, groups domain.ProjectGroups) ([]byte, error) {
		gotGroups = groups
		return []byte("zip bytes"), nil
	}
	svc := service.NewExportService(resolver, words)

	_, err := svc.ExportWordBatch(context.Background(), exportRecords(), "")

	// Per-record failures are content, not export errors.
	require.NoError(t, err)
	require.Len(t, gotGroups, 2)
	require.Len(t, gotGroups[0].Trips, 1)
	assert.NotNil(t, gotGroups[0].Trips[0].Result.Failure)
}
