package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hanlin-tw/mileage-report/backend/internal/domain"
	"github.com/hanlin-tw/mileage-report/backend/internal/report"
)

// TripResolver resolves a batch of trip records. *BatchResolver
// satisfies it.
type TripResolver interface {
	ResolveAll(ctx context.Context, records []domain.TripRecord, fixedOrigin string) []domain.ResolvedTrip
}

// WordBuilder assembles Word artifacts from resolved trips.
// *report.WordAssembler satisfies it.
type WordBuilder interface {
	BuildProjectReport(ctx context.Context, project string, trips []domain.ResolvedTrip) ([]byte, error)
	BuildBatchArchive(ctx context.Context, groups domain.ProjectGroups) ([]byte, error)
}

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	contentTypeZIP  = "application/zip"
)

// ExportService runs the full export pipeline: resolve every record,
// then assemble the requested artifact. Resolution reuses the route
// cache, so records already calculated in an earlier request cost no
// further API calls.
type ExportService struct {
	resolver TripResolver
	words    WordBuilder
}

func NewExportService(resolver TripResolver, words WordBuilder) *ExportService {
	return &ExportService{resolver: resolver, words: words}
}

// ExportExcel produces the workbook artifact: every record, resolved or
// failed, in upload order.
func (s *ExportService) ExportExcel(ctx context.Context, records []domain.TripRecord, fixedOrigin string) (domain.Artifact, error) {
	trips, log, err := s.resolve(ctx, records, fixedOrigin, "excel")
	if err != nil {
		return domain.Artifact{}, err
	}

	data, err := report.BuildWorkbook(trips)
	if err != nil {
		log.ErrorContext(ctx, "export failed", "phase", domain.PhaseFailed, "error", err)
		return domain.Artifact{}, fmt.Errorf("service.ExportService.ExportExcel: %w", err)
	}

	log.InfoContext(ctx, "export ready", "phase", domain.PhaseReady, "bytes", len(data))
	return domain.Artifact{
		Filename:    "里程報表.xlsx",
		ContentType: contentTypeXLSX,
		Data:        data,
	}, nil
}

// ExportWord produces a single project's Word report. Records belonging
// to other projects are resolved along with the rest but excluded from
// the document.
func (s *ExportService) ExportWord(ctx context.Context, records []domain.TripRecord, fixedOrigin, project string) (domain.Artifact, error) {
	trips, log, err := s.resolve(ctx, records, fixedOrigin, "word")
	if err != nil {
		return domain.Artifact{}, err
	}

	group, ok := domain.GroupByProject(trips).Find(project)
	if !ok {
		log.ErrorContext(ctx, "export failed", "phase", domain.PhaseFailed, "project", project)
		return domain.Artifact{}, fmt.Errorf("service.ExportService.ExportWord: %w: no records for project %q", domain.ErrValidation, project)
	}

	data, err := s.words.BuildProjectReport(ctx, group.Project, group.Trips)
	if err != nil {
		log.ErrorContext(ctx, "export failed", "phase", domain.PhaseFailed, "error", err)
		return domain.Artifact{}, fmt.Errorf("service.ExportService.ExportWord: %w", err)
	}

	log.InfoContext(ctx, "export ready", "phase", domain.PhaseReady, "project", group.Project, "bytes", len(data))
	return domain.Artifact{
		Filename:    report.SanitizeProjectName(group.Project) + "_里程報表.docx",
		ContentType: contentTypeDOCX,
		Data:        data,
	}, nil
}

// ExportWordBatch produces the ZIP of per-project Word reports, one
// entry per project in first-seen order.
func (s *ExportService) ExportWordBatch(ctx context.Context, records []domain.TripRecord, fixedOrigin string) (domain.Artifact, error) {
	trips, log, err := s.resolve(ctx, records, fixedOrigin, "word_batch")
	if err != nil {
		return domain.Artifact{}, err
	}

	data, err := s.words.BuildBatchArchive(ctx, domain.GroupByProject(trips))
	if err != nil {
		log.ErrorContext(ctx, "export failed", "phase", domain.PhaseFailed, "error", err)
		return domain.Artifact{}, fmt.Errorf("service.ExportService.ExportWordBatch: %w", err)
	}

	log.InfoContext(ctx, "export ready", "phase", domain.PhaseReady, "bytes", len(data))
	return domain.Artifact{
		Filename:    "里程報表.zip",
		ContentType: contentTypeZIP,
		Data:        data,
	}, nil
}

// resolve runs the resolution phase under a per-export logger carrying
// the export id and kind, and logs the phase transitions.
func (s *ExportService) resolve(ctx context.Context, records []domain.TripRecord, fixedOrigin, kind string) ([]domain.ResolvedTrip, *slog.Logger, error) {
	log := slog.Default().With("export_id", uuid.NewString(), "kind", kind)

	log.InfoContext(ctx, "export requested", "phase", domain.PhaseRequested, "records", len(records))
	if len(records) == 0 {
		log.ErrorContext(ctx, "export failed", "phase", domain.PhaseFailed)
		return nil, log, fmt.Errorf("service.ExportService: %w: no records to export", domain.ErrValidation)
	}

	log.InfoContext(ctx, "resolving records", "phase", domain.PhaseResolving)
	trips := s.resolver.ResolveAll(ctx, records, fixedOrigin)

	resolved := 0
	for _, t := range trips {
		if t.Result.Resolved() {
			resolved++
		}
	}
	log.InfoContext(ctx, "assembling artifact", "phase", domain.PhaseAssembling,
		"resolved", resolved, "failed", len(trips)-resolved)
	return trips, log, nil
}
