package report

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/hanlin-tw/mileage-report/backend/internal/domain"
)

// BuildBatchArchive renders one Word report per project group and packs
// them into a ZIP, entries named "{project}_里程報表.docx" after
// sanitizing the project name. Two projects whose names sanitize to the
// same entry name are an assembly error, not a silent overwrite.
func (w *WordAssembler) BuildBatchArchive(ctx context.Context, groups domain.ProjectGroups) ([]byte, error) {
	if len(groups) == 0 {
		return nil, fmt.Errorf("report.BuildBatchArchive: %w: no project groups", domain.ErrAssembly)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	seen := make(map[string]string, len(groups))

	for _, g := range groups {
		name := SanitizeProjectName(g.Project) + "_里程報表.docx"
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("report.BuildBatchArchive: %w: projects %q and %q both produce entry %q",
				domain.ErrAssembly, prev, g.Project, name)
		}
		seen[name] = g.Project

		data, err := w.BuildProjectReport(ctx, g.Project, g.Trips)
		if err != nil {
			return nil, fmt.Errorf("report.BuildBatchArchive: %w", err)
		}

		entry, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("report.BuildBatchArchive: %w: %v", domain.ErrAssembly, err)
		}
		if _, err := entry.Write(data); err != nil {
			return nil, fmt.Errorf("report.BuildBatchArchive: %w: %v", domain.ErrAssembly, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("report.BuildBatchArchive: %w: %v", domain.ErrAssembly, err)
	}
	return buf.Bytes(), nil
}

// SanitizeProjectName strips characters unsafe for filenames, keeping
// letters (CJK included), digits, spaces, dashes, and underscores. An
// empty result falls back to 未分類.
func SanitizeProjectName(project string) string {
	var b strings.Builder
	for _, r := range project {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	s := strings.TrimSpace(b.String())
	if s == "" {
		return "未分類"
	}
	return s
}
