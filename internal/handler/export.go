package handler

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/hanlin-tw/mileage-report/backend/internal/domain"
	"github.com/hanlin-tw/mileage-report/backend/internal/report"
)

// ExportRequest carries the records to export. The server re-resolves
// them; cached routes make this free for records already calculated.
type ExportRequest struct {
	Records     []domain.TripRecord `json:"records"`
	FixedOrigin string              `json:"fixed_origin,omitempty"`
	// Project selects the group for single-project Word export.
	Project string `json:"project,omitempty"`
}

// ExportExcel handles POST /api/export/excel.
func (s *Server) ExportExcel(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeExportRequest(w, r)
	if !ok {
		return
	}

	artifact, err := s.exports.ExportExcel(r.Context(), req.Records, req.FixedOrigin)
	if err != nil {
		writeError(w, err)
		return
	}
	writeArtifact(w, artifact)
}

// ExportWord handles POST /api/export/word: one project's report.
func (s *Server) ExportWord(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeExportRequest(w, r)
	if !ok {
		return
	}
	if req.Project == "" {
		requestError(w, "project is required")
		return
	}

	artifact, err := s.exports.ExportWord(r.Context(), req.Records, req.FixedOrigin, req.Project)
	if err != nil {
		writeError(w, err)
		return
	}
	writeArtifact(w, artifact)
}

// ExportWordBatch handles POST /api/export/word/batch: a ZIP with one
// report per project.
func (s *Server) ExportWordBatch(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeExportRequest(w, r)
	if !ok {
		return
	}

	artifact, err := s.exports.ExportWordBatch(r.Context(), req.Records, req.FixedOrigin)
	if err != nil {
		writeError(w, err)
		return
	}
	writeArtifact(w, artifact)
}

// ExportTemplate handles GET /api/export/template: the empty upload
// template workbook.
func (s *Server) ExportTemplate(w http.ResponseWriter, r *http.Request) {
	data, err := report.BuildTemplate()
	if err != nil {
		writeError(w, err)
		return
	}
	writeArtifact(w, domain.Artifact{
		Filename:    "里程報表範本.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        data,
	})
}

func decodeExportRequest(w http.ResponseWriter, r *http.Request) (ExportRequest, bool) {
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		requestError(w, "request body must be valid JSON")
		return ExportRequest{}, false
	}
	if len(req.Records) == 0 {
		requestError(w, "records must not be empty")
		return ExportRequest{}, false
	}
	return req, true
}

// writeArtifact streams a finished artifact as a file download. The
// filename carries CJK characters, so it goes into the RFC 5987
// filename* parameter where non-ASCII is legal.
func writeArtifact(w http.ResponseWriter, a domain.Artifact) {
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": a.Filename,
	}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Data)
}
