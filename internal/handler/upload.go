package handler

import (
	"io"
	"net/http"

	"github.com/hanlin-tw/mileage-report/backend/internal/domain"
	"github.com/hanlin-tw/mileage-report/backend/internal/ingest"
)

// maxUploadBytes caps spreadsheet uploads at 10 MiB. Trip sheets are a
// few hundred rows at most; anything larger is not a trip sheet.
const maxUploadBytes = 10 << 20

// UploadResponse returns the parsed records so the client can review
// and edit them before requesting calculation.
type UploadResponse struct {
	Records []domain.TripRecord `json:"records"`
	Count   int                 `json:"count"`
}

// UploadExcel handles POST /api/upload/excel. The spreadsheet arrives
// as multipart form data under the "file" field.
func (s *Server) UploadExcel(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		requestError(w, "multipart form with a \"file\" field is required")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		requestError(w, "multipart form with a \"file\" field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		requestError(w, "could not read uploaded file")
		return
	}
	if len(data) > maxUploadBytes {
		requestError(w, "uploaded file exceeds 10 MiB")
		return
	}

	records, err := ingest.ParseWorkbook(data)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{Records: records, Count: len(records)})
}
