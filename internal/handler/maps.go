package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hanlin-tw/mileage-report/backend/internal/domain"
)

// ServeMap handles GET /maps/{filename}: route map images out of the
// map store. References are content-addressed hex names, so anything
// with a path separator or a non-PNG suffix is rejected before it
// reaches the store.
func (s *Server) ServeMap(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if !validMapName(name) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error: ErrorDetail{Code: "not_found", Message: "map image not found"},
		})
		return
	}

	rc, err := s.maps.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, domain.ErrMapUnavailable) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{
				Error: ErrorDetail{Code: "not_found", Message: "map image not found"},
			})
			return
		}
		writeError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	_, _ = io.Copy(w, rc)
}

func validMapName(name string) bool {
	if name == "" || !strings.HasSuffix(name, ".png") {
		return false
	}
	return !strings.ContainsAny(name, "/\\") && !strings.Contains(name, "..")
}
