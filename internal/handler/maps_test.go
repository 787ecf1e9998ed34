package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- GET /maps/{filename} --------------------------------------------------

func TestServeMap_OK(t *testing.T) {
	maps := &mockMaps{files: map[string][]byte{
		"a1b2c3d4e5f6a7b8.png": []byte("\x89PNG fake"),
	}}
	h := newHTTPHandler(nil, nil, maps)

	req := httptest.NewRequest(http.MethodGet, "/maps/a1b2c3d4e5f6a7b8.png", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	// Content-addressed names never change contents, so far-future caching
	// is safe.
	assert.Contains(t, rec.Header().Get("Cache-Control"), "immutable")
	assert.Equal(t, "\x89PNG fake", rec.Body.String())
}

func TestServeMap_NotFound(t *testing.T) {
	h := newHTTPHandler(nil, nil, &mockMaps{files: map[string][]byte{}})

	req := httptest.NewRequest(http.MethodGet, "/maps/deadbeef00000000.png", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeMap_RejectsNonPNGName(t *testing.T) {
	maps := &mockMaps{files: map[string][]byte{"secret.txt": []byte("nope")}}
	h := newHTTPHandler(nil, nil, maps)

	req := httptest.NewRequest(http.MethodGet, "/maps/secret.txt", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeMap_RejectsTraversal(t *testing.T) {
	h := newHTTPHandler(nil, nil, &mockMaps{files: map[string][]byte{}})

	// chi decodes the escaped path segment back into "..%2f..", which must
	// never reach the store.
	req := httptest.NewRequest(http.MethodGet, "/maps/..%2f..%2fetc%2fpasswd.png", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
