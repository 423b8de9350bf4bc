package ops

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubPinger struct {
	err error
}

func (p stubPinger) PingContext(context.Context) error { return p.err }

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthzAlwaysOK(t *testing.T) {
	s := NewServer(stubPinger{err: errors.New("db down")})
	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestReadyzReflectsDatabase(t *testing.T) {
	healthy := NewServer(stubPinger{})
	rec := get(t, healthy, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ready")

	broken := NewServer(stubPinger{err: errors.New("connection refused")})
	rec = get(t, broken, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "database unreachable")
}

func TestReadyzWithoutDatabase(t *testing.T) {
	s := NewServer(nil)
	rec := get(t, s, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPprofIndexMounted(t *testing.T) {
	s := NewServer(nil)
	rec := get(t, s, "/debug/pprof/")
	assert.Equal(t, http.StatusOK, rec.Code)
}
