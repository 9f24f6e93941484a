package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/afero"

	"github.com/genhoi/unit/internal/configdoc"
)

func newTestDoc(t *testing.T) *configdoc.Doc {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "unitd.json", []byte(`{"server":{"listen_addr":":8080"}}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	d, err := configdoc.Open(fs, "unitd.json", discardLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return d
}

func TestMountConfigGet(t *testing.T) {
	r := chi.NewRouter()
	s, err := New(testServerConfig("127.0.0.1:0"), r, discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.MountConfig("/config", newTestDoc(t))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/config/server/listen_addr", nil)
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, body %q", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != `":8080"` {
		t.Fatalf("got body %q", got)
	}
}

func TestMountConfigGetMissingIsNotFound(t *testing.T) {
	r := chi.NewRouter()
	s, err := New(testServerConfig("127.0.0.1:0"), r, discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.MountConfig("/config", newTestDoc(t))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/config/nope", nil)
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("got status %d", rec.Code)
	}
}

func TestMountConfigPatchAppliesAndReturnsNewValue(t *testing.T) {
	r := chi.NewRouter()
	s, err := New(testServerConfig("127.0.0.1:0"), r, discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.MountConfig("/config", newTestDoc(t))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/config/server/listen_addr", strings.NewReader(`":9090"`))
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, body %q", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != `{"server":{"listen_addr":":9090"}}` {
		t.Fatalf("got body %q", got)
	}
}

func TestMountConfigPatchDeclinedOnMissingIntermediate(t *testing.T) {
	r := chi.NewRouter()
	s, err := New(testServerConfig("127.0.0.1:0"), r, discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.MountConfig("/config", newTestDoc(t))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/config/missing/nested/leaf", strings.NewReader(`1`))
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("got status %d", rec.Code)
	}
}
