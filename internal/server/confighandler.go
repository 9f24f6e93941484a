package server

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/genhoi/unit/internal/configdoc"
	"github.com/genhoi/unit/internal/value"
)

// MountConfig wires GET/PATCH routes for a live configdoc.Doc onto the
// server's router at prefix+"/*", exposing the same op-chain compiler and
// executor internal/configdoc drives for file-backed overlay patches.
func (s *Server) MountConfig(prefix string, doc *configdoc.Doc) {
	s.router.Get(prefix+"/*", func(w http.ResponseWriter, r *http.Request) {
		path := chi.URLParam(r, "*")
		v, ok := doc.Get("/" + path)
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(value.Print(v, value.Options{}))
	})

	s.router.Patch(prefix+"/*", func(w http.ResponseWriter, r *http.Request) {
		path := chi.URLParam(r, "*")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}

		var val *value.Value
		if len(body) > 0 {
			a := doc.Arena()
			parsed, err := value.Parse(body, a)
			if err != nil {
				http.Error(w, "invalid json body", http.StatusBadRequest)
				return
			}
			val = &parsed
		}

		out, status, err := doc.Patch("/"+path, val)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if status != 0 {
			http.Error(w, "patch declined", http.StatusConflict)
			return
		}
		s.metrics.PatchApplied()

		w.Header().Set("Content-Type", "application/json")
		w.Write(value.Print(out, value.Options{}))
	})

	s.router.Get(prefix, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(value.Print(doc.Root(), value.Options{Pretty: true}))
	})
}
