// Package server exposes mergejob over HTTP: upload an N-file bundle,
// get back a content-addressed link; visiting it renders the ifdef
// reconstruction, and for a 2-file job, also the unified diff.
//
// Grounded on teacher's pkg/http (routes.go/http.go/serve.go/upload.go),
// generalized from a fixed red/green pair to an N-file bundle.
package server

import (
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ndiffmerge/ndiffmerge/internal/storage"
	"github.com/ndiffmerge/ndiffmerge/internal/templates"
)

// Server holds the dependencies an ndiffmerge HTTP front end needs.
type Server struct {
	PublicURL string
	Storage   storage.Storage
	Jobs      *storage.JobDB
	Output    io.Writer
}

// Router builds the chi router: GET/POST "/" for the landing page and
// upload, GET "/{id}" for a rendered job, GET "/{id}/file/{n}" to fetch
// back one reconstituted input verbatim.
func (s *Server) Router() chi.Router {
	if s.Output == nil {
		s.Output = os.Stdout
	}
	rt := chi.NewRouter()
	rt.Use(
		middleware.RealIP,
		middleware.RequestLogger(&middleware.DefaultLogFormatter{
			Logger: log.New(s.Output, "", log.LstdFlags),
		}),
		middleware.Recoverer,
		middleware.Timeout(time.Second*60),
	)
	rt.Get("/", s.index)
	rt.Post("/", s.e(s.upload))
	rt.Get("/{id}", s.e(s.view))
	rt.Get("/{id}/file/{n}", s.e(s.viewFile))
	return rt
}

const (
	ctHeader = "Content-Type"
	ctPlain  = "text/plain; charset=utf-8"
)

var (
	reBrowser = regexp.MustCompile("(?i)(?:chrome|firefox|safari|gecko)/")
	errUsage  = errors.New("")
)

func isBrowser(r *http.Request) bool {
	return reBrowser.MatchString(r.UserAgent())
}

func (s *Server) usageString() []byte {
	return []byte("usage: curl -F file=@a.c -F file=@b.c -F file=@c.c " + s.PublicURL + "\n")
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	if !isBrowser(r) {
		w.Header().Set(ctHeader, ctPlain)
		w.Write(s.usageString())
		return
	}
	templates.Templates.ExecuteTemplate(w, "index.tmpl", struct{ PublicURL string }{s.PublicURL})
}

// e wraps a fallible handler with the shared error-reporting path, the
// same shape as teacher's routes.go Server.e.
func (s *Server) e(fn func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}
		if errors.Is(err, errUsage) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write(s.usageString())
			return
		}
		if errors.Is(err, storage.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("not found\n"))
			return
		}
		log.Printf("request error: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("500 internal server error\n"))
	}
}
