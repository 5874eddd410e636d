package server

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ndiffmerge/ndiffmerge/internal/bundle"
	"github.com/ndiffmerge/ndiffmerge/internal/core/ifdef"
	"github.com/ndiffmerge/ndiffmerge/internal/mergejob"
	"github.com/ndiffmerge/ndiffmerge/internal/storage"
	"github.com/ndiffmerge/ndiffmerge/internal/templates"
)

func (s *Server) loadBundle(r *http.Request, id string) ([]bundle.File, storage.Job, error) {
	job, err := s.Jobs.GetJob(id)
	if err != nil {
		return nil, storage.Job{}, err
	}
	if job.IsZero() {
		return nil, storage.Job{}, storage.ErrNotFound
	}

	archive, err := s.Storage.Get(r.Context(), id)
	if err != nil {
		return nil, storage.Job{}, err
	}
	gzr, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return nil, storage.Job{}, err
	}
	defer gzr.Close()
	packed, err := io.ReadAll(gzr)
	if err != nil {
		return nil, storage.Job{}, err
	}

	files, err := bundle.Unpack(packed)
	if err != nil {
		return nil, storage.Job{}, err
	}
	return files, job, nil
}

func (s *Server) view(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	files, job, err := s.loadBundle(r, id)
	if err != nil {
		return err
	}

	inputs := make([]mergejob.Input, len(files))
	names := make([]string, len(files))
	macros := make([]ifdef.MacroName, len(files))
	for i, f := range files {
		inputs[i] = mergejob.Input{Name: f.Name, Data: f.Data}
		names[i] = f.Name
		macros[i] = mergejob.DefaultMacroName(f.Name)
	}

	result, err := mergejob.Merge(inputs)
	if err != nil {
		return err
	}

	ifdefOut, err := mergejob.RenderIfdef(result, names, macros)
	if err != nil {
		w.Header().Set(ctHeader, ctPlain)
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprintf(w, "error: %v\n", err)
		return nil
	}

	var unifiedOut string
	if job.Dimension == 2 {
		context := 3
		if c, err := strconv.Atoi(r.URL.Query().Get("c")); err == nil {
			context = max(0, min(1000, c))
		}
		unifiedOut, err = mergejob.RenderUnifiedContext(result,
			mergejob.NowHeader(names[0]), mergejob.NowHeader(names[1]), context)
		if err != nil {
			return err
		}
	}

	if !isBrowser(r) || r.URL.Query().Has("raw") {
		w.Header().Set(ctHeader, ctPlain)
		if unifiedOut != "" && r.URL.Query().Has("unified") {
			w.Write([]byte(unifiedOut))
			return nil
		}
		w.Write([]byte(ifdefOut))
		return nil
	}

	return templates.Templates.ExecuteTemplate(w, "job.tmpl", &templates.JobTemplateData{
		ID:       id,
		Names:    names,
		Ifdef:    ifdefOut,
		Unified:  unifiedOut,
		TwoFiles: job.Dimension == 2,
	})
}

func (s *Server) viewFile(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		return errUsage
	}

	files, _, err := s.loadBundle(r, id)
	if err != nil {
		return err
	}
	if n < 0 || n >= len(files) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("not found\n"))
		return nil
	}

	w.Header().Set(ctHeader, ctPlain)
	w.Write(files[n].Data)
	return nil
}
