package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/thehowl/cford32"
	"go.uber.org/multierr"

	"github.com/ndiffmerge/ndiffmerge/internal/bundle"
	"github.com/ndiffmerge/ndiffmerge/internal/storage"
)

const (
	maxBodySize        = 4 << 20 // 4M; bundles can hold many files.
	maxMultipartMemory = maxBodySize
)

var gzipWriterPool = sync.Pool{
	New: func() any { return &gzip.Writer{} },
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("error: " + err.Error() + "\n"))
		w.Write(s.usageString())
		return nil
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) < 1 {
		return errUsage
	}

	bfiles := make([]bundle.File, len(files))
	names := make([]string, len(files))
	for i, fh := range files {
		data, err := readFormFile(fh)
		if err != nil {
			return err
		}
		bfiles[i] = bundle.File{Name: fh.Filename, Data: data}
		names[i] = fh.Filename
	}
	packed := bundle.Pack(bfiles)

	var buf bytes.Buffer
	gz := gzipWriterPool.Get().(*gzip.Writer)
	gz.Reset(&buf)
	if _, err := gz.Write(packed); err != nil {
		gzipWriterPool.Put(gz)
		return err
	}
	if err := gz.Close(); err != nil {
		gzipWriterPool.Put(gz)
		return err
	}
	gzipWriterPool.Put(gz)
	archive := buf.Bytes()

	shaHash := sha256.Sum256(archive)
	id := cford32.EncodeToStringLower(shaHash[:5])
	link := s.PublicURL + "/" + id
	respond := func() {
		w.Header().Set(ctHeader, ctPlain)
		w.Header().Set("Location", link)
		w.WriteHeader(http.StatusFound)
		w.Write([]byte(link + "\n"))
	}

	has, err := s.Jobs.HasJob(id)
	if err != nil {
		return err
	}
	if has {
		respond()
		return nil
	}

	if err := s.Storage.Put(r.Context(), id, archive); err != nil {
		return err
	}

	err = s.Jobs.PutJob(id, storage.Job{
		CreatedAt: time.Now(),
		Sum:       hex.EncodeToString(shaHash[:]),
		Dimension: len(files),
		FileNames: names,
		Mode:      "ifdef",
	})
	if err != nil {
		// background -> best-effort cleanup even if the request is canceled
		return multierr.Combine(err, s.Storage.Del(context.Background(), id))
	}

	respond()
	return nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, 0, fh.Size)
	b := bytes.NewBuffer(buf)
	if _, err := b.ReadFrom(f); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
