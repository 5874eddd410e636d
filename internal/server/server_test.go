package server

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/ndiffmerge/ndiffmerge/internal/storage"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	bdb, err := bbolt.Open(filepath.Join(t.TempDir(), "db.bolt"), 0o644, nil)
	require.NoError(t, err)
	t.Cleanup(func() { bdb.Close() })

	return &Server{
		PublicURL: "https://ndiffmerge.example",
		Storage:   storage.NewDBStorage(bdb, []byte("storage")),
		Jobs:      storage.NewJobDB(bdb),
		Output:    io.Discard,
	}
}

func multipartFiles(namesContents ...string) (*bytes.Buffer, string) {
	if len(namesContents)%2 != 0 {
		panic("multipartFiles expects an even number of arguments")
	}
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)
	for i := 0; i < len(namesContents); i += 2 {
		name, contents := namesContents[i], namesContents[i+1]
		fw, err := w.CreateFormFile("file", name)
		if err != nil {
			panic(err)
		}
		if _, err := fw.Write([]byte(contents)); err != nil {
			panic(err)
		}
	}
	w.Close()
	return buf, w.FormDataContentType()
}

func TestIndex(t *testing.T) {
	r := newServer(t).Router()

	wri, req := httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil)
	r.ServeHTTP(wri, req)
	assert.Equal(t, 200, wri.Code)
	assert.Contains(t, wri.Body.String(), "usage: curl -F")
}

func TestUpload_RedirectsToJobAndRenders(t *testing.T) {
	r := newServer(t).Router()

	rd, header := multipartFiles(
		"a.c", "common\nonly-a\n",
		"b.c", "common\nonly-b\n",
	)
	wri, req := httptest.NewRecorder(), httptest.NewRequest("POST", "/", rd)
	req.Header.Set("Content-Type", header)
	r.ServeHTTP(wri, req)
	require.Equal(t, http.StatusFound, wri.Code, wri.Body.String())

	loc := wri.Header().Get("Location")
	require.NotEmpty(t, loc)
	path := strings.TrimPrefix(loc, "https://ndiffmerge.example")

	wri, req = httptest.NewRecorder(), httptest.NewRequest("GET", path+"?raw", nil)
	r.ServeHTTP(wri, req)
	require.Equal(t, http.StatusOK, wri.Code, wri.Body.String())
	assert.Contains(t, wri.Body.String(), "common")
	assert.Contains(t, wri.Body.String(), "#if")
}

func TestUpload_Deduplicates(t *testing.T) {
	r := newServer(t).Router()

	rd, header := multipartFiles("a.c", "x\n", "b.c", "y\n")
	body := rd.Bytes()

	wri, req := httptest.NewRecorder(), httptest.NewRequest("POST", "/", bytes.NewReader(body))
	req.Header.Set("Content-Type", header)
	r.ServeHTTP(wri, req)
	loc1 := wri.Header().Get("Location")
	require.NotEmpty(t, loc1)

	wri, req = httptest.NewRecorder(), httptest.NewRequest("POST", "/", bytes.NewReader(body))
	req.Header.Set("Content-Type", header)
	r.ServeHTTP(wri, req)
	loc2 := wri.Header().Get("Location")
	assert.Equal(t, loc1, loc2)
}

func TestUpload_AcceptsSingleFile(t *testing.T) {
	r := newServer(t).Router()

	rd, header := multipartFiles("a.c", "x\n")
	wri, req := httptest.NewRecorder(), httptest.NewRequest("POST", "/", rd)
	req.Header.Set("Content-Type", header)
	r.ServeHTTP(wri, req)
	require.Equal(t, http.StatusFound, wri.Code, wri.Body.String())

	loc := wri.Header().Get("Location")
	require.NotEmpty(t, loc)
	path := strings.TrimPrefix(loc, "https://ndiffmerge.example")

	wri, req = httptest.NewRecorder(), httptest.NewRequest("GET", path+"?raw", nil)
	r.ServeHTTP(wri, req)
	require.Equal(t, http.StatusOK, wri.Code, wri.Body.String())
	assert.Equal(t, "x\n", wri.Body.String(), "a single input has nothing to gate, so it renders verbatim")
}

func TestUpload_RejectsNoFiles(t *testing.T) {
	r := newServer(t).Router()

	rd, header := multipartFiles()
	wri, req := httptest.NewRecorder(), httptest.NewRequest("POST", "/", rd)
	req.Header.Set("Content-Type", header)
	r.ServeHTTP(wri, req)
	assert.Equal(t, http.StatusBadRequest, wri.Code)
	assert.Contains(t, wri.Body.String(), "usage: curl -F")
}

func TestViewFile_ServesOriginalContent(t *testing.T) {
	r := newServer(t).Router()

	rd, header := multipartFiles("a.c", "hello\n", "b.c", "world\n")
	wri, req := httptest.NewRecorder(), httptest.NewRequest("POST", "/", rd)
	req.Header.Set("Content-Type", header)
	r.ServeHTTP(wri, req)
	loc := wri.Header().Get("Location")
	path := strings.TrimPrefix(loc, "https://ndiffmerge.example")

	wri, req = httptest.NewRecorder(), httptest.NewRequest("GET", path+"/file/0", nil)
	r.ServeHTTP(wri, req)
	require.Equal(t, http.StatusOK, wri.Code)
	assert.Equal(t, "hello\n", wri.Body.String())
}

func TestView_UnknownID(t *testing.T) {
	r := newServer(t).Router()
	wri, req := httptest.NewRecorder(), httptest.NewRequest("GET", "/nosuchid", nil)
	r.ServeHTTP(wri, req)
	assert.Equal(t, http.StatusNotFound, wri.Code)
}
