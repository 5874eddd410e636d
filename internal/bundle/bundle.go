// Package bundle packs an N-file merge job into a single txtar archive
// and unpacks it again — the format read by the CLI's -bundle flag and
// the one the server stores uploaded files in, so a job's input files
// can travel as one self-contained blob regardless of how many there are.
//
// golang.org/x/tools/txtar is normally a Go toolchain testing format;
// here it's repurposed as a plain, human-editable multi-file container.
package bundle

import (
	"fmt"

	"golang.org/x/tools/txtar"
)

// File is one named input to a merge job.
type File struct {
	Name string
	Data []byte
}

// Pack serializes files into a txtar archive, in order.
func Pack(files []File) []byte {
	a := &txtar.Archive{}
	for _, f := range files {
		a.Files = append(a.Files, txtar.File{Name: f.Name, Data: f.Data})
	}
	return txtar.Format(a)
}

// Unpack parses a txtar archive produced by Pack (or written by hand).
// It rejects an archive with no files at all; N is otherwise only
// bounded above, at 32, by lstore.MaxFiles.
func Unpack(data []byte) ([]File, error) {
	a := txtar.Parse(data)
	if len(a.Files) < 1 {
		return nil, fmt.Errorf("bundle: archive has no files, need at least 1")
	}
	files := make([]File, len(a.Files))
	for i, f := range a.Files {
		files[i] = File{Name: f.Name, Data: f.Data}
	}
	return files, nil
}
