// Package mergejob wires together the internal/core packages into the
// handful of end-to-end operations the CLI and the server both need:
// turn a set of named input files into a merged Diff, then render it in
// one of the three output modes.
//
// Grounded on how teacher's pkg/diff sat between pkg/http and cmd/*,
// giving both a single shared entry point instead of duplicating the
// diff/render call sequence in two places.
package mergejob

import (
	"fmt"
	"strings"
	"time"

	"github.com/ndiffmerge/ndiffmerge/internal/core/diffengine"
	"github.com/ndiffmerge/ndiffmerge/internal/core/ifdef"
	"github.com/ndiffmerge/ndiffmerge/internal/core/lstore"
	"github.com/ndiffmerge/ndiffmerge/internal/core/rawcol"
	"github.com/ndiffmerge/ndiffmerge/internal/core/slider"
	"github.com/ndiffmerge/ndiffmerge/internal/core/unified"
)

// Input is one named file to merge.
type Input struct {
	Name string
	Data []byte
}

// Result bundles a merged Diff with the LineStore that owns its text.
type Result struct {
	Store *lstore.Store
	Diff  diffengine.Diff
}

// splitLines splits s into lines the way the core packages expect: no
// trailing empty element for a final newline, since that's an artifact
// of the input's formatting, not a line of content.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

// Merge interns every input's lines and folds them into a single Diff,
// in argument order, then applies the cosmetic boundary slide.
func Merge(inputs []Input) (Result, error) {
	if len(inputs) < 1 {
		return Result{}, fmt.Errorf("mergejob: need at least 1 file, got %d", len(inputs))
	}
	if len(inputs) > lstore.MaxFiles {
		return Result{}, fmt.Errorf("mergejob: %d files exceeds the %d-file limit", len(inputs), lstore.MaxFiles)
	}

	store := lstore.New(len(inputs))
	refs := make([][]lstore.LineRef, len(inputs))
	for i, in := range inputs {
		refs[i] = store.InternAll(i, splitLines(string(in.Data)))
	}

	eng := diffengine.New(store)
	d := eng.Merge(len(inputs), refs)
	d = slider.Slide(d, store.Text)

	return Result{Store: store, Diff: d}, nil
}

// DefaultMacroName derives a builtin macro name from a file name the
// way a user invoking the CLI without -macro would expect: the
// extension-less base name, upper-cased, with every run of characters
// that can't appear in a C identifier collapsed to a single underscore.
func DefaultMacroName(filename string) ifdef.MacroName {
	base := filename
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	var b strings.Builder
	prevUnderscore := false
	for _, r := range base {
		isIdent := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		switch {
		case isIdent:
			b.WriteRune(r)
			prevUnderscore = false
		case !prevUnderscore:
			b.WriteByte('_')
			prevUnderscore = true
		}
	}
	name := strings.ToUpper(strings.Trim(b.String(), "_"))
	if name == "" {
		name = "FILE"
	}
	return ifdef.MacroName{Name: name, Builtin: true}
}

// RenderRaw renders r in raw multicolumn form.
func RenderRaw(r Result) string {
	return rawcol.Render(r.Diff, r.Store)
}

// RenderIfdef validates r's input nesting and renders ifdef-framed
// source, using macros (or DefaultMacroName-derived names if macros is
// nil) for the directive conditions.
func RenderIfdef(r Result, names []string, macros []ifdef.MacroName) (string, error) {
	if macros == nil {
		macros = make([]ifdef.MacroName, len(names))
		for i, n := range names {
			macros[i] = DefaultMacroName(n)
		}
	}
	rec := ifdef.New(r.Store)
	if err := rec.Validate(r.Diff, names); err != nil {
		return "", err
	}
	return rec.Render(r.Diff, macros)
}

// RenderUnified renders a GNU-compatible unified diff. It is only valid
// for a 2-file Result.
func RenderUnified(r Result, a, b unified.FileHeader) (string, error) {
	return unified.Render(r.Diff, r.Store, a, b, 3)
}

// RenderUnifiedContext is RenderUnified with an explicit context size.
func RenderUnifiedContext(r Result, a, b unified.FileHeader, context int) (string, error) {
	return unified.Render(r.Diff, r.Store, a, b, context)
}

// NowHeader returns a FileHeader for name stamped with the current
// time, for CLI invocations where no better modification time exists.
func NowHeader(name string) unified.FileHeader {
	return unified.FileHeader{Name: name, ModTime: time.Now()}
}
