// Package ifdef reconstructs a single C-preprocessor-directive source
// tree from a tagged diffengine.Diff, per spec §4.8: validate that every
// input file's directives are properly nested, coalesce adjacent
// mutually-exclusive #endif blocks, split ranges whose mask topology
// can't be expressed as nested directives, collapse cosmetic blank-line
// runs, and finally emit #if/#elif/#else/#endif framing around the
// merged line stream.
//
// Grounded on Quuxplusone/difdef's src/ifdefs.cc and src/verify.cc.
package ifdef

import (
	"fmt"

	"github.com/ndiffmerge/ndiffmerge/internal/core/diffengine"
	"github.com/ndiffmerge/ndiffmerge/internal/core/lstore"
)

// MacroName names the preprocessor symbol associated with one input
// file's bit. Builtin macros (typically introduced with -D) render as
// defined(NAME) inside #if/#elif and as a bare NAME in #ifdef form;
// non-builtin macros are full boolean expressions and always render
// verbatim (e.g. "VERSION >= 2").
type MacroName struct {
	Name    string
	Builtin bool
}

// Reconstructor rebuilds ifdef-framed source from a Diff, resolving
// line text through store.
type Reconstructor struct {
	Store *lstore.Store
}

// New returns a Reconstructor backed by store.
func New(store *lstore.Store) *Reconstructor {
	return &Reconstructor{Store: store}
}

func (r *Reconstructor) text(ref lstore.LineRef) string {
	return r.Store.Text(ref)
}

// Render runs the full reconstruction pipeline (phases 2-5) and returns
// the merged, ifdef-framed source text. Callers should run Validate
// first; Render does not itself detect malformed per-file nesting.
func (r *Reconstructor) Render(d diffengine.Diff, macros []MacroName) (string, error) {
	if len(macros) != d.Dimension {
		return "", fmt.Errorf("ifdef: got %d macro names for a %d-file diff", len(macros), d.Dimension)
	}

	lines := append([]diffengine.DiffLine(nil), d.Lines...)
	lines = r.coalesceEndifs(lines)
	lines = r.splitRanges(lines, d.Dimension)
	lines = r.collapseBlankLines(lines, d.Dimension)

	return r.emit(lines, d.Dimension, macros), nil
}
