// Package rawcol renders a Diff as raw multicolumn output: one line per
// merged line, prefixed with an N-wide column of per-file markers.
//
// Grounded on Quuxplusone/difdef's diffn_main.cc, which predates the
// ifdef reconstructor entirely and was the original tool's default
// output mode.
package rawcol

import (
	"strings"

	"github.com/ndiffmerge/ndiffmerge/internal/core/diffengine"
	"github.com/ndiffmerge/ndiffmerge/internal/core/lstore"
)

// columnLetter returns diffn_main.cc's column marker for file index i:
// 'a'..'z' for i in [0,25], then 'A' upward for i >= 26.
func columnLetter(i int) byte {
	if i < 26 {
		return 'a' + byte(i)
	}
	return 'A' + byte(i-26)
}

// Render writes one line of output per DiffLine in d: an N-wide prefix
// with columnLetter(i) at position i when file i contains the line,
// a space otherwise, followed by the line's text.
func Render(d diffengine.Diff, store *lstore.Store) string {
	var b strings.Builder
	prefix := make([]byte, d.Dimension)
	for _, dl := range d.Lines {
		for i := 0; i < d.Dimension; i++ {
			if dl.Mask.HasFile(i) {
				prefix[i] = columnLetter(i)
			} else {
				prefix[i] = ' '
			}
		}
		b.Write(prefix)
		b.WriteString(store.Text(dl.Ref))
		b.WriteByte('\n')
	}
	return b.String()
}
