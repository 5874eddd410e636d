package ifdef

import (
	"github.com/ndiffmerge/ndiffmerge/internal/core/diffengine"
	"github.com/ndiffmerge/ndiffmerge/internal/core/lstore"
)

// collapseBlankLines reduces each run of blank lines according to the
// masks of the lines bordering it: when the two border masks agree, it
// keeps only as many blank lines as there are blanks whose mask already
// covers that shared mask; when they differ, the run becomes a single
// blank line carrying both border masks — keeping directive
// framing from being needlessly surrounded by a pile of near-duplicate
// blank lines from every input file.
//
// Grounded on Quuxplusone/difdef's src/ifdefs.cc (collapse_blank_lines).
func (r *Reconstructor) collapseBlankLines(lines []diffengine.DiffLine, dimension int) []diffengine.DiffLine {
	allMask := lstore.AllFiles(dimension)

	for i := 0; i < len(lines); i++ {
		if r.text(lines[i].Ref) != "" {
			continue
		}
		end := i
		for end < len(lines) && r.text(lines[end].Ref) == "" {
			end++
		}

		startMask := allMask
		if i > 0 {
			startMask = lines[i-1].Mask
		}
		endMask := allMask
		if end < len(lines) {
			endMask = lines[end].Mask
		}

		want := 1
		if startMask == endMask {
			want = 0
			for j := i; j < end; j++ {
				if lines[j].Mask.Contains(startMask) {
					want++
				}
			}
		}

		for j := i; j < i+want; j++ {
			lines[j].Mask = startMask | endMask
		}
		lines = append(lines[:i+want], lines[end:]...)
		i += want - 1
	}
	return lines
}
