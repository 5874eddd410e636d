package ifdef

import (
	"github.com/ndiffmerge/ndiffmerge/internal/core/diffengine"
	"github.com/ndiffmerge/ndiffmerge/internal/core/directive"
	"github.com/ndiffmerge/ndiffmerge/internal/core/lstore"
)

// splitRanges detects #if...#endif ranges whose internal mask topology
// can't be expressed faithfully as nested directives — some file's own
// directive sequence inside the range would come out wrong if framed
// around the merged lines as they stand — and replaces just that range
// with a plain per-file concatenation (duplicating text across the
// split versions), trading a larger rendering for a correct one.
//
// Grounded on Quuxplusone/difdef's src/ifdefs.cc
// (split_if_elif_ranges_by_version).
func (r *Reconstructor) splitRanges(lines []diffengine.DiffLine, dimension int) []diffengine.DiffLine {
	for i := 0; i < len(lines); i++ {
		if !directive.MatchesIfKind(r.text(lines[i].Ref)) {
			continue
		}

		desiredMask := lines[i].Mask
		endOfRange := len(lines)
		needSplit := false
		nest := make([][]byte, dimension)

		for j := i; j < len(lines); j++ {
			if lines[j].Mask&^desiredMask != 0 {
				needSplit = true
			}

			text := r.text(lines[j].Ref)
			isIf := directive.MatchesIfKind(text)
			isElif := directive.Matches(text, "elif")
			isElse := directive.Matches(text, "else")
			isEndif := directive.Matches(text, "endif")
			isAnything := isIf || isElif || isElse || isEndif

			if isAnything && lines[j].Mask != desiredMask {
				wantLen := 1
				if isIf {
					wantLen = 0
				}
				for v := 0; v < dimension; v++ {
					if lines[j].Mask.HasFile(v) && len(nest[v]) == wantLen {
						needSplit = true
					}
				}
			}

			switch {
			case isIf:
				for v := 0; v < dimension; v++ {
					if lines[j].Mask.HasFile(v) {
						nest[v] = append(nest[v], 'i')
					}
				}
			case isElse:
				for v := 0; v < dimension; v++ {
					if lines[j].Mask.HasFile(v) {
						nest[v][len(nest[v])-1] = 'e'
					}
				}
			case isEndif:
				for v := 0; v < dimension; v++ {
					if lines[j].Mask.HasFile(v) {
						nest[v] = nest[v][:len(nest[v])-1]
					}
				}
				done := true
				for v := 0; v < dimension; v++ {
					if len(nest[v]) != 0 {
						done = false
						break
					}
				}
				if done {
					endOfRange = j + 1
					j = len(lines) // break outer loop
				}
			}
		}

		if !needSplit {
			continue
		}

		splitVersions := make([][]diffengine.DiffLine, dimension)
		for j := i; j < endOfRange; j++ {
			for v := 0; v < dimension; v++ {
				if lines[j].Mask.HasFile(v) {
					splitVersions[v] = append(splitVersions[v], lines[j])
				}
			}
		}
		var replacement []diffengine.DiffLine
		for v := 0; v < dimension; v++ {
			vmask := lstore.Bit(v)
			for _, dl := range splitVersions[v] {
				replacement = append(replacement, diffengine.DiffLine{Ref: dl.Ref, Mask: vmask})
			}
		}

		tail := append([]diffengine.DiffLine(nil), lines[endOfRange:]...)
		lines = append(lines[:i:i], replacement...)
		lines = append(lines, tail...)
		i += len(replacement) - 1
	}
	return lines
}
