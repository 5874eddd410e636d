package ifdef

import (
	"github.com/ndiffmerge/ndiffmerge/internal/core/diffengine"
	"github.com/ndiffmerge/ndiffmerge/internal/core/directive"
)

// coalesceEndifs merges an #endif immediately followed by a
// mutually-exclusive block that itself ends in #endif into a single
// #endif covering both masks — the "stupid heuristic" from ifdefs.cc:
// it doesn't try to prove the two blocks are semantically one #if/#else
// pair, it just notices they never overlap and the second one also
// closes cleanly, and merges the framing.
func (r *Reconstructor) coalesceEndifs(lines []diffengine.DiffLine) []diffengine.DiffLine {
	for i := 0; i+1 < len(lines); i++ {
		if !directive.Matches(r.text(lines[i].Ref), "endif") {
			continue
		}
		nextMask := lines[i+1].Mask
		if lines[i].Mask&nextMask != 0 {
			continue // not mutually exclusive
		}

		ni := i + 1
		for ni+1 < len(lines) && lines[ni+1].Mask == nextMask {
			ni++
		}
		if !directive.Matches(r.text(lines[ni].Ref), "endif") {
			continue
		}

		lines[ni].Mask |= lines[i].Mask
		lines = append(lines[:i], lines[i+1:]...)
		i = ni - 1
	}
	return lines
}
