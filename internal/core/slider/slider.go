// Package slider implements the cosmetic mask-boundary re-alignment
// pass described in spec §4.5: nudging a mask transition onto a
// curly-brace or blank-line boundary when doing so is provably safe.
//
// A boundary may only be relocated across a run of textually identical
// lines — reassigning which position carries which mask is invisible to
// every file's reconstructed output only when the content at the
// repositioned slots is the same, which is exactly the scenario C-family
// formatting habitually produces around an #if/#endif (runs of blank
// lines, runs of closing braces). This is a deliberately scoped subset
// of the general heuristic: per spec §9's Open Questions, the pass may
// be conservative without compromising correctness, since any
// unslid boundary is still a valid re-segmentation.
package slider

import (
	"strings"

	"github.com/ndiffmerge/ndiffmerge/internal/core/diffengine"
	"github.com/ndiffmerge/ndiffmerge/internal/core/lstore"
)

// TextOf resolves a LineRef to its text, typically lstore.Store.Text.
type TextOf func(lstore.LineRef) string

// Slide returns a copy of d with mask boundaries nudged toward brace or
// blank-line edges where it is safe to do so.
func Slide(d diffengine.Diff, textOf TextOf) diffengine.Diff {
	lines := append([]diffengine.DiffLine(nil), d.Lines...)

	for i := 1; i < len(lines); i++ {
		inner := lines[i-1].Mask
		outer := lines[i].Mask
		if inner == outer || inner == 0 || !outer.Contains(inner) {
			continue
		}

		lo := i
		for lo > 0 && lines[lo-1].Mask == inner {
			lo--
		}
		if lo == 0 || lines[lo-1].Mask != outer {
			continue // no upstream block matching outer
		}
		hi := i
		for hi < len(lines) && lines[hi].Mask == outer {
			hi++
		}

		best := i
		bestPriority := priority(textOf(lines[i-1].Ref))

		// Slide down: lines[j] may join the inner region as long as it
		// duplicates lines[lo+j-i], which then takes the outer role.
		for j := i; j < hi && lo+j-i < i; j++ {
			if textOf(lines[j].Ref) != textOf(lines[lo+j-i].Ref) {
				break
			}
			if p := priority(textOf(lines[j].Ref)); p > bestPriority {
				bestPriority = p
				best = j + 1
			}
		}
		// Slide up: lines[j-1] may join the outer region as long as it
		// duplicates upstream outer line lines[lo+j-i-1], which then takes the inner role.
		for j := i; j > lo && lo+j-i-1 >= 0 && lines[lo+j-i-1].Mask == outer; j-- {
			if textOf(lines[j-1].Ref) != textOf(lines[lo+j-i-1].Ref) {
				break
			}
			if p := priority(textOf(lines[j-2].Ref)); p > bestPriority {
				bestPriority = p
				best = j - 1
			}
		}

		switch {
		case best > i:
			for k := i; k < best; k++ {
				lines[k].Mask = inner
				lines[lo+k-i].Mask = outer
			}
		case best < i:
			for k := best; k < i; k++ {
				lines[k].Mask = outer
				lines[lo+k-i].Mask = inner
			}
		}
		i = best
	}

	return diffengine.Diff{Dimension: d.Dimension, UnionMask: d.UnionMask, Lines: lines}
}

// priority scores a line's desirability as a mask-boundary edge: a
// closing brace scores higher the closer to column 0, a blank line
// scores low but nonzero, anything else scores zero.
func priority(text string) int {
	trimmed := strings.TrimLeft(text, " \t")
	if trimmed == "" {
		if text == "" {
			return 1
		}
		return 1
	}
	if trimmed[0] == '}' {
		col := len(text) - len(trimmed)
		p := 100 - col
		if p < 10 {
			return 10
		}
		return p
	}
	return 0
}
