// Package diffengine implements the recursive N-way fold algorithm:
// repeatedly combining a growing, tagged Diff with one more input
// file's line sequence, using patience-diff anchors with a classical
// LCS fallback.
//
// Grounded on Quuxplusone/difdef's difdef_impl.cc (add_vec_to_diff /
// add_vec_to_diff_classical / simply_concatenate), translated from
// recursive value-mutation on std::vector into recursive slice-building
// in Go.
package diffengine

import (
	"fmt"

	"github.com/ndiffmerge/ndiffmerge/internal/core/lcs"
	"github.com/ndiffmerge/ndiffmerge/internal/core/lstore"
	"github.com/ndiffmerge/ndiffmerge/internal/core/patience"
)

// DiffLine is one line of a Diff: the interned line plus the set of
// input files it belongs to. Mask is never zero for a line that
// belongs to a Diff.
type DiffLine struct {
	Ref  lstore.LineRef
	Mask lstore.Mask
}

// Diff is an ordered sequence of DiffLines plus the dimension (N) it was
// constructed for and the union of every line's mask folded in so far.
type Diff struct {
	Dimension int
	UnionMask lstore.Mask
	Lines     []DiffLine
}

// NewDiff returns an empty Diff of the given dimension.
func NewDiff(dimension int) Diff {
	if dimension <= 0 || dimension > lstore.MaxFiles {
		panic(fmt.Sprintf("diffengine: dimension %d out of range", dimension))
	}
	return Diff{Dimension: dimension}
}

// IncludesFile reports whether fileID has already been folded into d.
func (d Diff) IncludesFile(fileID int) bool {
	return d.UnionMask.HasFile(fileID)
}

// Engine folds files into Diffs using a shared LineStore for occurrence
// lookups.
type Engine struct {
	Store *lstore.Store
}

// New returns an Engine backed by store.
func New(store *lstore.Store) *Engine {
	return &Engine{Store: store}
}

// Fold produces a new Diff with fileID's lines b folded into d. d's
// UnionMask must be disjoint from fileID's bit; violating this is a
// precondition violation (programmer error), not a user-facing failure.
func (e *Engine) Fold(d Diff, fileID int, b []lstore.LineRef) Diff {
	bmask := lstore.Bit(fileID)
	if !d.UnionMask.Disjoint(bmask) {
		panic(fmt.Sprintf("diffengine: file %d already folded into diff", fileID))
	}
	lines := e.foldLines(d.Lines, d.UnionMask, d.Dimension, fileID, b)
	return Diff{Dimension: d.Dimension, UnionMask: d.UnionMask | bmask, Lines: lines}
}

// Merge folds every file in files, in order, starting from an empty
// Diff of the given dimension.
func (e *Engine) Merge(dimension int, files [][]lstore.LineRef) Diff {
	d := NewDiff(dimension)
	for i, lines := range files {
		d = e.Fold(d, i, lines)
	}
	return d
}

// Concatenate produces a Diff that simply lays every file's lines back
// to back, each tagged with its own single-file mask — no merging at
// all. It is a standalone helper for debugging and comparison; the ifdef
// reconstructor's range-splitting phase builds its own per-file
// concatenation and does not call it.
func Concatenate(dimension int, files [][]lstore.LineRef) Diff {
	d := NewDiff(dimension)
	d.UnionMask = lstore.AllFiles(dimension)
	for v, lines := range files {
		vmask := lstore.Bit(v)
		for _, l := range lines {
			d.Lines = append(d.Lines, DiffLine{Ref: l, Mask: vmask})
		}
	}
	return d
}

// foldLines implements §4.4's recursive fold on explicit slices: aLines
// already carries its own per-line masks (a subset of aMask, the set of
// files already folded into the enclosing Diff); b is the raw line
// sequence of file fileID for this sub-range. It is invoked with the
// full ranges at the top level; sub-ranges appear only via recursion on
// the interstices between anchors, per §4.4's edge policy.
func (e *Engine) foldLines(aLines []DiffLine, aMask lstore.Mask, dimension, fileID int, b []lstore.LineRef) []DiffLine {
	bmask := lstore.Bit(fileID)

	var result []DiffLine

	// Step 1: common prefix (performance only, not correctness).
	i := 0
	for i < len(aLines) && i < len(b) && aLines[i].Ref == b[i] {
		result = append(result, DiffLine{Ref: aLines[i].Ref, Mask: aLines[i].Mask | bmask})
		i++
	}
	ja, jb := len(aLines), len(b)

	// Step 2: unique-anchor extraction.
	ua := e.uniqueAnchors(aLines[i:ja], aMask, dimension, fileID)

	anchorSet := make(map[lstore.LineRef]struct{}, len(ua))
	for _, l := range ua {
		anchorSet[l] = struct{}{}
	}
	var ub []lstore.LineRef
	for _, l := range b[i:jb] {
		if _, ok := anchorSet[l]; ok {
			ub = append(ub, l)
		}
	}
	// Keep only the candidates that also occur in this b remainder, so
	// ua and ub hold the same lines, as patience.LCS requires.
	inB := make(map[lstore.LineRef]struct{}, len(ub))
	for _, l := range ub {
		inB[l] = struct{}{}
	}
	kept := ua[:0]
	for _, l := range ua {
		if _, ok := inB[l]; ok {
			kept = append(kept, l)
		}
	}
	ua = kept

	// Step 3: patience diff over the anchors.
	anchors := patience.LCS(ua, ub)

	if len(anchors) == 0 {
		// Step 4: base case, classical fallback over the full remainders.
		result = append(result, e.classicalFold(aLines[i:ja], fileID, b[i:jb])...)
		return result
	}

	// Step 5-6: recurse on the gaps between anchors, emitting each
	// anchor with the merged mask.
	ak, bk := i, i
	var taBuf []DiffLine
	var tbBuf []lstore.LineRef
	for _, anchor := range anchors {
		for aLines[ak].Ref != anchor {
			taBuf = append(taBuf, aLines[ak])
			ak++
		}
		for b[bk] != anchor {
			tbBuf = append(tbBuf, b[bk])
			bk++
		}
		result = append(result, e.foldLines(taBuf, aMask, dimension, fileID, tbBuf)...)
		taBuf = taBuf[:0]
		tbBuf = tbBuf[:0]

		result = append(result, DiffLine{Ref: aLines[ak].Ref, Mask: aLines[ak].Mask | bmask})
		ak++
		bk++
	}
	for ak < ja {
		taBuf = append(taBuf, aLines[ak])
		ak++
	}
	for bk < jb {
		tbBuf = append(tbBuf, b[bk])
		bk++
	}
	result = append(result, e.foldLines(taBuf, aMask, dimension, fileID, tbBuf)...)

	return result
}

// uniqueAnchors finds the lines of the D-remainder that are candidate
// anchors: occurring exactly once in file fileID, not repeated in any
// file already folded into aMask, and not repeated within this
// remainder itself.
func (e *Engine) uniqueAnchors(aRemainder []DiffLine, aMask lstore.Mask, dimension, fileID int) []lstore.LineRef {
	var ua []lstore.LineRef
	for k, dl := range aRemainder {
		occ := e.Store.Occurrences(dl.Ref)
		if occ[fileID] != 1 {
			continue
		}

		failed := false
		for id := 0; id < dimension && !failed; id++ {
			if aMask.HasFile(id) && occ[id] > 1 {
				failed = true
			}
		}
		if failed {
			continue
		}

		for k2, dl2 := range aRemainder {
			if k2 == k {
				continue
			}
			if dl2.Ref == dl.Ref {
				failed = true
				break
			}
		}
		if failed {
			continue
		}

		ua = append(ua, dl.Ref)
	}
	return ua
}

// classicalFold is the base case of §4.4: no unique anchors were found,
// so fall back to a full classical LCS over the (unpruned) remainders.
// Per the resolved Open Question, aRemainder is used in full — lines of
// a that don't appear anywhere in b are still candidates for the LCS
// computation's A side (they simply can't end up IN the LCS), matching
// the non-pruning source variant so acceptance scenarios match exactly.
func (e *Engine) classicalFold(aRemainder []DiffLine, fileID int, b []lstore.LineRef) []DiffLine {
	bmask := lstore.Bit(fileID)

	aRefs := make([]lstore.LineRef, len(aRemainder))
	for i, dl := range aRemainder {
		aRefs[i] = dl.Ref
	}

	common := lcs.Classical(aRefs, b)

	var result []DiffLine
	ak, bk := 0, 0
	for _, anchor := range common {
		for aRemainder[ak].Ref != anchor {
			result = append(result, aRemainder[ak])
			ak++
		}
		for b[bk] != anchor {
			result = append(result, DiffLine{Ref: b[bk], Mask: bmask})
			bk++
		}
		result = append(result, DiffLine{Ref: aRemainder[ak].Ref, Mask: aRemainder[ak].Mask | bmask})
		ak++
		bk++
	}
	for ; ak < len(aRemainder); ak++ {
		result = append(result, aRemainder[ak])
	}
	for ; bk < len(b); bk++ {
		result = append(result, DiffLine{Ref: b[bk], Mask: bmask})
	}
	return result
}
