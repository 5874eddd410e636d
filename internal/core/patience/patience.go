// Package patience computes a longest common subsequence of two
// sequences in which every element of one appears exactly once in the
// other, via patience sort.
//
// The algorithm is the classic "patience diff" anchor search: deal each
// element onto the leftmost pile whose top card exceeds it, link it to
// the current top of the pile immediately to its left, and recover the
// LCS by walking the final pile's top backwards through those links.
// See Quuxplusone/difdef's patience.cc for the reference formulation;
// this is the same algorithm with the pile search done by binary search
// (sort.Search) instead of a linear scan, which is the standard Go
// rendering of patience sort (cf. internal/diff's tgs in the pkg/diff
// unified-diff renderer).
package patience

import "sort"

// LCS returns the longest common subsequence of a and b, where a and b
// have equal length and every element of a appears exactly once in b
// and vice versa (a bijection, just permuted). The result is a strict
// subsequence of both a (in a's order) and b (in b's order); ties in
// pile placement favor the leftmost pile. Empty input returns nil.
func LCS[T comparable](a, b []T) []T {
	if len(a) != len(b) {
		panic("patience: a and b must have equal length")
	}
	if len(a) == 0 {
		return nil
	}

	// posInB[x] = index of x within b. Since every element of b is
	// unique (by the uniquely-paired-inputs contract), this is total.
	posInB := make(map[T]int, len(b))
	for i, x := range b {
		posInB[x] = i
	}

	// perm[i] = position in b of a[i]. LCS(a,b) is then the LIS of perm.
	perm := make([]int, len(a))
	for i, x := range a {
		perm[i] = posInB[x]
	}

	indices := lisByPatience(perm)
	out := make([]T, len(indices))
	for i, idx := range indices {
		out[i] = a[idx]
	}
	return out
}

// node is one card placed during the patience sort: value is the index
// into perm/a that this card represents, left is the predecessor card
// in the increasing subsequence ending at this card.
type node struct {
	value int
	left  int // index into nodes, or -1
}

// lisByPatience returns the indices (into perm) of the longest
// increasing subsequence of perm, in increasing order.
func lisByPatience(perm []int) []int {
	var (
		// pileTop[k] = index into nodes of the top card of pile k.
		pileTop []int
		nodes   []node
	)

	for i, val := range perm {
		// Leftmost pile whose top card's perm-value exceeds val.
		k := sort.Search(len(pileTop), func(k int) bool {
			return perm[nodes[pileTop[k]].value] > val
		})
		left := -1
		if k > 0 {
			left = pileTop[k-1]
		}
		n := node{value: i, left: left}
		nodes = append(nodes, n)
		if k == len(pileTop) {
			pileTop = append(pileTop, len(nodes)-1)
		} else {
			pileTop[k] = len(nodes) - 1
		}
	}

	n := len(pileTop)
	result := make([]int, n)
	p := pileTop[n-1]
	for i := n - 1; i >= 0; i-- {
		result[i] = nodes[p].value
		p = nodes[p].left
	}

	return result
}
