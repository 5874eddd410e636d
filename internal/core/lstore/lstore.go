// Package lstore interns text lines and tracks, for each distinct line,
// how many times it occurs in each of the N input files being merged.
//
// A LineStore is the sole owner of line text; every other package in
// internal/core holds non-owning LineRef values and compares them by
// identity, never by content.
package lstore

import "fmt"

// LineRef is an interned line. Two LineRefs compare equal (==) iff their
// textual content is equal. The zero LineRef is the one a Store returns
// for the first text it interns.
type LineRef struct {
	id int
}

// Store interns lines and maintains an occurrence count per file.
//
// Interning is stable for the lifetime of the Store: a LineRef returned
// by one Intern call compares equal, by identity, to the LineRef
// returned by every later Intern call on the same text.
type Store struct {
	numFiles int
	index    map[string]int
	text     []string
	counts   [][]int // counts[id][fileID]
}

// New creates a Store for numFiles input files.
func New(numFiles int) *Store {
	if numFiles <= 0 {
		panic("lstore: numFiles must be positive")
	}
	return &Store{
		numFiles: numFiles,
		index:    make(map[string]int),
	}
}

// NumFiles returns the dimension the Store was created with.
func (s *Store) NumFiles() int { return s.numFiles }

// Intern returns the canonical LineRef for text, incrementing the
// occurrence count for fileID. The first Intern of a given text
// allocates a zeroed occurrence row of width NumFiles().
func (s *Store) Intern(fileID int, text string) LineRef {
	if fileID < 0 || fileID >= s.numFiles {
		panic(fmt.Sprintf("lstore: fileID %d out of range [0,%d)", fileID, s.numFiles))
	}
	id, ok := s.index[text]
	if !ok {
		id = len(s.text)
		s.index[text] = id
		s.text = append(s.text, text)
		s.counts = append(s.counts, make([]int, s.numFiles))
	}
	s.counts[id][fileID]++
	return LineRef{id: id}
}

// Text returns the interned text for ref.
func (s *Store) Text(ref LineRef) string {
	return s.text[ref.id]
}

// Occurrences returns a read-only view of the per-file occurrence row
// for ref. It panics if ref's id lies outside the range of lines this
// Store has interned — an invariant violation, not a user-facing error.
// A LineRef from another Store whose id happens to be in range is not
// detected.
func (s *Store) Occurrences(ref LineRef) []int {
	if ref.id < 0 || ref.id >= len(s.counts) {
		panic("lstore: occurrences of unknown LineRef")
	}
	return s.counts[ref.id]
}

// Equal reports whether a and b are the same interned line.
func (s *Store) Equal(a, b LineRef) bool {
	return a.id == b.id
}

// InternAll interns every line of text (a file's full contents, already
// split into lines) under fileID, returning the resulting LineRef
// sequence in order.
func (s *Store) InternAll(fileID int, lines []string) []LineRef {
	out := make([]LineRef, len(lines))
	for i, l := range lines {
		out[i] = s.Intern(fileID, l)
	}
	return out
}
