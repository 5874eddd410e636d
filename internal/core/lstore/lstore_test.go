package lstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternDeduplicates(t *testing.T) {
	s := New(2)
	a := s.Intern(0, "hello")
	b := s.Intern(1, "hello")
	assert.True(t, s.Equal(a, b))
	assert.Equal(t, "hello", s.Text(a))
}

func TestInternDistinctText(t *testing.T) {
	s := New(2)
	a := s.Intern(0, "foo")
	b := s.Intern(0, "bar")
	assert.False(t, s.Equal(a, b))
}

func TestOccurrencesCountsPerFile(t *testing.T) {
	s := New(3)
	ref := s.Intern(0, "x")
	s.Intern(1, "x")
	s.Intern(1, "x")
	s.Intern(2, "y")

	occ := s.Occurrences(ref)
	require.Len(t, occ, 3)
	assert.Equal(t, 1, occ[0])
	assert.Equal(t, 2, occ[1])
	assert.Equal(t, 0, occ[2])
}

func TestInternAll(t *testing.T) {
	s := New(1)
	refs := s.InternAll(0, []string{"a", "b", "a"})
	require.Len(t, refs, 3)
	assert.True(t, s.Equal(refs[0], refs[2]))
	assert.False(t, s.Equal(refs[0], refs[1]))
}

func TestIntern_FileIDOutOfRangePanics(t *testing.T) {
	s := New(1)
	assert.Panics(t, func() { s.Intern(1, "x") })
}

func TestMaskContainsAndDisjoint(t *testing.T) {
	a := Bit(0) | Bit(1)
	b := Bit(0)
	assert.True(t, a.Contains(b))
	assert.False(t, b.Contains(a))
	assert.True(t, b.Disjoint(Bit(2)))
	assert.False(t, a.Disjoint(b))
}

func TestMaskFilesAndPopCount(t *testing.T) {
	m := Bit(0) | Bit(3)
	assert.Equal(t, []int{0, 3}, m.Files())
	assert.Equal(t, 2, m.PopCount())
}

func TestAllFiles(t *testing.T) {
	assert.Equal(t, Mask(0b111), AllFiles(3))
	assert.Equal(t, ^Mask(0), AllFiles(MaxFiles))
}
