package patience

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLCS_SimpleUniqueTokens(t *testing.T) {
	a := []string{"a", "b", "c", "d", "e"}
	b := []string{"d", "a", "c", "e", "b"}
	got := LCS(a, b)
	assert.Equal(t, []string{"a", "c", "e"}, got)
}

func TestLCS_NoCommonElements(t *testing.T) {
	a := []string{"a", "b"}
	b := []string{"c", "d"}
	assert.Empty(t, LCS(a, b))
}

func TestLCS_IdenticalSequences(t *testing.T) {
	a := []string{"a", "b", "c"}
	got := LCS(a, a)
	assert.Equal(t, a, got)
}

func TestLCS_EmptyInputs(t *testing.T) {
	assert.Nil(t, LCS([]string{}, []string{}))
}

func TestLCS_PreservesOrderOfA(t *testing.T) {
	a := []int{1, 2, 3, 4}
	b := []int{4, 3, 2, 1}
	got := LCS(a, b)
	// Only a single element of a monotonically increasing-in-b subsequence
	// can be chosen from a reversed permutation; any singleton is valid,
	// but it must appear in a's order (trivially true for length <= 1).
	assert.LessOrEqual(t, len(got), 1)
}

func TestLCS_PanicsOnLengthMismatch(t *testing.T) {
	assert.Panics(t, func() {
		LCS([]string{"a"}, []string{"a", "b"})
	})
}
