package lcs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassical_SimpleCase(t *testing.T) {
	a := []string{"a", "b", "c", "b", "d", "a", "b"}
	b := []string{"b", "d", "c", "a", "b", "a"}
	got := Classical(a, b)
	assert.True(t, isSubsequence(got, a))
	assert.True(t, isSubsequence(got, b))
	assert.Equal(t, bruteForceLCSLen(a, b), len(got))
}

func TestClassical_TieBreakPrefersLeft(t *testing.T) {
	// a[i-1] dropped (left branch) and b[j-1] dropped (right branch)
	// produce equal-length results here; the left branch must win.
	a := []string{"x", "y"}
	b := []string{"y", "x"}
	got := Classical(a, b)
	assert.Equal(t, []string{"x"}, got)
}

func TestClassical_NoCommonElements(t *testing.T) {
	assert.Empty(t, Classical([]string{"a"}, []string{"b"}))
}

func TestClassical_EmptyInputs(t *testing.T) {
	assert.Empty(t, Classical([]string{}, []string{}))
}

func TestClassical_IdenticalSequences(t *testing.T) {
	a := []int{1, 2, 3}
	assert.Equal(t, a, Classical(a, a))
}

func isSubsequence[T comparable](sub, full []T) bool {
	i := 0
	for _, x := range full {
		if i < len(sub) && sub[i] == x {
			i++
		}
	}
	return i == len(sub)
}

func bruteForceLCSLen(a, b []string) int {
	n, m := len(a), len(b)
	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] > dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}
	return dp[n][m]
}
