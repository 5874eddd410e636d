// Package unified renders a two-file diffengine.Diff as a
// GNU-compatible unified diff: "--- a"/"+++ b" file headers, "@@ @@"
// hunk headers with 1-based line ranges, and merged hunks when the
// unchanged gap between two change regions is small enough that
// showing it as context costs less than splitting it into two hunks.
//
// Unlike the ifdef reconstructor, this package consumes an
// already-folded 2-file Diff directly rather than computing its own
// diff — the same Diff produced by diffengine.Engine.Merge for a
// 2-file input can be rendered either way.
//
// Grounded on Quuxplusone/difdef's src/unified.cc
// (do_print_unified_diff).
package unified

import (
	"fmt"
	"strings"
	"time"

	"github.com/ndiffmerge/ndiffmerge/internal/core/diffengine"
	"github.com/ndiffmerge/ndiffmerge/internal/core/lstore"
)

// FileHeader supplies the name and modification time shown in a unified
// diff's "--- "/"+++ " header lines.
type FileHeader struct {
	Name    string
	ModTime time.Time
}

type lineOp struct {
	kind byte // ' ', '-', or '+'
	text string
}

// Render produces a unified diff of d, which must have dimension 2.
// context is the number of unchanged lines shown around each change;
// a non-positive context still produces valid output (zero lines of
// surrounding context).
func Render(d diffengine.Diff, store *lstore.Store, a, b FileHeader, context int) (string, error) {
	if d.Dimension != 2 {
		return "", fmt.Errorf("unified: diff must have dimension 2, got %d", d.Dimension)
	}
	if context < 0 {
		context = 0
	}

	bitA, bitB := lstore.Bit(0), lstore.Bit(1)
	both := bitA | bitB

	ops := make([]lineOp, len(d.Lines))
	aNumBefore := make([]int, len(d.Lines)+1)
	bNumBefore := make([]int, len(d.Lines)+1)

	for i, dl := range d.Lines {
		text := store.Text(dl.Ref)
		aNumBefore[i+1] = aNumBefore[i]
		bNumBefore[i+1] = bNumBefore[i]
		switch dl.Mask {
		case both:
			ops[i] = lineOp{' ', text}
			aNumBefore[i+1]++
			bNumBefore[i+1]++
		case bitA:
			ops[i] = lineOp{'-', text}
			aNumBefore[i+1]++
		case bitB:
			ops[i] = lineOp{'+', text}
			bNumBefore[i+1]++
		default:
			return "", fmt.Errorf("unified: unexpected mask %v in a 2-file diff", dl.Mask)
		}
	}

	spans := changeSpans(ops)
	if len(spans) == 0 {
		return "", nil
	}
	merged := mergeSpans(spans, context)

	var out strings.Builder
	fmt.Fprintf(&out, "--- %s\t%s\n", a.Name, formatTimestamp(a.ModTime))
	fmt.Fprintf(&out, "+++ %s\t%s\n", b.Name, formatTimestamp(b.ModTime))

	for _, sp := range merged {
		start := sp[0] - context
		if start < 0 {
			start = 0
		}
		end := sp[1] + context
		if end > len(ops) {
			end = len(ops)
		}

		aCount := aNumBefore[end] - aNumBefore[start]
		bCount := bNumBefore[end] - bNumBefore[start]
		aStart := aNumBefore[start] + 1
		bStart := bNumBefore[start] + 1
		if aCount == 0 {
			aStart = aNumBefore[start]
		}
		if bCount == 0 {
			bStart = bNumBefore[start]
		}

		fmt.Fprintf(&out, "@@ -%s +%s @@\n", formatRange(aStart, aCount), formatRange(bStart, bCount))
		for _, op := range ops[start:end] {
			out.WriteByte(op.kind)
			out.WriteString(op.text)
			out.WriteByte('\n')
		}
	}

	return out.String(), nil
}

// changeSpans returns the [start,end) index ranges of ops that are
// maximal runs of non-context lines.
func changeSpans(ops []lineOp) [][2]int {
	var spans [][2]int
	i := 0
	for i < len(ops) {
		if ops[i].kind == ' ' {
			i++
			continue
		}
		j := i
		for j < len(ops) && ops[j].kind != ' ' {
			j++
		}
		spans = append(spans, [2]int{i, j})
		i = j
	}
	return spans
}

// mergeSpans combines adjacent change spans whenever the unchanged gap
// between them is small enough that both sides' requested context would
// cover it anyway (gap <= 2*context), producing one hunk instead of two
// abutting ones.
func mergeSpans(spans [][2]int, context int) [][2]int {
	merged := [][2]int{spans[0]}
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s[0]-last[1] <= 2*context {
			last[1] = s[1]
		} else {
			merged = append(merged, s)
		}
	}
	return merged
}

func formatRange(start, count int) string {
	switch count {
	case 0:
		return fmt.Sprintf("%d,0", start)
	case 1:
		return fmt.Sprintf("%d", start)
	default:
		return fmt.Sprintf("%d,%d", start, count)
	}
}

func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05.000000000 -0700")
}
