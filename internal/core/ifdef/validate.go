package ifdef

import (
	"fmt"

	"github.com/ndiffmerge/ndiffmerge/internal/core/diffengine"
	"github.com/ndiffmerge/ndiffmerge/internal/core/directive"
)

// Validate replays each input file's own directive subsequence through
// a pushdown automaton and reports the first structural problem found,
// phrased in terms of that file's own line numbers — a user-facing
// error, not a panic, since malformed nesting is a property of the
// input, not a bug in this program.
//
// fileNames must have length d.Dimension and is used only for error
// text.
func (r *Reconstructor) Validate(d diffengine.Diff, fileNames []string) error {
	if len(fileNames) != d.Dimension {
		return fmt.Errorf("ifdef: got %d file names for a %d-file diff", len(fileNames), d.Dimension)
	}

	type frame struct{ isElse bool }
	nest := make([][]frame, d.Dimension)
	lineno := make([]int, d.Dimension)

	for _, dl := range d.Lines {
		text := r.text(dl.Ref)
		for v := 0; v < d.Dimension; v++ {
			if dl.Mask.HasFile(v) {
				lineno[v]++
			}
		}

		isIf := directive.MatchesIfKind(text)
		isElif := directive.Matches(text, "elif")
		isElse := directive.Matches(text, "else")
		isEndif := directive.Matches(text, "endif")
		if !(isIf || isElif || isElse || isEndif) {
			continue
		}

		for v := 0; v < d.Dimension; v++ {
			if !dl.Mask.HasFile(v) {
				continue
			}

			if (isElif || isElse || isEndif) && len(nest[v]) == 0 {
				kind := "#endif"
				switch {
				case isElif:
					kind = "#elif"
				case isElse:
					kind = "#else"
				}
				return fmt.Errorf("file %s, line %d: %s with no preceding #if", fileNames[v], lineno[v], kind)
			}
			if (isElif || isElse) && len(nest[v]) > 0 && nest[v][len(nest[v])-1].isElse {
				kind := "#elif"
				if isElse {
					kind = "#else"
				}
				return fmt.Errorf("file %s, line %d: unexpected %s following an #else", fileNames[v], lineno[v], kind)
			}

			switch {
			case isIf:
				nest[v] = append(nest[v], frame{})
			case isElse:
				nest[v][len(nest[v])-1].isElse = true
			case isEndif:
				nest[v] = nest[v][:len(nest[v])-1]
			}
		}
	}

	for v := 0; v < d.Dimension; v++ {
		if len(nest[v]) != 0 {
			return fmt.Errorf("at end of file %s: expected #endif", fileNames[v])
		}
	}
	return nil
}
