package ifdef

import (
	"fmt"
	"strings"

	"github.com/ndiffmerge/ndiffmerge/internal/core/diffengine"
	"github.com/ndiffmerge/ndiffmerge/internal/core/lstore"
)

// frame tracks one open #if's current branch (ifMask) and the union of
// every branch already taken inside it (elseMask), so a later line can
// be recognized as continuing the same nest via #elif/#else instead of
// opening a fresh nested #if.
type frame struct {
	ifMask   lstore.Mask
	elseMask lstore.Mask
}

// emit walks the (already coalesced/split/collapsed) line stream and
// frames it with #if/#elif/#else/#endif directives, per spec §4.8
// phase 5. The stack's bottom frame is a sentinel covering every file,
// so the top-level lines (common to all inputs) never themselves sit
// inside a directive.
func (r *Reconstructor) emit(lines []diffengine.DiffLine, dimension int, macros []MacroName) string {
	allBuiltin := true
	for _, m := range macros {
		if !m.Builtin {
			allBuiltin = false
			break
		}
	}
	useIfdefForm := dimension == 2 && allBuiltin

	var b strings.Builder
	stack := []frame{{ifMask: lstore.AllFiles(dimension)}}

	emitEndif := func(f frame) {
		names := macroNames(f.ifMask|f.elseMask, dimension, macros, false)
		fmt.Fprintf(&b, "#endif /* %s */\n", strings.Join(names, " || "))
	}
	emitIf := func(m lstore.Mask) {
		if useIfdefForm && m.PopCount() == 1 {
			fmt.Fprintf(&b, "#ifdef %s\n", macros[m.Files()[0]].Name)
			return
		}
		names := macroNames(m, dimension, macros, true)
		fmt.Fprintf(&b, "#if %s\n", strings.Join(names, " || "))
	}

	for _, dl := range lines {
		m := dl.Mask
	transition:
		for {
			top := stack[len(stack)-1]
			if m == top.ifMask {
				break transition
			}

			if len(stack) >= 2 {
				enclosing := stack[len(stack)-2]
				if enclosing.ifMask.Contains(m) && m.Disjoint(top.ifMask|top.elseMask) {
					elseBefore := top.elseMask
					top.elseMask |= top.ifMask
					top.ifMask = m
					stack[len(stack)-1] = top

					remaining := enclosing.ifMask &^ (top.ifMask | top.elseMask)
					if remaining == 0 && elseBefore == 0 {
						b.WriteString("#else\n")
					} else {
						names := macroNames(m, dimension, macros, true)
						fmt.Fprintf(&b, "#elif %s\n", strings.Join(names, " || "))
					}
					break transition
				}
			}

			if !top.ifMask.Contains(m) {
				emitEndif(top)
				stack = stack[:len(stack)-1]
				continue
			}

			stack = append(stack, frame{ifMask: m})
			emitIf(m)
			break transition
		}

		b.WriteString(r.text(dl.Ref))
		b.WriteByte('\n')
	}

	for len(stack) > 1 {
		emitEndif(stack[len(stack)-1])
		stack = stack[:len(stack)-1]
	}

	return b.String()
}

// macroNames lists the macro names for every file bit set in m. When
// asDefined is true this is the #if/#elif rendering: builtin macros get
// wrapped in defined(...), non-builtin ones (arbitrary expressions) are
// emitted verbatim. The #endif comment always uses the plain form.
func macroNames(m lstore.Mask, dimension int, macros []MacroName, asDefined bool) []string {
	var out []string
	for i := 0; i < dimension; i++ {
		if !m.HasFile(i) {
			continue
		}
		name := macros[i].Name
		if asDefined && macros[i].Builtin {
			name = fmt.Sprintf("defined(%s)", name)
		}
		out = append(out, name)
	}
	return out
}
