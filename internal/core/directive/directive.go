// Package directive recognizes C preprocessor conditional directives by
// their textual prefix: #if, #ifdef, #ifndef, #elif, #else, #endif.
//
// Grounded on Quuxplusone/difdef's src/verify.cc (matches_pp_directive,
// matches_if_directive).
package directive

import "strings"

// Matches reports whether line is a preprocessor directive spelled
// exactly word — leading whitespace before the '#' and before word are
// skipped, and word must be followed by whitespace or end of line.
func Matches(line, word string) bool {
	p := skipSpace(line)
	if p == "" || p[0] != '#' {
		return false
	}
	p = skipSpace(p[1:])
	if !strings.HasPrefix(p, word) {
		return false
	}
	rest := p[len(word):]
	return rest == "" || isSpace(rest[0])
}

// MatchesIfKind reports whether line opens a conditional block: #if,
// #ifdef, or #ifndef.
func MatchesIfKind(line string) bool {
	return Matches(line, "if") || Matches(line, "ifdef") || Matches(line, "ifndef")
}

func skipSpace(s string) string {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return s[i:]
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
