package cstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMachine_BlockComment(t *testing.T) {
	var m Machine
	m.Update("int x; /* start of")
	assert.True(t, m.InComment)
	m.Update("a comment")
	assert.True(t, m.InComment)
	m.Update("end */ int y;")
	assert.False(t, m.InComment)
	assert.False(t, m.InSomething())
}

func TestMachine_LineCommentResetsState(t *testing.T) {
	var m Machine
	m.Update(`x = "unterminated // not really a comment inside a string`)
	// the line comment marker inside the string is lexically irrelevant,
	// but resync() unconditionally clears string/char state at EOL when
	// there's no continuation backslash.
	assert.False(t, m.InSomething())
}

func TestMachine_BackslashContinuation(t *testing.T) {
	var m Machine
	m.Update(`#define FOO(x) \`)
	assert.True(t, m.InBackslash)
	m.Update(`  (x) + 1`)
	assert.False(t, m.InBackslash)
}

func TestMachine_StringWithEscapedQuote(t *testing.T) {
	var m Machine
	m.Update(`char *s = "a\"b";`)
	assert.False(t, m.InSomething())
}

func TestMachine_CharLiteral(t *testing.T) {
	var m Machine
	m.Update(`char c = 'x';`)
	assert.False(t, m.InSomething())
}

func TestMachine_Reset(t *testing.T) {
	var m Machine
	m.Update("/* unterminated")
	assert.True(t, m.InComment)
	m.Reset()
	assert.False(t, m.InSomething())
}
