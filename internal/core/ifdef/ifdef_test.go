package ifdef

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndiffmerge/ndiffmerge/internal/core/diffengine"
	"github.com/ndiffmerge/ndiffmerge/internal/core/lstore"
)

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func mergeFiles(store *lstore.Store, files ...string) diffengine.Diff {
	refs := make([][]lstore.LineRef, len(files))
	for i, f := range files {
		refs[i] = store.InternAll(i, splitLines(f))
	}
	eng := diffengine.New(store)
	return eng.Merge(len(files), refs)
}

func TestValidate_AcceptsWellNestedInput(t *testing.T) {
	store := lstore.New(1)
	d := mergeFiles(store, "#if A\nx\n#else\ny\n#endif")
	r := New(store)
	assert.NoError(t, r.Validate(d, []string{"f.c"}))
}

func TestValidate_EndifWithoutIf(t *testing.T) {
	store := lstore.New(1)
	d := mergeFiles(store, "x\n#endif")
	r := New(store)
	err := r.Validate(d, []string{"f.c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "with no preceding #if")
}

func TestValidate_ElseAfterElse(t *testing.T) {
	store := lstore.New(1)
	d := mergeFiles(store, "#if A\nx\n#else\ny\n#else\nz\n#endif")
	r := New(store)
	err := r.Validate(d, []string{"f.c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "following an #else")
}

func TestValidate_UnterminatedIf(t *testing.T) {
	store := lstore.New(1)
	d := mergeFiles(store, "#if A\nx\n")
	r := New(store)
	err := r.Validate(d, []string{"A"})
	require.Error(t, err)
	assert.Equal(t, "at end of file A: expected #endif", err.Error())
}

func TestRender_ThreeWayDistinctLines(t *testing.T) {
	store := lstore.New(3)
	d := mergeFiles(store, "x", "y", "z")

	r := New(store)
	out, err := r.Render(d, []MacroName{
		{Name: "X", Builtin: true},
		{Name: "Y", Builtin: true},
		{Name: "Z", Builtin: true},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"#if defined(X)\nx\n#elif defined(Y)\ny\n#elif defined(Z)\nz\n#endif /* X || Y || Z */\n",
		out,
	)
}

func TestRender_TwoWayClassicIfElse(t *testing.T) {
	store := lstore.New(2)
	d := mergeFiles(store, "hdr\nx\nftr", "hdr\ny\nftr")

	r := New(store)
	out, err := r.Render(d, []MacroName{
		{Name: "NAME_A", Builtin: true},
		{Name: "NAME_B", Builtin: true},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"hdr\n#ifdef NAME_A\nx\n#else\ny\n#endif /* NAME_A || NAME_B */\nftr\n",
		out,
	)
}

func TestRender_IdenticalInputsProduceNoDirectives(t *testing.T) {
	store := lstore.New(2)
	d := mergeFiles(store, "hello", "hello")

	r := New(store)
	out, err := r.Render(d, []MacroName{{Name: "A"}, {Name: "B"}})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

func TestCoalesceEndifs_MergesMutuallyExclusiveBlocks(t *testing.T) {
	store := lstore.New(2)
	bitA, bitB := lstore.Bit(0), lstore.Bit(1)

	ifA := store.Intern(0, "#if A")
	x := store.Intern(0, "x")
	endifA := store.Intern(0, "#endif")
	ifB := store.Intern(1, "#if B")
	y := store.Intern(1, "y")
	endifB := store.Intern(1, "#endif")

	lines := []diffengine.DiffLine{
		{Ref: ifA, Mask: bitA},
		{Ref: x, Mask: bitA},
		{Ref: endifA, Mask: bitA},
		{Ref: ifB, Mask: bitB},
		{Ref: y, Mask: bitB},
		{Ref: endifB, Mask: bitB},
	}

	r := New(store)
	got := r.coalesceEndifs(lines)
	require.Len(t, got, 5)
	assert.Equal(t, bitA|bitB, got[4].Mask) // merged endif
}

func TestCollapseBlankLines_Idempotent(t *testing.T) {
	store := lstore.New(2)
	bitA, bitB := lstore.Bit(0), lstore.Bit(1)
	both := bitA | bitB

	header := store.Intern(0, "hdr")
	_ = store.Intern(1, "hdr")
	blank1 := store.Intern(0, "")
	blank2 := store.Intern(1, "")
	body := store.Intern(0, "x")
	_ = store.Intern(1, "x")

	lines := []diffengine.DiffLine{
		{Ref: header, Mask: both},
		{Ref: blank1, Mask: bitA},
		{Ref: blank2, Mask: bitB},
		{Ref: body, Mask: both},
	}

	r := New(store)
	once := r.collapseBlankLines(append([]diffengine.DiffLine(nil), lines...), 2)
	twice := r.collapseBlankLines(append([]diffengine.DiffLine(nil), once...), 2)
	assert.Equal(t, once, twice)
}
