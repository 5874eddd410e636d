package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackUnpack_RoundTrip(t *testing.T) {
	files := []File{
		{Name: "a.c", Data: []byte("one\ntwo\n")},
		{Name: "b.c", Data: []byte("one\nTWO\n")},
	}
	got, err := Unpack(Pack(files))
	require.NoError(t, err)
	assert.Equal(t, files, got)
}

func TestUnpack_SingleFileIsValid(t *testing.T) {
	got, err := Unpack(Pack([]File{{Name: "a.c", Data: []byte("x\n")}}))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestUnpack_RejectsEmptyArchive(t *testing.T) {
	_, err := Unpack(Pack(nil))
	require.Error(t, err)
}
