package archive

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZip_EntriesInOrder(t *testing.T) {
	w := NewZip().Create()
	require.NoError(t, w.Add("page-1.jpg", []byte("one")))
	require.NoError(t, w.Add("page-2.jpg", []byte("two")))
	require.NoError(t, w.Add("notes.txt", []byte("three three three")))

	data, err := w.Finalize()
	require.NoError(t, err)

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, r.File, 3)

	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"page-1.jpg", "page-2.jpg", "notes.txt"}, names)
	assert.Equal(t, zip.Store, r.File[0].Method)
	assert.Equal(t, zip.Deflate, r.File[2].Method)

	rc, err := r.File[1].Open()
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "two", string(content))
}

func TestZip_AddAfterFinalize(t *testing.T) {
	w := NewZip().Create()
	_, err := w.Finalize()
	require.NoError(t, err)

	assert.Error(t, w.Add("late.txt", nil))
	_, err = w.Finalize()
	assert.Error(t, err)
}
