package blob_test

import (
	"path/filepath"
	"testing"

	"github.com/NethermindEth/statedb/blob"
	"github.com/NethermindEth/statedb/core"
	"github.com/NethermindEth/statedb/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() blob.Config {
	return blob.Config{MinSize: 16, MaxSize: 64, GrowthStep: 16}
}

func openFile(t *testing.T, path string, config blob.Config, offset uint64) *blob.File {
	t.Helper()
	f, err := blob.Open(path, config, offset, utils.NewNopZapLogger())
	require.NoError(t, err)
	return f
}

func TestAppendRead(t *testing.T) {
	f := openFile(t, filepath.Join(t.TempDir(), "data"), smallConfig(), 0)
	defer f.Close()

	first, err := f.Append([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, core.LocationInFile{Offset: 0, Len: 5}, first)

	second, err := f.Append([]byte("world!"))
	require.NoError(t, err)
	assert.Equal(t, core.LocationInFile{Offset: 5, Len: 6}, second)
	assert.Equal(t, uint64(11), f.Offset())

	got, err := f.Read(first)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
	got, err = f.Read(second)
	require.NoError(t, err)
	assert.Equal(t, []byte("world!"), got)

	_, err = f.Read(core.LocationInFile{Offset: 10, Len: 5})
	require.ErrorIs(t, err, blob.ErrOutOfRange)
}

func TestGrowth(t *testing.T) {
	f := openFile(t, filepath.Join(t.TempDir(), "data"), smallConfig(), 0)
	defer f.Close()

	// 40 bytes need two growth steps past the 16 byte minimum.
	value := make([]byte, 40)
	for i := range value {
		value[i] = byte(i)
	}
	loc, err := f.Append(value)
	require.NoError(t, err)
	got, err := f.Read(loc)
	require.NoError(t, err)
	assert.Equal(t, value, got)

	_, err = f.Append(make([]byte, 30))
	require.ErrorIs(t, err, blob.ErrFileFull)
	// A failed append leaves the offset alone.
	assert.Equal(t, uint64(40), f.Offset())
}

func TestSetOffsetOverwrites(t *testing.T) {
	f := openFile(t, filepath.Join(t.TempDir(), "data"), smallConfig(), 0)
	defer f.Close()

	_, err := f.Append([]byte("keep"))
	require.NoError(t, err)
	committed := f.Offset()

	_, err = f.Append([]byte("discarded"))
	require.NoError(t, err)
	f.SetOffset(committed)

	loc, err := f.Append([]byte("next"))
	require.NoError(t, err)
	assert.Equal(t, core.LocationInFile{Offset: 4, Len: 4}, loc)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	f := openFile(t, path, smallConfig(), 0)
	loc, err := f.Append([]byte("persisted"))
	require.NoError(t, err)
	require.NoError(t, f.Flush())
	require.NoError(t, f.Close())
	require.ErrorIs(t, f.Close(), blob.ErrClosed)

	f = openFile(t, path, smallConfig(), loc.NextOffset())
	defer f.Close()
	got, err := f.Read(loc)
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), got)
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	config := smallConfig()
	config.EnforceFileExists = true
	_, err := blob.Open(filepath.Join(dir, "missing"), config, 0, utils.NewNopZapLogger())
	require.ErrorIs(t, err, blob.ErrFileMissing)

	_, err = blob.Open(filepath.Join(dir, "data"), smallConfig(), 1000, utils.NewNopZapLogger())
	require.Error(t, err)
}
