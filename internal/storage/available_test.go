package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailableList_AppendAndDedup(t *testing.T) {
	path := filepath.Join(t.TempDir(), AvailableFile)

	list, err := OpenAvailableList(path)
	require.NoError(t, err)
	require.NoError(t, list.Append("zz.li"))
	require.NoError(t, list.Append("aa.li"))
	require.NoError(t, list.Append("zz.li"))
	assert.Equal(t, 2, list.Len())
	require.NoError(t, list.Close())

	reopened, err := OpenAvailableList(path)
	require.NoError(t, err)
	require.NoError(t, reopened.Append("aa.li"))
	require.NoError(t, reopened.Append("bb.li"))
	require.NoError(t, reopened.Close())

	domains, err := ReadAvailable(path)
	require.NoError(t, err)
	// Discovery order, not lexicographic.
	assert.Equal(t, []string{"zz.li", "aa.li", "bb.li"}, domains)
}

func TestAvailableList_DropsPartialLastLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), AvailableFile)
	require.NoError(t, os.WriteFile(path, []byte("# header\naa.li\nbb.l"), 0644))

	domains, err := ReadAvailable(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"aa.li"}, domains)

	list, err := OpenAvailableList(path)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Len())
	require.NoError(t, list.Append("bb.li"))
	require.NoError(t, list.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# header\naa.li\nbb.li\n", string(data))
}
