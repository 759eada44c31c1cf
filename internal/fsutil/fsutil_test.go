package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolumeGlob(t *testing.T) {
	g, err := VolumeGlob("GO_0xxx")
	require.NoError(t, err)
	assert.Equal(t, "GO_0[0-9][0-9][0-9]", g)

	g, err = VolumeGlob("JNOJNC_0xxx")
	require.NoError(t, err)
	assert.Equal(t, "JNOJNC_0[0-9][0-9][0-9]", g)

	_, err = VolumeGlob("volumes")
	assert.Error(t, err)

	assert.Equal(t, "GO_0999", CumulativeID("GO_0xxx"))
}

func TestListVolumes(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{
		"GO_0xxx/GO_0017",
		"GO_0xxx/GO_0002/GO_0002",
		"GO_0xxx/GO_0023",
		"GO_0xxx/GO_0999x",
		"GO_0xxx/__skip/GO_0100",
		"GO_0xxx/notes",
	} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}

	vols, err := ListVolumes(root, "GO_0[0-9][0-9][0-9]", []string{"GO_0023"})
	require.NoError(t, err)
	assert.Equal(t, []Volume{
		{ID: "GO_0002", Dir: filepath.Join(root, "GO_0xxx/GO_0002")},
		{ID: "GO_0017", Dir: filepath.Join(root, "GO_0xxx/GO_0017")},
	}, vols)
}

func TestWriteLinesUsesCRLF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "GO_0017_inventory.csv")
	require.NoError(t, WriteLines(path, []string{`"a","b"`, `"c","d"`}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\"a\",\"b\"\r\n\"c\",\"d\"\r\n", string(data))

	lines, err := ReadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{`"a","b"`, `"c","d"`}, lines)

	assert.True(t, HasMatch(filepath.Dir(path), "*_inventory.csv"))
	assert.False(t, HasMatch(filepath.Dir(path), "*_body_summary.tab"))
}

func TestFirstExisting(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, dir, FirstExisting(filepath.Join(dir, "missing"), dir))
	assert.Empty(t, FirstExisting(filepath.Join(dir, "missing")))
}
