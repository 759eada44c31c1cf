package suite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geotab/internal/backplane"
	"geotab/internal/bodies"
	"geotab/internal/columns"
	"geotab/internal/format"
	"geotab/internal/fsutil"
	"geotab/internal/grid"
	"geotab/internal/storage"
	"geotab/internal/tiles"
)

// fakeSource serves in-memory providers. Observations listed in missing
// fail with ErrDataUnavailable; those in broken panic.
type fakeSource struct {
	obs     []backplane.Observation
	missing map[int64]bool
	broken  map[int64]bool
}

func (f *fakeSource) Observations(ctx context.Context) ([]backplane.Observation, error) {
	return f.obs, ctx.Err()
}

func (f *fakeSource) Provider(_ context.Context, obs backplane.Observation) (backplane.Provider, error) {
	if f.missing[obs.ID] {
		return nil, fmt.Errorf("%s: %w", obs, backplane.ErrDataUnavailable)
	}
	if f.broken[obs.ID] {
		panic("corrupt label")
	}
	return backplane.NewMemory(grid.Shape{Rows: 4, Cols: 4}).InField("JUPITER", "IO"), nil
}

func (f *fakeSource) Close() error { return nil }

func observations(n int) []backplane.Observation {
	out := make([]backplane.Observation, n)
	for i := range out {
		base := fmt.Sprintf("C03496%02d100R", i)
		out[i] = backplane.Observation{
			ID:       int64(i + 1),
			FileSpec: "C03/" + base + ".IMG",
			Basename: base,
			SCLK:     "03496321.00",
			Target:   "IO",
			Shape:    grid.Shape{Rows: 4, Cols: 4},
		}
	}
	return out
}

func newOptions(t *testing.T, store *storage.Store) Options {
	t.Helper()
	table, err := bodies.NewTable(bodies.GalileoEras, bodies.GalileoBases)
	require.NoError(t, err)
	return Options{
		Levels:    []columns.Level{columns.Summary, columns.Detailed},
		Workers:   3,
		TilingMin: 100,
		Primaries: table,
		RunID:     "run-1",
		Store:     store,
	}
}

func TestRunWritesTablesAndSkipsFailures(t *testing.T) {
	out := t.TempDir()
	store, err := storage.New(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer store.Close()

	src := &fakeSource{
		obs:     observations(4),
		missing: map[int64]bool{2: true},
		broken:  map[int64]bool{3: true},
	}
	vol := fsutil.Volume{ID: "GO_0017", Dir: out}
	res, err := New(vol, out, src, newOptions(t, store)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, res.Observations)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 2, res.Failed)
	assert.Contains(t, res.Files, "GO_0017_inventory.csv")
	assert.Contains(t, res.Files, "GO_0017_body_summary.tab")
	assert.Contains(t, res.Files, "GO_0017_sky_detailed.tab")

	inv, err := fsutil.ReadLines(filepath.Join(out, "GO_0017_inventory.csv"))
	require.NoError(t, err)
	require.Len(t, inv, 2)
	assert.Contains(t, inv[0], "C0349600100R.LBL")
	assert.Contains(t, inv[1], "C0349603100R.LBL")

	failures, err := store.ObservationFailures("run-1")
	require.NoError(t, err)
	require.Len(t, failures, 2)
	assert.Equal(t, "warn", failures[0].Severity)
	assert.Equal(t, "error", failures[1].Severity)
	assert.Contains(t, failures[1].Message, "corrupt label")

	vols, err := store.VolumeResults("run-1")
	require.NoError(t, err)
	require.Len(t, vols, 1)
	assert.Equal(t, res.Files, vols[0].Tables)
}

func TestRunHonorsFirst(t *testing.T) {
	out := t.TempDir()
	opts := newOptions(t, nil)
	opts.First = 2
	opts.Levels = []columns.Level{columns.Summary}

	res, err := New(fsutil.Volume{ID: "GO_0017", Dir: out}, out, &fakeSource{obs: observations(5)}, opts).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Observations)
	assert.NotContains(t, res.Files, "GO_0017_body_detailed.tab")

	inv, err := fsutil.ReadLines(filepath.Join(out, "GO_0017_inventory.csv"))
	require.NoError(t, err)
	assert.Len(t, inv, 2)
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := t.TempDir()
	_, err := New(fsutil.Volume{ID: "GO_0017", Dir: out}, out, &fakeSource{obs: observations(3)}, newOptions(t, nil)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsConfigDefect(t *testing.T) {
	assert.True(t, IsConfigDefect(fmt.Errorf("ring: %w", format.ErrColumnOverflow)))
	assert.True(t, IsConfigDefect(fmt.Errorf("body: %w", format.ErrUnknownFormat)))
	assert.True(t, IsConfigDefect(fmt.Errorf("tiles: %w", tiles.ErrMalformedRule)))
	assert.False(t, IsConfigDefect(backplane.ErrDataUnavailable))
	assert.False(t, IsConfigDefect(errors.New("index out of range")))
}

func TestCumulativeConcatenatesVolumes(t *testing.T) {
	root := filepath.Join(t.TempDir(), "GO_0xxx")
	for _, v := range []string{"GO_0017", "GO_0002"} {
		dir := filepath.Join(root, v)
		require.NoError(t, fsutil.WriteLines(filepath.Join(dir, v+"_inventory.csv"), []string{`"` + v + `","a"`}))
	}
	require.NoError(t, fsutil.WriteLines(filepath.Join(root, "GO_0017", "GO_0017_sky_summary.tab"), []string{`"GO_0017",1`}))

	res, err := Cumulative(context.Background(), root, root, "GO_0xxx", []columns.Level{columns.Summary}, nil)
	require.NoError(t, err)
	assert.Equal(t, "GO_0999", res.ID)
	assert.Equal(t, 2, res.Volumes)
	assert.Equal(t, []string{"GO_0999_inventory.csv", "GO_0999_sky_summary.tab"}, res.Files)

	got, err := fsutil.ReadLines(filepath.Join(root, "GO_0999", "GO_0999_inventory.csv"))
	require.NoError(t, err)
	assert.Equal(t, []string{`"GO_0002","a"`, `"GO_0017","a"`}, got)

	// The cumulative directory is not itself a source on a second pass.
	res, err = Cumulative(context.Background(), root, root, "GO_0xxx", []columns.Level{columns.Summary}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Volumes)
	_, err = os.Stat(filepath.Join(root, "GO_0999", "GO_0999_body_summary.tab"))
	assert.True(t, os.IsNotExist(err))
}
