package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geotab/internal/fsutil"
)

func TestVolumeOf(t *testing.T) {
	w := &Watcher{glob: "GO_0[0-9][0-9][0-9]"}

	vol, ok := w.volumeOf("/data/GO_0xxx/GO_0017/GO_0017_backplanes.db")
	require.True(t, ok)
	assert.Equal(t, fsutil.Volume{ID: "GO_0017", Dir: "/data/GO_0xxx/GO_0017"}, vol)

	for _, p := range []string{
		"/data/GO_0xxx/GO_0017/GO_0018_backplanes.db",
		"/data/GO_0xxx/GO_0017/GO_0017_inventory.csv",
		"/data/GO_0xxx/notes/notes_backplanes.db",
		"/data/GO_0xxx/__skip/GO_0017/GO_0017_backplanes.db",
	} {
		_, ok := w.volumeOf(p)
		assert.False(t, ok, p)
	}
}

func TestSettledWaitsForQuiet(t *testing.T) {
	w := &Watcher{glob: "GO_0[0-9][0-9][0-9]", settle: time.Second, pending: map[string]time.Time{}}
	now := time.Now()
	w.handle(fsnotify.Event{Name: "/v/GO_0017/GO_0017_backplanes.db", Op: fsnotify.Write})
	w.handle(fsnotify.Event{Name: "/v/GO_0017/GO_0017_inventory.csv", Op: fsnotify.Write})

	assert.Empty(t, w.settled(now))
	got := w.settled(now.Add(2 * time.Second))
	require.Len(t, got, 1)
	assert.Equal(t, "GO_0017", got[0].Volume.ID)
	assert.Empty(t, w.settled(now.Add(3*time.Second)))
}

func TestRunDeliversNewArchive(t *testing.T) {
	root := t.TempDir()
	volDir := filepath.Join(root, "GO_0017")
	require.NoError(t, os.MkdirAll(volDir, 0o755))

	w, err := New(root, "GO_0[0-9][0-9][0-9]", nil)
	require.NoError(t, err)
	w.SetSettle(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	events := make(chan VolumeEvent, 1)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(ev VolumeEvent) {
			events <- ev
			cancel()
		})
	}()

	require.NoError(t, os.WriteFile(filepath.Join(volDir, "GO_0017_backplanes.db"), []byte("x"), 0o644))

	select {
	case ev := <-events:
		assert.Equal(t, "GO_0017", ev.Volume.ID)
	case <-ctx.Done():
		t.Fatal("no volume event delivered")
	}
	assert.ErrorIs(t, <-done, context.Canceled)
}
