// Package watch queues volumes for tabulation when their backplane archives
// appear or change.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"geotab/internal/fsutil"
	"geotab/internal/suite"
)

// DefaultSettle is how long an archive must stay untouched before its
// volume is queued.
const DefaultSettle = 2 * time.Second

// VolumeEvent reports a volume whose archive settled.
type VolumeEvent struct {
	Volume fsutil.Volume `json:"volume"`
	Path   string        `json:"path"`
	Time   time.Time     `json:"time"`
}

// Watcher monitors an input tree for backplane archives.
type Watcher struct {
	watcher *fsnotify.Watcher
	root    string
	glob    string
	settle  time.Duration
	log     *slog.Logger

	mu      sync.Mutex
	pending map[string]time.Time // archive path -> last change
}

// New watches root and every directory below it. Only archives inside
// directories matching glob count.
func New(root, glob string, logger *slog.Logger) (*Watcher, error) {
	if _, err := filepath.Match(glob, ""); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher: fw,
		root:    root,
		glob:    glob,
		settle:  DefaultSettle,
		log:     logger,
		pending: map[string]time.Time{},
	}
	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// SetSettle changes the settle delay. Call before Run.
func (w *Watcher) SetSettle(d time.Duration) {
	if d > 0 {
		w.settle = d
	}
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == "__skip" {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return err
		}
		w.log.Debug("watching directory", "dir", path)
		return nil
	})
}

// Run delivers each settled volume to fn until ctx is done. The watcher is
// closed when Run returns.
func (w *Watcher) Run(ctx context.Context, fn func(VolumeEvent)) error {
	defer w.watcher.Close()

	tick := time.NewTicker(w.settle / 2)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			w.log.Error("filesystem watcher error", "error", err)

		case now := <-tick.C:
			for _, ev := range w.settled(now) {
				w.log.Info("backplane archive settled", "volume", ev.Volume.ID, "path", ev.Path)
				fn(ev)
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.log.Warn("cannot watch new directory", "dir", event.Name, "error", err)
			}
			return
		}
	case event.Op&fsnotify.Write == fsnotify.Write:
	default:
		return
	}

	if _, ok := w.volumeOf(event.Name); !ok {
		return
	}
	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// volumeOf maps an archive path to its volume. The archive must be named
// after a directory that matches the glob.
func (w *Watcher) volumeOf(path string) (fsutil.Volume, bool) {
	dir := filepath.Dir(path)
	id := filepath.Base(dir)
	if ok, _ := filepath.Match(w.glob, id); !ok {
		return fsutil.Volume{}, false
	}
	if filepath.Base(path) != id+suite.ArchiveSuffix {
		return fsutil.Volume{}, false
	}
	if strings.Contains(filepath.ToSlash(dir), "/__skip/") {
		return fsutil.Volume{}, false
	}
	return fsutil.Volume{ID: id, Dir: dir}, true
}

// settled removes and returns the archives untouched for the settle delay.
func (w *Watcher) settled(now time.Time) []VolumeEvent {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []VolumeEvent
	for path, last := range w.pending {
		if now.Sub(last) < w.settle {
			continue
		}
		delete(w.pending, path)
		vol, _ := w.volumeOf(path)
		out = append(out, VolumeEvent{Volume: vol, Path: path, Time: now})
	}
	return out
}
