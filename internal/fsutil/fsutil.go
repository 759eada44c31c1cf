package fsutil

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// skipMarker excludes a directory tree from volume discovery.
const skipMarker = "__skip"

// Volume is one volume directory of a collection.
type Volume struct {
	ID  string
	Dir string
}

// VolumeGlob builds the glob matching every volume of a collection, e.g.
// "GO_0xxx" becomes "GO_0[0-9][0-9][0-9]".
func VolumeGlob(collection string) (string, error) {
	i := strings.LastIndexByte(collection, '_')
	if i < 0 {
		return "", fmt.Errorf("fsutil: collection %q has no volume number", collection)
	}
	return collection[:i+1] + strings.ReplaceAll(collection[i+1:], "x", "[0-9]"), nil
}

// CumulativeID is the volume ID of a collection's cumulative tables, e.g.
// "GO_0xxx" becomes "GO_0999".
func CumulativeID(collection string) string {
	i := strings.LastIndexByte(collection, '_')
	return collection[:i+1] + strings.ReplaceAll(collection[i+1:], "x", "9")
}

// ListVolumes returns the directories under root whose names match glob, in
// lexical order. Any directory whose path contains an element listed in
// exclude, or the skip marker, is left out.
func ListVolumes(root, glob string, exclude []string) ([]Volume, error) {
	if _, err := filepath.Match(glob, ""); err != nil {
		return nil, fmt.Errorf("fsutil: bad volume glob %q: %w", glob, err)
	}
	var vols []Volume
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(path), "/")
		if slices.Contains(parts, skipMarker) {
			return filepath.SkipDir
		}
		for _, x := range exclude {
			if slices.Contains(parts, x) {
				return filepath.SkipDir
			}
		}
		if ok, _ := filepath.Match(glob, d.Name()); ok {
			vols = append(vols, Volume{ID: d.Name(), Dir: path})
			return filepath.SkipDir
		}
		return nil
	})
	return vols, err
}

// HasMatch reports whether any file in dir matches pattern.
func HasMatch(dir, pattern string) bool {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	return err == nil && len(matches) > 0
}

// WriteLines writes lines terminated by CRLF, replacing path atomically.
func WriteLines(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, l := range lines {
		if _, err := w.WriteString(l + "\r\n"); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadLines reads a text file, dropping line terminators.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	return lines, sc.Err()
}

// FirstExisting returns the first path that exists.
func FirstExisting(paths ...string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
