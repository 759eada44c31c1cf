package suite

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"geotab/internal/columns"
	"geotab/internal/fsutil"
	"geotab/internal/record"
)

// CumulativeResult lists the files written for a collection.
type CumulativeResult struct {
	ID      string
	Volumes int
	Files   []string
}

// Meta flattens r for job results.
func (r CumulativeResult) Meta() map[string]any {
	return map[string]any{
		"cumulative": r.ID,
		"volumes":    r.Volumes,
		"files":      r.Files,
	}
}

// Cumulative concatenates the tables of every volume of collection found
// under root into <outRoot>/<id>/<id>_<type>, where id is the collection's
// cumulative volume ID. Volumes contribute in lexical order. Tables no
// volume produced are not written.
func Cumulative(ctx context.Context, root, outRoot, collection string, levels []columns.Level, logger *slog.Logger) (CumulativeResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	id := fsutil.CumulativeID(collection)
	res := CumulativeResult{ID: id}

	glob, err := fsutil.VolumeGlob(collection)
	if err != nil {
		return res, err
	}
	vols, err := fsutil.ListVolumes(root, glob, []string{id})
	if err != nil {
		return res, fmt.Errorf("list volumes of %s: %w", collection, err)
	}
	res.Volumes = len(vols)

	tables := []record.Table{record.InventoryTable{}}
	for _, l := range levels {
		tables = append(tables, record.Tables(l, 0)...)
	}

	outDir := filepath.Join(outRoot, id)
	for _, t := range tables {
		var lines []string
		for _, v := range vols {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			path := filepath.Join(v.Dir, record.FileName(t, v.ID))
			if !fsutil.HasMatch(v.Dir, filepath.Base(path)) {
				continue
			}
			got, err := fsutil.ReadLines(path)
			if err != nil {
				return res, fmt.Errorf("read %s: %w", path, err)
			}
			lines = append(lines, got...)
		}
		if len(lines) == 0 {
			continue
		}
		name := record.FileName(t, id)
		if err := fsutil.WriteLines(filepath.Join(outDir, name), lines); err != nil {
			return res, fmt.Errorf("write %s: %w", name, err)
		}
		logger.Info("cumulative table written", "file", name, "lines", len(lines))
		res.Files = append(res.Files, name)
	}
	if len(res.Files) == 0 {
		logger.Warn("no tables to concatenate", "collection", collection, "volumes", strings.Join(volumeIDs(vols), ","))
	}
	return res, nil
}

func volumeIDs(vols []fsutil.Volume) []string {
	ids := make([]string, len(vols))
	for i, v := range vols {
		ids[i] = v.ID
	}
	return ids
}
