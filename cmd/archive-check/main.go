// archive-check reads every observation of one volume's backplane archive
// and reports what the tables would see: grid sizes, primaries and the
// bodies in the field of view.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"geotab/internal/backplane"
	"geotab/internal/bodies"
	"geotab/internal/fsutil"
	"geotab/internal/suite"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: archive-check <volume_dir>")
		os.Exit(2)
	}
	dir := filepath.Clean(os.Args[1])
	vol := fsutil.Volume{ID: filepath.Base(dir), Dir: dir}

	src, err := backplane.OpenArchive(suite.ArchivePath(vol), 1)
	if err != nil {
		log.Fatal("Failed to open archive:", err)
	}
	defer src.Close()

	primaries, err := bodies.NewTable(bodies.GalileoEras, bodies.GalileoBases)
	if err != nil {
		log.Fatal("Failed to build primary table:", err)
	}

	ctx := context.Background()
	list, err := src.Observations(ctx)
	if err != nil {
		log.Fatal("Failed to list observations:", err)
	}
	fmt.Printf("Volume %s: %d observations\n", vol.ID, len(list))

	var unavailable, failed int
	for _, obs := range list {
		p, err := src.Provider(ctx, obs)
		if errors.Is(err, backplane.ErrDataUnavailable) {
			unavailable++
			fmt.Printf("  %s: no geometry\n", obs)
			continue
		}
		if err != nil {
			failed++
			fmt.Printf("  %s: %v\n", obs, err)
			continue
		}

		primary, secondaries, err := primaries.Primary(obs.SCLK)
		if err != nil {
			failed++
			fmt.Printf("  %s: %v\n", obs, err)
			continue
		}
		var names []string
		if primary != "" {
			names = append(names, primary)
		}
		names = append(names, secondaries...)
		if obs.Target != "" {
			names = append(names, bodies.Translate(obs.Target))
		}
		shape := p.Shape()
		fmt.Printf("  %s: %dx%d target=%s primary=%s in field=[%s]\n",
			obs, shape.Cols, shape.Rows, obs.Target, primary, strings.Join(p.Inventory(names), " "))
	}

	fmt.Printf("Checked %d observations: %d without geometry, %d failed\n", len(list), unavailable, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
