// Package quicklook renders the tile partition of one observation as a
// grayscale image, one gray level per subregion.
package quicklook

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/gographics/imagick.v3/imagick"

	"geotab/internal/backplane"
	"geotab/internal/grid"
	"geotab/internal/tiles"
)

// LabelMap assigns each sample the index of the subregion holding it, 0
// for samples outside every emitted subregion. Indices continue across
// chained sets the way detailed rows number them.
type LabelMap struct {
	Shape  grid.Shape
	Labels []int
	Max    int
}

// Labels partitions p with sets. A sample in two subregions keeps the
// first. A suppressed set labels nothing but still consumes its indices.
func Labels(p backplane.Provider, sets []tiles.Set, tilingMin int) (LabelMap, error) {
	shape := p.Shape()
	n := shape.Size()
	lm := LabelMap{Shape: shape, Labels: make([]int, n)}

	counter := tiles.NewCounter(1)
	for _, s := range sets {
		masks, _, err := tiles.Partition(p, s, tilingMin)
		if err != nil {
			return LabelMap{}, err
		}
		for k, m := range masks {
			idx := counter.Start() + k
			for i, excluded := range m.Expand(n) {
				if !excluded && lm.Labels[i] == 0 {
					lm.Labels[i] = idx
				}
			}
			lm.Max = max(lm.Max, idx)
		}
		counter.Advance(s)
	}
	return lm, nil
}

// Pixels spreads the labels over [0,1]; unlabeled samples are black.
func (lm LabelMap) Pixels() []float32 {
	out := make([]float32, len(lm.Labels))
	if lm.Max == 0 {
		return out
	}
	for i, l := range lm.Labels {
		out[i] = float32(l) / float32(lm.Max)
	}
	return out
}

// Render writes lm to path as an image scaled up by scale. The format
// follows the file extension.
func Render(path string, lm LabelMap, scale int) error {
	if lm.Shape.Rows == 0 || lm.Shape.Cols == 0 {
		return fmt.Errorf("quicklook: gridless observation")
	}
	if scale < 1 {
		scale = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	imagick.Initialize()
	defer imagick.Terminate()

	mw := imagick.NewMagickWand()
	defer mw.Destroy()

	w, h := uint(lm.Shape.Cols), uint(lm.Shape.Rows)
	if err := mw.ConstituteImage(w, h, "I", imagick.PIXEL_FLOAT, lm.Pixels()); err != nil {
		return fmt.Errorf("quicklook: constitute image: %w", err)
	}
	if err := mw.SetImageColorspace(imagick.COLORSPACE_GRAY); err != nil {
		return err
	}
	if scale > 1 {
		if err := mw.SampleImage(w*uint(scale), h*uint(scale)); err != nil {
			return fmt.Errorf("quicklook: scale image: %w", err)
		}
	}
	return mw.WriteImage(path)
}
