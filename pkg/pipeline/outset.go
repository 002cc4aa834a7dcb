package pipeline

import (
	"fmt"

	"github.com/csites/osm2svg4opcd/pkg/clip"
	"github.com/csites/osm2svg4opcd/pkg/outset"
	"github.com/csites/osm2svg4opcd/pkg/path"
	"github.com/csites/osm2svg4opcd/pkg/svg"
)

// Outset runs stage 3: grow every feature whose style selected it for outset
// correction by its configured distance.
//
// Correction failures (offsetting erased the geometry, or the subpath never
// closed) keep the original path and are reported as warnings.
func Outset(doc *svg.Document, opts Options) (*svg.Document, []string) {
	opts.SetOutsetDefaults()
	eng := clip.NewEngine()

	out := cloneDocument(doc)
	var warnings []string
	for i := range out.Features {
		f := &out.Features[i]
		if !f.Outset {
			continue
		}
		distance := f.OutsetDistance
		if distance == 0 {
			distance = opts.OutsetDistance
		}

		corrected := make([]path.Path, len(f.Paths))
		copy(corrected, f.Paths)
		for j, p := range f.Paths {
			if !p.Closed {
				continue
			}
			fixed, err := outset.Correct(p, outset.Options{
				Distance:       distance,
				SamplesPerUnit: opts.SamplesPerUnit,
				MinSamples:     opts.MinSamples,
			}, eng)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: %v", f.ID, err))
				continue
			}
			corrected[j] = fixed
		}
		f.Paths = corrected
	}
	return out, warnings
}
