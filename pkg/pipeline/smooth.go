package pipeline

import (
	"fmt"

	"github.com/csites/osm2svg4opcd/pkg/feature"
	"github.com/csites/osm2svg4opcd/pkg/path"
	"github.com/csites/osm2svg4opcd/pkg/smooth"
	"github.com/csites/osm2svg4opcd/pkg/svg"
)

// Smooth runs stage 2: fit auto-smooth cubic curves through the nodes of
// every path in the document. The input document is not modified. Warnings
// name features whose degenerate nodes kept retracted handles.
func Smooth(doc *svg.Document, opts Options) (*svg.Document, []string) {
	opts.SetSmoothDefaults()

	out := cloneDocument(doc)
	var warnings []string
	for i := range out.Features {
		f := &out.Features[i]
		fitted := make([]path.Path, len(f.Paths))
		for j, p := range f.Paths {
			fp, ws := smooth.Fit(p, smooth.Options{Tightness: opts.Tightness})
			fitted[j] = fp
			for _, w := range ws {
				warnings = append(warnings, fmt.Sprintf("%s: %s", f.ID, w))
			}
		}
		f.Paths = fitted
	}
	return out, warnings
}

// cloneDocument copies the document and its feature slice so stages can
// rewrite features without aliasing their input.
func cloneDocument(doc *svg.Document) *svg.Document {
	features := make([]feature.Feature, len(doc.Features))
	copy(features, doc.Features)
	return &svg.Document{
		Width:    doc.Width,
		Height:   doc.Height,
		RunID:    doc.RunID,
		Features: features,
	}
}
