// Package feature defines the styled map shape that flows through the
// pipeline stages.
package feature

import "github.com/csites/osm2svg4opcd/pkg/path"

// Feature is one styled map shape. Paths holds the outer boundary first and
// any holes as further subpaths. Styling fields are resolved from the style
// table before the feature enters the pipeline.
type Feature struct {
	ID    string
	Tag   string // style selector that matched, e.g. "golf.bunker"
	Paths []path.Path

	Fill           string
	Stroke         string
	StrokeWidth    float64
	LineCap        string
	StrokeToPath   bool
	ZOrder         int
	Outset         bool
	OutsetDistance float64
}

// Region reports whether the feature encloses any area, which is the case
// when at least one of its subpaths is closed.
func (f Feature) Region() bool {
	for _, p := range f.Paths {
		if p.Closed {
			return true
		}
	}
	return false
}
