// Package compose resolves overlaps between styled features by stacking
// priority. Each feature keeps a guaranteed clearance gap to every feature
// stacked above it: the union of all strictly-higher-priority regions is
// grown by the gap and subtracted from the feature's region. Fully occluded
// features are dropped and reported, never treated as errors.
package compose

import (
	"math"
	"sort"

	"github.com/csites/osm2svg4opcd/pkg/clip"
	"github.com/csites/osm2svg4opcd/pkg/errors"
	"github.com/csites/osm2svg4opcd/pkg/feature"
	"github.com/csites/osm2svg4opcd/pkg/geom"
	"github.com/csites/osm2svg4opcd/pkg/path"
)

// Defaults for Options fields left at zero.
const (
	DefaultGap         = 0.05
	DefaultSimplifyTol = 0.001
)

// cubicFlattenSteps is the number of straight edges a curve segment
// contributes when a region is polygonized for clipping.
const cubicFlattenSteps = 16

// Engine is the boolean-geometry collaborator. *clip.Engine satisfies it.
type Engine interface {
	Union(rings []clip.Ring) ([]clip.Ring, error)
	Offset(rings []clip.Ring, delta float64) []clip.Ring
	Difference(subject, clips []clip.Ring) ([]clip.Ring, error)
	Intersect(subject, clips []clip.Ring) ([]clip.Ring, error)
	Clean(rings []clip.Ring, distance float64) []clip.Ring
}

// Options configures overlap resolution.
type Options struct {
	Gap         float64 // clearance between adjacent regions
	SimplifyTol float64 // vertex-reduction tolerance on clipped output
}

func (o Options) withDefaults() Options {
	if o.Gap == 0 {
		o.Gap = DefaultGap
	}
	if o.SimplifyTol == 0 {
		o.SimplifyTol = DefaultSimplifyTol
	}
	return o
}

// Result is the composited feature set in emission order.
type Result struct {
	Features []feature.Feature // surviving features, ascending z-order, bottom first
	Dropped  []string          // IDs of fully occluded features
}

// Composite sorts features by z-order ascending (stable, ties keep insertion
// order) and resolves overlaps from the lowest priority up. Features whose
// region never touches the grown higher-priority union pass through with
// their paths untouched, so the highest-priority feature is always emitted
// exactly as it came in. Features without a closed subpath have no region
// and neither clip nor get clipped.
func Composite(features []feature.Feature, opts Options, eng Engine) (Result, error) {
	opts = opts.withDefaults()

	sorted := make([]feature.Feature, len(features))
	copy(sorted, features)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ZOrder < sorted[j].ZOrder })

	flat := make([][]clip.Ring, len(sorted))
	for i, f := range sorted {
		flat[i] = flatten(f.Paths)
	}

	var result Result
	for i, f := range sorted {
		var higher []clip.Ring
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].ZOrder > f.ZOrder {
				higher = append(higher, flat[j]...)
			}
		}
		if len(higher) == 0 || len(flat[i]) == 0 {
			result.Features = append(result.Features, f)
			continue
		}

		cutter, err := eng.Union(higher)
		if err != nil {
			return Result{}, errors.Wrap(errors.ErrCodeInternal, err, "compositing feature %s", f.ID)
		}
		grown := eng.Offset(cutter, opts.Gap)

		touching, err := eng.Intersect(flat[i], grown)
		if err != nil {
			return Result{}, errors.Wrap(errors.ErrCodeInternal, err, "compositing feature %s", f.ID)
		}
		if len(touching) == 0 {
			result.Features = append(result.Features, f)
			continue
		}

		remain, err := eng.Difference(flat[i], grown)
		if err != nil {
			return Result{}, errors.Wrap(errors.ErrCodeInternal, err, "compositing feature %s", f.ID)
		}
		remain = eng.Clean(remain, opts.SimplifyTol)
		if netArea(remain) <= 0 {
			result.Dropped = append(result.Dropped, f.ID)
			continue
		}

		f.Paths = ringsToPaths(remain)
		result.Features = append(result.Features, f)
	}
	return result, nil
}

// flatten polygonizes the closed subpaths of a feature. Open subpaths
// enclose no area and are skipped.
func flatten(paths []path.Path) []clip.Ring {
	var rings []clip.Ring
	for _, p := range paths {
		if !p.Closed || len(p.Segments) == 0 {
			continue
		}
		ring := make(clip.Ring, 0, len(p.Segments))
		for _, seg := range p.Segments {
			switch s := seg.(type) {
			case path.Line:
				ring = append(ring, s.P0)
			case path.Cubic:
				for k := 0; k < cubicFlattenSteps; k++ {
					ring = append(ring, s.PointAt(float64(k)/cubicFlattenSteps))
				}
			}
		}
		if len(ring) >= 3 {
			rings = append(rings, ring)
		}
	}
	return rings
}

func ringsToPaths(rings []clip.Ring) []path.Path {
	paths := make([]path.Path, 0, len(rings))
	for _, r := range rings {
		paths = append(paths, path.FromPoints(r, true))
	}
	return paths
}

// netArea sums the signed ring areas. Holes are wound opposite their outer
// ring, so the magnitude of the sum is the enclosed area.
func netArea(rings []clip.Ring) float64 {
	var sum float64
	for _, r := range rings {
		sum += geom.RingArea(r)
	}
	return math.Abs(sum)
}
