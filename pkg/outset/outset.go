// Package outset corrects narrow or self-intersecting closed regions by
// resampling their boundary into a dense polygon and applying a true
// geometric outset with round joins. Downstream meshing cannot tolerate
// near-degenerate geometry, so flagged feature classes pass through here
// between smoothing and compositing.
package outset

import (
	"math"

	"github.com/csites/osm2svg4opcd/pkg/clip"
	"github.com/csites/osm2svg4opcd/pkg/errors"
	"github.com/csites/osm2svg4opcd/pkg/path"
)

// Defaults for Options fields left at zero.
const (
	DefaultDistance       = 0.5
	DefaultSamplesPerUnit = 2.0
	DefaultMinSamples     = 32

	// maxAttempts caps the resample-and-retry loop on degenerate inputs.
	maxAttempts = 16
)

// Offsetter is the polygon offsetting primitive. *clip.Engine satisfies it.
type Offsetter interface {
	Offset(rings []clip.Ring, delta float64) []clip.Ring
}

// Options configures boundary correction.
type Options struct {
	Distance       float64 // signed offset distance; positive grows outward
	SamplesPerUnit float64 // boundary samples per unit of arc length
	MinSamples     int     // sample floor for short boundaries
}

// withDefaults fills the sampling knobs. Distance is taken as given, since
// zero is a legitimate area-preserving correction.
func (o Options) withDefaults() Options {
	if o.SamplesPerUnit == 0 {
		o.SamplesPerUnit = DefaultSamplesPerUnit
	}
	if o.MinSamples == 0 {
		o.MinSamples = DefaultMinSamples
	}
	return o
}

// Correct resamples the closed path p at a density proportional to its arc
// length, offsets the resulting ring by opts.Distance, and rebuilds a closed
// path of straight segments through the ring with the most vertices.
//
// Self-intersecting input can split into several rings or vanish entirely.
// When the offset yields nothing, the sample density is doubled and the
// offset retried a bounded number of times before giving up with
// OffsetNoGeometry; the caller keeps the original path in that case.
func Correct(p path.Path, opts Options, off Offsetter) (path.Path, error) {
	if !p.Closed {
		return path.Path{}, errors.New(errors.ErrCodeInvalidInput, "outset correction requires a closed path")
	}
	opts = opts.withDefaults()

	length := p.Length()
	sampleCount := opts.MinSamples
	if n := int(math.Ceil(length * opts.SamplesPerUnit)); n > sampleCount {
		sampleCount = n
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		ring := sample(p, sampleCount)
		rings := off.Offset([]clip.Ring{ring}, opts.Distance)
		if len(rings) > 0 {
			best := rings[0]
			for _, r := range rings[1:] {
				if len(r) > len(best) {
					best = r
				}
			}
			return path.FromPoints(best, true), nil
		}
		sampleCount *= 2
	}
	return path.Path{}, errors.New(errors.ErrCodeOffsetNoGeometry,
		"offset at distance %v produced no geometry after %d attempts", opts.Distance, maxAttempts)
}

// sample walks the path at n evenly spaced parameter values, dropping
// consecutive duplicates and a trailing repeat of the first point.
func sample(p path.Path, n int) clip.Ring {
	ring := make(clip.Ring, 0, n)
	for i := 0; i < n; i++ {
		pt := p.PointAt(float64(i) / float64(n-1))
		if len(ring) > 0 && pt.Equals(ring[len(ring)-1], path.CloseTolerance) {
			continue
		}
		ring = append(ring, pt)
	}
	if len(ring) > 1 && ring[len(ring)-1].Equals(ring[0], path.CloseTolerance) {
		ring = ring[:len(ring)-1]
	}
	return ring
}
