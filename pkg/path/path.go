package path

import (
	"math"

	"github.com/csites/osm2svg4opcd/pkg/geom"
)

// CloseTolerance is the coincidence tolerance, in drawing units, used to
// decide whether a path's last end meets its first start.
const CloseTolerance = 1e-6

// Path is an ordered sequence of segments. Closed is true iff the last
// segment's end equals the first segment's start within CloseTolerance.
//
// A Path with zero segments is degenerate; components either reject it or
// pass it through unchanged (each states its policy).
type Path struct {
	Segments []Segment
	Closed   bool
}

// FromPoints builds a path of straight line segments through points.
// When closed is true and the last point does not already coincide with the
// first, a closing segment is appended.
func FromPoints(points []geom.Point, closed bool) Path {
	if len(points) < 2 {
		return Path{Closed: closed}
	}
	segs := make([]Segment, 0, len(points))
	for i := 0; i+1 < len(points); i++ {
		segs = append(segs, Line{P0: points[i], P1: points[i+1]})
	}
	if closed && !points[len(points)-1].Equals(points[0], CloseTolerance) {
		segs = append(segs, Line{P0: points[len(points)-1], P1: points[0]})
	}
	return Path{Segments: segs, Closed: closed}
}

// Nodes returns the path's vertex sequence: every segment start followed by
// the last segment's end. For a closed path the final node coincides with
// the first.
func (p Path) Nodes() []geom.Point {
	if len(p.Segments) == 0 {
		return nil
	}
	nodes := make([]geom.Point, 0, len(p.Segments)+1)
	for _, s := range p.Segments {
		nodes = append(nodes, s.Start())
	}
	return append(nodes, p.Segments[len(p.Segments)-1].End())
}

// Length returns the total arc length, the sum of per-segment lengths.
func (p Path) Length() float64 {
	var total float64
	for _, s := range p.Segments {
		total += s.Length()
	}
	return total
}

// PointAt samples the path at parameter t in [0,1], where t is proportional
// to arc length across segments. Within a segment the segment's own
// parameterization is used. Values outside [0,1] are clamped.
func (p Path) PointAt(t float64) geom.Point {
	if len(p.Segments) == 0 {
		return geom.Point{}
	}
	total := p.Length()
	if total == 0 {
		return p.Segments[0].Start()
	}
	target := math.Min(math.Max(t, 0), 1) * total

	var walked float64
	for _, s := range p.Segments {
		l := s.Length()
		if walked+l >= target {
			if l == 0 {
				return s.Start()
			}
			return s.PointAt((target - walked) / l)
		}
		walked += l
	}
	return p.Segments[len(p.Segments)-1].End()
}

// Bounds returns the bounding rectangle of the path's sampled boundary.
// Curve segments are bounded by dense parameter samples rather than control
// hulls, tight enough for viewport computation.
func (p Path) Bounds() geom.Rect {
	if len(p.Segments) == 0 {
		return geom.Rect{}
	}
	r := geom.NewRect(p.Segments[0].Start(), p.Segments[0].Start())
	for _, s := range p.Segments {
		switch seg := s.(type) {
		case Line:
			r = r.Expand(seg.P0)
			r = r.Expand(seg.P1)
		case Cubic:
			for i := 0; i <= lengthSteps; i++ {
				r = r.Expand(seg.PointAt(float64(i) / lengthSteps))
			}
		}
	}
	return r
}

// EndsCoincide reports whether the last segment's end meets the first
// segment's start within CloseTolerance.
func (p Path) EndsCoincide() bool {
	if len(p.Segments) == 0 {
		return false
	}
	first := p.Segments[0].Start()
	last := p.Segments[len(p.Segments)-1].End()
	return last.Equals(first, CloseTolerance)
}

// Valid reports whether consecutive segments chain: segment i's end must
// equal segment i+1's start within CloseTolerance.
func (p Path) Valid() bool {
	for i := 0; i+1 < len(p.Segments); i++ {
		if !p.Segments[i].End().Equals(p.Segments[i+1].Start(), CloseTolerance) {
			return false
		}
	}
	return true
}
