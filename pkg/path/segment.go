// Package path defines the shared path representation consumed and produced
// by every pipeline stage: a sequence of line and cubic-curve segments with a
// closed flag, plus the M/L/C/Z path-description grammar used to serialize it.
//
// Segments are immutable values. A transformation always builds new segments
// rather than mutating endpoints shared with other segments, so stages compose
// as a pure pipeline with no shared mutable state.
package path

import "github.com/csites/osm2svg4opcd/pkg/geom"

// lengthSteps is the chord-sum subdivision count used to approximate cubic
// arc length. 24 subdivisions keep the error well below the 1e-3 output
// precision for curves at drawing scale.
const lengthSteps = 24

// Segment is the closed variant set over {Line, Cubic}. The unexported
// method seals the interface so consumers can type-switch exhaustively.
type Segment interface {
	// Start returns the segment's first point.
	Start() geom.Point
	// End returns the segment's last point.
	End() geom.Point
	// Length returns the segment's arc length.
	Length() float64
	// PointAt evaluates the segment at parameter t in [0,1].
	PointAt(t float64) geom.Point

	sealed()
}

// Line is a straight segment from P0 to P1.
type Line struct {
	P0, P1 geom.Point
}

func (l Line) Start() geom.Point { return l.P0 }
func (l Line) End() geom.Point   { return l.P1 }

func (l Line) Length() float64 {
	return l.P0.Distance(l.P1)
}

func (l Line) PointAt(t float64) geom.Point {
	return l.P0.Lerp(l.P1, t)
}

func (Line) sealed() {}

// Cubic is a cubic curve from P0 to P3 with control points P1, P2.
type Cubic struct {
	P0, P1, P2, P3 geom.Point
}

func (c Cubic) Start() geom.Point { return c.P0 }
func (c Cubic) End() geom.Point   { return c.P3 }

// PointAt evaluates the curve at parameter t using the Bernstein form.
func (c Cubic) PointAt(t float64) geom.Point {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	d := 3 * mt * t * t
	e := t * t * t
	return geom.Point{
		X: a*c.P0.X + b*c.P1.X + d*c.P2.X + e*c.P3.X,
		Y: a*c.P0.Y + b*c.P1.Y + d*c.P2.Y + e*c.P3.Y,
	}
}

// Length approximates arc length by summing chords over a fixed subdivision.
func (c Cubic) Length() float64 {
	var total float64
	prev := c.P0
	for i := 1; i <= lengthSteps; i++ {
		p := c.PointAt(float64(i) / lengthSteps)
		total += prev.Distance(p)
		prev = p
	}
	return total
}

func (Cubic) sealed() {}

// LineToCubic converts a straight segment into an equivalent cubic with
// control points at one third and two thirds along the segment. The curve
// traces the same straight line; only the representation changes.
func LineToCubic(l Line) Cubic {
	v := l.P1.Sub(l.P0)
	return Cubic{
		P0: l.P0,
		P1: l.P0.Add(v.Mul(1.0 / 3.0)),
		P2: l.P1.Sub(v.Mul(1.0 / 3.0)),
		P3: l.P1,
	}
}
