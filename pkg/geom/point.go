// Package geom provides the 2D primitives shared by every pipeline stage:
// points treated interchangeably as positions and vectors, unit normals,
// line-line intersection, and axis-aligned bounding rectangles.
//
// All coordinates are in abstract drawing units within a single working
// coordinate space; the package has no notion of geographic projections.
package geom

import "math"

// Point represents a 2D point or vector.
type Point struct {
	X, Y float64
}

// Pt is a convenience constructor for a Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns the sum of two points (vector addition).
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the difference of two points (vector subtraction).
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul returns the point scaled by a scalar.
func (p Point) Mul(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Dot returns the dot product of two vectors.
func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Cross returns the 2D cross product (the z component of the 3D cross
// product). Its sign gives the turn direction from p to q.
func (p Point) Cross(q Point) float64 {
	return p.X*q.Y - p.Y*q.X
}

// Length returns the length of the vector.
func (p Point) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

// Distance returns the distance between two points.
func (p Point) Distance(q Point) float64 {
	return p.Sub(q).Length()
}

// Normalize returns a unit vector in the same direction.
// The zero vector normalizes to the zero vector.
func (p Point) Normalize() Point {
	length := p.Length()
	if length == 0 {
		return Point{}
	}
	return Point{X: p.X / length, Y: p.Y / length}
}

// Lerp performs linear interpolation between two points.
// t=0 returns p, t=1 returns q.
func (p Point) Lerp(q Point, t float64) Point {
	return Point{
		X: p.X + (q.X-p.X)*t,
		Y: p.Y + (q.Y-p.Y)*t,
	}
}

// PerpCCW returns the vector rotated 90 degrees counter-clockwise.
func (p Point) PerpCCW() Point {
	return Point{X: -p.Y, Y: p.X}
}

// PerpCW returns the vector rotated 90 degrees clockwise.
func (p Point) PerpCW() Point {
	return Point{X: p.Y, Y: -p.X}
}

// Equals reports whether two points coincide within tol.
func (p Point) Equals(q Point, tol float64) bool {
	return math.Abs(p.X-q.X) <= tol && math.Abs(p.Y-q.Y) <= tol
}

// UnitNormal returns the unit perpendicular of the segment p1->p2 and the
// segment length. A zero-length segment yields the zero vector.
func UnitNormal(p1, p2 Point) (normal Point, length float64) {
	d := p2.Sub(p1)
	length = d.Length()
	if length == 0 {
		return Point{}, 0
	}
	return Point{X: -d.Y / length, Y: d.X / length}, length
}

// PointAlong returns the point at distance dist from center towards end.
// If center and end coincide, center is returned.
func PointAlong(center, end Point, dist float64) Point {
	unit := end.Sub(center).Normalize()
	return center.Add(unit.Mul(dist))
}

// IntersectLines returns the intersection of the infinite lines through
// (p1, p2) and (p3, p4). The second return value is false when the lines are
// parallel or collinear.
func IntersectLines(p1, p2, p3, p4 Point) (Point, bool) {
	den := (p1.X-p2.X)*(p3.Y-p4.Y) - (p1.Y-p2.Y)*(p3.X-p4.X)
	if den == 0 {
		return Point{}, false
	}
	t := ((p1.X-p3.X)*(p3.Y-p4.Y) - (p1.Y-p3.Y)*(p3.X-p4.X)) / den
	return Point{
		X: p1.X + t*(p2.X-p1.X),
		Y: p1.Y + t*(p2.Y-p1.Y),
	}, true
}
