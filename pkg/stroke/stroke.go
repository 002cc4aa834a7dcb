// Package stroke converts stroked polylines into closed, filled outline
// polygons using mitered joints.
//
// For each consecutive point pair two parallel offset rails are built at
// ±width/2. Interior joints compare the incoming and outgoing rail normals:
// near-parallel joints connect directly, everything else takes the true
// line-line intersection of the rails (a miter joint), falling back to the
// direct connection when the rails are parallel. The outline is the forward
// rail followed by the reverse rail walked backwards, closed.
//
// Downstream convention: once a stroke becomes an outline, callers replace
// the stroke styling with a solid fill in the original stroke color and drop
// the stroke attributes, since the outline now represents the filled shape.
package stroke

import (
	"github.com/csites/osm2svg4opcd/pkg/errors"
	"github.com/csites/osm2svg4opcd/pkg/geom"
	"github.com/csites/osm2svg4opcd/pkg/path"
)

// CapStyle selects the end-cap construction for open polylines.
type CapStyle string

const (
	// CapButt ends the outline flush with the rail endpoints.
	CapButt CapStyle = "butt"
	// CapSquare extends both rails outward along the segment direction by
	// half the stroke width.
	CapSquare CapStyle = "square"
)

// DefaultStraightThreshold is the dot-product threshold above which a joint
// is treated as straight and connected without a miter intersection.
const DefaultStraightThreshold = 0.999

// Options configures outline construction.
type Options struct {
	Width             float64  // stroke width; the rails sit at ±Width/2
	Cap               CapStyle // end-cap construction for open polylines
	StraightThreshold float64  // joints with rail-normal dot product >= this connect directly
}

// rail holds one segment's parallel offsets on both sides of the centerline.
type rail struct {
	normal     geom.Point
	fwdA, fwdB geom.Point // forward rail (centerline + normal*half)
	revA, revB geom.Point // reverse rail (centerline - normal*half)
}

// Outline converts a polyline into a single closed filled outline path.
//
// closed selects ring mode: every joint is mitered, including the wrap
// between the last and first segments, and no caps are applied. When the
// point sequence does not already repeat its first point, it is treated as
// implicitly closing back to it.
//
// Fewer than two distinct points is InsufficientGeometry.
func Outline(points []geom.Point, closed bool, opts Options) (path.Path, error) {
	if opts.Width <= 0 {
		return path.Path{}, errors.New(errors.ErrCodeInvalidInput, "stroke width must be positive, got %v", opts.Width)
	}
	switch opts.Cap {
	case "":
		opts.Cap = CapButt
	case CapButt, CapSquare:
	default:
		return path.Path{}, errors.New(errors.ErrCodeInvalidInput, "unsupported cap style %q", opts.Cap)
	}
	if opts.StraightThreshold == 0 {
		opts.StraightThreshold = DefaultStraightThreshold
	}

	pts := preparePoints(points, closed)
	if len(pts) < 2 {
		return path.Path{}, errors.New(errors.ErrCodeInsufficientGeometry,
			"polyline needs at least 2 distinct points, got %d", len(pts))
	}

	rails := buildRails(pts, closed, opts.Width/2)

	if closed {
		return closedOutline(rails, opts), nil
	}
	return openOutline(pts, rails, opts), nil
}

// preparePoints drops consecutive duplicates and, in ring mode, a trailing
// repeat of the first point (the wrap joint supplies the closure).
func preparePoints(points []geom.Point, closed bool) []geom.Point {
	pts := make([]geom.Point, 0, len(points))
	for _, p := range points {
		if len(pts) > 0 && p.Equals(pts[len(pts)-1], path.CloseTolerance) {
			continue
		}
		pts = append(pts, p)
	}
	if closed && len(pts) > 1 && pts[len(pts)-1].Equals(pts[0], path.CloseTolerance) {
		pts = pts[:len(pts)-1]
	}
	return pts
}

// buildRails computes per-segment offset rails. In ring mode the segment list
// wraps from the last point back to the first.
func buildRails(pts []geom.Point, closed bool, half float64) []rail {
	n := len(pts) - 1
	if closed {
		n = len(pts)
	}
	rails := make([]rail, n)
	for i := 0; i < n; i++ {
		p1 := pts[i]
		p2 := pts[(i+1)%len(pts)]
		normal, _ := geom.UnitNormal(p1, p2)
		off := normal.Mul(half)
		rails[i] = rail{
			normal: normal,
			fwdA:   p1.Add(off),
			fwdB:   p2.Add(off),
			revA:   p1.Sub(off),
			revB:   p2.Sub(off),
		}
	}
	return rails
}

// joint resolves the forward and reverse rail connection at the corner
// between rin and rout.
func joint(rin, rout rail, straightThreshold float64) (fwd, rev geom.Point) {
	if rin.normal.Dot(rout.normal) >= straightThreshold {
		return rout.fwdA, rout.revA
	}
	fi, fok := geom.IntersectLines(rin.fwdA, rin.fwdB, rout.fwdA, rout.fwdB)
	ri, rok := geom.IntersectLines(rin.revA, rin.revB, rout.revA, rout.revB)
	if !fok || !rok {
		// Parallel rails; fall back to the direct connection.
		return rout.fwdA, rout.revA
	}
	return fi, ri
}

func openOutline(pts []geom.Point, rails []rail, opts Options) path.Path {
	first, last := rails[0], rails[len(rails)-1]

	startF, startR := first.fwdA, first.revA
	endF, endR := last.fwdB, last.revB
	if opts.Cap == CapSquare {
		half := opts.Width / 2
		// Extend along the segment direction, away from the polyline.
		back := pts[0].Sub(pts[1]).Normalize().Mul(half)
		startF = startF.Add(back)
		startR = startR.Add(back)
		ahead := pts[len(pts)-1].Sub(pts[len(pts)-2]).Normalize().Mul(half)
		endF = endF.Add(ahead)
		endR = endR.Add(ahead)
	}

	forward := []geom.Point{startF}
	reverse := []geom.Point{startR}
	for i := 0; i+1 < len(rails); i++ {
		f, r := joint(rails[i], rails[i+1], opts.StraightThreshold)
		forward = append(forward, f)
		reverse = append(reverse, r)
	}
	forward = append(forward, endF)
	reverse = append(reverse, endR)

	// Forward rail, then the reverse rail walked backwards, closed.
	outline := forward
	for i := len(reverse) - 1; i >= 0; i-- {
		outline = append(outline, reverse[i])
	}
	return path.FromPoints(outline, true)
}

func closedOutline(rails []rail, opts Options) path.Path {
	n := len(rails)
	forward := make([]geom.Point, 0, n)
	reverse := make([]geom.Point, 0, n)
	for i := 0; i < n; i++ {
		// Joint at the start of rails[i], formed with the preceding rail.
		f, r := joint(rails[(i+n-1)%n], rails[i], opts.StraightThreshold)
		forward = append(forward, f)
		reverse = append(reverse, r)
	}

	outline := forward
	outline = append(outline, forward[0]) // close the outer ring explicitly
	for i := len(reverse) - 1; i >= 0; i-- {
		outline = append(outline, reverse[i])
	}
	return path.FromPoints(outline, true)
}
