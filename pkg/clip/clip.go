// Package clip wraps integer polygon clipping behind a float-coordinate
// engine. Coordinates are scaled to a fixed-point grid, run through the
// clipper, and scaled back, so callers only ever see geom.Point rings.
package clip

import (
	"math"

	clipper "github.com/ctessum/go.clipper"

	"github.com/csites/osm2svg4opcd/pkg/errors"
	"github.com/csites/osm2svg4opcd/pkg/geom"
)

// Scale is the fixed-point factor between user units and clipper integer
// units. 1e6 keeps sub-micro-unit precision while leaving plenty of int64
// headroom for document-sized coordinates.
const Scale = 1e6

// arcTolerance bounds how far the polygonized round joins may deviate from
// a true arc, in user units.
const arcTolerance = 0.01

// Ring is a closed polygon boundary. The closing edge from the last point
// back to the first is implicit.
type Ring []geom.Point

// Engine runs offsetting and boolean operations on rings.
type Engine struct{}

// NewEngine returns a ready-to-use clipping engine. The engine is stateless
// and safe for concurrent use.
func NewEngine() *Engine { return &Engine{} }

// Offset grows (delta > 0) or shrinks (delta < 0) the polygon described by
// rings, joining corners with arcs. Shrinking can split a polygon or erase
// it entirely, so the result holds zero or more rings.
func (e *Engine) Offset(rings []Ring, delta float64) []Ring {
	co := clipper.NewClipperOffset()
	co.ArcTolerance = arcTolerance * Scale
	added := false
	for _, r := range rings {
		p := toPath(r)
		if len(p) < 3 {
			continue
		}
		co.AddPath(p, clipper.JtRound, clipper.EtClosedPolygon)
		added = true
	}
	if !added {
		return nil
	}
	return fromPaths(co.Execute(delta * Scale))
}

// Union merges all rings into one polygon set.
func (e *Engine) Union(rings []Ring) ([]Ring, error) {
	c := clipper.NewClipper(clipper.IoNone)
	if !addRings(c, rings, clipper.PtSubject) {
		return nil, nil
	}
	solution, ok := c.Execute1(clipper.CtUnion, clipper.PftNonZero, clipper.PftNonZero)
	if !ok {
		return nil, errors.New(errors.ErrCodeInternal, "polygon union failed")
	}
	return fromPaths(solution), nil
}

// Difference subtracts the clip polygon set from the subject polygon set.
func (e *Engine) Difference(subject, clips []Ring) ([]Ring, error) {
	c := clipper.NewClipper(clipper.IoNone)
	if !addRings(c, subject, clipper.PtSubject) {
		return nil, nil
	}
	if !addRings(c, clips, clipper.PtClip) {
		return subject, nil
	}
	solution, ok := c.Execute1(clipper.CtDifference, clipper.PftNonZero, clipper.PftNonZero)
	if !ok {
		return nil, errors.New(errors.ErrCodeInternal, "polygon difference failed")
	}
	return fromPaths(solution), nil
}

// Intersect returns the region covered by both polygon sets.
func (e *Engine) Intersect(subject, clips []Ring) ([]Ring, error) {
	c := clipper.NewClipper(clipper.IoNone)
	if !addRings(c, subject, clipper.PtSubject) || !addRings(c, clips, clipper.PtClip) {
		return nil, nil
	}
	solution, ok := c.Execute1(clipper.CtIntersection, clipper.PftNonZero, clipper.PftNonZero)
	if !ok {
		return nil, errors.New(errors.ErrCodeInternal, "polygon intersection failed")
	}
	return fromPaths(solution), nil
}

// Clean removes vertices closer than distance to their neighbors and
// collinear spikes. Rings that collapse below three vertices are dropped.
func (e *Engine) Clean(rings []Ring, distance float64) []Ring {
	c := clipper.NewClipper(clipper.IoNone)
	out := make([]Ring, 0, len(rings))
	for _, r := range rings {
		p := toPath(r)
		if len(p) < 3 {
			continue
		}
		cleaned := c.CleanPolygon(p, distance*Scale)
		if len(cleaned) < 3 {
			continue
		}
		out = append(out, fromPath(cleaned))
	}
	return out
}

// Orient returns r wound counterclockwise when ccw is true and clockwise
// otherwise. Outer boundaries are wound one way and holes the other so the
// nonzero fill rule resolves nesting.
func (e *Engine) Orient(r Ring, ccw bool) Ring {
	p := toPath(r)
	if len(p) < 3 || clipper.Orientation(p) == ccw {
		return r
	}
	rev := make(Ring, len(r))
	for i, pt := range r {
		rev[len(r)-1-i] = pt
	}
	return rev
}

// Area returns the signed area of r in user units. Counterclockwise rings
// are positive.
func (e *Engine) Area(r Ring) float64 {
	p := toPath(r)
	if len(p) < 3 {
		return 0
	}
	return clipper.Area(p) / (Scale * Scale)
}

func addRings(c *clipper.Clipper, rings []Ring, pt clipper.PolyType) bool {
	added := false
	for _, r := range rings {
		p := toPath(r)
		if len(p) < 3 {
			continue
		}
		if c.AddPath(p, pt, true) {
			added = true
		}
	}
	return added
}

// toPath scales a ring onto the integer grid, dropping consecutive
// duplicates and a trailing repeat of the first point. The clipper only
// dedupes by pointer identity, so value dedup has to happen here.
func toPath(r Ring) clipper.Path {
	p := make(clipper.Path, 0, len(r))
	for _, pt := range r {
		ip := &clipper.IntPoint{
			X: clipper.CInt(math.Round(pt.X * Scale)),
			Y: clipper.CInt(math.Round(pt.Y * Scale)),
		}
		if n := len(p); n > 0 && *p[n-1] == *ip {
			continue
		}
		p = append(p, ip)
	}
	if len(p) > 1 && *p[0] == *p[len(p)-1] {
		p = p[:len(p)-1]
	}
	return p
}

func fromPath(p clipper.Path) Ring {
	r := make(Ring, len(p))
	for i, ip := range p {
		r[i] = geom.Point{X: float64(ip.X) / Scale, Y: float64(ip.Y) / Scale}
	}
	return r
}

func fromPaths(paths clipper.Paths) []Ring {
	if len(paths) == 0 {
		return nil
	}
	rings := make([]Ring, 0, len(paths))
	for _, p := range paths {
		if len(p) < 3 {
			continue
		}
		rings = append(rings, fromPath(p))
	}
	return rings
}
