// Package smooth fits auto-smooth cubic curves through polyline nodes,
// mimicking Inkscape's "make segments curves" followed by "auto-smooth".
//
// Every line segment is first converted to a cubic with collinear handles,
// then each interior node gets a tangent derived from the angle bisector of
// its incident segments. Handle lengths are a third of the adjacent segment
// length, scaled by a tightness factor. Endpoints of open paths borrow
// one-sided handles from their neighbor node so the curve enters and leaves
// straight.
package smooth

import (
	"github.com/csites/osm2svg4opcd/pkg/errors"
	"github.com/csites/osm2svg4opcd/pkg/geom"
	"github.com/csites/osm2svg4opcd/pkg/path"
)

// DefaultTightness is the handle-length scale applied when Options leaves
// Tightness at zero. 1.0 reproduces Inkscape's handles exactly; 0.5 keeps
// the curve closer to the original polyline.
const DefaultTightness = 0.5

// Options configures curve fitting.
type Options struct {
	Tightness float64 // handle-length scale in (0, 1]; zero means DefaultTightness
}

// Fit converts every segment of p into a cubic and repositions the handles
// so adjacent segments share a smooth tangent at each node. Paths with two
// or fewer nodes pass through unchanged. The node positions themselves never
// move, and handles depend only on node positions, so Fit is idempotent.
//
// Nodes whose tangent cannot be derived (a coincident neighbor node, or a
// direction vector of zero length) keep retracted handles; each such node is
// reported in the returned warnings.
func Fit(p path.Path, opts Options) (path.Path, []string) {
	if len(p.Segments) <= 1 {
		return p, nil
	}
	if opts.Tightness == 0 {
		opts.Tightness = DefaultTightness
	}

	cubics := make([]path.Cubic, 0, len(p.Segments))
	for _, seg := range p.Segments {
		switch s := seg.(type) {
		case path.Line:
			cubics = append(cubics, path.LineToCubic(s))
		case path.Cubic:
			cubics = append(cubics, s)
		}
	}

	nodes := make([]geom.Point, 0, len(cubics)+1)
	for _, c := range cubics {
		nodes = append(nodes, c.P0)
	}
	nodes = append(nodes, cubics[len(cubics)-1].P3)

	n := len(nodes)

	var warnings []string
	for j := 0; j < n-1; j++ {
		if !p.Closed && j == 0 {
			continue
		}
		prev := nodes[n-2]
		if j > 0 {
			prev = nodes[j-1]
		}
		if msg := degenerate(prev, nodes[j], nodes[j+1]); msg != "" {
			warnings = append(warnings,
				errors.New(errors.ErrCodeDegenerateTangent, "node %d: %s", j, msg).Error())
		}
	}

	out := make([]path.Segment, 0, n-1)
	for j := 0; j < n-1; j++ {
		cur := nodes[j]
		next := nodes[j+1]

		prev := cur
		if j > 0 {
			prev = nodes[j-1]
		} else if p.Closed {
			prev = nodes[n-2]
		}
		nextNext := next
		if j < n-2 {
			nextNext = nodes[j+2]
		} else if p.Closed {
			nextNext = nodes[1]
		}

		// Outgoing handle from cur. The open-path start node has no
		// previous segment, so it mirrors the back handle of its
		// neighbor instead.
		var front geom.Point
		if p.Closed || j > 0 {
			_, front = controls(prev, cur, next, opts.Tightness)
		} else {
			front, _ = controls(cur, next, nextNext, opts.Tightness)
		}

		// Incoming handle to next. The open-path end node reflects the
		// front handle of the previous node across the segment.
		var back geom.Point
		if p.Closed || j < n-2 {
			back, _ = controls(cur, next, nextNext, opts.Tightness)
		} else {
			_, f := controls(prev, cur, next, opts.Tightness)
			back = next.Sub(f.Sub(cur))
		}

		out = append(out, path.Cubic{P0: cur, P1: front, P2: back, P3: next})
	}
	return path.Path{Segments: out, Closed: p.Closed}, warnings
}

// degenerate reports why a node's tangent is undefined, or "" when the
// tangent exists.
func degenerate(prev, cur, next geom.Point) string {
	vPrev := cur.Sub(prev)
	vNext := next.Sub(cur)
	lPrev := vPrev.Length()
	lNext := vNext.Length()
	if lPrev == 0 || lNext == 0 {
		return "coincident neighbor node, handles retracted"
	}
	if vNext.Mul(lPrev/lNext).Sub(vPrev).Length() == 0 {
		return "zero direction vector, handles retracted"
	}
	return ""
}

// controls computes the back and front handles for an auto-smooth node.
// The tangent runs perpendicular to the direction vector
// D = (Lprev/Lnext)*Vnext - Vprev, rotated toward the shape interior.
// Coincident nodes and perfect cusps retract both handles onto the node.
func controls(prev, cur, next geom.Point, tightness float64) (back, front geom.Point) {
	vPrev := cur.Sub(prev)
	vNext := next.Sub(cur)
	lPrev := vPrev.Length()
	lNext := vNext.Length()
	if lPrev == 0 || lNext == 0 {
		return cur, cur
	}

	d := vNext.Mul(lPrev / lNext).Sub(vPrev)
	dLen := d.Length()
	if dLen == 0 {
		return cur, cur
	}

	var t geom.Point
	if vPrev.Cross(vNext) < 0 {
		t = d.Mul(1 / dLen).PerpCCW()
	} else {
		t = d.Mul(1 / dLen).PerpCW()
	}

	back = cur.Sub(t.Mul(lPrev / 3 * tightness))
	front = cur.Add(t.Mul(lNext / 3 * tightness))
	return back, front
}
