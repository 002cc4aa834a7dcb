// Package osm parses OpenStreetMap XML exports and assembles styled
// features in drawing coordinates.
//
// Longitude maps linearly onto the output width; latitude uses the same
// scale corrected by the cosine of the mid latitude so shapes keep their
// aspect ratio, and the Y axis is flipped so (0,0) is the top-left corner.
// Ways and multipolygon relations whose tags match the style table become
// features; everything else is ignored. Missing node or way references are
// collected as warnings and skip only the geometry they affect.
package osm

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/csites/osm2svg4opcd/pkg/errors"
	"github.com/csites/osm2svg4opcd/pkg/feature"
	"github.com/csites/osm2svg4opcd/pkg/geom"
	"github.com/csites/osm2svg4opcd/pkg/path"
	"github.com/csites/osm2svg4opcd/pkg/style"
)

// DefaultWidth is the drawing width in pixels when the caller passes zero.
const DefaultWidth = 1000.0

// Document is a parsed OSM export with all styled features assembled.
type Document struct {
	Width    float64
	Height   float64
	Features []feature.Feature
	Warnings []string
}

type rawOSM struct {
	Bounds    []rawBounds   `xml:"bounds"`
	Nodes     []rawNode     `xml:"node"`
	Ways      []rawWay      `xml:"way"`
	Relations []rawRelation `xml:"relation"`
}

type rawBounds struct {
	MinLat float64 `xml:"minlat,attr"`
	MinLon float64 `xml:"minlon,attr"`
	MaxLat float64 `xml:"maxlat,attr"`
	MaxLon float64 `xml:"maxlon,attr"`
}

type rawNode struct {
	ID  string  `xml:"id,attr"`
	Lat float64 `xml:"lat,attr"`
	Lon float64 `xml:"lon,attr"`
}

type rawWay struct {
	ID   string   `xml:"id,attr"`
	Refs []rawRef `xml:"nd"`
	Tags []rawTag `xml:"tag"`
}

type rawRef struct {
	Ref string `xml:"ref,attr"`
}

type rawTag struct {
	K string `xml:"k,attr"`
	V string `xml:"v,attr"`
}

type rawMember struct {
	Type string `xml:"type,attr"`
	Ref  string `xml:"ref,attr"`
	Role string `xml:"role,attr"`
}

type rawRelation struct {
	ID      string      `xml:"id,attr"`
	Members []rawMember `xml:"member"`
	Tags    []rawTag    `xml:"tag"`
}

// projection maps lon/lat onto drawing coordinates.
type projection struct {
	minLon, minLat float64
	xscale, yscale float64
	height         float64
}

func newProjection(b rawBounds, width float64) (projection, error) {
	if b.MaxLon <= b.MinLon || b.MaxLat <= b.MinLat {
		return projection{}, errors.New(errors.ErrCodeInvalidInput,
			"degenerate bounds %v..%v lon, %v..%v lat", b.MinLon, b.MaxLon, b.MinLat, b.MaxLat)
	}
	xscale := width / (b.MaxLon - b.MinLon)
	avgLat := (b.MinLat + b.MaxLat) / 2
	yscale := xscale / math.Cos(avgLat*math.Pi/180)
	return projection{
		minLon: b.MinLon,
		minLat: b.MinLat,
		xscale: xscale,
		yscale: yscale,
		height: yscale * (b.MaxLat - b.MinLat),
	}, nil
}

func (p projection) point(lon, lat float64) geom.Point {
	return geom.Point{
		X: (lon - p.minLon) * p.xscale,
		Y: p.height - (lat-p.minLat)*p.yscale,
	}
}

// Load parses the OSM file at filePath. See Parse.
func Load(filePath string, table *style.Table, width float64) (*Document, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", filePath)
	}
	defer f.Close()
	return Parse(f, table, width)
}

// Parse reads an OSM XML export and assembles one feature per styled way
// and per styled multipolygon relation. width is the drawing width in
// pixels; zero selects DefaultWidth.
func Parse(r io.Reader, table *style.Table, width float64) (*Document, error) {
	if width <= 0 {
		width = DefaultWidth
	}

	var raw rawOSM
	if err := xml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse OSM XML")
	}
	if len(raw.Bounds) != 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "expected exactly one bounds element, got %d", len(raw.Bounds))
	}
	proj, err := newProjection(raw.Bounds[0], width)
	if err != nil {
		return nil, err
	}

	doc := &Document{Width: width, Height: proj.height}

	nodes := make(map[string]geom.Point, len(raw.Nodes))
	for _, n := range raw.Nodes {
		nodes[n.ID] = proj.point(n.Lon, n.Lat)
	}
	ways := make(map[string]rawWay, len(raw.Ways))
	for _, w := range raw.Ways {
		ways[w.ID] = w
	}

	for _, w := range raw.Ways {
		rule, sel, ok := table.Resolve(tags(w.Tags))
		if !ok {
			continue
		}
		pts, missing := resolveWay(w, nodes)
		doc.Warnings = append(doc.Warnings, missing...)
		if len(pts) < 2 {
			continue
		}
		f := styledFeature(rule, sel)
		f.ID = "way_" + w.ID
		if rule.StrokeToPath {
			f.ID = fmt.Sprintf("way_%s_path_%s", w.ID, sel)
		}
		closed := len(pts) > 2 && pts[0].Equals(pts[len(pts)-1], path.CloseTolerance)
		f.Paths = []path.Path{path.FromPoints(pts, closed)}
		doc.Features = append(doc.Features, f)
	}

	for _, rel := range raw.Relations {
		if !isMultipolygon(rel) {
			continue
		}
		rule, sel, ok := table.Resolve(tags(rel.Tags))
		if !ok {
			continue
		}
		f := styledFeature(rule, sel)
		f.ID = "rel_" + rel.ID
		f.Paths, doc.Warnings = assembleMultipolygon(rel, ways, nodes, doc.Warnings)
		if len(f.Paths) == 0 {
			continue
		}
		doc.Features = append(doc.Features, f)
	}

	return doc, nil
}

func tags(raw []rawTag) []style.Tag {
	out := make([]style.Tag, len(raw))
	for i, t := range raw {
		out[i] = style.Tag{Key: t.K, Value: t.V}
	}
	return out
}

func styledFeature(rule style.Rule, sel string) feature.Feature {
	return feature.Feature{
		Tag:            sel,
		Fill:           rule.Fill,
		Stroke:         rule.Stroke,
		StrokeWidth:    rule.StrokeWidth,
		LineCap:        rule.LineCap,
		StrokeToPath:   rule.StrokeToPath,
		ZOrder:         rule.ZOrder,
		Outset:         rule.Outset,
		OutsetDistance: rule.OutsetDistance,
	}
}

// resolveWay projects a way's node references, skipping unresolvable nodes.
func resolveWay(w rawWay, nodes map[string]geom.Point) ([]geom.Point, []string) {
	pts := make([]geom.Point, 0, len(w.Refs))
	var missing []string
	for _, ref := range w.Refs {
		pt, ok := nodes[ref.Ref]
		if !ok {
			missing = append(missing, errors.New(errors.ErrCodeMissingGeometry, "way %s: node %s missing", w.ID, ref.Ref).Error())
			continue
		}
		pts = append(pts, pt)
	}
	return pts, missing
}

func isMultipolygon(rel rawRelation) bool {
	for _, t := range rel.Tags {
		if t.K == "type" && t.V == "multipolygon" {
			return true
		}
	}
	return false
}

// assembleMultipolygon builds the subpath list for a multipolygon relation:
// outer rings first, then inner rings, with windings normalized so the
// nonzero fill rule cuts the holes. A member with missing geometry is
// skipped with a warning; a relation without any outer ring yields nothing.
func assembleMultipolygon(rel rawRelation, ways map[string]rawWay, nodes map[string]geom.Point, warnings []string) ([]path.Path, []string) {
	var outers, inners []path.Path
	for _, m := range rel.Members {
		if m.Type != "way" || (m.Role != "outer" && m.Role != "inner") {
			continue
		}
		w, ok := ways[m.Ref]
		if !ok {
			warnings = append(warnings, errors.New(errors.ErrCodeMissingGeometry, "relation %s: way %s missing", rel.ID, m.Ref).Error())
			continue
		}
		pts, missing := resolveWay(w, nodes)
		if len(missing) > 0 {
			warnings = append(warnings, errors.New(errors.ErrCodeMissingGeometry, "relation %s: way %s has unresolved nodes, skipped", rel.ID, w.ID).Error())
			continue
		}
		if len(pts) < 3 {
			warnings = append(warnings, errors.New(errors.ErrCodeInsufficientGeometry, "relation %s: way %s has too few points for a ring", rel.ID, w.ID).Error())
			continue
		}
		ring := orient(pts, m.Role == "outer")
		if m.Role == "outer" {
			outers = append(outers, path.FromPoints(ring, true))
		} else {
			inners = append(inners, path.FromPoints(ring, true))
		}
	}
	if len(outers) == 0 {
		return nil, warnings
	}
	return append(outers, inners...), warnings
}

// orient winds outer rings positive and inner rings negative.
func orient(pts []geom.Point, outer bool) []geom.Point {
	area := geom.RingArea(pts)
	if (area >= 0) == outer {
		return pts
	}
	rev := make([]geom.Point, len(pts))
	for i, p := range pts {
		rev[len(pts)-1-i] = p
	}
	return rev
}
