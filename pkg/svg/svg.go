// Package svg reads and writes the SVG documents that carry features
// between pipeline stages.
//
// Styling lives in standard SVG attributes. Pipeline metadata that SVG has
// no home for rides along in data- attributes: data-z for stacking
// priority, data-outset and data-outset-distance for the correction stage,
// and data-stroke-to-path for the conversion stage. Polyline elements are
// converted to path features on read, so later stages only ever see paths.
package svg

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/csites/osm2svg4opcd/pkg/errors"
	"github.com/csites/osm2svg4opcd/pkg/feature"
	"github.com/csites/osm2svg4opcd/pkg/geom"
	"github.com/csites/osm2svg4opcd/pkg/path"
)

// Document is one stage artifact: a sized canvas plus ordered features.
type Document struct {
	Width    float64
	Height   float64
	RunID    string // emitted as a comment for traceability, empty to omit
	Features []feature.Feature

	// Warnings names elements skipped while reading because their geometry
	// could not be parsed. Never serialized.
	Warnings []string
}

// WriteFile serializes the document to filePath.
func WriteFile(filePath string, doc *Document) error {
	f, err := os.Create(filePath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "create %s", filePath)
	}
	defer f.Close()
	return Write(f, doc)
}

// Write serializes the document. Features are emitted in slice order, which
// callers keep ascending by z so the bottom feature is drawn first.
func Write(w io.Writer, doc *Document) error {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	fmt.Fprintf(&b,
		"<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%s\" height=\"%s\" viewBox=\"0 0 %s %s\" version=\"1.1\">\n",
		coord(doc.Width), coord(doc.Height), coord(doc.Width), coord(doc.Height))
	if doc.RunID != "" {
		fmt.Fprintf(&b, "<!-- run %s -->\n", doc.RunID)
	}
	for i := range doc.Features {
		writeFeature(&b, &doc.Features[i])
	}
	b.WriteString("</svg>\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func writeFeature(b *strings.Builder, f *feature.Feature) {
	if f.StrokeToPath && len(f.Paths) == 1 && polylineShaped(f.Paths[0]) {
		writePolyline(b, f)
		return
	}
	fmt.Fprintf(b, "<path d=%q", path.Encode(f.Paths))
	writeStyleAttrs(b, f)
	b.WriteString("/>\n")
}

// polylineShaped reports whether a path is still representable as a
// polyline: open and built from straight segments only. Once a stroke
// feature is smoothed or outlined it no longer qualifies.
func polylineShaped(p path.Path) bool {
	if p.Closed {
		return false
	}
	for _, s := range p.Segments {
		if _, ok := s.(path.Line); !ok {
			return false
		}
	}
	return true
}

// writePolyline emits an unconverted stroke feature the way the initial
// assembly stage produced it.
func writePolyline(b *strings.Builder, f *feature.Feature) {
	pts := f.Paths[0].Nodes()
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = coord(p.X) + " " + coord(p.Y)
	}
	fmt.Fprintf(b, "<polyline points=%q", strings.Join(parts, " "))
	writeStyleAttrs(b, f)
	b.WriteString("/>\n")
}

func writeStyleAttrs(b *strings.Builder, f *feature.Feature) {
	attr := func(name, value string) {
		if value != "" {
			fmt.Fprintf(b, " %s=%q", name, value)
		}
	}
	attr("id", f.ID)
	attr("fill", f.Fill)
	attr("stroke", f.Stroke)
	if f.StrokeWidth > 0 {
		attr("stroke-width", coord(f.StrokeWidth))
	}
	attr("stroke-linecap", f.LineCap)
	attr("data-tag", f.Tag)
	fmt.Fprintf(b, " data-z=%q", strconv.Itoa(f.ZOrder))
	if f.StrokeToPath {
		attr("data-stroke-to-path", "true")
	}
	if f.Outset {
		attr("data-outset", "true")
		attr("data-outset-distance", coord(f.OutsetDistance))
	}
}

// coord formats a coordinate or length with trailing zeros trimmed, at the
// grammar's 4-digit precision.
func coord(v float64) string {
	s := strconv.FormatFloat(v, 'f', path.Precision, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// ReadFile parses the SVG at filePath.
func ReadFile(filePath string) (*Document, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", filePath)
	}
	defer f.Close()
	return Read(f)
}

type rawElement struct {
	D      string `xml:"d,attr"`
	Points string `xml:"points,attr"`

	ID          string `xml:"id,attr"`
	Fill        string `xml:"fill,attr"`
	Stroke      string `xml:"stroke,attr"`
	StrokeWidth string `xml:"stroke-width,attr"`
	LineCap     string `xml:"stroke-linecap,attr"`

	Tag            string `xml:"data-tag,attr"`
	Z              string `xml:"data-z,attr"`
	StrokeToPath   string `xml:"data-stroke-to-path,attr"`
	Outset         string `xml:"data-outset,attr"`
	OutsetDistance string `xml:"data-outset-distance,attr"`
}

// Read parses a stage artifact, walking the elements in document order so
// features keep their emission order. Unknown elements are skipped. An
// element with unparseable path data is dropped and recorded in the
// document's Warnings rather than failing the read.
func Read(r io.Reader) (*Document, error) {
	doc := &Document{}
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse SVG")
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "svg":
			for _, a := range start.Attr {
				switch a.Name.Local {
				case "width":
					doc.Width, _ = strconv.ParseFloat(a.Value, 64)
				case "height":
					doc.Height, _ = strconv.ParseFloat(a.Value, 64)
				}
			}
		case "path", "polyline":
			var el rawElement
			if err := dec.DecodeElement(&el, &start); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse SVG element")
			}
			f, err := elementFeature(start.Name.Local, el)
			if err != nil {
				// Broken geometry costs only its own element. Anything
				// else, like an unreadable attribute, means the artifact
				// itself is damaged and aborts the read.
				if errors.Recoverable(err) {
					doc.Warnings = append(doc.Warnings, err.Error())
					continue
				}
				return nil, err
			}
			doc.Features = append(doc.Features, f)
		default:
			// Container or metadata element, keep walking.
		}
	}
	return doc, nil
}

func elementFeature(kind string, el rawElement) (feature.Feature, error) {
	f := feature.Feature{
		ID:      el.ID,
		Tag:     el.Tag,
		Fill:    el.Fill,
		Stroke:  el.Stroke,
		LineCap: el.LineCap,
	}
	if el.StrokeWidth != "" {
		w, err := strconv.ParseFloat(el.StrokeWidth, 64)
		if err != nil {
			return feature.Feature{}, errors.New(errors.ErrCodeInvalidInput, "element %s: bad stroke-width %q", el.ID, el.StrokeWidth)
		}
		f.StrokeWidth = w
	}
	if el.Z != "" {
		z, err := strconv.Atoi(el.Z)
		if err != nil {
			return feature.Feature{}, errors.New(errors.ErrCodeInvalidInput, "element %s: bad data-z %q", el.ID, el.Z)
		}
		f.ZOrder = z
	}
	f.StrokeToPath = el.StrokeToPath == "true"
	f.Outset = el.Outset == "true"
	if el.OutsetDistance != "" {
		d, err := strconv.ParseFloat(el.OutsetDistance, 64)
		if err != nil {
			return feature.Feature{}, errors.New(errors.ErrCodeInvalidInput, "element %s: bad data-outset-distance %q", el.ID, el.OutsetDistance)
		}
		f.OutsetDistance = d
	}

	switch kind {
	case "path":
		paths, err := path.Parse(el.D)
		if err != nil {
			return feature.Feature{}, errors.Wrap(errors.ErrCodeMalformedPathGrammar, err, "element %s", el.ID)
		}
		f.Paths = paths
	case "polyline":
		pts, err := parsePoints(el.Points)
		if err != nil {
			return feature.Feature{}, errors.Wrap(errors.ErrCodeMalformedPathGrammar, err, "element %s", el.ID)
		}
		if len(pts) < 2 {
			return feature.Feature{}, errors.New(errors.ErrCodeInsufficientGeometry, "element %s: polyline needs at least 2 points", el.ID)
		}
		closed := len(pts) > 2 && pts[0].Equals(pts[len(pts)-1], path.CloseTolerance)
		f.Paths = []path.Path{path.FromPoints(pts, closed)}
	}
	return f, nil
}

func parsePoints(points string) ([]geom.Point, error) {
	fields := strings.FieldsFunc(points, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' || r == '\n' })
	if len(fields)%2 != 0 {
		return nil, errors.New(errors.ErrCodeMalformedPathGrammar, "odd coordinate count %d", len(fields))
	}
	pts := make([]geom.Point, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		x, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeMalformedPathGrammar, "bad coordinate %q", fields[i])
		}
		y, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeMalformedPathGrammar, "bad coordinate %q", fields[i+1])
		}
		pts = append(pts, geom.Point{X: x, Y: y})
	}
	return pts, nil
}
