package pipeline

import (
	"bytes"
	"fmt"

	"github.com/csites/osm2svg4opcd/pkg/errors"
	"github.com/csites/osm2svg4opcd/pkg/feature"
	"github.com/csites/osm2svg4opcd/pkg/osm"
	"github.com/csites/osm2svg4opcd/pkg/path"
	"github.com/csites/osm2svg4opcd/pkg/stroke"
	"github.com/csites/osm2svg4opcd/pkg/svg"
)

// Convert runs stage 1: parse the map data, project features into drawing
// space, resolve styles, and replace stroked ways with filled outlines.
//
// Per-feature outline failures are recoverable. The feature keeps its
// polyline form and the problem is reported as a warning, so one degenerate
// way never aborts the batch.
func Convert(data []byte, opts Options) (*svg.Document, []string, error) {
	if err := opts.ValidateForConvert(); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "convert options")
	}

	src, err := osm.Parse(bytes.NewReader(data), opts.Styles, opts.Width)
	if err != nil {
		return nil, nil, err
	}
	warnings := src.Warnings

	for i := range src.Features {
		f := &src.Features[i]
		if !f.StrokeToPath {
			continue
		}
		if err := outlineFeature(f, opts); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", f.ID, err))
		}
	}

	return &svg.Document{
		Width:    src.Width,
		Height:   src.Height,
		Features: src.Features,
	}, warnings, nil
}

// outlineFeature replaces a stroked feature's centerline paths with filled
// outline rings and moves the stroke color into the fill.
func outlineFeature(f *feature.Feature, opts Options) error {
	outlined := make([]path.Path, 0, len(f.Paths))
	for _, p := range f.Paths {
		out, err := stroke.Outline(p.Nodes(), p.Closed, stroke.Options{
			Width:             f.StrokeWidth,
			Cap:               stroke.CapStyle(f.LineCap),
			StraightThreshold: opts.StraightThreshold,
		})
		if err != nil {
			return err
		}
		outlined = append(outlined, out)
	}
	f.Paths = outlined
	f.Fill = f.Stroke
	f.Stroke = ""
	f.StrokeWidth = 0
	return nil
}
