package pipeline

import (
	"github.com/csites/osm2svg4opcd/pkg/clip"
	"github.com/csites/osm2svg4opcd/pkg/compose"
	"github.com/csites/osm2svg4opcd/pkg/svg"
)

// Compose runs stage 4: resolve z-order overlaps so every feature keeps a
// clearance gap to the features stacked above it. Returns the composited
// document and the ids of features dropped as fully occluded.
func Compose(doc *svg.Document, opts Options) (*svg.Document, []string, error) {
	opts.SetComposeDefaults()

	res, err := compose.Composite(doc.Features, compose.Options{
		Gap:         opts.Gap,
		SimplifyTol: opts.SimplifyTol,
	}, clip.NewEngine())
	if err != nil {
		return nil, nil, err
	}

	out := cloneDocument(doc)
	out.Features = res.Features
	return out, res.Dropped, nil
}
