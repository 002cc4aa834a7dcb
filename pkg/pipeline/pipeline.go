// Package pipeline provides the core conversion pipeline for osm2svg.
//
// This package implements the complete convert → smooth → outset → compose
// pipeline shared by all CLI entry points. By centralizing this logic, each
// subcommand and the full `run` command behave identically.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Convert: project map features, resolve styles, outline stroked ways
//  2. Smooth: fit auto-smooth cubic curves through every path's nodes
//  3. Outset: grow selected feature classes by their outset distance
//  4. Compose: resolve z-order overlaps with a clearance gap
//
// Each stage consumes and produces an SVG document, so stages can be run
// independently on files or chained in memory.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{Styles: table, Width: 1000}
//	result, err := runner.Execute(ctx, osmData, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts[pipeline.StageCompose]
//
// Run individual stages:
//
//	doc, warnings, err := runner.Convert(ctx, osmData, opts)
//	doc, warnings := runner.Smooth(ctx, doc, opts)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/csites/osm2svg4opcd/pkg/compose"
	"github.com/csites/osm2svg4opcd/pkg/osm"
	"github.com/csites/osm2svg4opcd/pkg/outset"
	"github.com/csites/osm2svg4opcd/pkg/smooth"
	"github.com/csites/osm2svg4opcd/pkg/stroke"
	"github.com/csites/osm2svg4opcd/pkg/style"
	"github.com/csites/osm2svg4opcd/pkg/svg"
)

// Stage names, used for cache keys and artifact map keys.
const (
	StageConvert = "convert"
	StageSmooth  = "smooth"
	StageOutset  = "outset"
	StageCompose = "compose"
)

// Defaults for every stage option. The CLI, the Runner, and direct stage
// calls all pull from here so a zero Options value means the same thing
// everywhere.
const (
	// DefaultWidth is the output document width in drawing units. Height
	// follows from the map's aspect ratio.
	DefaultWidth = osm.DefaultWidth

	// DefaultTightness scales auto-smooth handle lengths.
	DefaultTightness = smooth.DefaultTightness

	// DefaultOutsetDistance applies to outset features whose style rule
	// does not carry its own distance.
	DefaultOutsetDistance = outset.DefaultDistance

	// DefaultSamplesPerUnit and DefaultMinSamples control curve sampling
	// density ahead of outset correction.
	DefaultSamplesPerUnit = outset.DefaultSamplesPerUnit
	DefaultMinSamples     = outset.DefaultMinSamples

	// DefaultGap is the clearance kept between stacked features.
	DefaultGap = compose.DefaultGap

	// DefaultSimplifyTol is the vertex-reduction tolerance on clipped
	// output.
	DefaultSimplifyTol = compose.DefaultSimplifyTol

	// DefaultStraightThreshold is the joint-straightness cutoff for
	// stroke outlining.
	DefaultStraightThreshold = stroke.DefaultStraightThreshold
)

// Options contains all configuration for the conversion pipeline.
// This struct supports JSON serialization for cache keying.
type Options struct {
	// Convert options
	Width             float64 `json:"width,omitempty"`
	StraightThreshold float64 `json:"straight_threshold,omitempty"`

	// Smooth options
	Tightness float64 `json:"tightness,omitempty"`

	// Outset options
	OutsetDistance float64 `json:"outset_distance,omitempty"`
	SamplesPerUnit float64 `json:"samples_per_unit,omitempty"`
	MinSamples     int     `json:"min_samples,omitempty"`

	// Compose options
	Gap         float64 `json:"gap,omitempty"`
	SimplifyTol float64 `json:"simplify_tol,omitempty"`

	// Refresh bypasses cached stage artifacts.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Styles *style.Table `json:"-"`
	RunID  string       `json:"-"` // stamped on the final document only
	Logger *log.Logger  `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Document is the final composited document.
	Document *svg.Document

	// InputHash is the content hash of the source map data.
	InputHash string

	// Artifacts holds each stage's serialized SVG output keyed by stage
	// name. The compose entry carries the run id when one was set.
	Artifacts map[string][]byte

	// Warnings collects per-feature convert problems. Empty on a convert
	// cache hit, since warnings are not part of the cached artifact.
	Warnings []string

	// Dropped lists feature ids removed as fully occluded.
	Dropped []string

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	FeatureCount int
	ConvertTime  time.Duration
	SmoothTime   time.Duration
	OutsetTime   time.Duration
	ComposeTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ConvertHit bool
	SmoothHit  bool
	OutsetHit  bool
	ComposeHit bool
}

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForConvert(); err != nil {
		return err
	}
	o.SetSmoothDefaults()
	o.SetOutsetDefaults()
	o.SetComposeDefaults()
	o.validated = true
	return nil
}

// ValidateForConvert checks required fields for the convert stage.
func (o *Options) ValidateForConvert() error {
	if o.Styles == nil {
		return fmt.Errorf("style table is required")
	}
	if o.Width < 0 {
		return fmt.Errorf("width must be positive, got %v", o.Width)
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.StraightThreshold == 0 {
		o.StraightThreshold = DefaultStraightThreshold
	}
	o.setLoggerDefault()
	return nil
}

// SetSmoothDefaults sets default values for curve fitting.
func (o *Options) SetSmoothDefaults() {
	if o.Tightness == 0 {
		o.Tightness = DefaultTightness
	}
	o.setLoggerDefault()
}

// SetOutsetDefaults sets default values for outset correction.
func (o *Options) SetOutsetDefaults() {
	if o.OutsetDistance == 0 {
		o.OutsetDistance = DefaultOutsetDistance
	}
	if o.SamplesPerUnit == 0 {
		o.SamplesPerUnit = DefaultSamplesPerUnit
	}
	if o.MinSamples == 0 {
		o.MinSamples = DefaultMinSamples
	}
	o.setLoggerDefault()
}

// SetComposeDefaults sets default values for overlap resolution.
func (o *Options) SetComposeDefaults() {
	if o.Gap == 0 {
		o.Gap = DefaultGap
	}
	if o.SimplifyTol == 0 {
		o.SimplifyTol = DefaultSimplifyTol
	}
	o.setLoggerDefault()
}

func (o *Options) setLoggerDefault() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// convertKeyOpts feeds the convert stage cache key. The style fingerprint is
// included so editing the table invalidates cached conversions.
type convertKeyOpts struct {
	Width             float64 `json:"width"`
	StraightThreshold float64 `json:"straight_threshold"`
	Styles            string  `json:"styles"`
}

func (o *Options) ConvertKeyOpts() any {
	return convertKeyOpts{
		Width:             o.Width,
		StraightThreshold: o.StraightThreshold,
		Styles:            o.Styles.Fingerprint(),
	}
}

type smoothKeyOpts struct {
	Tightness float64 `json:"tightness"`
}

func (o *Options) SmoothKeyOpts() any {
	return smoothKeyOpts{Tightness: o.Tightness}
}

type outsetKeyOpts struct {
	OutsetDistance float64 `json:"outset_distance"`
	SamplesPerUnit float64 `json:"samples_per_unit"`
	MinSamples     int     `json:"min_samples"`
}

func (o *Options) OutsetKeyOpts() any {
	return outsetKeyOpts{
		OutsetDistance: o.OutsetDistance,
		SamplesPerUnit: o.SamplesPerUnit,
		MinSamples:     o.MinSamples,
	}
}

type composeKeyOpts struct {
	Gap         float64 `json:"gap"`
	SimplifyTol float64 `json:"simplify_tol"`
}

func (o *Options) ComposeKeyOpts() any {
	return composeKeyOpts{Gap: o.Gap, SimplifyTol: o.SimplifyTol}
}
