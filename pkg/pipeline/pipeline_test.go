package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/csites/osm2svg4opcd/pkg/cache"
	"github.com/csites/osm2svg4opcd/pkg/feature"
	"github.com/csites/osm2svg4opcd/pkg/geom"
	"github.com/csites/osm2svg4opcd/pkg/path"
	"github.com/csites/osm2svg4opcd/pkg/style"
	"github.com/csites/osm2svg4opcd/pkg/svg"
)

const testStyles = `
[building]
fill = "#999999"
z-order = 10

[highway]
stroke = "#FCA328"
stroke-width = 2.0
stroke-to-path = true
z-order = 30

["golf.bunker"]
fill = "#EEDD82"
z-order = 20
outset = true
outset-distance = 0.5
`

// Bounds straddle the equator so the latitude correction factor is exactly 1
// and projected coordinates are easy to compute by hand.
const testOSM = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6">
 <bounds minlat="-0.5" minlon="0.0" maxlat="0.5" maxlon="1.0"/>
 <node id="n1" lat="-0.3" lon="0.2"/>
 <node id="n2" lat="-0.3" lon="0.4"/>
 <node id="n3" lat="-0.1" lon="0.4"/>
 <node id="n4" lat="-0.1" lon="0.2"/>
 <node id="n5" lat="0.0" lon="0.1"/>
 <node id="n6" lat="0.0" lon="0.9"/>
 <node id="n7" lat="0.2" lon="0.6"/>
 <node id="n8" lat="0.2" lon="0.8"/>
 <node id="n9" lat="0.4" lon="0.8"/>
 <node id="n10" lat="0.4" lon="0.6"/>
 <way id="w1">
  <nd ref="n1"/><nd ref="n2"/><nd ref="n3"/><nd ref="n4"/><nd ref="n1"/>
  <tag k="building" v="yes"/>
 </way>
 <way id="w2">
  <nd ref="n5"/><nd ref="n6"/>
  <tag k="highway" v="path"/>
 </way>
 <way id="w3">
  <nd ref="n7"/><nd ref="n8"/><nd ref="n9"/><nd ref="n10"/><nd ref="n7"/>
  <tag k="golf" v="bunker"/>
 </way>
</osm>`

func testTable(t *testing.T) *style.Table {
	t.Helper()
	table, err := style.Parse([]byte(testStyles))
	if err != nil {
		t.Fatalf("style.Parse() error = %v", err)
	}
	return table
}

func testOptions(t *testing.T) Options {
	return Options{Styles: testTable(t), Width: 100}
}

func findFeature(t *testing.T, doc *svg.Document, id string) *feature.Feature {
	t.Helper()
	for i := range doc.Features {
		if doc.Features[i].ID == id {
			return &doc.Features[i]
		}
	}
	t.Fatalf("feature %s not found", id)
	return nil
}

func hasCurves(p path.Path) bool {
	for _, s := range p.Segments {
		if _, ok := s.(path.Cubic); ok {
			return true
		}
	}
	return false
}

func TestOptionsValidateForConvert(t *testing.T) {
	// Missing style table
	opts := Options{Width: 100}
	if err := opts.ValidateForConvert(); err == nil {
		t.Error("missing style table should fail")
	}

	// Negative width
	opts = Options{Styles: testTable(t), Width: -1}
	if err := opts.ValidateForConvert(); err == nil {
		t.Error("negative width should fail")
	}

	// Defaults
	opts = Options{Styles: testTable(t)}
	if err := opts.ValidateForConvert(); err != nil {
		t.Fatalf("valid options should pass: %v", err)
	}
	if opts.Width != DefaultWidth {
		t.Errorf("Width should be %v, got %v", DefaultWidth, opts.Width)
	}
	if opts.StraightThreshold != DefaultStraightThreshold {
		t.Errorf("StraightThreshold should be %v, got %v", DefaultStraightThreshold, opts.StraightThreshold)
	}
}

func TestOptionsStageDefaults(t *testing.T) {
	opts := Options{}
	opts.SetSmoothDefaults()
	opts.SetOutsetDefaults()
	opts.SetComposeDefaults()

	if opts.Tightness != DefaultTightness {
		t.Errorf("Tightness should be %v, got %v", DefaultTightness, opts.Tightness)
	}
	if opts.OutsetDistance != DefaultOutsetDistance {
		t.Errorf("OutsetDistance should be %v, got %v", DefaultOutsetDistance, opts.OutsetDistance)
	}
	if opts.SamplesPerUnit != DefaultSamplesPerUnit {
		t.Errorf("SamplesPerUnit should be %v, got %v", DefaultSamplesPerUnit, opts.SamplesPerUnit)
	}
	if opts.MinSamples != DefaultMinSamples {
		t.Errorf("MinSamples should be %d, got %d", DefaultMinSamples, opts.MinSamples)
	}
	if opts.Gap != DefaultGap {
		t.Errorf("Gap should be %v, got %v", DefaultGap, opts.Gap)
	}
	if opts.SimplifyTol != DefaultSimplifyTol {
		t.Errorf("SimplifyTol should be %v, got %v", DefaultSimplifyTol, opts.SimplifyTol)
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := testOptions(t)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("first validation failed: %v", err)
	}

	originalWidth := opts.Width
	originalTightness := opts.Tightness

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second validation failed: %v", err)
	}
	if opts.Width != originalWidth {
		t.Error("Width changed on second call")
	}
	if opts.Tightness != originalTightness {
		t.Error("Tightness changed on second call")
	}
}

func TestOptionsKeyOptsDiffer(t *testing.T) {
	keyer := cache.NewDefaultKeyer()

	a := testOptions(t)
	b := testOptions(t)
	if err := a.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if err := b.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	b.Tightness = 0.8

	ka := keyer.StageKey(StageSmooth, "hash", a.SmoothKeyOpts())
	kb := keyer.StageKey(StageSmooth, "hash", b.SmoothKeyOpts())
	if ka == kb {
		t.Error("different tightness should produce different smooth keys")
	}

	// Run id never enters a cache key
	b = a
	b.RunID = "other-run"
	if keyer.StageKey(StageConvert, "hash", a.ConvertKeyOpts()) !=
		keyer.StageKey(StageConvert, "hash", b.ConvertKeyOpts()) {
		t.Error("run id should not affect cache keys")
	}
}

func TestConvertOutlinesStrokedWays(t *testing.T) {
	doc, warnings, err := Convert([]byte(testOSM), testOptions(t))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if doc.Width != 100 || doc.Height != 100 {
		t.Errorf("document should be 100x100, got %vx%v", doc.Width, doc.Height)
	}

	road := findFeature(t, doc, "way_w2_path_highway")
	if len(road.Paths) != 1 || !road.Paths[0].Closed {
		t.Fatal("stroked way should become a single closed outline")
	}
	if road.Fill != "#FCA328" {
		t.Errorf("outline should take the stroke color as fill, got %q", road.Fill)
	}
	if road.Stroke != "" || road.StrokeWidth != 0 {
		t.Errorf("outline should drop stroke styling, got %q width %v", road.Stroke, road.StrokeWidth)
	}

	// The outline straddles the centerline by half the stroke width.
	b := road.Paths[0].Bounds()
	if diff := b.Max.Y - b.Min.Y; diff < 1.9 || diff > 2.1 {
		t.Errorf("outline thickness should be about 2, got %v", diff)
	}

	// Unstroked features pass through untouched.
	building := findFeature(t, doc, "way_w1")
	if building.Fill != "#999999" || !building.Paths[0].Closed {
		t.Error("building should keep its fill and closed ring")
	}
}

func TestSmoothFitsCurves(t *testing.T) {
	doc, _, err := Convert([]byte(testOSM), testOptions(t))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	smoothed, _ := Smooth(doc, testOptions(t))

	building := findFeature(t, smoothed, "way_w1")
	if !hasCurves(building.Paths[0]) {
		t.Error("smoothing should introduce curve segments")
	}

	// Node positions are preserved.
	before := findFeature(t, doc, "way_w1").Paths[0].Nodes()
	after := building.Paths[0].Nodes()
	if len(before) != len(after) {
		t.Fatalf("node count changed: %d != %d", len(before), len(after))
	}
	for i := range before {
		if !before[i].Equals(after[i], 1e-9) {
			t.Errorf("node %d moved from %v to %v", i, before[i], after[i])
		}
	}

	// Input document is not modified.
	if hasCurves(findFeature(t, doc, "way_w1").Paths[0]) {
		t.Error("input document should stay untouched")
	}
}

func TestOutsetGrowsSelectedFeatures(t *testing.T) {
	doc, _, err := Convert([]byte(testOSM), testOptions(t))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	out, warnings := Outset(doc, testOptions(t))
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}

	// The bunker ring spans 20x20 and grows by its 0.5 outset distance.
	bunker := findFeature(t, out, "way_w3")
	b := bunker.Paths[0].Bounds()
	if w := b.Max.X - b.Min.X; w < 20.5 || w > 21.5 {
		t.Errorf("bunker width should be about 21, got %v", w)
	}

	// Unselected features are untouched.
	building := findFeature(t, out, "way_w1")
	bb := building.Paths[0].Bounds()
	if w := bb.Max.X - bb.Min.X; w != 20 {
		t.Errorf("building width should stay 20, got %v", w)
	}
}

func TestComposeDropsOccludedFeature(t *testing.T) {
	square := func(id string, min geom.Point, size float64, z int) feature.Feature {
		pts := []geom.Point{
			min,
			{X: min.X + size, Y: min.Y},
			{X: min.X + size, Y: min.Y + size},
			{X: min.X, Y: min.Y + size},
		}
		return feature.Feature{ID: id, ZOrder: z, Paths: []path.Path{path.FromPoints(pts, true)}}
	}
	doc := &svg.Document{
		Width:  100,
		Height: 100,
		Features: []feature.Feature{
			square("hidden", geom.Point{X: 10, Y: 10}, 5, 1),
			square("cover", geom.Point{X: 0, Y: 0}, 50, 2),
		},
	}

	out, dropped, err := Compose(doc, testOptions(t))
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if len(dropped) != 1 || dropped[0] != "hidden" {
		t.Errorf("hidden square should be dropped, got %v", dropped)
	}
	if len(out.Features) != 1 || out.Features[0].ID != "cover" {
		t.Errorf("only the cover should survive, got %d features", len(out.Features))
	}
}

func TestRunnerExecute(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	runner := NewRunner(c, nil, nil)
	defer runner.Close()

	opts := testOptions(t)
	opts.RunID = "run-1"

	result, err := runner.Execute(ctx, []byte(testOSM), opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Document == nil || len(result.Document.Features) == 0 {
		t.Fatal("Execute should produce a composited document")
	}
	if result.Document.RunID != "run-1" {
		t.Errorf("final document should carry the run id, got %q", result.Document.RunID)
	}
	for _, stage := range []string{StageConvert, StageSmooth, StageOutset, StageCompose} {
		if len(result.Artifacts[stage]) == 0 {
			t.Errorf("missing %s artifact", stage)
		}
	}
	if hit := result.CacheInfo; hit.ConvertHit || hit.SmoothHit || hit.OutsetHit || hit.ComposeHit {
		t.Errorf("first run should miss every stage: %+v", hit)
	}

	// Stage artifacts are cached without the run id, so a second run with a
	// different id still hits every stage.
	opts2 := testOptions(t)
	opts2.RunID = "run-2"
	result2, err := runner.Execute(ctx, []byte(testOSM), opts2)
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}
	if hit := result2.CacheInfo; !hit.ConvertHit || !hit.SmoothHit || !hit.OutsetHit || !hit.ComposeHit {
		t.Errorf("second run should hit every stage: %+v", hit)
	}
	if result2.Document.RunID != "run-2" {
		t.Errorf("cached run should carry its own run id, got %q", result2.Document.RunID)
	}
}

func TestRunnerExecuteRefresh(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	runner := NewRunner(c, nil, nil)
	defer runner.Close()

	opts := testOptions(t)
	if _, err := runner.Execute(ctx, []byte(testOSM), opts); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	refreshOpts := testOptions(t)
	refreshOpts.Refresh = true
	result, err := runner.Execute(ctx, []byte(testOSM), refreshOpts)
	if err != nil {
		t.Fatalf("refresh Execute() error = %v", err)
	}
	if hit := result.CacheInfo; hit.ConvertHit || hit.SmoothHit || hit.OutsetHit || hit.ComposeHit {
		t.Errorf("refresh run should bypass the cache: %+v", hit)
	}
}

func TestRunnerExecuteInvalidOptions(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	if _, err := runner.Execute(context.Background(), []byte(testOSM), Options{}); err == nil {
		t.Error("missing style table should fail")
	}
}

func TestConvertPipelineRoundTrip(t *testing.T) {
	// Each stage's artifact must parse back into the document that the next
	// stage consumed, byte for byte on re-encoding.
	doc, _, err := Convert([]byte(testOSM), testOptions(t))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	data := encodeDocument(doc)
	again, err := svg.Read(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(encodeDocument(again)) != string(data) {
		t.Error("convert artifact should re-encode identically")
	}
}
