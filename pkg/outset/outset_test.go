package outset

import (
	"math"
	"testing"

	"github.com/csites/osm2svg4opcd/pkg/clip"
	"github.com/csites/osm2svg4opcd/pkg/errors"
	"github.com/csites/osm2svg4opcd/pkg/geom"
	"github.com/csites/osm2svg4opcd/pkg/path"
)

// fakeOffsetter records the rings it receives and plays back canned results.
type fakeOffsetter struct {
	calls   []clip.Ring
	results [][]clip.Ring
}

func (f *fakeOffsetter) Offset(rings []clip.Ring, delta float64) []clip.Ring {
	f.calls = append(f.calls, rings[0])
	if len(f.results) == 0 {
		return nil
	}
	r := f.results[0]
	f.results = f.results[1:]
	return r
}

func closedSquare(size float64) path.Path {
	return path.FromPoints([]geom.Point{
		{X: 0, Y: 0}, {X: size, Y: 0}, {X: size, Y: size}, {X: 0, Y: size},
	}, true)
}

func TestCorrectPicksLargestRing(t *testing.T) {
	small := clip.Ring{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	big := clip.Ring{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 2, Y: 5}, {X: 0, Y: 4}}
	fake := &fakeOffsetter{results: [][]clip.Ring{{small, big}}}

	got, err := Correct(closedSquare(10), Options{Distance: 0.5}, fake)
	if err != nil {
		t.Fatalf("Correct() error = %v", err)
	}
	if !got.Closed {
		t.Error("Correct() returned an open path")
	}
	if len(got.Segments) != len(big) {
		t.Fatalf("len(Segments) = %d, want %d", len(got.Segments), len(big))
	}
	for i, seg := range got.Segments {
		if !seg.Start().Equals(big[i], 1e-12) {
			t.Errorf("segment %d start = %+v, want %+v", i, seg.Start(), big[i])
		}
	}
}

func TestCorrectSampleDensity(t *testing.T) {
	ring := clip.Ring{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}

	tests := []struct {
		name string
		size float64
		opts Options
		want int // sample count before duplicate dropping
	}{
		{
			name: "short boundary hits the floor",
			size: 1, // perimeter 4, 4*2 < 32
			opts: Options{Distance: 0.5},
			want: DefaultMinSamples,
		},
		{
			name: "long boundary scales with arc length",
			size: 100, // perimeter 400, 400*2 = 800
			opts: Options{Distance: 0.5},
			want: 800,
		},
		{
			name: "explicit overrides",
			size: 10, // perimeter 40, 40*1 = 40
			opts: Options{Distance: 0.5, SamplesPerUnit: 1, MinSamples: 8},
			want: 40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeOffsetter{results: [][]clip.Ring{{ring}}}
			if _, err := Correct(closedSquare(tt.size), tt.opts, fake); err != nil {
				t.Fatalf("Correct() error = %v", err)
			}
			// The closing sample at t=1 repeats the first point and is
			// dropped, so the ring carries one point fewer.
			if got := len(fake.calls[0]); got != tt.want-1 {
				t.Errorf("sample count = %d, want %d", got, tt.want-1)
			}
		})
	}
}

func TestCorrectRetriesWithDenserSampling(t *testing.T) {
	ring := clip.Ring{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	fake := &fakeOffsetter{results: [][]clip.Ring{nil, nil, {ring}}}

	_, err := Correct(closedSquare(10), Options{Distance: 0.5}, fake)
	if err != nil {
		t.Fatalf("Correct() error = %v", err)
	}
	if len(fake.calls) != 3 {
		t.Fatalf("offset calls = %d, want 3", len(fake.calls))
	}
	if len(fake.calls[1]) <= len(fake.calls[0]) || len(fake.calls[2]) <= len(fake.calls[1]) {
		t.Errorf("sample counts did not grow: %d, %d, %d",
			len(fake.calls[0]), len(fake.calls[1]), len(fake.calls[2]))
	}
}

func TestCorrectExhaustsAttempts(t *testing.T) {
	fake := &fakeOffsetter{}

	_, err := Correct(closedSquare(10), Options{Distance: 0.5}, fake)
	if err == nil {
		t.Fatal("Correct() error = nil, want OffsetNoGeometry")
	}
	if got := errors.GetCode(err); got != errors.ErrCodeOffsetNoGeometry {
		t.Errorf("GetCode() = %q, want %q", got, errors.ErrCodeOffsetNoGeometry)
	}
	if len(fake.calls) != maxAttempts {
		t.Errorf("offset calls = %d, want %d", len(fake.calls), maxAttempts)
	}
}

func TestCorrectRequiresClosedPath(t *testing.T) {
	open := path.FromPoints([]geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}, false)

	_, err := Correct(open, Options{Distance: 0.5}, &fakeOffsetter{})
	if err == nil {
		t.Fatal("Correct() error = nil, want InvalidInput")
	}
	if got := errors.GetCode(err); got != errors.ErrCodeInvalidInput {
		t.Errorf("GetCode() = %q, want %q", got, errors.ErrCodeInvalidInput)
	}
}

func TestCorrectZeroDistancePreservesArea(t *testing.T) {
	got, err := Correct(closedSquare(10), Options{}, clip.NewEngine())
	if err != nil {
		t.Fatalf("Correct() error = %v", err)
	}
	if area := math.Abs(geom.RingArea(got.Nodes())); math.Abs(area-100) > 0.01 {
		t.Errorf("area = %v, want 100 within simplification tolerance", area)
	}
}

func TestCorrectOutwardGrowsArea(t *testing.T) {
	got, err := Correct(closedSquare(10), Options{Distance: 0.5}, clip.NewEngine())
	if err != nil {
		t.Fatalf("Correct() error = %v", err)
	}
	// 10x10 grown by 0.5 with round corners.
	want := 100 + 4*10*0.5 + math.Pi*0.25
	if area := math.Abs(geom.RingArea(got.Nodes())); math.Abs(area-want) > 0.5 {
		t.Errorf("area = %v, want ~%v", area, want)
	}
}
