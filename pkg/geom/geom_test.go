package geom

import (
	"math"
	"testing"
)

const eps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= eps
}

func TestPointOps(t *testing.T) {
	p := Pt(3, 4)
	q := Pt(1, -2)

	if got := p.Add(q); got != Pt(4, 2) {
		t.Errorf("Add = %v, want (4,2)", got)
	}
	if got := p.Sub(q); got != Pt(2, 6) {
		t.Errorf("Sub = %v, want (2,6)", got)
	}
	if got := p.Mul(2); got != Pt(6, 8) {
		t.Errorf("Mul = %v, want (6,8)", got)
	}
	if got := p.Dot(q); got != 3-8 {
		t.Errorf("Dot = %v, want -5", got)
	}
	if got := p.Cross(q); got != -6-4 {
		t.Errorf("Cross = %v, want -10", got)
	}
	if got := p.Length(); !almostEqual(got, 5) {
		t.Errorf("Length = %v, want 5", got)
	}
}

func TestNormalize(t *testing.T) {
	u := Pt(0, 7).Normalize()
	if !u.Equals(Pt(0, 1), eps) {
		t.Errorf("Normalize = %v, want (0,1)", u)
	}
	if z := (Point{}).Normalize(); z != (Point{}) {
		t.Errorf("Normalize(zero) = %v, want zero", z)
	}
}

func TestUnitNormal(t *testing.T) {
	n, length := UnitNormal(Pt(0, 0), Pt(10, 0))
	if !almostEqual(length, 10) {
		t.Errorf("length = %v, want 10", length)
	}
	if !n.Equals(Pt(0, 1), eps) {
		t.Errorf("normal = %v, want (0,1)", n)
	}

	n, length = UnitNormal(Pt(2, 2), Pt(2, 2))
	if length != 0 || n != (Point{}) {
		t.Errorf("degenerate segment: normal = %v length = %v, want zero", n, length)
	}
}

func TestIntersectLines(t *testing.T) {
	tests := []struct {
		name           string
		a1, a2, b1, b2 Point
		want           Point
		ok             bool
	}{
		{
			name: "perpendicular",
			a1:   Pt(0, 0), a2: Pt(10, 0),
			b1: Pt(5, -5), b2: Pt(5, 5),
			want: Pt(5, 0), ok: true,
		},
		{
			name: "diagonal",
			a1:   Pt(0, 0), a2: Pt(4, 4),
			b1: Pt(0, 4), b2: Pt(4, 0),
			want: Pt(2, 2), ok: true,
		},
		{
			name: "beyond segment extents",
			a1:   Pt(0, 0), a2: Pt(1, 0),
			b1: Pt(10, -1), b2: Pt(10, 1),
			want: Pt(10, 0), ok: true,
		},
		{
			name: "parallel",
			a1:   Pt(0, 0), a2: Pt(10, 0),
			b1: Pt(0, 1), b2: Pt(10, 1),
			ok: false,
		},
		{
			name: "collinear",
			a1:   Pt(0, 0), a2: Pt(5, 0),
			b1: Pt(6, 0), b2: Pt(9, 0),
			ok: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := IntersectLines(tt.a1, tt.a2, tt.b1, tt.b2)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && !got.Equals(tt.want, eps) {
				t.Errorf("intersection = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPointAlong(t *testing.T) {
	got := PointAlong(Pt(0, 0), Pt(10, 0), 3)
	if !got.Equals(Pt(3, 0), eps) {
		t.Errorf("PointAlong = %v, want (3,0)", got)
	}
	if got := PointAlong(Pt(2, 2), Pt(2, 2), 5); got != Pt(2, 2) {
		t.Errorf("PointAlong with coincident points = %v, want (2,2)", got)
	}
}

func TestBoundsOf(t *testing.T) {
	r := BoundsOf([]Point{Pt(1, 5), Pt(-2, 3), Pt(4, -1)})
	if r.Min != Pt(-2, -1) || r.Max != Pt(4, 5) {
		t.Errorf("BoundsOf = %+v", r)
	}
	if r.Width() != 6 || r.Height() != 6 {
		t.Errorf("Width/Height = %v/%v, want 6/6", r.Width(), r.Height())
	}
}

func TestRingArea(t *testing.T) {
	square := []Point{Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10)}
	if got := RingArea(square); !almostEqual(got, 100) {
		t.Errorf("RingArea ccw = %v, want 100", got)
	}

	reversed := []Point{Pt(0, 10), Pt(10, 10), Pt(10, 0), Pt(0, 0)}
	if got := RingArea(reversed); !almostEqual(got, -100) {
		t.Errorf("RingArea cw = %v, want -100", got)
	}

	if got := RingArea(square[:2]); got != 0 {
		t.Errorf("RingArea degenerate = %v, want 0", got)
	}
}
