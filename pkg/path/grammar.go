package path

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/csites/osm2svg4opcd/pkg/errors"
	"github.com/csites/osm2svg4opcd/pkg/geom"
)

// Precision is the number of fractional digits emitted for coordinates.
// Fixed precision keeps output stable across runs.
const Precision = 4

// Encode serializes subpaths to the path-description grammar: `M x y` starts
// a subpath, `L x y` a straight segment, `C c1x c1y c2x c2y x y` a cubic
// segment, and `Z` closes the subpath back to its `M`.
func Encode(paths []Path) string {
	var b strings.Builder
	for i, p := range paths {
		if len(p.Segments) == 0 {
			continue
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		encodeOne(&b, p)
	}
	return b.String()
}

// EncodePath serializes a single path.
func EncodePath(p Path) string {
	var b strings.Builder
	encodeOne(&b, p)
	return b.String()
}

func encodeOne(b *strings.Builder, p Path) {
	if len(p.Segments) == 0 {
		return
	}
	start := p.Segments[0].Start()
	fmt.Fprintf(b, "M %s %s", coord(start.X), coord(start.Y))

	segs := p.Segments
	if p.Closed {
		// Z implies the straight closing segment, so a final line back to
		// the start is folded into it. Parse synthesizes it again.
		if last, ok := segs[len(segs)-1].(Line); ok && last.P1.Equals(start, CloseTolerance) {
			segs = segs[:len(segs)-1]
		}
	}
	for _, s := range segs {
		switch seg := s.(type) {
		case Line:
			fmt.Fprintf(b, " L %s %s", coord(seg.P1.X), coord(seg.P1.Y))
		case Cubic:
			fmt.Fprintf(b, " C %s %s %s %s %s %s",
				coord(seg.P1.X), coord(seg.P1.Y),
				coord(seg.P2.X), coord(seg.P2.Y),
				coord(seg.P3.X), coord(seg.P3.Y))
		}
	}
	if p.Closed {
		b.WriteString(" Z")
	}
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', Precision, 64)
}

// Parse reads the path-description grammar and returns one Path per subpath.
// Commands are absolute M, L, C and Z; coordinates may be separated by
// whitespace or commas. Bare coordinate groups after M, L or C repeat the
// previous command (after M the repetition is an implicit L, matching how
// polyline point lists convert to paths). Anything else fails with
// MalformedPathGrammar.
func Parse(d string) ([]Path, error) {
	tokens := tokenize(d)
	if len(tokens) == 0 {
		return nil, errors.New(errors.ErrCodeMalformedPathGrammar, "empty path data")
	}

	var (
		paths   []Path
		segs    []Segment
		current geom.Point
		start   geom.Point
		open    bool
	)

	flush := func(closed bool) {
		if open && len(segs) > 0 {
			p := Path{Segments: segs}
			p.Closed = closed || p.EndsCoincide()
			paths = append(paths, p)
		}
		segs = nil
		open = false
	}

	i := 0
	cmd := byte(0)
	for i < len(tokens) {
		tok := tokens[i]
		if len(tok) == 1 && isCommand(tok[0]) {
			cmd = tok[0]
			i++
			if cmd == 'Z' {
				if !open {
					return nil, errors.New(errors.ErrCodeMalformedPathGrammar, "Z before any subpath")
				}
				if !current.Equals(start, CloseTolerance) {
					segs = append(segs, Line{P0: current, P1: start})
				}
				current = start
				flush(true)
				cmd = 0
			}
			continue
		}

		// A bare coordinate group repeats the previous command.
		switch cmd {
		case 'M':
			p, n, err := takePoint(tokens, i)
			if err != nil {
				return nil, err
			}
			i = n
			flush(false)
			start, current = p, p
			open = true
			cmd = 'L' // subsequent pairs are implicit line segments
		case 'L':
			if !open {
				return nil, errors.New(errors.ErrCodeMalformedPathGrammar, "L before M")
			}
			p, n, err := takePoint(tokens, i)
			if err != nil {
				return nil, err
			}
			i = n
			segs = append(segs, Line{P0: current, P1: p})
			current = p
		case 'C':
			if !open {
				return nil, errors.New(errors.ErrCodeMalformedPathGrammar, "C before M")
			}
			c1, n, err := takePoint(tokens, i)
			if err != nil {
				return nil, err
			}
			c2, n, err := takePoint(tokens, n)
			if err != nil {
				return nil, err
			}
			p, n, err := takePoint(tokens, n)
			if err != nil {
				return nil, err
			}
			i = n
			segs = append(segs, Cubic{P0: current, P1: c1, P2: c2, P3: p})
			current = p
		default:
			return nil, errors.New(errors.ErrCodeMalformedPathGrammar, "unexpected token %q", tok)
		}
	}

	flush(false)
	if len(paths) == 0 {
		return nil, errors.New(errors.ErrCodeMalformedPathGrammar, "no subpaths in path data")
	}
	return paths, nil
}

// ParseOne reads path data expected to contain exactly one subpath.
func ParseOne(d string) (Path, error) {
	paths, err := Parse(d)
	if err != nil {
		return Path{}, err
	}
	if len(paths) != 1 {
		return Path{}, errors.New(errors.ErrCodeMalformedPathGrammar,
			"expected a single subpath, found %d", len(paths))
	}
	return paths[0], nil
}

func isCommand(c byte) bool {
	return c == 'M' || c == 'L' || c == 'C' || c == 'Z'
}

func tokenize(d string) []string {
	return strings.FieldsFunc(d, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == ','
	})
}

func takePoint(tokens []string, i int) (geom.Point, int, error) {
	if i+1 >= len(tokens) {
		return geom.Point{}, 0, errors.New(errors.ErrCodeMalformedPathGrammar,
			"truncated coordinate pair at end of path data")
	}
	x, err := strconv.ParseFloat(tokens[i], 64)
	if err != nil {
		return geom.Point{}, 0, errors.New(errors.ErrCodeMalformedPathGrammar,
			"bad coordinate %q", tokens[i])
	}
	y, err := strconv.ParseFloat(tokens[i+1], 64)
	if err != nil {
		return geom.Point{}, 0, errors.New(errors.ErrCodeMalformedPathGrammar,
			"bad coordinate %q", tokens[i+1])
	}
	return geom.Point{X: x, Y: y}, i + 2, nil
}
