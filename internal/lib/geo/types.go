package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Geometry validation failures reported by Extract and NewLine.
var (
	ErrEmptyGeometry       = errors.New("geometry is empty")
	ErrTooFewVertices      = errors.New("line must have at least 2 vertices")
	ErrUnsupportedGeometry = errors.New("geometry is not a line")
	ErrMultiPart           = errors.New("multi-part line geometry")
	ErrInvalidCoordinate   = errors.New("line contains a non-finite coordinate")
)

// Line is an immutable ordered vertex chain of at least two 2D vertices.
// Z values never reach it: orb points are 2D.
type Line struct {
	vertices orb.LineString
}

// NewLine validates ls and returns a Line holding a private copy of it.
func NewLine(ls orb.LineString) (Line, error) {
	if len(ls) == 0 {
		return Line{}, ErrEmptyGeometry
	}
	if len(ls) < 2 {
		return Line{}, ErrTooFewVertices
	}
	for i, p := range ls {
		if !Finite(p) {
			return Line{}, fmt.Errorf("vertex %d: %w", i, ErrInvalidCoordinate)
		}
	}
	return Line{vertices: ls.Clone()}, nil
}

// MustLine is NewLine for literals known to be valid. It panics otherwise.
func MustLine(ls orb.LineString) Line {
	l, err := NewLine(ls)
	if err != nil {
		panic(err)
	}
	return l
}

// Extract turns a geometry read from the host into a Line.
// LineStrings are accepted as is and a MultiLineString is accepted only when
// it has exactly one part; anything else is rejected rather than silently
// picking a part.
func Extract(g orb.Geometry) (Line, error) {
	switch g := g.(type) {
	case nil:
		return Line{}, ErrEmptyGeometry
	case orb.LineString:
		return NewLine(g)
	case orb.MultiLineString:
		switch len(g) {
		case 0:
			return Line{}, ErrEmptyGeometry
		case 1:
			return NewLine(g[0])
		default:
			return Line{}, fmt.Errorf("%w: %d parts", ErrMultiPart, len(g))
		}
	default:
		return Line{}, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, g.GeoJSONType())
	}
}

// Parts splits a line geometry into its single-part components, for hosts
// that want each part of a MultiLineString stamped separately.
func Parts(g orb.Geometry) ([]orb.LineString, error) {
	switch g := g.(type) {
	case nil:
		return nil, ErrEmptyGeometry
	case orb.LineString:
		return []orb.LineString{g}, nil
	case orb.MultiLineString:
		if len(g) == 0 {
			return nil, ErrEmptyGeometry
		}
		return []orb.LineString(g), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, g.GeoJSONType())
	}
}

// Vertices returns a copy of the vertex chain.
func (l Line) Vertices() orb.LineString {
	return l.vertices.Clone()
}

// NumVertices returns the vertex count.
func (l Line) NumVertices() int {
	return len(l.vertices)
}

// Start returns the first vertex.
func (l Line) Start() orb.Point {
	return l.vertices[0]
}

// End returns the last vertex.
func (l Line) End() orb.Point {
	return l.vertices[len(l.vertices)-1]
}

// Reversed returns a new Line whose first vertex is l's last.
func (l Line) Reversed() Line {
	rev := l.vertices.Clone()
	rev.Reverse()
	return Line{vertices: rev}
}

// IsZero reports whether l is the zero Line (never validated).
func (l Line) IsZero() bool {
	return len(l.vertices) == 0
}

// Finite reports whether both coordinates of p are finite numbers.
func Finite(p orb.Point) bool {
	return !math.IsNaN(p[0]) && !math.IsNaN(p[1]) &&
		!math.IsInf(p[0], 0) && !math.IsInf(p[1], 0)
}
