// Package chainage places distance-labelled points along line geometries.
//
// Two kinds of distance meet here. The parametric position is how far along
// the vertex chain a point sits, in the geometry's native units; it is what
// interpolation works in. The real-world distance is what the user asked
// for, in a chosen unit. On projected data the two differ by a constant
// factor. On geographic data, where the chain is in degrees but the request
// is in meters, they are related through a sampled DistanceMap.
package chainage

import (
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"

	"github.com/dpup/chainage/internal/lib/units"
)

// MeasureMode selects how real-world length is measured.
type MeasureMode int

const (
	// Planar sums Euclidean segment lengths in native units.
	Planar MeasureMode = iota
	// Geodesic sums ellipsoidal arc lengths, in meters.
	Geodesic
)

func (m MeasureMode) String() string {
	if m == Geodesic {
		return "geodesic"
	}
	return "planar"
}

// Mode is the placement strategy.
type Mode int

const (
	// FixedSpacing places a point every Policy.Spacing.
	FixedSpacing Mode = iota
	// DivideIntoParts splits [Start, End] into Policy.Divide equal intervals.
	DivideIntoParts
	// FirstAndLastOnly places exactly two points, at Start and End.
	FirstAndLastOnly
)

var modeNames = map[Mode]string{
	FixedSpacing:     "fixed",
	DivideIntoParts:  "divide",
	FirstAndLastOnly: "firstlast",
}

func (m Mode) String() string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode resolves "fixed", "divide" or "firstlast".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fixed", "spacing":
		return FixedSpacing, nil
	case "divide", "parts":
		return DivideIntoParts, nil
	case "firstlast", "first_last", "first-last":
		return FirstAndLastOnly, nil
	}
	return FixedSpacing, fmt.Errorf("unknown placement mode %q", s)
}

// Policy describes where points go. Distances are in Unit.
type Policy struct {
	// Start is where the walk begins, >= 0.
	Start float64
	// End is where it stops; 0 means the full length.
	End float64
	// Spacing is the step for FixedSpacing; <= 0 falls back to the length.
	Spacing float64
	Mode    Mode
	// Divide is the part count for DivideIntoParts.
	Divide int
	// ForceLast appends End when the walk stopped short of it.
	ForceLast bool
	// Reverse walks from the last vertex towards the first.
	Reverse bool
	// UseGeodesic measures ellipsoidally where the choice is the user's.
	UseGeodesic bool
	// Unit of Start, End, Spacing and the emitted labels. Unknown means the
	// CRS's native unit.
	Unit units.Unit
	// Tolerance for treating the forced end point as already present. Zero
	// selects max(0.001, 0.1% of End).
	Tolerance float64
}

// Validate checks the policy on its own, before any geometry is involved.
func (p Policy) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{{"start", p.Start}, {"end", p.End}, {"spacing", p.Spacing}, {"tolerance", p.Tolerance}} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return &InvalidPolicyError{Field: f.name, Reason: "must be a finite number"}
		}
	}
	if p.Start < 0 {
		return &InvalidPolicyError{Field: "start", Reason: "must not be negative"}
	}
	if p.End < 0 {
		return &InvalidPolicyError{Field: "end", Reason: "must not be negative"}
	}
	if p.Tolerance < 0 {
		return &InvalidPolicyError{Field: "tolerance", Reason: "must not be negative"}
	}
	if p.End > 0 && p.Start > p.End {
		return &InvalidPolicyError{Field: "start", Reason: fmt.Sprintf("%g is beyond end %g", p.Start, p.End)}
	}
	if p.Unit != units.Unknown && !p.Unit.Valid() {
		return &InvalidPolicyError{Field: "unit", Reason: "is not a known distance unit"}
	}

	switch p.Mode {
	case FixedSpacing, FirstAndLastOnly:
	case DivideIntoParts:
		if p.Divide < 1 {
			return &InvalidPolicyError{Field: "divide", Reason: fmt.Sprintf("must be at least 1, got %d", p.Divide)}
		}
		if p.Divide >= MaxPointsPerLine {
			return &InvalidPolicyError{Field: "divide", Reason: fmt.Sprintf("must be below %d, got %d", MaxPointsPerLine, p.Divide)}
		}
	default:
		return &InvalidPolicyError{Field: "mode", Reason: fmt.Sprintf("unknown mode %d", int(p.Mode))}
	}
	return nil
}

// tolerance returns the duplicate-suppression distance for an end at end.
func (p Policy) tolerance(end float64) float64 {
	if p.Tolerance > 0 {
		return p.Tolerance
	}
	return math.Max(0.001, 0.001*math.Abs(end))
}

// Point is one stamped chainage.
type Point struct {
	Position orb.Point
	// Distance is the label, measured from the walk's origin in Unit.
	Distance float64
	Unit     units.Unit
	// Source is the caller's opaque feature reference.
	Source any
	// Attributes holds the copied source attributes, nil when none were asked for.
	Attributes map[string]any
}
