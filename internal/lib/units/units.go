// Package units converts distances between the linear and angular units a
// chainage can be requested in.
package units

import (
	"fmt"
	"strings"
)

// Unit is a distance unit.
type Unit int

const (
	Unknown Unit = iota
	Meters
	Kilometers
	Feet
	Yards
	Miles
	NauticalMiles
	Centimeters
	Millimeters
	Degrees
)

// MetersPerDegree is the length of one degree of arc on the WGS84 equator.
// It is only used when a value must cross between angular and linear units.
const MetersPerDegree = 111319.49079327358

var metersPer = map[Unit]float64{
	Meters:        1,
	Kilometers:    1000,
	Feet:          0.3048,
	Yards:         0.9144,
	Miles:         1609.344,
	NauticalMiles: 1852,
	Centimeters:   0.01,
	Millimeters:   0.001,
	Degrees:       MetersPerDegree,
}

var names = map[Unit]string{
	Meters:        "meters",
	Kilometers:    "kilometers",
	Feet:          "feet",
	Yards:         "yards",
	Miles:         "miles",
	NauticalMiles: "nautical miles",
	Centimeters:   "centimeters",
	Millimeters:   "millimeters",
	Degrees:       "degrees",
}

var abbrevs = map[Unit]string{
	Meters:        "m",
	Kilometers:    "km",
	Feet:          "ft",
	Yards:         "yd",
	Miles:         "mi",
	NauticalMiles: "nmi",
	Centimeters:   "cm",
	Millimeters:   "mm",
	Degrees:       "deg",
}

var aliases = map[string]Unit{
	"m": Meters, "meter": Meters, "meters": Meters, "metre": Meters, "metres": Meters,
	"km": Kilometers, "kilometer": Kilometers, "kilometers": Kilometers, "kilometre": Kilometers, "kilometres": Kilometers,
	"ft": Feet, "foot": Feet, "feet": Feet,
	"yd": Yards, "yard": Yards, "yards": Yards,
	"mi": Miles, "mile": Miles, "miles": Miles,
	"nmi": NauticalMiles, "nm": NauticalMiles, "nautical mile": NauticalMiles, "nautical miles": NauticalMiles,
	"nauticalmile": NauticalMiles, "nauticalmiles": NauticalMiles, "nautical_miles": NauticalMiles,
	"cm": Centimeters, "centimeter": Centimeters, "centimeters": Centimeters, "centimetre": Centimeters,
	"mm": Millimeters, "millimeter": Millimeters, "millimeters": Millimeters, "millimetre": Millimeters,
	"deg": Degrees, "degree": Degrees, "degrees": Degrees,
}

// All lists every known unit in declaration order.
func All() []Unit {
	return []Unit{Meters, Kilometers, Feet, Yards, Miles, NauticalMiles, Centimeters, Millimeters, Degrees}
}

// Parse resolves a unit name or abbreviation, case-insensitively.
func Parse(s string) (Unit, error) {
	u, ok := aliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return Unknown, fmt.Errorf("unknown distance unit %q", s)
	}
	return u, nil
}

// Valid reports whether u is a known unit.
func (u Unit) Valid() bool {
	_, ok := metersPer[u]
	return ok
}

// IsLinear reports whether u measures length rather than arc.
func (u Unit) IsLinear() bool {
	return u.Valid() && u != Degrees
}

// Meters returns how many meters one u is. Unknown units return 0.
func (u Unit) Meters() float64 {
	return metersPer[u]
}

// String returns the unit's full lowercase name.
func (u Unit) String() string {
	if n, ok := names[u]; ok {
		return n
	}
	return "unknown"
}

// Abbrev returns the unit's short symbol.
func (u Unit) Abbrev() string {
	if a, ok := abbrevs[u]; ok {
		return a
	}
	return "?"
}

// FieldName returns the attribute name used for chainage labels in this unit,
// e.g. "cng_meters" or "cng_nautical_miles".
func (u Unit) FieldName() string {
	return "cng_" + strings.ReplaceAll(u.String(), " ", "_")
}

// Factor returns the multiplier converting a value in from into to.
// It returns 0 when either unit is unknown.
func Factor(from, to Unit) float64 {
	f, t := from.Meters(), to.Meters()
	if f == 0 || t == 0 {
		return 0
	}
	if from == to {
		return 1
	}
	return f / t
}

// Convert expresses v, given in from, in to.
func Convert(v float64, from, to Unit) (float64, error) {
	f := Factor(from, to)
	if f == 0 {
		return 0, fmt.Errorf("cannot convert %s to %s", from, to)
	}
	return v * f, nil
}

// MarshalText implements encoding.TextMarshaler.
func (u Unit) MarshalText() ([]byte, error) {
	if !u.Valid() {
		return nil, fmt.Errorf("unknown distance unit %d", int(u))
	}
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Unit) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
