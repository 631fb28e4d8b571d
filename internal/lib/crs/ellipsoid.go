package crs

import (
	"strings"

	"github.com/ctessum/geom/proj"
	"github.com/pkg/errors"
)

// NoEllipsoid is the project setting meaning "none chosen".
const NoEllipsoid = "NONE"

// ErrUnknownEllipsoid is returned when an ellipsoid id cannot be resolved.
var ErrUnknownEllipsoid = errors.New("unknown ellipsoid")

// Ellipsoid is a reference ellipsoid given by its semi-axes in meters.
type Ellipsoid struct {
	Name      string
	SemiMajor float64
	SemiMinor float64
}

// WGS84 is the fallback ellipsoid when neither layer nor project names one.
var WGS84 = Ellipsoid{Name: "WGS84", SemiMajor: 6378137, SemiMinor: 6356752.314245179}

// IsZero reports whether no ellipsoid is set.
func (e Ellipsoid) IsZero() bool {
	return e.SemiMajor == 0 && e.SemiMinor == 0
}

// Valid reports whether the axes describe a usable oblate ellipsoid or sphere.
func (e Ellipsoid) Valid() bool {
	return e.SemiMajor > 0 && e.SemiMinor > 0 && e.SemiMinor <= e.SemiMajor
}

// Flattening returns (a-b)/a.
func (e Ellipsoid) Flattening() float64 {
	if e.SemiMajor == 0 {
		return 0
	}
	return (e.SemiMajor - e.SemiMinor) / e.SemiMajor
}

// LookupEllipsoid resolves a proj ellipsoid id such as "WGS84", "GRS80",
// "intl" or "bessel".
func LookupEllipsoid(id string) (Ellipsoid, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, " +=") {
		return Ellipsoid{}, errors.Wrapf(ErrUnknownEllipsoid, "%q", id)
	}
	if strings.EqualFold(id, WGS84.Name) {
		return WGS84, nil
	}

	sr, err := proj.Parse("+proj=longlat +ellps=" + id + " +no_defs")
	if err != nil {
		return Ellipsoid{}, errors.Wrapf(ErrUnknownEllipsoid, "%q: %v", id, err)
	}
	// proj substitutes WGS84 for ids it does not know.
	if sr.EllipseName == "" || sr.EllipseName == "WGS 84" {
		return Ellipsoid{}, errors.Wrapf(ErrUnknownEllipsoid, "%q", id)
	}

	return Ellipsoid{Name: id, SemiMajor: sr.A, SemiMinor: sr.B}, nil
}

// ResolveEllipsoid picks the ellipsoid for geodesic measurement: the CRS's own
// when it names one, else the project default. An empty or NONE project
// default falls back to WGS84.
func (c Context) ResolveEllipsoid(projectDefault string) (Ellipsoid, error) {
	if !c.Ellipsoid.IsZero() {
		if !c.Ellipsoid.Valid() {
			return Ellipsoid{}, errors.Wrapf(ErrUnknownEllipsoid, "crs ellipsoid %q has invalid axes", c.Ellipsoid.Name)
		}
		return c.Ellipsoid, nil
	}

	projectDefault = strings.TrimSpace(projectDefault)
	if projectDefault == "" || strings.EqualFold(projectDefault, NoEllipsoid) {
		return WGS84, nil
	}
	return LookupEllipsoid(projectDefault)
}
