// Package crs describes the coordinate reference system a line is expressed
// in: whether it is geographic, which ellipsoid it sits on, and how to get
// from its coordinates to lon/lat for ellipsoidal measurement.
package crs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ctessum/geom/proj"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"

	"github.com/dpup/chainage/internal/lib/units"
)

// lonLatDef is the target of every unprojection.
const lonLatDef = "+proj=longlat +ellps=WGS84 +no_defs"

// Context is the per-call CRS description consumed by the chainage engine.
// The zero value is a projected CRS in meters with no ellipsoid.
type Context struct {
	// Definition is the proj4/WKT string this context was parsed from, if any.
	Definition string
	// Geographic is true for angular (lon/lat) coordinate spaces.
	Geographic bool
	// Ellipsoid is the CRS's own ellipsoid. Zero when the definition names none.
	Ellipsoid Ellipsoid
	// MetersPerUnit converts one native coordinate unit to meters. Zero means 1.
	MetersPerUnit float64

	projDef string // resolved proj4/WKT text, empty when there is no transform
}

// Geographic returns a lon/lat context on the given ellipsoid.
func Geographic(ell Ellipsoid) Context {
	return Context{
		Definition:    lonLatDef,
		Geographic:    true,
		Ellipsoid:     ell,
		MetersPerUnit: units.MetersPerDegree,
	}
}

// Projected returns a projected context without an inverse transform, whose
// coordinates are metersPerUnit meters each.
func Projected(metersPerUnit float64) Context {
	return Context{MetersPerUnit: metersPerUnit}
}

// Parse builds a Context from a proj4 string, a WKT definition, or one of
// the EPSG shorthands understood by expandEPSG.
func Parse(def string) (Context, error) {
	code := strings.TrimSpace(def)
	if code == "" {
		return Context{}, errors.New("empty crs definition")
	}
	if expanded, ok, err := expandEPSG(code); err != nil {
		return Context{}, err
	} else if ok {
		code = expanded
	}

	sr, err := proj.Parse(code)
	if err != nil {
		return Context{}, errors.Wrapf(err, "parse crs %q", def)
	}

	ctx := Context{
		Definition:    def,
		Geographic:    strings.EqualFold(sr.Name, "longlat"),
		MetersPerUnit: sr.ToMeter,
	}
	if namesEllipsoid(code, sr) {
		ctx.Ellipsoid = Ellipsoid{
			Name:      firstNonEmpty(sr.Ellps, sr.EllipseName),
			SemiMajor: sr.A,
			SemiMinor: sr.B,
		}
	}
	if ctx.Geographic {
		ctx.MetersPerUnit = units.MetersPerDegree
		return ctx, nil
	}
	if ctx.MetersPerUnit <= 0 {
		ctx.MetersPerUnit = 1
	}

	// Only keep the definition around for unprojection if proj can build the
	// transform at all.
	if _, err := newLonLatTransform(code); err == nil {
		ctx.projDef = code
	}
	return ctx, nil
}

// MustParse is Parse for definitions known to be valid. It panics otherwise.
func MustParse(def string) Context {
	ctx, err := Parse(def)
	if err != nil {
		panic(err)
	}
	return ctx
}

// Unit returns the best matching distance unit for the native coordinates.
func (c Context) Unit() units.Unit {
	if c.Geographic {
		return units.Degrees
	}
	mpu := c.MetersPerNativeUnit()
	for _, u := range units.All() {
		if u.IsLinear() && nearlyEqual(u.Meters(), mpu) {
			return u
		}
	}
	return units.Meters
}

// NativePerUnit returns how many native coordinate units one u spans.
func (c Context) NativePerUnit(u units.Unit) float64 {
	if c.Geographic {
		return u.Meters() / units.MetersPerDegree
	}
	return u.Meters() / c.MetersPerNativeUnit()
}

// MetersPerNativeUnit is MetersPerUnit with the zero value mapped to 1.
func (c Context) MetersPerNativeUnit() float64 {
	if c.MetersPerUnit <= 0 {
		return 1
	}
	return c.MetersPerUnit
}

// CanUnproject reports whether Unprojector can succeed.
func (c Context) CanUnproject() bool {
	return c.Geographic || c.projDef != ""
}

// Unprojector returns a function mapping native coordinates to lon/lat
// degrees. Each call builds a fresh transform so concurrent callers never
// share proj state.
func (c Context) Unprojector() (func(orb.Point) (orb.Point, error), error) {
	if c.Geographic {
		return func(p orb.Point) (orb.Point, error) { return p, nil }, nil
	}
	if c.projDef == "" {
		return nil, errors.New("crs has no inverse projection")
	}
	t, err := newLonLatTransform(c.projDef)
	if err != nil {
		return nil, err
	}
	return func(p orb.Point) (orb.Point, error) {
		x, y, err := t(p[0], p[1])
		if err != nil {
			return orb.Point{}, errors.Wrap(err, "unproject")
		}
		return orb.Point{x, y}, nil
	}, nil
}

func newLonLatTransform(code string) (proj.Transformer, error) {
	src, err := proj.Parse(code)
	if err != nil {
		return nil, errors.Wrap(err, "parse source crs")
	}
	dst, err := proj.Parse(lonLatDef)
	if err != nil {
		return nil, errors.Wrap(err, "parse lon/lat crs")
	}
	t, err := src.NewTransform(dst)
	if err != nil {
		return nil, errors.Wrap(err, "build lon/lat transform")
	}
	// proj only resolves the projection lazily; probe it once.
	if _, _, err := src.Transformers(); err != nil {
		return nil, errors.Wrap(err, "build lon/lat transform")
	}
	return t, nil
}

// expandEPSG maps the EPSG codes hosts commonly pass to proj4 text, since
// proj has no EPSG registry of its own.
func expandEPSG(code string) (string, bool, error) {
	upper := strings.ToUpper(code)
	if !strings.HasPrefix(upper, "EPSG:") {
		return "", false, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(code[len("EPSG:"):]))
	if err != nil {
		return "", false, errors.Errorf("invalid EPSG code %q", code)
	}

	switch {
	case n == 4326:
		return "+proj=longlat +ellps=WGS84 +no_defs", true, nil
	case n == 4269:
		return "+proj=longlat +ellps=GRS80 +no_defs", true, nil
	case n == 4258:
		return "+proj=longlat +ellps=GRS80 +no_defs", true, nil
	case n == 3857:
		return "+proj=merc +a=6378137 +b=6378137 +lat_ts=0 +lon_0=0 +x_0=0 +y_0=0 +k=1 +units=m +no_defs", true, nil
	case n >= 32601 && n <= 32660:
		return fmt.Sprintf("+proj=utm +zone=%d +ellps=WGS84 +units=m +no_defs", n-32600), true, nil
	case n >= 32701 && n <= 32760:
		return fmt.Sprintf("+proj=utm +zone=%d +south +ellps=WGS84 +units=m +no_defs", n-32700), true, nil
	case n >= 25828 && n <= 25838:
		return fmt.Sprintf("+proj=utm +zone=%d +ellps=GRS80 +units=m +no_defs", n-25800), true, nil
	}
	return "", false, errors.Errorf("unsupported EPSG code %d; pass a proj4 or WKT definition", n)
}

// namesEllipsoid reports whether the definition chose an ellipsoid itself.
// proj silently fills in WGS84 when it does not.
func namesEllipsoid(code string, sr *proj.SR) bool {
	if sr.Ellps != "" {
		return true
	}
	upper := strings.ToUpper(code)
	return strings.Contains(code, "+a=") || strings.Contains(upper, "SPHEROID")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func nearlyEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= 1e-9*b
}
