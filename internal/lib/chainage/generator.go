package chainage

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/dpup/chainage/internal/lib/crs"
	"github.com/dpup/chainage/internal/lib/geo"
	"github.com/dpup/chainage/internal/lib/units"
)

// MaxPointsPerLine bounds how many points a single fixed-spacing walk may emit.
const MaxPointsPerLine = 10_000_000

// walkEpsilon absorbs floating point error when counting whole steps.
const walkEpsilon = 1e-9

// Option customizes a single Generate call.
type Option func(*request)

type request struct {
	source any
	attrs  map[string]any
	names  []string
}

// WithSource tags every emitted point with ref, typically the feature id.
func WithSource(ref any) Option {
	return func(r *request) { r.source = ref }
}

// WithAttributes copies the named entries of attrs onto every emitted point.
// Names missing from attrs are skipped.
func WithAttributes(attrs map[string]any, names ...string) Option {
	return func(r *request) {
		r.attrs = attrs
		r.names = names
	}
}

func (r request) pointAttributes() map[string]any {
	if len(r.names) == 0 {
		return nil
	}
	out := make(map[string]any, len(r.names))
	for _, n := range r.names {
		if v, ok := r.attrs[n]; ok {
			out[n] = v
		}
	}
	return out
}

// Generator places chainage points along lines. It is stateless between
// calls and safe for concurrent use.
type Generator struct {
	// ProjectEllipsoid is used when a CRS names no ellipsoid of its own.
	ProjectEllipsoid string
	// SampleCount fixes the distance map resolution. Zero picks it from the
	// line length.
	SampleCount int
}

// NewGenerator returns a Generator with the given project default ellipsoid.
func NewGenerator(projectEllipsoid string) *Generator {
	return &Generator{ProjectEllipsoid: projectEllipsoid}
}

// Generate places points on g with a zero-value Generator, so a CRS without
// an ellipsoid measures on WGS84.
func Generate(g orb.Geometry, policy Policy, ctx crs.Context, opts ...Option) ([]Point, error) {
	var gen Generator
	return gen.Generate(g, policy, ctx, opts...)
}

// station is one planned point: where it sits on the chain and its label.
type station struct {
	param float64
	label float64
}

// Generate places points on g according to policy. g must be a single-part
// line; ctx describes its coordinates. The returned points are ordered by
// non-decreasing label.
func (gen *Generator) Generate(g orb.Geometry, policy Policy, ctx crs.Context, opts ...Option) ([]Point, error) {
	line, err := geo.Extract(g)
	if err != nil {
		return nil, &InvalidGeometryError{Err: err}
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	var req request
	for _, opt := range opts {
		opt(&req)
	}

	if policy.Reverse {
		line = line.Reversed()
	}
	unit := policy.Unit
	if unit == units.Unknown {
		unit = ctx.Unit()
	}

	model := NewDistanceModel(ctx, gen.ProjectEllipsoid)
	var stations []station
	if ctx.Geographic && unit.IsLinear() {
		stations, err = gen.mappedStations(model, line, policy, unit)
	} else {
		stations, err = gen.directStations(model, line, policy, unit, ctx)
	}
	if err != nil {
		return nil, err
	}
	return materialize(line, stations, unit, req), nil
}

// mappedStations walks a degree-space line in meters through a geodesic
// distance map.
func (gen *Generator) mappedStations(model DistanceModel, line geo.Line, p Policy, unit units.Unit) ([]station, error) {
	dm, err := model.BuildDistanceMap(line, Geodesic, gen.SampleCount)
	if err != nil {
		return nil, err
	}
	toMeters := unit.Meters()
	total := dm.Total()
	start, end, err := resolveRange(p, p.Start*toMeters, p.End*toMeters, total)
	if err != nil {
		return nil, err
	}

	ds, err := plan(p, start, end, p.Spacing*toMeters, total, p.tolerance(end/toMeters)*toMeters)
	if err != nil {
		return nil, err
	}
	out := make([]station, len(ds))
	for i, d := range ds {
		out[i] = station{param: dm.MapRealToParametric(d), label: d / toMeters}
	}
	return out, nil
}

// directStations walks in native units. The measured length differs from the
// parametric one only when geodesic measurement is requested on a projected
// CRS, and then by a constant factor.
func (gen *Generator) directStations(model DistanceModel, line geo.Line, p Policy, unit units.Unit, ctx crs.Context) ([]station, error) {
	param := model.ParametricLength(line)
	length := param
	if p.UseGeodesic && !ctx.Geographic {
		meters, err := model.MeasureLength(line, Geodesic)
		if err != nil {
			return nil, err
		}
		length = meters / ctx.MetersPerNativeUnit()
	}

	native := ctx.NativePerUnit(unit)
	start, end, err := resolveRange(p, p.Start*native, p.End*native, length)
	if err != nil {
		return nil, err
	}

	ds, err := plan(p, start, end, p.Spacing*native, length, p.tolerance(end/native)*native)
	if err != nil {
		return nil, err
	}
	scale := 1.0
	if length > 0 {
		scale = param / length
	}
	out := make([]station, len(ds))
	for i, d := range ds {
		out[i] = station{param: d * scale, label: d / native}
	}
	return out, nil
}

// resolveRange resolves the walk range against the measured length: an end
// of zero or past the line means the line's end. A start past that end is
// pulled back to it, except for FirstAndLastOnly where the two points would
// no longer describe the requested range.
func resolveRange(p Policy, start, end, length float64) (float64, float64, error) {
	if end <= 0 || end > length {
		end = length
	}
	if start > end {
		if p.Mode == FirstAndLastOnly && start-end > walkEpsilon*math.Max(1, end) {
			return 0, 0, &InvalidPolicyError{
				Field:  "start",
				Reason: fmt.Sprintf("%g is beyond the end of the line", p.Start),
			}
		}
		start = end
	}
	if start < 0 {
		start = 0
	}
	return start, end, nil
}

// plan lays out the walk distances in [start, end]. All arguments share one
// unit. length stands in for a non-positive fixed spacing.
func plan(p Policy, start, end, spacing, length, tol float64) ([]float64, error) {
	span := end - start

	switch p.Mode {
	case FirstAndLastOnly:
		return []float64{start, end}, nil

	case DivideIntoParts:
		if span <= 0 {
			return nil, &InvalidSpacingError{
				Spacing: 0,
				Reason:  fmt.Sprintf("cannot divide a zero-length range into %d parts", p.Divide),
			}
		}
		out := make([]float64, p.Divide+1)
		for i := range out {
			out[i] = start + span*float64(i)/float64(p.Divide)
		}
		out[p.Divide] = end
		return out, nil
	}

	if spacing <= 0 {
		spacing = length
	}
	if spacing <= 0 || math.IsNaN(spacing) {
		return nil, &InvalidSpacingError{Spacing: spacing, Reason: "spacing and line length are both zero"}
	}
	steps := math.Floor(span/spacing + walkEpsilon)
	if steps+2 > MaxPointsPerLine {
		return nil, &InvalidSpacingError{
			Spacing: spacing,
			Reason:  fmt.Sprintf("would place more than %d points", MaxPointsPerLine),
		}
	}

	n := int(steps)
	out := make([]float64, 0, n+2)
	for i := 0; i <= n; i++ {
		d := start + float64(i)*spacing
		if d > end {
			d = end
		}
		out = append(out, d)
	}
	if p.ForceLast && math.Abs(end-out[len(out)-1]) > tol {
		out = append(out, end)
	}
	return out, nil
}

// materialize interpolates the planned stations and drops any that land on a
// non-finite coordinate.
func materialize(line geo.Line, stations []station, unit units.Unit, req request) []Point {
	ts := make([]float64, len(stations))
	for i, s := range stations {
		ts[i] = s.param
	}
	positions := line.PointsAt(ts)

	out := make([]Point, 0, len(stations))
	for i, s := range stations {
		if !geo.Finite(positions[i]) {
			continue
		}
		out = append(out, Point{
			Position:   positions[i],
			Distance:   s.label,
			Unit:       unit,
			Source:     req.source,
			Attributes: req.pointAttributes(),
		})
	}
	return out
}
