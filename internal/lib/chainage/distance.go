package chainage

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/dpup/chainage/internal/lib/crs"
	"github.com/dpup/chainage/internal/lib/geo"
)

const (
	// minDistanceMapSamples is the floor on distance map resolution.
	minDistanceMapSamples = 100
	// degreeSampleStep is the parametric step the default resolution aims for
	// on degree-space lines.
	degreeSampleStep = 0.0001
	// MaxDistanceMapSamples bounds the default resolution on very long lines.
	MaxDistanceMapSamples = 1_000_000
)

// pairDistance measures between two native-coordinate points.
type pairDistance func(a, b orb.Point) (float64, error)

// DistanceModel measures lines and converts between real-world distance and
// parametric position for one CRS. It holds no per-line state.
type DistanceModel struct {
	crs              crs.Context
	projectEllipsoid string
}

// NewDistanceModel returns a model for lines in ctx. projectEllipsoid is used
// when ctx names no ellipsoid of its own; "" or "NONE" mean WGS84.
func NewDistanceModel(ctx crs.Context, projectEllipsoid string) DistanceModel {
	return DistanceModel{crs: ctx, projectEllipsoid: projectEllipsoid}
}

// Ellipsoid resolves the ellipsoid geodesic measurement would use.
func (m DistanceModel) Ellipsoid() (crs.Ellipsoid, error) {
	ell, err := m.crs.ResolveEllipsoid(m.projectEllipsoid)
	if err != nil {
		return crs.Ellipsoid{}, &MeasurementUnavailableError{Ellipsoid: m.projectEllipsoid, Err: err}
	}
	return ell, nil
}

// MeasureLength returns the real-world length of line. Planar mode returns
// native units. Geodesic mode returns meters; on a projected CRS the vertices
// are unprojected first, and if the CRS has no inverse projection the planar
// length is scaled by its meters-per-unit instead.
func (m DistanceModel) MeasureLength(line geo.Line, mode MeasureMode) (float64, error) {
	if line.IsZero() {
		return 0, &InvalidGeometryError{Err: geo.ErrTooFewVertices}
	}
	dist, err := m.distanceFunc(mode)
	if err != nil {
		return 0, err
	}

	vs := line.Vertices()
	total := 0.0
	for i := 0; i < len(vs)-1; i++ {
		d, err := dist(vs[i], vs[i+1])
		if err != nil {
			return 0, &MeasurementUnavailableError{Err: err}
		}
		total += d
	}
	return total, nil
}

// ParametricLength is the Euclidean length of the vertex chain, the space
// PointAtParametric works in.
func (m DistanceModel) ParametricLength(line geo.Line) float64 {
	return line.Length()
}

// PointAtParametric walks t native units along the chain, clamped to the line.
func (m DistanceModel) PointAtParametric(line geo.Line, t float64) orb.Point {
	return line.PointAt(t)
}

// DefaultSampleCount returns the distance map resolution for a line of the
// given parametric length: max(100, length/0.0001), capped.
func DefaultSampleCount(parametricLength float64) int {
	n := parametricLength / degreeSampleStep
	switch {
	case math.IsNaN(n) || n < minDistanceMapSamples:
		return minDistanceMapSamples
	case n > MaxDistanceMapSamples:
		return MaxDistanceMapSamples
	}
	return int(math.Round(n))
}

// BuildDistanceMap samples the parametric axis at sampleCount even steps and
// measures the cumulative real-world distance to each sample in mode.
// sampleCount <= 0 selects DefaultSampleCount.
func (m DistanceModel) BuildDistanceMap(line geo.Line, mode MeasureMode, sampleCount int) (DistanceMap, error) {
	if line.IsZero() {
		return DistanceMap{}, &InvalidGeometryError{Err: geo.ErrTooFewVertices}
	}
	dist, err := m.distanceFunc(mode)
	if err != nil {
		return DistanceMap{}, err
	}

	param := line.Length()
	n := sampleCount
	if n <= 0 {
		n = DefaultSampleCount(param)
	}

	ts := make([]float64, n+1)
	for i := range ts {
		ts[i] = param * float64(i) / float64(n)
	}
	ts[n] = param // exact terminal sample
	pts := line.PointsAt(ts)

	dm := DistanceMap{
		dists:  make([]float64, n+1),
		params: ts,
	}
	acc := 0.0
	for i := 1; i <= n; i++ {
		d, err := dist(pts[i-1], pts[i])
		if err != nil {
			return DistanceMap{}, &MeasurementUnavailableError{Err: err}
		}
		acc += d
		dm.dists[i] = acc
	}
	return dm, nil
}

// distanceFunc picks the pairwise measure for mode.
func (m DistanceModel) distanceFunc(mode MeasureMode) (pairDistance, error) {
	if mode == Planar {
		return func(a, b orb.Point) (float64, error) {
			return planar.Distance(a, b), nil
		}, nil
	}

	ell, err := m.Ellipsoid()
	if err != nil {
		return nil, err
	}
	a, b := ell.SemiMajor, ell.SemiMinor

	if m.crs.Geographic {
		return func(p1, p2 orb.Point) (float64, error) {
			return geo.GeodesicDistance(p1, p2, a, b), nil
		}, nil
	}

	if !m.crs.CanUnproject() {
		scale := m.crs.MetersPerNativeUnit()
		return func(p1, p2 orb.Point) (float64, error) {
			return planar.Distance(p1, p2) * scale, nil
		}, nil
	}

	unproject, err := m.crs.Unprojector()
	if err != nil {
		return nil, &MeasurementUnavailableError{Err: err}
	}
	return func(p1, p2 orb.Point) (float64, error) {
		ll1, err := unproject(p1)
		if err != nil {
			return 0, err
		}
		ll2, err := unproject(p2)
		if err != nil {
			return 0, err
		}
		return geo.GeodesicDistance(ll1, ll2, a, b), nil
	}, nil
}

// DistanceMap is a monotone table of (real-world distance, parametric
// position) samples covering a whole line. It is built for one line and
// discarded with it.
type DistanceMap struct {
	dists  []float64
	params []float64
}

// Len returns the number of samples.
func (d DistanceMap) Len() int {
	return len(d.dists)
}

// Total returns the real-world distance at the last sample.
func (d DistanceMap) Total() float64 {
	if len(d.dists) == 0 {
		return 0
	}
	return d.dists[len(d.dists)-1]
}

// Sample returns the i-th (real, parametric) pair.
func (d DistanceMap) Sample(i int) (dist, param float64) {
	return d.dists[i], d.params[i]
}

// MapRealToParametric returns the parametric position at real-world distance
// target, interpolating linearly between the bracketing samples. Targets past
// the end saturate at the last parametric position.
func (d DistanceMap) MapRealToParametric(target float64) float64 {
	if len(d.dists) == 0 {
		return 0
	}
	last := len(d.dists) - 1
	if target >= d.dists[last] {
		return d.params[last]
	}
	if target <= d.dists[0] {
		return d.params[0]
	}

	i := sort.SearchFloat64s(d.dists, target) // first sample with real >= target
	r0, r1 := d.dists[i-1], d.dists[i]
	p0, p1 := d.params[i-1], d.params[i]
	if r1 <= r0 {
		return p0
	}
	return p0 + (target-r0)/(r1-r0)*(p1-p0)
}
