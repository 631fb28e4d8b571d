package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	wgs84A = 6378137.0
	wgs84B = 6356752.314245179
)

func TestNewLine_Validation(t *testing.T) {
	_, err := NewLine(nil)
	assert.ErrorIs(t, err, ErrEmptyGeometry)

	_, err = NewLine(orb.LineString{{1, 1}})
	assert.ErrorIs(t, err, ErrTooFewVertices)

	_, err = NewLine(orb.LineString{{0, 0}, {math.NaN(), 1}})
	assert.ErrorIs(t, err, ErrInvalidCoordinate)

	line, err := NewLine(orb.LineString{{0, 0}, {10, 0}})
	require.NoError(t, err)
	assert.Equal(t, 2, line.NumVertices())
}

func TestNewLine_CopiesInput(t *testing.T) {
	ls := orb.LineString{{0, 0}, {10, 0}}
	line := MustLine(ls)

	ls[0] = orb.Point{99, 99}
	assert.Equal(t, orb.Point{0, 0}, line.Start(), "Line must not alias caller's slice")

	v := line.Vertices()
	v[1] = orb.Point{-1, -1}
	assert.Equal(t, orb.Point{10, 0}, line.End(), "Vertices must return a copy")
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		geom    orb.Geometry
		wantErr error
	}{
		{"nil", nil, ErrEmptyGeometry},
		{"line", orb.LineString{{0, 0}, {1, 1}}, nil},
		{"single part multi", orb.MultiLineString{{{0, 0}, {1, 1}}}, nil},
		{"empty multi", orb.MultiLineString{}, ErrEmptyGeometry},
		{"multi part", orb.MultiLineString{{{0, 0}, {1, 1}}, {{2, 2}, {3, 3}}}, ErrMultiPart},
		{"point", orb.Point{1, 1}, ErrUnsupportedGeometry},
		{"polygon", orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}, ErrUnsupportedGeometry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.geom)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParts(t *testing.T) {
	parts, err := Parts(orb.MultiLineString{{{0, 0}, {1, 1}}, {{2, 2}, {3, 3}}})
	require.NoError(t, err)
	assert.Len(t, parts, 2)

	parts, err = Parts(orb.LineString{{0, 0}, {1, 1}})
	require.NoError(t, err)
	assert.Len(t, parts, 1)

	_, err = Parts(orb.Point{0, 0})
	assert.ErrorIs(t, err, ErrUnsupportedGeometry)
}

func TestLine_Reversed(t *testing.T) {
	line := MustLine(orb.LineString{{0, 0}, {5, 0}, {5, 5}})
	rev := line.Reversed()

	assert.Equal(t, orb.Point{5, 5}, rev.Start())
	assert.Equal(t, orb.Point{0, 0}, rev.End())
	assert.Equal(t, orb.Point{0, 0}, line.Start(), "input must be untouched")
	assert.InDelta(t, line.Length(), rev.Length(), 1e-12)
}

func TestLine_PointAt(t *testing.T) {
	line := MustLine(orb.LineString{{0, 0}, {10, 0}, {10, 10}})
	assert.InDelta(t, 20.0, line.Length(), 1e-12)

	tests := []struct {
		t    float64
		want orb.Point
	}{
		{-5, orb.Point{0, 0}},
		{0, orb.Point{0, 0}},
		{2.5, orb.Point{2.5, 0}},
		{10, orb.Point{10, 0}},
		{15, orb.Point{10, 5}},
		{20, orb.Point{10, 10}},
		{50, orb.Point{10, 10}},
	}
	for _, tt := range tests {
		got := line.PointAt(tt.t)
		assert.InDelta(t, tt.want[0], got[0], 1e-9, "x at t=%v", tt.t)
		assert.InDelta(t, tt.want[1], got[1], 1e-9, "y at t=%v", tt.t)
	}
}

func TestLine_PointsAt_ZeroLengthSegments(t *testing.T) {
	// Repeated vertices must not produce NaN from a 0/0 ratio.
	line := MustLine(orb.LineString{{0, 0}, {0, 0}, {4, 0}, {4, 0}, {4, 3}})

	pts := line.PointsAt([]float64{0, 1, 4, 5, 7})
	require.Len(t, pts, 5)
	for _, p := range pts {
		assert.True(t, Finite(p))
	}
	assert.InDelta(t, 1.0, pts[1][0], 1e-12)
	assert.InDelta(t, 4.0, pts[2][0], 1e-12)
	assert.InDelta(t, 1.0, pts[3][1], 1e-12)
	assert.Equal(t, orb.Point{4, 3}, pts[4])
}

func TestVincenty_Equator(t *testing.T) {
	// One degree of longitude on the equator is a*pi/180 on any ellipsoid.
	d, err := Vincenty(orb.Point{0, 0}, orb.Point{1, 0}, wgs84A, wgs84B)
	require.NoError(t, err)
	assert.InDelta(t, 111319.4908, d, 0.01)
}

func TestVincenty_ShortSegments(t *testing.T) {
	// Distance map samples are this short; they need the same relative
	// precision as whole-degree segments.
	for _, deg := range []float64{0.0001, 0.00001, 0.001} {
		want := wgs84A * deg * math.Pi / 180
		d, err := Vincenty(orb.Point{0, 0}, orb.Point{deg, 0}, wgs84A, wgs84B)
		require.NoError(t, err)
		assert.InEpsilon(t, want, d, 1e-11, "segment of %g degrees", deg)
	}

	// Stepping across one degree in samples adds up to the single segment.
	total := 0.0
	for i := 0; i < 10000; i++ {
		d, err := Vincenty(orb.Point{float64(i) * 0.0001, 0}, orb.Point{float64(i+1) * 0.0001, 0}, wgs84A, wgs84B)
		require.NoError(t, err)
		total += d
	}
	assert.InDelta(t, 111319.4908, total, 1e-4)
}

func TestVincenty_KnownDistance(t *testing.T) {
	// Highway 4: Angels Camp to Murphys, ~11.0 km
	angelsCamp := orb.Point{-120.5436, 38.0675}
	murphys := orb.Point{-120.4561, 38.1391}

	d, err := Vincenty(angelsCamp, murphys, wgs84A, wgs84B)
	require.NoError(t, err)
	assert.InDelta(t, 11046, d, 100, "Distance should be approximately 11.0km")

	// Great circle on the mean sphere stays within a fraction of a percent.
	gc := GreatCircle(angelsCamp, murphys, (2*wgs84A+wgs84B)/3)
	assert.InEpsilon(t, d, gc, 0.005)
}

func TestVincenty_Coincident(t *testing.T) {
	d, err := Vincenty(orb.Point{12, 47}, orb.Point{12, 47}, wgs84A, wgs84B)
	require.NoError(t, err)
	assert.Equal(t, 0.0, d)
}

func TestGeodesicDistance_AntipodalFallback(t *testing.T) {
	// Nearly antipodal points defeat Vincenty; the great circle fallback
	// must still return half the circumference.
	d := GeodesicDistance(orb.Point{0, 0}, orb.Point{179.7, 0.5}, wgs84A, wgs84B)
	assert.Greater(t, d, 19_900_000.0)
	assert.Less(t, d, 20_100_000.0)
}

func TestGeodesicLength(t *testing.T) {
	ls := orb.LineString{{0, 0}, {0.5, 0}, {1, 0}}
	assert.InDelta(t, 111319.4908, GeodesicLength(ls, wgs84A, wgs84B), 0.01)
	assert.Equal(t, 0.0, GeodesicLength(orb.LineString{{0, 0}}, wgs84A, wgs84B))
}
