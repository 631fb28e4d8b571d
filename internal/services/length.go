package services

import (
	"github.com/dpup/chainage/internal/lib/chainage"
	"github.com/dpup/chainage/internal/lib/geo"
	"github.com/dpup/chainage/internal/lib/source"
	"github.com/dpup/chainage/internal/lib/units"
)

// LineLength reports a feature's length the way a host shows it next to the
// chainage settings.
type LineLength struct {
	FeatureID any
	// Native is the planar length in the CRS's own unit.
	Native     float64
	NativeUnit units.Unit
	// Geodesic is the ellipsoidal length in meters, valid when GeodesicErr is nil.
	Geodesic    float64
	GeodesicErr error
	// Err is set when the geometry itself is unusable.
	Err error
}

// Lengths measures every feature without generating any points.
func (s *BatchService) Lengths(features []source.Feature) []LineLength {
	model := chainage.NewDistanceModel(s.crs, s.config.Project.Ellipsoid)

	out := make([]LineLength, 0, len(features))
	for _, f := range features {
		ll := LineLength{FeatureID: f.ID, NativeUnit: s.crs.Unit()}

		if f.Err != nil {
			ll.Err = &chainage.InvalidGeometryError{Err: f.Err}
			out = append(out, ll)
			continue
		}
		line, err := geo.Extract(f.Geometry)
		if err != nil {
			ll.Err = &chainage.InvalidGeometryError{Err: err}
			out = append(out, ll)
			continue
		}
		ll.Native = model.ParametricLength(line)
		ll.Geodesic, ll.GeodesicErr = model.MeasureLength(line, chainage.Geodesic)
		out = append(out, ll)
	}
	return out
}
