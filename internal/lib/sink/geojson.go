package sink

import (
	"io"

	geojson "github.com/paulmach/go.geojson"
	"github.com/pkg/errors"

	"github.com/dpup/chainage/internal/lib/chainage"
)

// GeoJSONWriter writes a FeatureCollection of points. Each feature carries
// the copied attributes, the source id under SourceField and the label under
// the unit's field name (cng_meters, cng_feet, ...).
type GeoJSONWriter struct{}

func (GeoJSONWriter) Write(w io.Writer, points []chainage.Point) error {
	fc := Collection(points)
	data, err := fc.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "encode geojson")
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return errors.Wrap(err, "write geojson")
	}
	return nil
}

// Collection builds the FeatureCollection GeoJSONWriter emits.
func Collection(points []chainage.Point) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range points {
		f := geojson.NewPointFeature([]float64{p.Position[0], p.Position[1]})
		for k, v := range p.Attributes {
			f.SetProperty(k, v)
		}
		if p.Source != nil {
			f.SetProperty(SourceField, p.Source)
		}
		f.SetProperty(p.Unit.FieldName(), p.Distance)
		fc.AddFeature(f)
	}
	return fc
}
