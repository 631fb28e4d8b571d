package source

import (
	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// DecodeGeoJSON accepts a FeatureCollection, a single Feature or a bare
// geometry. Features without an id get their index in the document.
func DecodeGeoJSON(data []byte) ([]Feature, error) {
	typ, err := peekType(data)
	if err != nil {
		return nil, err
	}

	switch typ {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, errors.Wrap(err, "decode feature collection")
		}
		out := make([]Feature, 0, len(fc.Features))
		for i, f := range fc.Features {
			out = append(out, fromGeoJSONFeature(f, i))
		}
		return out, nil

	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, errors.Wrap(err, "decode feature")
		}
		return []Feature{fromGeoJSONFeature(f, 0)}, nil

	case "":
		return nil, errors.New("decode geojson: missing type")
	}

	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, errors.Wrap(err, "decode geometry")
	}
	geom, err := fromGeoJSONGeometry(g)
	if err != nil {
		return nil, err
	}
	return []Feature{{ID: 0, Geometry: geom}}, nil
}

// fromGeoJSONFeature keeps a feature with an undecodable geometry, carrying
// the error, so the rest of the collection is still processed.
func fromGeoJSONFeature(f *geojson.Feature, index int) Feature {
	var id any = index
	if f.ID != nil {
		id = f.ID
	}
	feat := Feature{ID: id, Properties: f.Properties}
	geom, err := fromGeoJSONGeometry(f.Geometry)
	if err != nil {
		feat.Err = errors.Wrapf(err, "feature %v", id)
		return feat
	}
	feat.Geometry = geom
	return feat
}

// fromGeoJSONGeometry converts to orb, dropping any Z or M values. A null
// geometry stays nil.
func fromGeoJSONGeometry(g *geojson.Geometry) (orb.Geometry, error) {
	if g == nil {
		return nil, nil
	}
	switch g.Type {
	case geojson.GeometryPoint:
		return toPoint(g.Point)
	case geojson.GeometryMultiPoint:
		mp := make(orb.MultiPoint, 0, len(g.MultiPoint))
		for _, c := range g.MultiPoint {
			p, err := toPoint(c)
			if err != nil {
				return nil, err
			}
			mp = append(mp, p)
		}
		return mp, nil
	case geojson.GeometryLineString:
		return toLineString(g.LineString)
	case geojson.GeometryMultiLineString:
		mls := make(orb.MultiLineString, 0, len(g.MultiLineString))
		for _, part := range g.MultiLineString {
			ls, err := toLineString(part)
			if err != nil {
				return nil, err
			}
			mls = append(mls, ls)
		}
		return mls, nil
	case geojson.GeometryPolygon:
		return toPolygon(g.Polygon)
	case geojson.GeometryMultiPolygon:
		mp := make(orb.MultiPolygon, 0, len(g.MultiPolygon))
		for _, rings := range g.MultiPolygon {
			poly, err := toPolygon(rings)
			if err != nil {
				return nil, err
			}
			mp = append(mp, poly)
		}
		return mp, nil
	case geojson.GeometryCollection:
		col := make(orb.Collection, 0, len(g.Geometries))
		for _, child := range g.Geometries {
			cg, err := fromGeoJSONGeometry(child)
			if err != nil {
				return nil, err
			}
			if cg != nil {
				col = append(col, cg)
			}
		}
		return col, nil
	}
	return nil, errors.Errorf("unknown geometry type %q", g.Type)
}

func toPoint(c []float64) (orb.Point, error) {
	if len(c) < 2 {
		return orb.Point{}, errors.Errorf("coordinate needs at least 2 values, got %d", len(c))
	}
	return orb.Point{c[0], c[1]}, nil
}

func toLineString(coords [][]float64) (orb.LineString, error) {
	ls := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		p, err := toPoint(c)
		if err != nil {
			return nil, err
		}
		ls = append(ls, p)
	}
	return ls, nil
}

func toPolygon(rings [][][]float64) (orb.Polygon, error) {
	poly := make(orb.Polygon, 0, len(rings))
	for _, r := range rings {
		ls, err := toLineString(r)
		if err != nil {
			return nil, err
		}
		poly = append(poly, orb.Ring(ls))
	}
	return poly, nil
}
