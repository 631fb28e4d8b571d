package source

import (
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// DecodeWKT reads one WKT geometry per line. Feature ids are line numbers.
// A line that does not decode becomes a feature with Err set.
func DecodeWKT(data []byte) ([]Feature, error) {
	var out []Feature
	err := records(data, func(lineNo int, text string) error {
		g, err := wkt.Unmarshal(text)
		if err != nil {
			out = append(out, Feature{ID: lineNo, Err: errors.Wrapf(err, "line %d: decode wkt", lineNo)})
			return nil
		}
		og, err := fromGeom(g)
		if err != nil {
			out = append(out, Feature{ID: lineNo, Err: errors.Wrapf(err, "line %d", lineNo)})
			return nil
		}
		out = append(out, Feature{ID: lineNo, Geometry: og})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// fromGeom converts a go-geom geometry to orb, keeping only X and Y.
func fromGeom(g geom.T) (orb.Geometry, error) {
	switch g := g.(type) {
	case *geom.Point:
		if g.Empty() {
			return nil, nil
		}
		return orb.Point{g.X(), g.Y()}, nil
	case *geom.LineString:
		return coordsToLineString(g.Coords()), nil
	case *geom.MultiLineString:
		mls := make(orb.MultiLineString, 0, g.NumLineStrings())
		for i := 0; i < g.NumLineStrings(); i++ {
			mls = append(mls, coordsToLineString(g.LineString(i).Coords()))
		}
		return mls, nil
	case *geom.Polygon:
		poly := make(orb.Polygon, 0, g.NumLinearRings())
		for i := 0; i < g.NumLinearRings(); i++ {
			poly = append(poly, orb.Ring(coordsToLineString(g.LinearRing(i).Coords())))
		}
		return poly, nil
	}
	return nil, errors.Errorf("unsupported wkt geometry %T", g)
}

func coordsToLineString(coords []geom.Coord) orb.LineString {
	ls := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		ls = append(ls, orb.Point{c.X(), c.Y()})
	}
	return ls
}
