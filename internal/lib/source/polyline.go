package source

import (
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/twpayne/go-polyline"
)

// DecodePolyline reads one encoded polyline per line. Polylines carry
// lat/lng pairs; the features hold lon/lat points. A line that does not
// decode becomes a feature with Err set.
func DecodePolyline(data []byte) ([]Feature, error) {
	var out []Feature
	err := records(data, func(lineNo int, text string) error {
		ls, err := decodeLine(text)
		if err != nil {
			out = append(out, Feature{ID: lineNo, Err: errors.Wrapf(err, "line %d", lineNo)})
			return nil
		}
		out = append(out, Feature{ID: lineNo, Geometry: ls})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func decodeLine(encoded string) (orb.LineString, error) {
	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, errors.Wrap(err, "decode polyline")
	}
	if len(rest) > 0 {
		return nil, errors.Errorf("decode polyline: %d trailing bytes", len(rest))
	}
	ls := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		ls = append(ls, orb.Point{c[1], c[0]})
	}
	return ls, nil
}
