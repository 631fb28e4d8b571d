package sink

import (
	"io"

	"github.com/pkg/errors"
	"github.com/twpayne/go-polyline"

	"github.com/dpup/chainage/internal/lib/chainage"
)

// PolylineWriter encodes the point positions, in order, as a single Google
// encoded polyline followed by a newline. Positions must already be lon/lat.
type PolylineWriter struct{}

func (PolylineWriter) Write(w io.Writer, points []chainage.Point) error {
	if _, err := w.Write(append(Encode(points), '\n')); err != nil {
		return errors.Wrap(err, "write polyline")
	}
	return nil
}

// Encode returns the encoded polyline for the point positions.
func Encode(points []chainage.Point) []byte {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Position[1], p.Position[0]}
	}
	return polyline.EncodeCoords(coords)
}
