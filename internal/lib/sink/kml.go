package sink

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/twpayne/go-kml"

	"github.com/dpup/chainage/internal/lib/chainage"
)

// KMLWriter writes one placemark per point, named by its label. Positions
// must already be lon/lat.
type KMLWriter struct {
	Name string
}

func (k *KMLWriter) Write(w io.Writer, points []chainage.Point) error {
	children := []kml.Element{kml.Name(k.Name)}
	for _, p := range points {
		children = append(children, placemark(p))
	}
	doc := kml.KML(kml.Document(children...))
	if err := doc.WriteIndent(w, "", "  "); err != nil {
		return errors.Wrap(err, "write kml")
	}
	return nil
}

func placemark(p chainage.Point) kml.Element {
	elems := []kml.Element{kml.Name(Label(p))}
	if p.Source != nil {
		elems = append(elems, kml.Description(fmt.Sprintf("%s: %v", SourceField, p.Source)))
	}
	elems = append(elems, kml.Point(
		kml.Coordinates(kml.Coordinate{Lon: p.Position[0], Lat: p.Position[1]}),
	))
	return kml.Placemark(elems...)
}
