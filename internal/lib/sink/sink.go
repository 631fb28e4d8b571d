// Package sink writes generated chainage points out as GeoJSON, KML or an
// encoded polyline.
package sink

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/dpup/chainage/internal/lib/chainage"
	"github.com/dpup/chainage/internal/lib/crs"
)

// SourceField is the property naming the feature a point came from.
const SourceField = "source_fid"

// Writer serializes a point layer.
type Writer interface {
	Write(w io.Writer, points []chainage.Point) error
}

// Format identifies an output encoding.
type Format int

const (
	GeoJSON Format = iota
	KML
	Polyline
)

func (f Format) String() string {
	switch f {
	case GeoJSON:
		return "geojson"
	case KML:
		return "kml"
	case Polyline:
		return "polyline"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat resolves an output format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "geojson", "json":
		return GeoJSON, nil
	case "kml":
		return KML, nil
	case "polyline":
		return Polyline, nil
	}
	return GeoJSON, errors.Errorf("unknown output format %q", s)
}

// NeedsLonLat reports whether the format only makes sense in lon/lat.
func (f Format) NeedsLonLat() bool {
	return f == KML || f == Polyline
}

// New returns the writer for format.
func New(format Format) (Writer, error) {
	switch format {
	case GeoJSON:
		return &GeoJSONWriter{}, nil
	case KML:
		return &KMLWriter{Name: "Chainage"}, nil
	case Polyline:
		return &PolylineWriter{}, nil
	}
	return nil, errors.Errorf("unsupported output format %v", format)
}

// ToLonLat returns copies of points with positions unprojected from ctx.
func ToLonLat(points []chainage.Point, ctx crs.Context) ([]chainage.Point, error) {
	if ctx.Geographic {
		return points, nil
	}
	unproject, err := ctx.Unprojector()
	if err != nil {
		return nil, errors.Wrap(err, "output needs lon/lat")
	}
	out := make([]chainage.Point, len(points))
	for i, p := range points {
		ll, err := unproject(p.Position)
		if err != nil {
			return nil, errors.Wrapf(err, "point %d", i)
		}
		p.Position = ll
		out[i] = p
	}
	return out, nil
}

// Label formats a chainage label to three decimals, e.g. "1.25 km".
func Label(p chainage.Point) string {
	d := math.Round(p.Distance*1000) / 1000
	return strconv.FormatFloat(d, 'f', -1, 64) + " " + p.Unit.Abbrev()
}
