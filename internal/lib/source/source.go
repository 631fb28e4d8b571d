// Package source reads line features from the formats hosts hand us:
// GeoJSON, WKT and encoded polylines.
package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// Feature is one input line with its identity and attributes.
type Feature struct {
	// ID is the feature id from the source, or its position when it has none.
	ID any
	// Geometry may be nil or of any type; validation happens when chainage
	// is generated so that a bad feature only skips itself.
	Geometry   orb.Geometry
	Properties map[string]any
	// Err is set when the feature's geometry could not be decoded. Geometry
	// is nil then and the feature is reported rather than dropped.
	Err error
}

// Format identifies an input encoding.
type Format int

const (
	GeoJSON Format = iota
	WKT
	Polyline
)

func (f Format) String() string {
	switch f {
	case GeoJSON:
		return "geojson"
	case WKT:
		return "wkt"
	case Polyline:
		return "polyline"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat resolves a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "geojson", "json":
		return GeoJSON, nil
	case "wkt":
		return WKT, nil
	case "polyline":
		return Polyline, nil
	}
	return GeoJSON, errors.Errorf("unknown input format %q", s)
}

// DetectFormat guesses the format from a file name, defaulting to GeoJSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wkt":
		return WKT
	case ".polyline", ".txt":
		return Polyline
	}
	return GeoJSON
}

// Read decodes all features from r.
func Read(r io.Reader, format Format) ([]Feature, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read input")
	}
	switch format {
	case GeoJSON:
		return DecodeGeoJSON(data)
	case WKT:
		return DecodeWKT(data)
	case Polyline:
		return DecodePolyline(data)
	}
	return nil, errors.Errorf("unsupported input format %v", format)
}

// Filter keeps the features whose id, formatted as text, is in ids. An empty
// ids list keeps everything.
func Filter(features []Feature, ids []string) []Feature {
	if len(ids) == 0 {
		return features
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[strings.TrimSpace(id)] = true
	}
	var out []Feature
	for _, f := range features {
		if want[fmt.Sprint(f.ID)] {
			out = append(out, f)
		}
	}
	return out
}

// records splits line-oriented input, skipping blank lines and # comments.
// The callback receives the 1-based line number.
func records(data []byte, fn func(lineNo int, text string) error) error {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if err := fn(lineNo, text); err != nil {
			return errors.Wrapf(err, "line %d", lineNo)
		}
	}
	return errors.Wrap(sc.Err(), "scan input")
}

// peekType reads the top-level "type" member of a GeoJSON document.
func peekType(data []byte) (string, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return "", errors.Wrap(err, "decode geojson")
	}
	return head.Type, nil
}
