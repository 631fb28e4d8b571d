package source

import (
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const roadsGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "id": "hwy4-angels-murphys",
      "properties": {"name": "Hwy 4", "lanes": 2},
      "geometry": {"type": "LineString", "coordinates": [[-120.5402, 38.0674, 420], [-120.4606, 38.1327, 650]]}
    },
    {
      "type": "Feature",
      "properties": {"name": "split"},
      "geometry": {"type": "MultiLineString", "coordinates": [[[0, 0], [1, 0]], [[2, 0], [3, 0]]]}
    },
    {
      "type": "Feature",
      "properties": null,
      "geometry": null
    }
  ]
}`

func TestDecodeGeoJSON_FeatureCollection(t *testing.T) {
	features, err := DecodeGeoJSON([]byte(roadsGeoJSON))
	require.NoError(t, err)
	require.Len(t, features, 3)

	assert.Equal(t, "hwy4-angels-murphys", features[0].ID)
	assert.Equal(t, orb.LineString{{-120.5402, 38.0674}, {-120.4606, 38.1327}}, features[0].Geometry, "Z is dropped")
	assert.Equal(t, "Hwy 4", features[0].Properties["name"])

	assert.Equal(t, 1, features[1].ID, "missing ids fall back to the index")
	assert.Equal(t, orb.MultiLineString{{{0, 0}, {1, 0}}, {{2, 0}, {3, 0}}}, features[1].Geometry)

	assert.Nil(t, features[2].Geometry)
}

func TestDecodeGeoJSON_SingleFeatureAndGeometry(t *testing.T) {
	features, err := DecodeGeoJSON([]byte(`{"type":"Feature","id":7,"properties":{},"geometry":{"type":"LineString","coordinates":[[0,0],[10,0]]}}`))
	require.NoError(t, err)
	require.Len(t, features, 1)
	assert.EqualValues(t, 7, features[0].ID)

	features, err = DecodeGeoJSON([]byte(`{"type":"LineString","coordinates":[[0,0],[10,0]]}`))
	require.NoError(t, err)
	require.Len(t, features, 1)
	assert.Equal(t, orb.LineString{{0, 0}, {10, 0}}, features[0].Geometry)

	features, err = DecodeGeoJSON([]byte(`{"type":"Point","coordinates":[1,2]}`))
	require.NoError(t, err)
	assert.Equal(t, orb.Point{1, 2}, features[0].Geometry)
}

func TestDecodeGeoJSON_Errors(t *testing.T) {
	_, err := DecodeGeoJSON([]byte(`not json`))
	assert.Error(t, err)

	_, err = DecodeGeoJSON([]byte(`{"coordinates":[]}`))
	assert.Error(t, err)

	_, err = DecodeGeoJSON([]byte(`{"type":"LineString","coordinates":[[0],[1,1]]}`))
	assert.Error(t, err)
}

func TestDecodeGeoJSON_BadFeatureKeepsOthers(t *testing.T) {
	features, err := DecodeGeoJSON([]byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","id":"ok-1","geometry":{"type":"LineString","coordinates":[[0,0],[1,0]]},"properties":{}},
		{"type":"Feature","id":"broken","geometry":{"type":"LineString","coordinates":[[0],[1,0]]},"properties":{"name":"x"}},
		{"type":"Feature","id":"ok-2","geometry":{"type":"LineString","coordinates":[[2,0],[3,0]]},"properties":{}}
	]}`))
	require.NoError(t, err)
	require.Len(t, features, 3)

	assert.NoError(t, features[0].Err)
	assert.Equal(t, orb.LineString{{0, 0}, {1, 0}}, features[0].Geometry)

	assert.Equal(t, "broken", features[1].ID)
	assert.Error(t, features[1].Err)
	assert.Nil(t, features[1].Geometry)
	assert.Equal(t, "x", features[1].Properties["name"])

	assert.NoError(t, features[2].Err)
	assert.Equal(t, orb.LineString{{2, 0}, {3, 0}}, features[2].Geometry)
}

func TestDecodeWKT(t *testing.T) {
	input := strings.Join([]string{
		"# survey lines",
		"LINESTRING (0 0, 100 0)",
		"",
		"LINESTRING Z (0 0 5, 3 4 6)",
		"MULTILINESTRING ((0 0, 1 1), (2 2, 3 3))",
		"POINT (1 2)",
	}, "\n")

	features, err := DecodeWKT([]byte(input))
	require.NoError(t, err)
	require.Len(t, features, 4)

	assert.Equal(t, 2, features[0].ID, "ids are line numbers")
	assert.Equal(t, orb.LineString{{0, 0}, {100, 0}}, features[0].Geometry)
	assert.Equal(t, orb.LineString{{0, 0}, {3, 4}}, features[1].Geometry)
	assert.Equal(t, orb.MultiLineString{{{0, 0}, {1, 1}}, {{2, 2}, {3, 3}}}, features[2].Geometry)
	assert.Equal(t, orb.Point{1, 2}, features[3].Geometry)

	features, err = DecodeWKT([]byte("LINESTRING (0 0, 1 1)\nLINESTRING (0 0,\nLINESTRING (2 2, 3 3)"))
	require.NoError(t, err)
	require.Len(t, features, 3)
	assert.NoError(t, features[0].Err)
	assert.Equal(t, 2, features[1].ID)
	assert.Error(t, features[1].Err)
	assert.Nil(t, features[1].Geometry)
	assert.Equal(t, orb.LineString{{2, 2}, {3, 3}}, features[2].Geometry)
}

func TestDecodePolyline(t *testing.T) {
	features, err := DecodePolyline([]byte("_p~iF~ps|U_ulLnnqC_mqNvxq`@\n"))
	require.NoError(t, err)
	require.Len(t, features, 1)

	ls, ok := features[0].Geometry.(orb.LineString)
	require.True(t, ok)
	require.Len(t, ls, 3)
	assert.InDelta(t, -120.2, ls[0][0], 1e-9)
	assert.InDelta(t, 38.5, ls[0][1], 1e-9)
	assert.InDelta(t, -126.453, ls[2][0], 1e-9)
	assert.InDelta(t, 43.252, ls[2][1], 1e-9)

	features, err = DecodePolyline([]byte("!!!!\n_p~iF~ps|U_ulLnnqC_mqNvxq`@\n"))
	require.NoError(t, err)
	require.Len(t, features, 2)
	assert.Error(t, features[0].Err)
	assert.NoError(t, features[1].Err)
	assert.Equal(t, 2, features[1].ID)
}

func TestRead(t *testing.T) {
	features, err := Read(strings.NewReader("LINESTRING (0 0, 1 1)"), WKT)
	require.NoError(t, err)
	assert.Len(t, features, 1)

	_, err = Read(strings.NewReader(""), Format(42))
	assert.Error(t, err)
}

func TestFormats(t *testing.T) {
	f, err := ParseFormat("GeoJSON")
	require.NoError(t, err)
	assert.Equal(t, GeoJSON, f)

	_, err = ParseFormat("shapefile")
	assert.Error(t, err)

	assert.Equal(t, WKT, DetectFormat("lines.wkt"))
	assert.Equal(t, Polyline, DetectFormat("route.polyline"))
	assert.Equal(t, GeoJSON, DetectFormat("roads.geojson"))
	assert.Equal(t, "polyline", Polyline.String())
}

func TestFilter(t *testing.T) {
	features := []Feature{{ID: "a"}, {ID: 2}, {ID: 3.5}}

	assert.Len(t, Filter(features, nil), 3)

	got := Filter(features, []string{"a", "3.5", "missing"})
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, 3.5, got[1].ID)

	assert.Len(t, Filter(features, []string{" 2 "}), 1)
}
