package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/chainage/internal/lib/chainage"
	"github.com/dpup/chainage/internal/lib/units"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chainage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig().Chainage.Spacing, cfg.Chainage.Spacing)
	assert.Equal(t, "EPSG:4326", cfg.Project.CRS)
	assert.Equal(t, "WGS84", cfg.Project.Ellipsoid)
	assert.Equal(t, "geojson", cfg.Output.Format)

	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, chainage.FixedSpacing, p.Mode)
	assert.Equal(t, units.Meters, p.Unit)
	assert.True(t, p.UseGeodesic)

	ctx, err := cfg.CRS()
	require.NoError(t, err)
	assert.True(t, ctx.Geographic)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
chainage:
  startpoint: 20
  endpoint: 80
  spacing: 15
  unit: ft
  mode: divide
  divide_count: 4
  force_last: true
  reverse: true
  copy_attributes: [name, lanes]
project:
  crs: EPSG:32633
  ellipsoid: NONE
batch:
  workers: 3
  explode_multipart: true
output:
  format: kml
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, chainage.Policy{
		Start:       20,
		End:         80,
		Spacing:     15,
		Mode:        chainage.DivideIntoParts,
		Divide:      4,
		ForceLast:   true,
		Reverse:     true,
		UseGeodesic: true,
		Unit:        units.Feet,
	}, p)
	assert.Equal(t, []string{"name", "lanes"}, cfg.Chainage.CopyAttributes)
	assert.Equal(t, 3, cfg.Batch.Workers)
	assert.True(t, cfg.Batch.ExplodeMultipart)
	assert.Equal(t, "kml", cfg.Output.Format)

	ctx, err := cfg.CRS()
	require.NoError(t, err)
	assert.False(t, ctx.Geographic)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "chainage:\n  spacing: 15\n")
	t.Setenv("CHAINAGE_CHAINAGE__SPACING", "25")
	t.Setenv("CHAINAGE_CHAINAGE__FORCE_LAST", "true")
	t.Setenv("CHAINAGE_CHAINAGE__COPY_ATTRIBUTES", "name, lanes")
	t.Setenv("CHAINAGE_BATCH__WORKERS", "8")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25.0, cfg.Chainage.Spacing)
	assert.True(t, cfg.Chainage.ForceLast)
	assert.Equal(t, []string{"name", "lanes"}, cfg.Chainage.CopyAttributes)
	assert.Equal(t, 8, cfg.Batch.Workers)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"start beyond end": "chainage:\n  startpoint: 50\n  endpoint: 10\n",
		"unknown unit":     "chainage:\n  unit: furlongs\n",
		"unknown mode":     "chainage:\n  mode: random\n",
		"zero divide":      "chainage:\n  mode: divide\n  divide_count: 0\n",
		"bad crs":          "project:\n  crs: EPSG:2193\n",
		"bad ellipsoid":    "project:\n  ellipsoid: martian\n",
		"negative workers": "batch:\n  workers: -1\n",
		"bad format":       "output:\n  format: shapefile\n",
		"bad log level":    "log:\n  level: loud\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPolicy_KeepsErrorType(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chainage.StartPoint = 10
	cfg.Chainage.EndPoint = 5

	_, err := cfg.Policy()
	assert.ErrorIs(t, err, chainage.ErrInvalidPolicy)
}

func TestPolicy_EmptyUnitMeansNative(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chainage.Unit = ""

	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, units.Unknown, p.Unit)
}

func TestLogConfig_Logger(t *testing.T) {
	logger, err := LogConfig{Level: "debug", Development: true}.Logger()
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = LogConfig{Level: "loud"}.Logger()
	assert.Error(t, err)
}
