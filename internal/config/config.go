package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dpup/chainage/internal/lib/chainage"
	"github.com/dpup/chainage/internal/lib/crs"
	"github.com/dpup/chainage/internal/lib/units"
)

// EnvPrefix marks environment overrides. Nested keys use a double
// underscore: CHAINAGE_CHAINAGE__SPACING sets chainage.spacing.
const EnvPrefix = "CHAINAGE_"

// Config represents the complete tool configuration
type Config struct {
	Chainage ChainageConfig `koanf:"chainage"`
	Project  ProjectConfig  `koanf:"project"`
	Batch    BatchConfig    `koanf:"batch"`
	Output   OutputConfig   `koanf:"output"`
	Log      LogConfig      `koanf:"log"`
}

// ChainageConfig holds the placement policy, in the user's unit
type ChainageConfig struct {
	StartPoint     float64  `koanf:"startpoint"`
	EndPoint       float64  `koanf:"endpoint"`
	Spacing        float64  `koanf:"spacing"`
	Unit           string   `koanf:"unit"`
	Mode           string   `koanf:"mode"`
	DivideCount    int      `koanf:"divide_count"`
	ForceLast      bool     `koanf:"force_last"`
	Reverse        bool     `koanf:"reverse"`
	UseGeodesic    bool     `koanf:"use_geodesic"`
	CopyAttributes []string `koanf:"copy_attributes"`
	Tolerance      float64  `koanf:"tolerance"`
}

// ProjectConfig holds the settings shared by every layer in a run
type ProjectConfig struct {
	// Ellipsoid is the default for CRSs that name none. NONE means WGS84.
	Ellipsoid string `koanf:"ellipsoid"`
	CRS       string `koanf:"crs"`
}

// BatchConfig controls the batch service
type BatchConfig struct {
	// Workers is the number of lines processed concurrently; 0 means one per CPU.
	Workers          int  `koanf:"workers"`
	ExplodeMultipart bool `koanf:"explode_multipart"`
}

// OutputConfig selects the point layer encoding
type OutputConfig struct {
	Format string `koanf:"format"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level       string `koanf:"level"`
	Development bool   `koanf:"development"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Chainage: ChainageConfig{
			Spacing:     100,
			Unit:        "meters",
			Mode:        "fixed",
			DivideCount: 1,
			UseGeodesic: true,
		},
		Project: ProjectConfig{
			Ellipsoid: "WGS84",
			CRS:       "EPSG:4326",
		},
		Output: OutputConfig{
			Format: "geojson",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// defaults flattens DefaultConfig into koanf keys.
func defaults() map[string]any {
	d := DefaultConfig()
	return map[string]any{
		"chainage.startpoint":      d.Chainage.StartPoint,
		"chainage.endpoint":        d.Chainage.EndPoint,
		"chainage.spacing":         d.Chainage.Spacing,
		"chainage.unit":            d.Chainage.Unit,
		"chainage.mode":            d.Chainage.Mode,
		"chainage.divide_count":    d.Chainage.DivideCount,
		"chainage.force_last":      d.Chainage.ForceLast,
		"chainage.reverse":         d.Chainage.Reverse,
		"chainage.use_geodesic":    d.Chainage.UseGeodesic,
		"chainage.copy_attributes": []string{},
		"chainage.tolerance":       d.Chainage.Tolerance,
		"project.ellipsoid":        d.Project.Ellipsoid,
		"project.crs":              d.Project.CRS,
		"batch.workers":            d.Batch.Workers,
		"batch.explode_multipart":  d.Batch.ExplodeMultipart,
		"output.format":            d.Output.Format,
		"log.level":                d.Log.Level,
		"log.development":          d.Log.Development,
	}
}

// Load layers defaults, the YAML file at path (skipped when empty) and
// CHAINAGE_ environment overrides, then validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load defaults")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", path)
		}
	}
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load environment")
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envValue maps CHAINAGE_BATCH__WORKERS to batch.workers. List values are
// comma separated.
func envValue(key, value string) (string, any) {
	k := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	k = strings.ReplaceAll(k, "__", ".")
	if k == "chainage.copy_attributes" {
		return k, splitList(value)
	}
	return k, value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks every section without touching any geometry.
func (c *Config) Validate() error {
	if _, err := c.Policy(); err != nil {
		return err
	}
	if _, err := c.CRS(); err != nil {
		return err
	}
	if e := strings.TrimSpace(c.Project.Ellipsoid); e != "" && !strings.EqualFold(e, crs.NoEllipsoid) {
		if _, err := crs.LookupEllipsoid(e); err != nil {
			return errors.Wrap(err, "project.ellipsoid")
		}
	}
	if c.Batch.Workers < 0 {
		return errors.Errorf("batch.workers must not be negative, got %d", c.Batch.Workers)
	}
	switch strings.ToLower(c.Output.Format) {
	case "geojson", "kml", "polyline":
	default:
		return errors.Errorf("output.format %q is not one of geojson, kml, polyline", c.Output.Format)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	return nil
}

// Policy converts the chainage section into a validated placement policy.
func (c *Config) Policy() (chainage.Policy, error) {
	cc := c.Chainage

	mode, err := chainage.ParseMode(cc.Mode)
	if err != nil {
		return chainage.Policy{}, errors.Wrap(err, "chainage.mode")
	}
	var unit units.Unit
	if strings.TrimSpace(cc.Unit) != "" {
		if unit, err = units.Parse(cc.Unit); err != nil {
			return chainage.Policy{}, errors.Wrap(err, "chainage.unit")
		}
	}

	p := chainage.Policy{
		Start:       cc.StartPoint,
		End:         cc.EndPoint,
		Spacing:     cc.Spacing,
		Mode:        mode,
		Divide:      cc.DivideCount,
		ForceLast:   cc.ForceLast,
		Reverse:     cc.Reverse,
		UseGeodesic: cc.UseGeodesic,
		Unit:        unit,
		Tolerance:   cc.Tolerance,
	}
	if err := p.Validate(); err != nil {
		return chainage.Policy{}, errors.Wrap(err, "chainage")
	}
	return p, nil
}

// CRS parses project.crs.
func (c *Config) CRS() (crs.Context, error) {
	ctx, err := crs.Parse(c.Project.CRS)
	if err != nil {
		return crs.Context{}, errors.Wrap(err, "project.crs")
	}
	return ctx, nil
}

// Logger builds a zap logger from the log section.
func (c LogConfig) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, errors.Wrap(err, "log.level")
	}
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
