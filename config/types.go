package config

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Quality bitmask presets.
const (
	BitmaskNone    = "none"
	BitmaskDefault = "default"
	BitmaskHard    = "hard"
	BitmaskHardest = "hardest"
)

// Config holds every tunable of the light-curve pipeline.
type Config struct {
	Aperture ApertureConfig `yaml:"aperture" toml:"aperture"`
	Flatten  FlattenConfig  `yaml:"flatten" toml:"flatten"`
	Quality  QualityConfig  `yaml:"quality" toml:"quality"`
	Outliers OutlierConfig  `yaml:"outliers" toml:"outliers"`
	Fold     FoldConfig     `yaml:"fold" toml:"fold"`
	Bin      BinConfig      `yaml:"bin" toml:"bin"`
	CDPP     CDPPConfig     `yaml:"cdpp" toml:"cdpp"`
	LogLevel string         `yaml:"log_level" toml:"log_level"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Aperture: ApertureConfig{Threshold: 10},
		Flatten: FlattenConfig{
			Enabled:        true,
			Window:         1001,
			PolyOrder:      2,
			Edge:           "mirror",
			BreakTolerance: 5,
			Iterations:     3,
			Sigma:          3,
		},
		Quality:  QualityConfig{Bitmask: BitmaskDefault},
		Outliers: OutlierConfig{Enabled: true, Sigma: 6, Direction: "both", MaxIters: 1},
		Bin:      BinConfig{Width: 0.02},
		CDPP:     CDPPConfig{Enabled: true, TransitDuration: 13, Window: 101, PolyOrder: 2, Sigma: 5},
		LogLevel: "info",
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Aperture.Validate(); err != nil {
		return err
	}
	if err := c.Flatten.Validate(); err != nil {
		return err
	}
	if err := c.Quality.Validate(); err != nil {
		return err
	}
	if err := c.Outliers.Validate(); err != nil {
		return err
	}
	if err := c.Fold.Validate(); err != nil {
		return err
	}
	if err := c.Bin.Validate(); err != nil {
		return err
	}
	if err := c.CDPP.Validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error", "off")),
	)
}

// ApertureConfig selects how the photometric aperture is chosen.
type ApertureConfig struct {
	// UsePipelineMask takes the aperture delivered with the pixel series
	// instead of thresholding.
	UsePipelineMask bool    `yaml:"use_pipeline_mask" toml:"use_pipeline_mask"`
	Threshold       float64 `yaml:"threshold" toml:"threshold"`
	AllRegions      bool    `yaml:"all_regions" toml:"all_regions"`
	// SubtractBackground removes the median of the pixels outside the
	// aperture.
	SubtractBackground bool `yaml:"subtract_background" toml:"subtract_background"`
}

// Validate validates the aperture configuration.
func (c *ApertureConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Threshold, validation.Required, validation.Min(0.0).Exclusive()),
	)
}

// FlattenConfig configures the Savitzky–Golay detrender.
type FlattenConfig struct {
	Enabled        bool    `yaml:"enabled" toml:"enabled"`
	Window         int     `yaml:"window" toml:"window"`
	PolyOrder      int     `yaml:"polyorder" toml:"polyorder"`
	Edge           string  `yaml:"edge" toml:"edge"`
	BreakTolerance float64 `yaml:"break_tolerance" toml:"break_tolerance"`
	Iterations     int     `yaml:"iterations" toml:"iterations"`
	Sigma          float64 `yaml:"sigma" toml:"sigma"`
	// MaskTransits excludes the cadences inside the configured fold
	// transits from the trend fit.
	MaskTransits bool `yaml:"mask_transits" toml:"mask_transits"`
}

// Validate validates the detrender configuration.
func (c *FlattenConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Window, validation.Required, validation.Min(3), validation.By(odd)),
		validation.Field(&c.PolyOrder, validation.Min(0)),
		validation.Field(&c.Edge, validation.In("mirror", "interp")),
		validation.Field(&c.BreakTolerance, validation.Min(0.0)),
		validation.Field(&c.Iterations, validation.Required, validation.Min(1)),
		validation.Field(&c.Sigma, validation.Required, validation.Min(0.0).Exclusive()),
	)
}

// QualityConfig selects the cadences removed before outlier rejection.
type QualityConfig struct {
	Bitmask string `yaml:"bitmask" toml:"bitmask"`
	// Exclude lists time ranges to drop, bounds inclusive.
	Exclude []TimeRange `yaml:"exclude" toml:"exclude"`
}

// Validate validates the quality configuration.
func (c *QualityConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Bitmask, validation.In(BitmaskNone, BitmaskDefault, BitmaskHard, BitmaskHardest)),
		validation.Field(&c.Exclude),
	)
}

// TimeRange is a closed interval of time.
type TimeRange struct {
	Start float64 `yaml:"start" toml:"start"`
	End   float64 `yaml:"end" toml:"end"`
}

// Validate validates the range ordering.
func (r TimeRange) Validate() error {
	if r.End < r.Start {
		return errors.New("end must not precede start")
	}
	return nil
}

// OutlierConfig configures sigma clipping of the flattened flux.
type OutlierConfig struct {
	Enabled   bool    `yaml:"enabled" toml:"enabled"`
	Sigma     float64 `yaml:"sigma" toml:"sigma"`
	Direction string  `yaml:"direction" toml:"direction"`
	MaxIters  int     `yaml:"max_iters" toml:"max_iters"`
}

// Validate validates the outlier configuration.
func (c *OutlierConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Sigma, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.Direction, validation.In("both", "upper", "lower")),
		validation.Field(&c.MaxIters, validation.Min(0)),
	)
}

// FoldConfig holds the ephemeris. A zero period disables folding and
// binning.
type FoldConfig struct {
	Period float64 `yaml:"period" toml:"period"`
	Epoch  float64 `yaml:"epoch" toml:"epoch"`
	// Duration is the transit duration in days, used for transit masking.
	Duration float64 `yaml:"duration" toml:"duration"`
}

// Validate validates the ephemeris.
func (c *FoldConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Period, validation.Min(0.0)),
		validation.Field(&c.Duration, validation.Min(0.0), validation.When(c.Period > 0, validation.Max(c.Period).Exclusive())),
	)
}

// BinConfig configures binning of the folded curve.
type BinConfig struct {
	// Width is the bin width in phase units.
	Width     float64 `yaml:"width" toml:"width"`
	FillEmpty bool    `yaml:"fill_empty" toml:"fill_empty"`
	Workers   int     `yaml:"workers" toml:"workers"`
}

// Validate validates the binning configuration.
func (c *BinConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Width, validation.Required, validation.Min(0.0).Exclusive(), validation.Max(1.0)),
		validation.Field(&c.Workers, validation.Min(0)),
	)
}

// CDPPConfig configures the noise estimate.
type CDPPConfig struct {
	Enabled         bool    `yaml:"enabled" toml:"enabled"`
	TransitDuration int     `yaml:"transit_duration" toml:"transit_duration"`
	Window          int     `yaml:"window" toml:"window"`
	PolyOrder       int     `yaml:"polyorder" toml:"polyorder"`
	Sigma           float64 `yaml:"sigma" toml:"sigma"`
}

// Validate validates the CDPP configuration.
func (c *CDPPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TransitDuration, validation.Required, validation.Min(1)),
		validation.Field(&c.Window, validation.Required, validation.Min(3), validation.By(odd)),
		validation.Field(&c.PolyOrder, validation.Min(0)),
		validation.Field(&c.Sigma, validation.Required, validation.Min(0.0).Exclusive()),
	)
}

func odd(value any) error {
	if n, ok := value.(int); ok && n%2 == 0 {
		return errors.New("must be odd")
	}
	return nil
}
