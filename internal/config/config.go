// Package config loads dmaps command settings from a TOML file, DMAPS_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"strings"

	"github.com/TrevorS/dmaps"
	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EnvPrefix prefixes every environment override, e.g. DMAPS_EMBEDDING_K.
const EnvPrefix = "DMAPS"

// Config is the full set of command settings.
type Config struct {
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Solver    SolverConfig    `mapstructure:"solver"`
	Output    OutputConfig    `mapstructure:"output"`
	Log       LogConfig       `mapstructure:"log"`
}

// EmbeddingConfig selects the affinity and normalization.
type EmbeddingConfig struct {
	K              int     `mapstructure:"k"`
	Metric         string  `mapstructure:"metric"`
	MinkowskiP     float64 `mapstructure:"minkowski_p"`
	Bandwidth      string  `mapstructure:"bandwidth"` // mean, median or a number
	KernelScale    string  `mapstructure:"kernel_scale"`
	DensityCorrect bool    `mapstructure:"density_correct"`
	Threshold      float64 `mapstructure:"threshold"`
	Workers        int     `mapstructure:"workers"`
}

// SolverConfig controls the eigensolver.
type SolverConfig struct {
	General       bool    `mapstructure:"general"`
	Tolerance     float64 `mapstructure:"tolerance"`
	MaxIterations int     `mapstructure:"max_iterations"`
	Seed          uint64  `mapstructure:"seed"`
}

// OutputConfig controls where results are written.
type OutputConfig struct {
	Dir       string `mapstructure:"dir"`
	WriteData bool   `mapstructure:"write_data"`
	// Numbered writes each run to a fresh run0, run1, ... under Dir.
	Numbered  bool   `mapstructure:"numbered"`
}

// LogConfig controls logging.
type LogConfig struct {
	Verbosity int  `mapstructure:"verbosity"`
	JSON      bool `mapstructure:"json"`
}

// SetDefaults configures default values for all settings.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("embedding.k", 2)
	v.SetDefault("embedding.metric", "euclidean")
	v.SetDefault("embedding.minkowski_p", 2.0)
	v.SetDefault("embedding.bandwidth", "mean")
	v.SetDefault("embedding.kernel_scale", "squared")
	v.SetDefault("embedding.density_correct", false)
	v.SetDefault("embedding.threshold", 0.0)
	v.SetDefault("embedding.workers", 0) // NumCPU

	v.SetDefault("solver.general", false)
	v.SetDefault("solver.tolerance", 1e-10)
	v.SetDefault("solver.max_iterations", 0) // N
	v.SetDefault("solver.seed", 1)

	v.SetDefault("output.dir", ".")
	v.SetDefault("output.write_data", false)
	v.SetDefault("output.numbered", false)

	v.SetDefault("log.verbosity", 0)
	v.SetDefault("log.json", false)
}

// NewViper returns a viper instance with defaults and environment binding.
// When path is non-empty the TOML file at path is read as well.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if path == "" {
		return v, nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	return v, nil
}

// Load reads the configuration from path (optional) and the environment.
func Load(path string) (*Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	return LoadWithViper(v)
}

// LoadWithViper unmarshals and validates the configuration held by v,
// including any flags bound to it.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges that do not depend on the data set.
func (c *Config) Validate() error {
	if c.Embedding.K < 1 {
		return errors.Newf("embedding.k must be >= 1, got %d", c.Embedding.K)
	}
	if c.Embedding.Threshold < 0 {
		return errors.Newf("embedding.threshold must be >= 0, got %v", c.Embedding.Threshold)
	}
	if c.Embedding.Workers < 0 {
		return errors.Newf("embedding.workers must be >= 0, got %d", c.Embedding.Workers)
	}
	if c.Solver.Tolerance <= 0 {
		return errors.Newf("solver.tolerance must be > 0, got %v", c.Solver.Tolerance)
	}
	if c.Solver.MaxIterations < 0 {
		return errors.Newf("solver.max_iterations must be >= 0, got %d", c.Solver.MaxIterations)
	}
	if _, err := dmaps.ParseBandwidth(c.Embedding.Bandwidth); err != nil {
		return errors.Wrap(err, "embedding.bandwidth")
	}
	if _, err := dmaps.ParseKernelScale(c.Embedding.KernelScale); err != nil {
		return errors.Wrap(err, "embedding.kernel_scale")
	}
	if _, err := dmaps.ParseMetric(c.Embedding.Metric, c.Embedding.MinkowskiP); err != nil {
		return errors.Wrap(err, "embedding.metric")
	}
	return nil
}

// Dmaps converts the settings into a library configuration that logs to log.
func (c *Config) Dmaps(log *zap.Logger) (dmaps.Config, error) {
	cfg := dmaps.DefaultConfig()

	metric, err := dmaps.ParseMetric(c.Embedding.Metric, c.Embedding.MinkowskiP)
	if err != nil {
		return cfg, errors.Wrap(err, "embedding.metric")
	}
	bw, err := dmaps.ParseBandwidth(c.Embedding.Bandwidth)
	if err != nil {
		return cfg, errors.Wrap(err, "embedding.bandwidth")
	}
	scale, err := dmaps.ParseKernelScale(c.Embedding.KernelScale)
	if err != nil {
		return cfg, errors.Wrap(err, "embedding.kernel_scale")
	}

	cfg.Metric = metric
	cfg.Bandwidth = bw
	cfg.KernelScale = scale
	cfg.DensityCorrect = c.Embedding.DensityCorrect
	cfg.Threshold = c.Embedding.Threshold
	cfg.Workers = c.Embedding.Workers
	cfg.General = c.Solver.General
	cfg.Tolerance = c.Solver.Tolerance
	cfg.MaxIterations = c.Solver.MaxIterations
	cfg.Seed = c.Solver.Seed
	cfg.Logger = log
	return cfg, nil
}
