package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "CHROMAKEY"

type Config struct {
	// Expected edge length of input images. 0 accepts any size.
	Size int `mapstructure:"size"`
	// Distance below which the auto method always drops a pixel.
	Cutoff float64 `mapstructure:"cutoff"`
	// Exit status when fewer than five arguments are given.
	UsageExitCode int `mapstructure:"usage_exit_code"`
	// Parse the threshold like atof: numeric prefix, or 0.
	LenientThreshold bool `mapstructure:"lenient_threshold"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	PaletteMethod string `mapstructure:"palette_method"`
	PaletteSize   int    `mapstructure:"palette_size"`
}

// Load reads defaults, then the optional YAML file at configPath, then
// CHROMAKEY_* environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Size < 0 {
		return fmt.Errorf("size must be >= 0 (got %d)", c.Size)
	}
	if c.Cutoff < 0 {
		return fmt.Errorf("cutoff must be >= 0 (got %v)", c.Cutoff)
	}
	if c.UsageExitCode < 0 || c.UsageExitCode > 125 {
		return fmt.Errorf("usage_exit_code out of range (got %d)", c.UsageExitCode)
	}
	switch c.PaletteMethod {
	case "dominantcolor", "kmeans":
	default:
		return fmt.Errorf("unknown palette_method %q", c.PaletteMethod)
	}
	if c.PaletteSize <= 0 {
		return fmt.Errorf("palette_size must be > 0 (got %d)", c.PaletteSize)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("size", 256)
	v.SetDefault("cutoff", 50.0)
	v.SetDefault("usage_exit_code", 0)
	v.SetDefault("lenient_threshold", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("palette_method", "dominantcolor")
	v.SetDefault("palette_size", 5)
}

func Default() *Config {
	return &Config{
		Size:          256,
		Cutoff:        50,
		UsageExitCode: 0,
		LogLevel:      "info",
		LogFormat:     "text",
		PaletteMethod: "dominantcolor",
		PaletteSize:   5,
	}
}
