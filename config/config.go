// Package config provides the configuration surface for a pipeline run.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/podtrends/chartbuilder/model"
)

// Config holds every recognized option for one pipeline invocation.
type Config struct {
	// SnapshotPath is the chart snapshot input file location.
	SnapshotPath string `mapstructure:"snapshot_path" yaml:"snapshot_path" json:"snapshot_path"`
	// OutputPath is where the dataset CSV is written.
	OutputPath string `mapstructure:"output_path" yaml:"output_path" json:"output_path"`
	// RegionCode affects category-name resolution.
	RegionCode string `mapstructure:"region_code" yaml:"region_code" json:"region_code"`
	// ChartWeek pins the run to a named week instead of the latest one.
	ChartWeek string `mapstructure:"chart_week" yaml:"chart_week" json:"chart_week,omitempty"`
	// TopN is how many ranked entries of the snapshot to process.
	TopN int `mapstructure:"top_n" yaml:"top_n" json:"top_n"`
	// MaxItemsPerPlaylist caps items fetched per playlist before moving on.
	MaxItemsPerPlaylist int `mapstructure:"max_items_per_playlist" yaml:"max_items_per_playlist" json:"max_items_per_playlist"`
	// Concurrency is how many playlists are paginated at once. The pacing
	// token stays global regardless.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency" json:"concurrency"`
	// APIKey is the single opaque credential for the metadata API.
	APIKey string `mapstructure:"api_key" yaml:"api_key" json:"-"`

	// RequestInterval is the minimum time between outbound calls.
	RequestInterval time.Duration `mapstructure:"request_interval" yaml:"request_interval" json:"request_interval"`
	// MaxRetries is the attempt ceiling for transient API failures.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries" json:"max_retries"`
	// BaseDelay seeds the exponential retry backoff.
	BaseDelay time.Duration `mapstructure:"base_delay" yaml:"base_delay" json:"base_delay"`
	// MaxDelay caps the retry backoff.
	MaxDelay time.Duration `mapstructure:"max_delay" yaml:"max_delay" json:"max_delay"`
}

// Default returns a configuration with sensible defaults.
func Default() Config {
	return Config{
		SnapshotPath:        "data/complete_podcast_timeline.json",
		OutputPath:          "data/top100_youtube_podcasts.csv",
		RegionCode:          "US",
		TopN:                100,
		MaxItemsPerPlaylist: 100,
		Concurrency:         1,
		RequestInterval:     200 * time.Millisecond,
		MaxRetries:          3,
		BaseDelay:           400 * time.Millisecond,
		MaxDelay:            30 * time.Second,
	}
}

// Load reads configuration from an optional file plus the environment.
// CHARTBUILDER_* variables override file values; the API key additionally
// honors the conventional YT_API_KEY variable.
func Load(path string) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("snapshot_path", def.SnapshotPath)
	v.SetDefault("output_path", def.OutputPath)
	v.SetDefault("region_code", def.RegionCode)
	v.SetDefault("top_n", def.TopN)
	v.SetDefault("max_items_per_playlist", def.MaxItemsPerPlaylist)
	v.SetDefault("concurrency", def.Concurrency)
	v.SetDefault("request_interval", def.RequestInterval)
	v.SetDefault("max_retries", def.MaxRetries)
	v.SetDefault("base_delay", def.BaseDelay)
	v.SetDefault("max_delay", def.MaxDelay)

	v.SetEnvPrefix("CHARTBUILDER")
	v.AutomaticEnv()
	if err := v.BindEnv("api_key", "CHARTBUILDER_API_KEY", "YT_API_KEY"); err != nil {
		return Config{}, fmt.Errorf("binding environment: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("%w: reading config file %s: %v", model.ErrConfig, path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: unmarshaling config: %v", model.ErrConfig, err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.SnapshotPath == "" {
		return fmt.Errorf("%w: snapshot_path is required", model.ErrConfig)
	}
	if c.OutputPath == "" {
		return fmt.Errorf("%w: output_path is required", model.ErrConfig)
	}
	if c.RegionCode == "" {
		return fmt.Errorf("%w: region_code is required", model.ErrConfig)
	}
	if c.TopN <= 0 {
		return fmt.Errorf("%w: top_n must be positive, got %d", model.ErrConfig, c.TopN)
	}
	if c.MaxItemsPerPlaylist <= 0 {
		return fmt.Errorf("%w: max_items_per_playlist must be positive, got %d", model.ErrConfig, c.MaxItemsPerPlaylist)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("%w: concurrency must be positive, got %d", model.ErrConfig, c.Concurrency)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%w: api_key is required (set YT_API_KEY)", model.ErrConfig)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries cannot be negative, got %d", model.ErrConfig, c.MaxRetries)
	}
	return nil
}
