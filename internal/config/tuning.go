// Package config carries the pipeline's tunable parameters. All fields are
// pointers so a partial JSON file overrides only what it names; the Get*
// methods supply the defaults for everything else. The variance and white
// thresholds are empirical constants inherited from the original service,
// exposed here precisely because their exact values are tunable rather than
// load-bearing.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/plateworks/cleanplate/internal/bgprofile"
	"github.com/plateworks/cleanplate/internal/reconstruct"
)

// TuningConfig is the root configuration for the decomposition pipeline.
// The same JSON shape is accepted by the -config flag of every command.
type TuningConfig struct {
	// Background profiler params
	SampleRatio             *float64 `json:"sample_ratio,omitempty"`
	VarianceThreshold       *float64 `json:"variance_threshold,omitempty"`
	WhiteThreshold          *int     `json:"white_threshold,omitempty"`
	MinSamples              *int     `json:"min_samples,omitempty"`
	CornerScale             *int     `json:"corner_scale,omitempty"`
	ExcludeDilateRadius     *int     `json:"exclude_dilate_radius,omitempty"`
	ExcludeDilateIterations *int     `json:"exclude_dilate_iterations,omitempty"`

	// Removal params
	DilateRadius    *int `json:"dilate_radius,omitempty"`
	DiffusionRadius *int `json:"diffusion_radius,omitempty"`

	// Resource params
	CacheCapacity *int    `json:"cache_capacity,omitempty"`
	Parallelism   *int    `json:"parallelism,omitempty"`
	DatabasePath  *string `json:"database_path,omitempty"`
}

// EmptyTuningConfig returns a config with no overrides set; every Get*
// method falls back to its default.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must
// have a .json extension and be under the size cap. Fields omitted from the
// JSON retain their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// FindConfig looks for a tuning config in the standard locations: a
// cleanplate.json in the working directory, then the user config directory.
// Returns an empty string when neither exists.
func FindConfig() string {
	candidates := []string{"cleanplate.json"}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "cleanplate", "config.json"))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

// Validate checks that any set values are in range.
func (c *TuningConfig) Validate() error {
	if c.SampleRatio != nil {
		if *c.SampleRatio <= 0 || *c.SampleRatio > 0.5 {
			return fmt.Errorf("sample_ratio must be in (0, 0.5], got %f", *c.SampleRatio)
		}
	}
	if c.VarianceThreshold != nil && *c.VarianceThreshold <= 0 {
		return fmt.Errorf("variance_threshold must be positive, got %f", *c.VarianceThreshold)
	}
	if c.WhiteThreshold != nil {
		if *c.WhiteThreshold < 1 || *c.WhiteThreshold > 255 {
			return fmt.Errorf("white_threshold must be in [1, 255], got %d", *c.WhiteThreshold)
		}
	}
	if c.MinSamples != nil && *c.MinSamples < 1 {
		return fmt.Errorf("min_samples must be positive, got %d", *c.MinSamples)
	}
	if c.CornerScale != nil && *c.CornerScale < 1 {
		return fmt.Errorf("corner_scale must be positive, got %d", *c.CornerScale)
	}
	if c.ExcludeDilateRadius != nil && *c.ExcludeDilateRadius < 0 {
		return fmt.Errorf("exclude_dilate_radius must be non-negative, got %d", *c.ExcludeDilateRadius)
	}
	if c.ExcludeDilateIterations != nil && *c.ExcludeDilateIterations < 0 {
		return fmt.Errorf("exclude_dilate_iterations must be non-negative, got %d", *c.ExcludeDilateIterations)
	}
	if c.DilateRadius != nil && *c.DilateRadius < 0 {
		return fmt.Errorf("dilate_radius must be non-negative, got %d", *c.DilateRadius)
	}
	if c.DiffusionRadius != nil && *c.DiffusionRadius < 1 {
		return fmt.Errorf("diffusion_radius must be positive, got %d", *c.DiffusionRadius)
	}
	if c.CacheCapacity != nil && *c.CacheCapacity < 1 {
		return fmt.Errorf("cache_capacity must be positive, got %d", *c.CacheCapacity)
	}
	if c.Parallelism != nil && *c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be positive, got %d", *c.Parallelism)
	}
	return nil
}

// GetSampleRatio returns the sample_ratio value or the default.
func (c *TuningConfig) GetSampleRatio() float64 {
	if c.SampleRatio == nil {
		return bgprofile.DefaultSampleRatio
	}
	return *c.SampleRatio
}

// GetVarianceThreshold returns the variance_threshold value or the default.
func (c *TuningConfig) GetVarianceThreshold() float64 {
	if c.VarianceThreshold == nil {
		return bgprofile.DefaultVarianceThreshold
	}
	return *c.VarianceThreshold
}

// GetWhiteThreshold returns the white_threshold value or the default.
func (c *TuningConfig) GetWhiteThreshold() uint8 {
	if c.WhiteThreshold == nil {
		return bgprofile.DefaultWhiteThreshold
	}
	return uint8(*c.WhiteThreshold)
}

// GetMinSamples returns the min_samples value or the default.
func (c *TuningConfig) GetMinSamples() int {
	if c.MinSamples == nil {
		return bgprofile.DefaultMinSamples
	}
	return *c.MinSamples
}

// GetCornerScale returns the corner_scale value or the default.
func (c *TuningConfig) GetCornerScale() int {
	if c.CornerScale == nil {
		return bgprofile.DefaultCornerScale
	}
	return *c.CornerScale
}

// GetExcludeDilateRadius returns the exclude_dilate_radius value or the default.
func (c *TuningConfig) GetExcludeDilateRadius() int {
	if c.ExcludeDilateRadius == nil {
		return bgprofile.DefaultExcludeDilateRadius
	}
	return *c.ExcludeDilateRadius
}

// GetExcludeDilateIterations returns the exclude_dilate_iterations value or the default.
func (c *TuningConfig) GetExcludeDilateIterations() int {
	if c.ExcludeDilateIterations == nil {
		return bgprofile.DefaultExcludeDilateIterations
	}
	return *c.ExcludeDilateIterations
}

// GetDilateRadius returns the dilate_radius value or the default.
func (c *TuningConfig) GetDilateRadius() int {
	if c.DilateRadius == nil {
		return reconstruct.DefaultDilateRadius
	}
	return *c.DilateRadius
}

// GetDiffusionRadius returns the diffusion_radius value or the default.
func (c *TuningConfig) GetDiffusionRadius() int {
	if c.DiffusionRadius == nil {
		return reconstruct.DefaultDiffusionRadius
	}
	return *c.DiffusionRadius
}

// GetCacheCapacity returns the cache_capacity value or the default.
func (c *TuningConfig) GetCacheCapacity() int {
	if c.CacheCapacity == nil {
		return 16
	}
	return *c.CacheCapacity
}

// GetParallelism returns the parallelism value or the default.
func (c *TuningConfig) GetParallelism() int {
	if c.Parallelism == nil {
		return 4
	}
	return *c.Parallelism
}

// GetDatabasePath returns the database_path value or the default.
func (c *TuningConfig) GetDatabasePath() string {
	if c.DatabasePath == nil || *c.DatabasePath == "" {
		return "cleanplate_runs.db"
	}
	return *c.DatabasePath
}

// Profiler builds a bgprofile.Profiler from the configured values.
func (c *TuningConfig) Profiler() *bgprofile.Profiler {
	return &bgprofile.Profiler{
		SampleRatio:             c.GetSampleRatio(),
		VarianceThreshold:       c.GetVarianceThreshold(),
		WhiteThreshold:          c.GetWhiteThreshold(),
		MinSamples:              c.GetMinSamples(),
		CornerScale:             c.GetCornerScale(),
		ExcludeDilateRadius:     c.GetExcludeDilateRadius(),
		ExcludeDilateIterations: c.GetExcludeDilateIterations(),
	}
}
