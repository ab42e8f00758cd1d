// Package config handles shapetool configuration loading and management.
package config

import "time"

// Config holds all tool settings.
type Config struct {
	Shapes      ShapesConfig      `yaml:"shapes"`
	Output      OutputConfig      `yaml:"output"`
	Compression CompressionConfig `yaml:"compression"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ShapesConfig holds directory scanning settings.
type ShapesConfig struct {
	IncludeGlobs []string `yaml:"include_globs"` // Patterns treated as shape files
	ExcludeGlobs []string `yaml:"exclude_globs"`
}

// OutputConfig holds serialization layout settings.
type OutputConfig struct {
	IndentWidth int  `yaml:"indent_width"`
	UseTabs     bool `yaml:"use_tabs"`
}

// CompressionConfig holds external helper settings.
type CompressionConfig struct {
	HelperPath string        `yaml:"helper_path"`
	Timeout    time.Duration `yaml:"timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Shapes: ShapesConfig{
			IncludeGlobs: []string{"*.s"},
			ExcludeGlobs: nil,
		},
		Output: OutputConfig{
			IndentWidth: 1,
			UseTabs:     true,
		},
		Compression: CompressionConfig{
			HelperPath: "ffeditc_unicode.exe",
			Timeout:    60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
