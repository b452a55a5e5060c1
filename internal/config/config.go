// Package config handles objscene configuration loading and management.
package config

import (
	"fmt"
	"strings"
)

// Config holds all settings.
type Config struct {
	Loader  LoaderConfig  `yaml:"loader"`
	Data    DataConfig    `yaml:"data"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoaderConfig holds document loading settings.
type LoaderConfig struct {
	Mode              string   `yaml:"mode"`               // "scene" or "mesh"
	ParallelFetches   int      `yaml:"parallel_fetches"`   // 0 = unlimited
	CompressedFormats []string `yaml:"compressed_formats"` // bc, etc2, astc, all, none
	SRGBDiffuse       bool     `yaml:"srgb_diffuse"`
	SourceEncoding    string   `yaml:"source_encoding"` // text encoding of OBJ/MTL files
}

// DataConfig holds asset source locations.
type DataConfig struct {
	AssetRoots       []string `yaml:"asset_roots"`        // Directories searched for documents and textures
	Packs            []string `yaml:"packs"`              // Zip packs, searched before roots
	PackNameEncoding string   `yaml:"pack_name_encoding"` // Encoding of non-UTF-8 entry names
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Loader: LoaderConfig{
			Mode:              "scene",
			ParallelFetches:   4,
			CompressedFormats: []string{"none"},
			SRGBDiffuse:       true,
			SourceEncoding:    "utf-8",
		},
		Data: DataConfig{
			AssetRoots: []string{"."},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks values that cannot be fixed up later.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Loader.Mode) {
	case "scene", "mesh":
	default:
		return fmt.Errorf("loader.mode must be scene or mesh, got %q", c.Loader.Mode)
	}
	if c.Loader.ParallelFetches < 0 {
		return fmt.Errorf("loader.parallel_fetches must not be negative, got %d", c.Loader.ParallelFetches)
	}
	return nil
}
