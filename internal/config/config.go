// Package config loads the CLI configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/minlog/endian"
	"github.com/arloliu/minlog/format"
	"github.com/arloliu/minlog/internal/logging"
)

// Config is the CLI configuration.
type Config struct {
	// Extension is appended to each input path to name its output.
	Extension string `yaml:"extension"`
	// ByteOrder is "little", "big" or "native".
	ByteOrder string `yaml:"byte_order"`
	// OutputCompression is "none", "zstd", "s2", "lz4" or "gzip".
	OutputCompression string         `yaml:"output_compression"`
	Logging           logging.Config `yaml:"logging"`
	Metrics           MetricsConfig  `yaml:"metrics"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	// Textfile is the path the session counters are written to after a run.
	// Empty disables the export.
	Textfile string `yaml:"textfile"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Extension:         ".txt",
		ByteOrder:         "little",
		OutputCompression: "none",
		Logging: logging.Config{
			Level:      "info",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		},
	}
}

// Load reads path over the defaults. Keys absent from the file keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the enumerated settings.
func (c Config) Validate() error {
	if _, err := c.Engine(); err != nil {
		return err
	}
	if _, err := c.Compression(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}

	return nil
}

// Engine returns the configured byte order.
func (c Config) Engine() (endian.EndianEngine, error) {
	return endian.ParseByteOrder(c.ByteOrder)
}

// Compression returns the configured output compression.
func (c Config) Compression() (format.CompressionType, error) {
	typ, ok := format.ParseCompressionType(c.OutputCompression)
	if !ok {
		return 0, fmt.Errorf("unknown output compression %q", c.OutputCompression)
	}

	return typ, nil
}
