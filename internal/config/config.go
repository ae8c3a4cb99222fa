package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is a tournament run description loadable from a file. Fields mirror
// the talionctl tournament flags; zero values fall back to defaults.
type Config struct {
	Strategies  []string `json:"strategies" yaml:"strategies"`
	Rounds      int      `json:"rounds" yaml:"rounds"`
	Repetitions int      `json:"repetitions" yaml:"repetitions"`
	HideLength  bool     `json:"hide_length" yaml:"hide_length"`
	SelfPlay    bool     `json:"self_play" yaml:"self_play"`
	Seed        int64    `json:"seed" yaml:"seed"`
	Workers     int      `json:"workers" yaml:"workers"`
	StoreKind   string   `json:"store" yaml:"store"`
	DBPath      string   `json:"db_path" yaml:"db_path"`
	ResultsDir  string   `json:"results_dir" yaml:"results_dir"`
	Transcript  bool     `json:"transcript" yaml:"transcript"`
}

// Default returns the baseline run configuration.
func Default() Config {
	return Config{
		Rounds:      100,
		Repetitions: 1,
		Seed:        1,
		Workers:     4,
		StoreKind:   "memory",
		DBPath:      "talion.db",
		ResultsDir:  "results",
	}
}

// Load reads a config file and overlays it on Default. Format is detected by
// extension (.yaml/.yml or .json), falling back to a content sniff: JSON if
// the first non-space byte is '{', YAML otherwise. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse overlays serialized config bytes on Default. ext hints the format;
// empty means detect from content.
func Parse(data []byte, ext string) (Config, error) {
	cfg := Default()

	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}
	if ext == "" {
		if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
			ext = ".json"
		} else {
			ext = ".yaml"
		}
	}

	switch ext {
	case ".yaml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Default(), fmt.Errorf("parse config yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Default(), fmt.Errorf("parse config json: %w", err)
		}
	default:
		return Default(), fmt.Errorf("unsupported config format %q", ext)
	}
	return cfg, nil
}

// Validate reports configuration errors before a run starts.
func (c Config) Validate() error {
	if len(c.Strategies) < 2 && !(c.SelfPlay && len(c.Strategies) == 1) {
		return fmt.Errorf("at least two strategies are required")
	}
	if c.Rounds <= 0 {
		return fmt.Errorf("rounds must be > 0")
	}
	if c.Repetitions <= 0 {
		return fmt.Errorf("repetitions must be > 0")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be > 0")
	}
	return nil
}
