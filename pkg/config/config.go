package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kerbaras/tilegrab/pkg/data"
)

// Config defines a tile download run.
type Config struct {
	MinZoom    int           `yaml:"min_zoom"`
	MaxZoom    int           `yaml:"max_zoom"`
	Output     string        `yaml:"output"`
	URL        string        `yaml:"url"`
	Extension  string        `yaml:"extension"`
	BatchSize  int           `yaml:"batch_size"`
	FailureLog string        `yaml:"failure_log"`
	Manifest   string        `yaml:"manifest"`
	UserAgent  string        `yaml:"user_agent"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Default returns the stock configuration: the OpenStreetMap pyramid from
// zoom 0 to 18 into ./tiles.
func Default() Config {
	return Config{
		MinZoom:    0,
		MaxZoom:    18,
		Output:     "tiles",
		URL:        "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		Extension:  "png",
		BatchSize:  4,
		FailureLog: "error.log",
		UserAgent:  "tilegrab/1.0",
		Timeout:    30 * time.Second,
	}
}

// LoadFromFile reads a YAML file over the defaults.
func LoadFromFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// LoadFromEnv applies TILEGRAB_* environment variables.
func (c *Config) LoadFromEnv() error {
	ints := []struct {
		name string
		dst  *int
	}{
		{"TILEGRAB_MIN_ZOOM", &c.MinZoom},
		{"TILEGRAB_MAX_ZOOM", &c.MaxZoom},
		{"TILEGRAB_BATCH_SIZE", &c.BatchSize},
	}
	for _, v := range ints {
		s := os.Getenv(v.name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("parse %s: %w", v.name, err)
		}
		*v.dst = n
	}

	strs := []struct {
		name string
		dst  *string
	}{
		{"TILEGRAB_OUTPUT", &c.Output},
		{"TILEGRAB_URL", &c.URL},
		{"TILEGRAB_EXTENSION", &c.Extension},
		{"TILEGRAB_FAILURE_LOG", &c.FailureLog},
		{"TILEGRAB_MANIFEST", &c.Manifest},
		{"TILEGRAB_USER_AGENT", &c.UserAgent},
	}
	for _, v := range strs {
		if s := os.Getenv(v.name); s != "" {
			*v.dst = s
		}
	}

	if s := os.Getenv("TILEGRAB_TIMEOUT"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse TILEGRAB_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.MinZoom < 0 {
		return errors.New("config: min_zoom must not be negative")
	}
	if c.MaxZoom < c.MinZoom {
		return fmt.Errorf("config: max_zoom (%d) must not be below min_zoom (%d)", c.MaxZoom, c.MinZoom)
	}
	if c.MaxZoom > data.MaxZoom {
		return fmt.Errorf("config: max_zoom must not exceed %d", data.MaxZoom)
	}
	if c.Output == "" {
		return errors.New("config: output is required")
	}
	if c.URL == "" {
		return errors.New("config: url is required")
	}
	for _, p := range []string{"{z}", "{x}", "{y}"} {
		if !strings.Contains(c.URL, p) {
			return fmt.Errorf("config: url must contain the %s placeholder", p)
		}
	}
	if strings.TrimPrefix(c.Extension, ".") == "" {
		return errors.New("config: extension is required")
	}
	if c.BatchSize < 1 {
		return errors.New("config: batch_size must be at least 1")
	}
	if c.FailureLog == "" {
		return errors.New("config: failure_log is required")
	}
	if c.Timeout < 0 {
		return errors.New("config: timeout must not be negative")
	}
	return c.validateOutputRoot()
}

// validateOutputRoot guards the files a run must not clear: the output root
// is emptied before every run.
func (c *Config) validateOutputRoot() error {
	if strings.Contains(c.Output, "://") {
		return nil
	}

	root, err := filepath.Abs(c.Output)
	if err != nil {
		return fmt.Errorf("config: resolve output: %w", err)
	}
	if wd, err := os.Getwd(); err == nil && root == wd {
		return errors.New("config: output must not be the working directory")
	}
	if root == filepath.Dir(root) {
		return errors.New("config: output must not be a filesystem root")
	}

	files := []struct {
		name, path string
	}{
		{"manifest", c.Manifest},
		{"failure_log", c.FailureLog},
	}
	for _, f := range files {
		if f.path == "" || strings.Contains(f.path, "://") {
			continue
		}
		inside, err := within(root, f.path)
		if err != nil {
			return fmt.Errorf("config: resolve %s: %w", f.name, err)
		}
		if inside {
			return fmt.Errorf("config: %s %q must not be inside output %q", f.name, f.path, c.Output)
		}
	}
	return nil
}

// within reports whether path lies under root, which must be absolute.
func within(root, path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false, nil
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))), nil
}

// Zooms returns the configured zoom range.
func (c Config) Zooms() data.ZoomRange {
	return data.ZoomRange{Min: c.MinZoom, Max: c.MaxZoom}
}
