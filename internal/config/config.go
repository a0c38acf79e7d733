package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileNames are the configuration file names FindConfig looks for, in order.
var FileNames = []string{"eggc.yaml", "eggc.yml"}

// Defaults
const (
	DefaultIndent     = "  "
	DefaultBackend    = BackendGoja
	DefaultTimeout    = 5 * time.Second
	DefaultNodeBinary = "node"
	DefaultServerAddr = "127.0.0.1:7411"
)

// Config represents the top-level eggc.yaml configuration.
type Config struct {
	Output OutputConfig `yaml:"output"`
	Run    RunConfig    `yaml:"run"`
	Cache  CacheConfig  `yaml:"cache"`
	Server ServerConfig `yaml:"server"`
}

// OutputConfig controls the shape of generated JavaScript.
type OutputConfig struct {
	// Indent is the unit of indentation for nested blocks. Only spaces and
	// tabs are allowed.
	Indent string `yaml:"indent,omitempty"`
}

// RunConfig controls execution of generated code.
type RunConfig struct {
	// Backend selects the executor: "goja" (in-process, default) or "node".
	Backend string `yaml:"backend,omitempty"`

	// Timeout bounds a single run, e.g. "5s". Loops that never exit are
	// interrupted when it elapses.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Node is the node binary used by the "node" backend.
	Node string `yaml:"node,omitempty"`
}

// CacheConfig enables the compile cache.
type CacheConfig struct {
	// Path is the SQLite database file, relative to the config file.
	// Empty disables caching.
	Path string `yaml:"path,omitempty"`
}

// ServerConfig configures `eggc serve`.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// Default returns the configuration used when no eggc.yaml exists.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads and parses an eggc.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses eggc.yaml content from bytes.
// The path argument is used for error messages and to resolve the cache
// path relative to the file.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	if cfg.Cache.Path != "" && !filepath.IsAbs(cfg.Cache.Path) {
		cfg.Cache.Path = filepath.Join(filepath.Dir(path), cfg.Cache.Path)
	}
	return &cfg, nil
}

// FindConfig searches for eggc.yaml starting from dir and walking up
// to parent directories.
// Returns the path to the config file and nil error if found,
// or empty string and nil error if not found.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", nil
		}
		dir = parent
	}
}

// Discover loads the nearest eggc.yaml above dir, or the defaults when
// there is none.
func Discover(dir string) (*Config, string, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		return Default(), "", nil
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// validate checks the configuration for semantic errors.
func (c *Config) validate(path string) error {
	if c.Output.Indent != "" && strings.Trim(c.Output.Indent, " \t") != "" {
		return fmt.Errorf("%s: output.indent must contain only spaces and tabs, got %q", path, c.Output.Indent)
	}

	switch c.Run.Backend {
	case "", BackendGoja, BackendNode:
	default:
		return fmt.Errorf("%s: run.backend: unknown backend %q (want %q or %q)", path, c.Run.Backend, BackendGoja, BackendNode)
	}

	if c.Run.Timeout < 0 {
		return fmt.Errorf("%s: run.timeout must not be negative", path)
	}

	return nil
}

func (c *Config) setDefaults() {
	if c.Output.Indent == "" {
		c.Output.Indent = DefaultIndent
	}
	if c.Run.Backend == "" {
		c.Run.Backend = DefaultBackend
	}
	if c.Run.Timeout == 0 {
		c.Run.Timeout = DefaultTimeout
	}
	if c.Run.Node == "" {
		c.Run.Node = DefaultNodeBinary
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
}
