package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DestDir     string `toml:"dest_dir"`
	StagingDir  string `toml:"staging_dir"`
	LogDir      string `toml:"log_dir"`
	MappingsDir string `toml:"mappings_dir"`
}

// Selection contains configuration for the selection engine.
type Selection struct {
	RegionPriority    []string `toml:"region_priority"`
	KeepRegions       []string `toml:"keep_regions"`
	IncludePatterns   []string `toml:"include_patterns"`
	ExcludePatterns   []string `toml:"exclude_patterns"`
	ExcludeProtos     bool     `toml:"exclude_protos"`
	IncludeBetas      bool     `toml:"include_betas"`
	IncludeUnlicensed bool     `toml:"include_unlicensed"`
	YearFrom          int      `toml:"year_from"`
	YearTo            int      `toml:"year_to"`
}

// Crawler contains configuration for remote directory-index enumeration.
type Crawler struct {
	MaxDepth       int `toml:"max_depth"`
	Concurrency    int `toml:"concurrency"`
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Transfer contains configuration for the download orchestrator.
type Transfer struct {
	Workers             int    `toml:"workers"`
	ConnectionsPerFile  int    `toml:"connections_per_file"`
	MaxRetries          int    `toml:"max_retries"`
	RetryBackoffSeconds int    `toml:"retry_backoff_seconds"`
	TimeoutSeconds      int    `toml:"timeout_seconds"`
	Backend             string `toml:"backend"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for retroref.
//
// Configuration sections by subsystem:
//   - Paths: destination, staging, log, and mapping-table directories
//   - Selection: region priority and candidate filtering policy
//   - Crawler: remote directory-index traversal limits
//   - Transfer: download parallelism, retry budget, and backend choice
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Selection Selection `toml:"selection"`
	Crawler   Crawler   `toml:"crawler"`
	Transfer  Transfer  `toml:"transfer"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/retroref/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("retroref.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	expand := func(value string) (string, error) {
		if strings.TrimSpace(value) == "" {
			return "", nil
		}
		return expandPath(value)
	}

	var err error
	if c.Paths.DestDir, err = expand(c.Paths.DestDir); err != nil {
		return err
	}
	if c.Paths.StagingDir, err = expand(c.Paths.StagingDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expand(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Paths.MappingsDir, err = expand(c.Paths.MappingsDir); err != nil {
		return err
	}

	c.Transfer.Backend = strings.ToLower(strings.TrimSpace(c.Transfer.Backend))
	if c.Transfer.Backend == "" {
		c.Transfer.Backend = "auto"
	}

	trimmed := make([]string, 0, len(c.Selection.RegionPriority))
	for _, region := range c.Selection.RegionPriority {
		if region = strings.TrimSpace(region); region != "" {
			trimmed = append(trimmed, region)
		}
	}
	c.Selection.RegionPriority = trimmed

	return nil
}

// EnsureDirectories creates the directories required for a curation run.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DestDir, c.Paths.StagingDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
