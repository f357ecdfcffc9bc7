// Package config provides configuration management for macrodoc using
// Viper for flexible loading from files, environment variables, and
// command-line flags.
//
// The configuration system supports YAML files, environment variable
// overrides with MACRODOC_ prefix, validation, and path security checks.
// It manages the preview server settings, macro definition file paths,
// documentation source scan paths, output settings, and expansion limits.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Macros      MacrosConfig      `yaml:"macros"`
	Sources     SourcesConfig     `yaml:"sources"`
	Output      OutputConfig      `yaml:"output"`
	Expand      ExpandConfig      `yaml:"expand"`
	Development DevelopmentConfig `yaml:"development"`
	TargetFiles []string          `yaml:"-"` // CLI arguments, not from config file
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	Open           bool     `yaml:"open"`
	NoOpen         bool     `yaml:"no-open"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type MacrosConfig struct {
	// Paths lists macro definition files or directories of *.ddoc files,
	// loaded in order so later files override earlier ones.
	Paths   []string `yaml:"paths"`
	Builtin bool     `yaml:"builtin"`
}

type SourcesConfig struct {
	ScanPaths       []string `yaml:"scan_paths"`
	Extensions      []string `yaml:"extensions"`
	ExcludePatterns []string `yaml:"exclude_patterns"`
}

type OutputConfig struct {
	Dir       string `yaml:"dir"`
	Extension string `yaml:"extension"`
	Clean     bool   `yaml:"clean"`
}

type ExpandConfig struct {
	MaxDepth int `yaml:"max_depth"`
}

type DevelopmentConfig struct {
	HotReload bool `yaml:"hot_reload"`
}

func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Handle slice values set via viper (workaround for viper slice handling)
	if viper.IsSet("macros.paths") && len(config.Macros.Paths) == 0 {
		config.Macros.Paths = viper.GetStringSlice("macros.paths")
	}
	if viper.IsSet("sources.scan_paths") && len(config.Sources.ScanPaths) == 0 {
		config.Sources.ScanPaths = viper.GetStringSlice("sources.scan_paths")
	}
	if viper.IsSet("sources.exclude_patterns") && len(config.Sources.ExcludePatterns) == 0 {
		config.Sources.ExcludePatterns = viper.GetStringSlice("sources.exclude_patterns")
	}

	// Handle bool values set via viper (workaround for viper bool handling)
	if viper.IsSet("development.hot_reload") {
		config.Development.HotReload = viper.GetBool("development.hot_reload")
	}
	if viper.IsSet("macros.builtin") {
		config.Macros.Builtin = viper.GetBool("macros.builtin")
	}

	applyDefaults(&config)

	// Override no-open if explicitly set via flag
	if viper.IsSet("server.no-open") && viper.GetBool("server.no-open") {
		config.Server.Open = false
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}

	if len(config.Macros.Paths) == 0 {
		config.Macros.Paths = []string{"./macros"}
	}
	if !viper.IsSet("macros.builtin") {
		config.Macros.Builtin = true
	}

	if len(config.Sources.ScanPaths) == 0 {
		config.Sources.ScanPaths = []string{"./docs"}
	}
	if len(config.Sources.Extensions) == 0 {
		config.Sources.Extensions = []string{".dd"}
	}
	if len(config.Sources.ExcludePatterns) == 0 {
		config.Sources.ExcludePatterns = []string{"*.bak", "*~"}
	}

	if config.Output.Dir == "" {
		config.Output.Dir = "public"
	}
	if config.Output.Extension == "" {
		config.Output.Extension = ".html"
	}

	if config.Expand.MaxDepth == 0 {
		config.Expand.MaxDepth = 64
	}

	if !viper.IsSet("development.hot_reload") {
		config.Development.HotReload = true
	}
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	for _, path := range config.Sources.ScanPaths {
		if err := validatePath(path); err != nil {
			return fmt.Errorf("invalid scan path '%s': %w", path, err)
		}
	}

	for _, path := range config.Macros.Paths {
		if err := validatePath(path); err != nil {
			return fmt.Errorf("invalid macro path '%s': %w", path, err)
		}
	}

	if err := validateOutputConfig(&config.Output); err != nil {
		return fmt.Errorf("output config: %w", err)
	}

	if config.Expand.MaxDepth < 1 {
		return fmt.Errorf("expand config: max_depth must be at least 1, got %d", config.Expand.MaxDepth)
	}

	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Validate port range (allow 0 for system-assigned ports in testing)
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		// Basic validation - no dangerous characters
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}

	return nil
}

// validateOutputConfig validates output configuration values
func validateOutputConfig(config *OutputConfig) error {
	cleanPath := filepath.Clean(config.Dir)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("dir contains path traversal: %s", config.Dir)
	}

	if !strings.HasPrefix(config.Extension, ".") {
		return fmt.Errorf("extension must start with '.': %s", config.Extension)
	}

	return nil
}

// validatePath validates a file path for security
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}
