// Package config provides configuration management for phasor dataset operations
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Config represents the global configuration for phasor operations
type Config struct {
	// Parallel Processing Configuration
	ParallelThreshold int `json:"parallel_threshold" yaml:"parallel_threshold"` // Minimum number of groups to process in parallel
	WorkerPoolSize    int `json:"worker_pool_size" yaml:"worker_pool_size"`     // Number of worker goroutines (0 = auto-detect)

	// Transform Configuration
	Interpolation string `json:"interpolation" yaml:"interpolation"` // Default regrid method name

	// Data File Configuration
	CSVDelimiter string `json:"csv_delimiter" yaml:"csv_delimiter"` // Single character field separator
	CSVComment   string `json:"csv_comment" yaml:"csv_comment"`     // Comment line prefix ("" = none)
	CSVHeader    bool   `json:"csv_header" yaml:"csv_header"`       // First line holds column names

	// Debugging Configuration
	VerboseLogging    bool `json:"verbose_logging" yaml:"verbose_logging"`       // Log at debug level
	MetricsCollection bool `json:"metrics_collection" yaml:"metrics_collection"` // Record per-operation metrics
}

// SystemInfo contains system information for configuration validation
type SystemInfo struct {
	CPUCount     int
	Architecture string
	OSType       string
}

// ConfigValidator validates and provides recommendations for configuration
type ConfigValidator struct {
	systemInfo SystemInfo
}

// Global configuration instance
var (
	globalConfig Config
	configMutex  sync.RWMutex
)

// Default configuration values
const (
	DefaultParallelThreshold = 8
	DefaultInterpolation     = "pchip"
	DefaultCSVDelimiter      = ","
)

func init() {
	globalConfig = NewConfig()
}

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		ParallelThreshold: DefaultParallelThreshold,
		WorkerPoolSize:    0, // Auto-detect

		Interpolation: DefaultInterpolation,

		CSVDelimiter: DefaultCSVDelimiter,
		CSVComment:   "",
		CSVHeader:    true,

		VerboseLogging:    false,
		MetricsCollection: false,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.ParallelThreshold <= 0 {
		return fmt.Errorf("ParallelThreshold must be positive, got %d", c.ParallelThreshold)
	}

	if c.WorkerPoolSize < 0 {
		return fmt.Errorf("WorkerPoolSize must be non-negative, got %d", c.WorkerPoolSize)
	}

	if c.Interpolation == "" {
		return fmt.Errorf("Interpolation must be set")
	}

	if utf8.RuneCountInString(c.CSVDelimiter) != 1 {
		return fmt.Errorf("CSVDelimiter must be a single character, got %q", c.CSVDelimiter)
	}

	if c.CSVComment != "" && c.CSVComment == c.CSVDelimiter {
		return fmt.Errorf("CSVComment must differ from CSVDelimiter, got %q", c.CSVComment)
	}

	return nil
}

// Delimiter returns the CSV delimiter as a rune
func (c Config) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.CSVDelimiter)
	if r == utf8.RuneError {
		return ','
	}
	return r
}

// Workers returns the effective worker count
func (c Config) Workers() int {
	if c.WorkerPoolSize > 0 {
		return c.WorkerPoolSize
	}
	return runtime.NumCPU()
}

// WithDefaults returns a new configuration with default values filled in for zero values
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	if c.ParallelThreshold == 0 {
		c.ParallelThreshold = defaults.ParallelThreshold
	}
	if c.Interpolation == "" {
		c.Interpolation = defaults.Interpolation
	}
	if c.CSVDelimiter == "" {
		c.CSVDelimiter = defaults.CSVDelimiter
	}

	// Boolean fields keep their zero values so an explicit false survives.
	return c
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = config
}

// GetGlobalConfig returns the current global configuration
func GetGlobalConfig() Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// LoadFromJSON loads configuration from JSON data
func LoadFromJSON(data []byte) (Config, error) {
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromYAML loads configuration from YAML data
func LoadFromYAML(data []byte) (Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing YAML configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromFile loads configuration from a JSON or YAML file
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	var config Config
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		config, err = LoadFromJSON(data)
	case ".yaml", ".yml":
		config, err = LoadFromYAML(data)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config, nil
}

// LoadFromEnv loads configuration from PHASOR_* environment variables.
// Unparseable values are ignored.
func LoadFromEnv() Config {
	config := NewConfig()

	if val := os.Getenv("PHASOR_PARALLEL_THRESHOLD"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.ParallelThreshold = parsed
		}
	}

	if val := os.Getenv("PHASOR_WORKER_POOL_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.WorkerPoolSize = parsed
		}
	}

	if val := os.Getenv("PHASOR_INTERPOLATION"); val != "" {
		config.Interpolation = strings.ToLower(val)
	}

	if val := os.Getenv("PHASOR_CSV_DELIMITER"); val != "" {
		if val == `\t` {
			val = "\t"
		}
		config.CSVDelimiter = val
	}

	if val, ok := os.LookupEnv("PHASOR_CSV_COMMENT"); ok {
		config.CSVComment = val
	}

	if val := os.Getenv("PHASOR_CSV_HEADER"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.CSVHeader = parsed
		}
	}

	if val := os.Getenv("PHASOR_VERBOSE_LOGGING"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.VerboseLogging = parsed
		}
	}

	if val := os.Getenv("PHASOR_METRICS_COLLECTION"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.MetricsCollection = parsed
		}
	}

	return config
}

// GetSystemInfo returns system information for configuration validation
func GetSystemInfo() SystemInfo {
	return SystemInfo{
		CPUCount:     runtime.NumCPU(),
		Architecture: runtime.GOARCH,
		OSType:       runtime.GOOS,
	}
}

// NewConfigValidator creates a new configuration validator
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{
		systemInfo: GetSystemInfo(),
	}
}

// Validate validates a configuration and provides recommendations
func (cv *ConfigValidator) Validate(config Config) (Config, []string, error) {
	var warnings []string
	validated := config

	if err := config.Validate(); err != nil {
		return Config{}, warnings, err
	}

	if config.WorkerPoolSize > cv.systemInfo.CPUCount*2 {
		warnings = append(warnings,
			fmt.Sprintf("Worker pool size (%d) exceeds 2x CPU count (%d), may cause contention",
				config.WorkerPoolSize, cv.systemInfo.CPUCount))
	}

	if config.WorkerPoolSize == 0 {
		validated.WorkerPoolSize = cv.systemInfo.CPUCount
		warnings = append(warnings,
			fmt.Sprintf("Auto-setting worker pool size to %d (CPU count)",
				validated.WorkerPoolSize))
	}

	return validated, warnings, nil
}
