package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/paveg/phasor/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DefaultValues(t *testing.T) {
	cfg := config.NewConfig()

	assert.Equal(t, 8, cfg.ParallelThreshold)
	assert.Equal(t, 0, cfg.WorkerPoolSize) // 0 means auto-detect
	assert.Equal(t, "pchip", cfg.Interpolation)
	assert.Equal(t, ",", cfg.CSVDelimiter)
	assert.Empty(t, cfg.CSVComment)
	assert.True(t, cfg.CSVHeader)
	assert.False(t, cfg.VerboseLogging)
	assert.False(t, cfg.MetricsCollection)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validation(t *testing.T) {
	valid := config.NewConfig()

	tests := []struct {
		name          string
		mutate        func(c *config.Config)
		expectedError string
	}{
		{
			name:   "valid config",
			mutate: func(c *config.Config) {},
		},
		{
			name:          "negative parallel threshold",
			mutate:        func(c *config.Config) { c.ParallelThreshold = -1 },
			expectedError: "ParallelThreshold must be positive, got -1",
		},
		{
			name:          "negative worker pool size",
			mutate:        func(c *config.Config) { c.WorkerPoolSize = -1 },
			expectedError: "WorkerPoolSize must be non-negative, got -1",
		},
		{
			name:          "missing interpolation",
			mutate:        func(c *config.Config) { c.Interpolation = "" },
			expectedError: "Interpolation must be set",
		},
		{
			name:          "multi-character delimiter",
			mutate:        func(c *config.Config) { c.CSVDelimiter = ";;" },
			expectedError: `CSVDelimiter must be a single character, got ";;"`,
		},
		{
			name: "comment equal to delimiter",
			mutate: func(c *config.Config) {
				c.CSVDelimiter = "#"
				c.CSVComment = "#"
			},
			expectedError: `CSVComment must differ from CSVDelimiter, got "#"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.expectedError == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.expectedError)
			}
		})
	}
}

func TestConfig_Delimiter(t *testing.T) {
	cfg := config.NewConfig()
	assert.Equal(t, ',', cfg.Delimiter())

	cfg.CSVDelimiter = "\t"
	assert.Equal(t, '\t', cfg.Delimiter())

	cfg.CSVDelimiter = ""
	assert.Equal(t, ',', cfg.Delimiter())
}

func TestConfig_Workers(t *testing.T) {
	cfg := config.NewConfig()
	assert.Positive(t, cfg.Workers())

	cfg.WorkerPoolSize = 3
	assert.Equal(t, 3, cfg.Workers())
}

func TestConfig_LoadFromJSON(t *testing.T) {
	jsonData := `{
		"parallel_threshold": 2,
		"worker_pool_size": 8,
		"interpolation": "akima",
		"csv_delimiter": "\t",
		"csv_comment": "#",
		"metrics_collection": true
	}`

	cfg, err := config.LoadFromJSON([]byte(jsonData))
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.ParallelThreshold)
	assert.Equal(t, 8, cfg.WorkerPoolSize)
	assert.Equal(t, "akima", cfg.Interpolation)
	assert.Equal(t, '\t', cfg.Delimiter())
	assert.Equal(t, "#", cfg.CSVComment)
	assert.True(t, cfg.MetricsCollection)
}

func TestConfig_LoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"parallel_threshold": 3, "verbose_logging": true}`), 0o600))

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.ParallelThreshold)
	assert.True(t, cfg.VerboseLogging)
	assert.Equal(t, "pchip", cfg.Interpolation) // filled by WithDefaults
}

func TestConfig_LoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlData := `
parallel_threshold: 16
worker_pool_size: 2
interpolation: linear
csv_delimiter: ";"
csv_header: false
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0o600))

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.ParallelThreshold)
	assert.Equal(t, 2, cfg.WorkerPoolSize)
	assert.Equal(t, "linear", cfg.Interpolation)
	assert.Equal(t, ';', cfg.Delimiter())
	assert.False(t, cfg.CSVHeader)
}

func TestConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("PHASOR_PARALLEL_THRESHOLD", "30")
	t.Setenv("PHASOR_WORKER_POOL_SIZE", "12")
	t.Setenv("PHASOR_INTERPOLATION", "Natural")
	t.Setenv("PHASOR_CSV_DELIMITER", `\t`)
	t.Setenv("PHASOR_CSV_COMMENT", "#")
	t.Setenv("PHASOR_CSV_HEADER", "false")
	t.Setenv("PHASOR_VERBOSE_LOGGING", "true")

	cfg := config.LoadFromEnv()

	assert.Equal(t, 30, cfg.ParallelThreshold)
	assert.Equal(t, 12, cfg.WorkerPoolSize)
	assert.Equal(t, "natural", cfg.Interpolation)
	assert.Equal(t, "\t", cfg.CSVDelimiter)
	assert.Equal(t, "#", cfg.CSVComment)
	assert.False(t, cfg.CSVHeader)
	assert.True(t, cfg.VerboseLogging)
}

func TestConfig_EnvironmentVariableParsing(t *testing.T) {
	t.Setenv("PHASOR_PARALLEL_THRESHOLD", "invalid_number")
	t.Setenv("PHASOR_WORKER_POOL_SIZE", "not_a_number")
	t.Setenv("PHASOR_VERBOSE_LOGGING", "invalid_bool")

	cfg := config.LoadFromEnv()
	assert.Equal(t, 8, cfg.ParallelThreshold)
	assert.Equal(t, 0, cfg.WorkerPoolSize)
	assert.False(t, cfg.VerboseLogging)
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := config.Config{ParallelThreshold: 20}.WithDefaults()

	assert.Equal(t, 20, cfg.ParallelThreshold)
	assert.Equal(t, "pchip", cfg.Interpolation)
	assert.Equal(t, ",", cfg.CSVDelimiter)
	// booleans keep their zero values
	assert.False(t, cfg.CSVHeader)
}

func TestGlobalConfig_SetAndGet(t *testing.T) {
	original := config.GetGlobalConfig()
	defer config.SetGlobalConfig(original)

	custom := config.NewConfig()
	custom.ParallelThreshold = 5000
	custom.Interpolation = "akima"
	config.SetGlobalConfig(custom)

	got := config.GetGlobalConfig()
	assert.Equal(t, 5000, got.ParallelThreshold)
	assert.Equal(t, "akima", got.Interpolation)
}

func TestConfig_ToJSON(t *testing.T) {
	cfg := config.NewConfig()
	cfg.CSVComment = "%"

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	back, err := config.LoadFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestConfig_UnsupportedFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o600))

	_, err := config.LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config file format")
}

func TestConfig_InvalidInput(t *testing.T) {
	_, err := config.LoadFromJSON([]byte(`{"parallel_threshold": "not_a_number"}`))
	assert.Error(t, err)

	_, err = config.LoadFromYAML([]byte("parallel_threshold: [1, 2"))
	assert.Error(t, err)

	_, err = config.LoadFromFile("/nonexistent/config.json")
	assert.Error(t, err)
}

func TestConfig_ValidationRecommendations(t *testing.T) {
	validator := config.NewConfigValidator()

	validated, warnings, err := validator.Validate(config.NewConfig())
	require.NoError(t, err)
	assert.NotEmpty(t, warnings)
	assert.Positive(t, validated.WorkerPoolSize)

	bad := config.NewConfig()
	bad.ParallelThreshold = 0
	_, _, err = validator.Validate(bad)
	assert.Error(t, err)
}

func TestConfig_SystemInfo(t *testing.T) {
	info := config.GetSystemInfo()

	assert.Positive(t, info.CPUCount)
	assert.NotEmpty(t, info.Architecture)
	assert.NotEmpty(t, info.OSType)
}
