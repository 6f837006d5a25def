package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig() *Config {
	return &Config{
		Generator: GeneratorConfig{
			Model:                    "lexigen-standard",
			RetryAttempts:            2,
			PollIntervalMilliseconds: 500,
			PollTimeoutSeconds:       60,
		},
		Cache: CacheConfig{
			Backend:   "badger",
			Directory: filepath.Join("cache", "entries"),
			TTLHours:  168,
		},
		Dataset: DatasetConfig{
			Directory: "datasets",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     3306,
			Database: "lexigen",
			Username: "user",
		},
	}
}

func TestConfigLoader_Load(t *testing.T) {
	tests := []struct {
		name              string
		configContent     string
		useExplicitPath   bool
		env               map[string]string
		wantErr           bool
		want              *Config
		wantErrorContains []string
	}{
		{
			name: "valid config file with custom values",
			configContent: `generator:
  model: lexigen-large
  retry_attempts: 5
  poll_interval_milliseconds: 250
cache:
  backend: mysql
  ttl_hours: 48
dataset:
  directory: custom/datasets
`,
			useExplicitPath: true,
			want: func() *Config {
				cfg := defaultConfig()
				cfg.Generator.Model = "lexigen-large"
				cfg.Generator.RetryAttempts = 5
				cfg.Generator.PollIntervalMilliseconds = 250
				cfg.Cache.Backend = "mysql"
				cfg.Cache.TTLHours = 48
				cfg.Dataset.Directory = "custom/datasets"
				return cfg
			}(),
		},
		{
			name:            "missing config file uses defaults",
			configContent:   "",
			useExplicitPath: false,
			want:            defaultConfig(),
		},
		{
			name: "invalid YAML format",
			configContent: `generator:
  invalid yaml format here [[[
`,
			useExplicitPath: true,
			wantErr:         true,
			wantErrorContains: []string{
				"configuration file found but could not be read",
				"Please check the file format and permissions",
			},
		},
		{
			name: "environment variables override the config file",
			configContent: `generator:
  model: from-file
`,
			useExplicitPath: true,
			env: map[string]string{
				"GENERATOR_BASE_URL": "https://generation.example.com",
				"GENERATOR_API_KEY":  "secret-key",
				"GENERATOR_MODEL":    "from-env",
				"DB_PASSWORD":        "db-secret",
			},
			want: func() *Config {
				cfg := defaultConfig()
				cfg.Generator.BaseURL = "https://generation.example.com"
				cfg.Generator.APIKey = "secret-key"
				cfg.Generator.Model = "from-env"
				cfg.Database.Password = "db-secret"
				return cfg
			}(),
		},
		{
			name: "unsupported cache backend",
			configContent: `cache:
  backend: redis
`,
			useExplicitPath: true,
			wantErr:         true,
			wantErrorContains: []string{
				"invalid configuration",
				"backend",
			},
		},
		{
			name: "non-positive poll interval",
			configContent: `generator:
  poll_interval_milliseconds: 0
`,
			useExplicitPath: true,
			wantErr:         true,
			wantErrorContains: []string{
				"invalid configuration",
				"poll_interval_milliseconds",
			},
		},
		{
			name: "malformed base url",
			configContent: `generator:
  base_url: "::not a url"
`,
			useExplicitPath: true,
			wantErr:         true,
			wantErrorContains: []string{
				"invalid configuration",
				"base_url",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			var configPath string
			if tt.useExplicitPath {
				configPath = filepath.Join(tempDir, "config.yml")
				err := os.WriteFile(configPath, []byte(tt.configContent), 0644)
				require.NoError(t, err)
			} else {
				originalDir, err := os.Getwd()
				require.NoError(t, err)
				defer func() {
					err := os.Chdir(originalDir)
					require.NoError(t, err)
				}()

				err = os.Chdir(tempDir)
				require.NoError(t, err)
			}

			loader, err := NewConfigLoader(configPath)
			require.NoError(t, err)
			got, err := loader.Load()

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
				for _, wantMsg := range tt.wantErrorContains {
					assert.Contains(t, err.Error(), wantMsg)
				}
				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDurationAccessors(t *testing.T) {
	generator := GeneratorConfig{PollIntervalMilliseconds: 250, PollTimeoutSeconds: 30}
	assert.Equal(t, 250*time.Millisecond, generator.PollInterval())
	assert.Equal(t, 30*time.Second, generator.PollTimeout())

	cache := CacheConfig{TTLHours: 48}
	assert.Equal(t, 48*time.Hour, cache.TTL())
}
