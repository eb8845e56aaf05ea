package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"smugmirror/pkg/mirror"
	"smugmirror/pkg/ratelimit"
	"smugmirror/pkg/retry"
	"smugmirror/pkg/smugmug"
	"smugmirror/pkg/storage"
)

// isolate points HOME and the working directory at a fresh temp dir
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	oldDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldDir) })

	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, smugmug.DefaultEndpoint, cfg.SmugMug.Endpoint)
	assert.Empty(t, cfg.SmugMug.Session)
	assert.Equal(t, string(mirror.PaginationTruncate), cfg.Mirror.Pagination)
	assert.Equal(t, 1, cfg.Download.Concurrency)
	assert.Equal(t, storage.DefaultChunkSize, cfg.Download.ChunkSize)
	assert.Equal(t, retry.DefaultMaxAttempts, cfg.Retry.MaxAttempts)
	assert.Equal(t, retry.BackoffNone, cfg.Retry.Backoff)
	assert.Zero(t, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SMUGMIRROR_SESSION", "env-session")
	t.Setenv("SMUGMIRROR_USER", "jdoe")
	t.Setenv("SMUGMIRROR_ALBUMS", "Trip 2019$ Family $")
	t.Setenv("SMUGMIRROR_OUTPUT_DIR", "/tmp/mirror")
	t.Setenv("SMUGMIRROR_CONCURRENCY", "4")
	t.Setenv("SMUGMIRROR_TIMEOUT", "45s")
	t.Setenv("SMUGMIRROR_PAGINATION", "abort")
	t.Setenv("SMUGMIRROR_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "env-session", cfg.SmugMug.Session)
	assert.Equal(t, "jdoe", cfg.Mirror.User)
	assert.Equal(t, []string{"Trip 2019", "Family"}, cfg.Mirror.Albums)
	assert.Equal(t, "/tmp/mirror", cfg.Output.BaseDirectory)
	assert.Equal(t, 4, cfg.Download.Concurrency)
	assert.Equal(t, 45*time.Second, cfg.SmugMug.Timeout)
	assert.Equal(t, "abort", cfg.Mirror.Pagination)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched fields keep their defaults
	assert.Equal(t, smugmug.DefaultEndpoint, cfg.SmugMug.Endpoint)
	assert.Equal(t, retry.DefaultMaxAttempts, cfg.Retry.MaxAttempts)
}

func TestLoadFromEnvRejectsGarbage(t *testing.T) {
	t.Setenv("SMUGMIRROR_CONCURRENCY", "lots")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse environment variables")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
smugmug:
  endpoint: http://gallery.test
  timeout: 10s
mirror:
  user: jdoe
  albums: [Trip 2019, Family]
download:
  concurrency: 3
retry:
  max_attempts: 2
  backoff: exponential
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "http://gallery.test", cfg.SmugMug.Endpoint)
	assert.Equal(t, 10*time.Second, cfg.SmugMug.Timeout)
	assert.Equal(t, []string{"Trip 2019", "Family"}, cfg.Mirror.Albums)
	assert.Equal(t, 3, cfg.Download.Concurrency)
	assert.Equal(t, 2, cfg.Retry.MaxAttempts)
	assert.Equal(t, "exponential", cfg.Retry.Backoff)
	// Sections absent from the file keep defaults
	assert.Equal(t, "0755", cfg.Output.DirPermissions)

	t.Run("invalid yaml", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("smugmug: ["), 0644))
		err := DefaultConfig().LoadFromFile(bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("missing explicit file", func(t *testing.T) {
		err := DefaultConfig().LoadFromFile(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Run("finds dotfile in current directory", func(t *testing.T) {
		dir := isolate(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".smugmirror.yaml"), []byte("{}"), 0644))
		assert.Equal(t, ".smugmirror.yaml", findConfigFile())
	})

	t.Run("finds file under home config dir", func(t *testing.T) {
		home := isolate(t)
		path := filepath.Join(home, ".config", AppName, "config.yaml")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
		assert.Equal(t, path, findConfigFile())
	})

	t.Run("nothing found", func(t *testing.T) {
		isolate(t)
		assert.Empty(t, findConfigFile())
		assert.NoError(t, DefaultConfig().LoadFromFile(""))
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name          string
		setup         func(*Config)
		errorContains []string
	}{
		{
			name:  "defaults are valid",
			setup: func(*Config) {},
		},
		{
			name: "relative endpoint",
			setup: func(c *Config) {
				c.SmugMug.Endpoint = "www.smugmug.com"
			},
			errorContains: []string{"endpoint must be an http(s) URL"},
		},
		{
			name: "bad pagination and concurrency",
			setup: func(c *Config) {
				c.Mirror.Pagination = "skip"
				c.Download.Concurrency = 0
			},
			errorContains: []string{"pagination must be", "concurrency must be positive"},
		},
		{
			name: "permissions",
			setup: func(c *Config) {
				c.Output.DirPermissions = "rwx"
				c.Output.FilePermissions = "1777"
			},
			errorContains: []string{"invalid dir permissions", "invalid file permissions"},
		},
		{
			name: "report extension",
			setup: func(c *Config) {
				c.Output.ReportFile = "summary.txt"
			},
			errorContains: []string{"report file must end in"},
		},
		{
			name: "retry and rate limit",
			setup: func(c *Config) {
				c.Retry.MaxAttempts = 0
				c.Retry.Backoff = "fibonacci"
				c.RateLimit.RequestsPerMinute = -1
				c.RateLimit.Strategy = "leaky"
			},
			errorContains: []string{
				"max attempts must be positive",
				"unknown backoff strategy",
				"cannot be negative",
				"unknown rate limit strategy",
			},
		},
		{
			name: "log level",
			setup: func(c *Config) {
				c.Logging.Level = "chatty"
			},
			errorContains: []string{"invalid log level"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.setup(cfg)
			err := cfg.Validate()
			if len(tt.errorContains) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, msg := range tt.errorContains {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mirror.DryRun = true

	cfg.MergeCommandLineFlags(map[string]interface{}{
		"session":     "flag-session",
		"user":        "jdoe",
		"albums":      []string{"A", "B"},
		"output":      "/out",
		"concurrency": 8,
		"dry-run":     false,
		"log-level":   "warn",
		"pagination":  "",
	})

	assert.Equal(t, "flag-session", cfg.SmugMug.Session)
	assert.Equal(t, "jdoe", cfg.Mirror.User)
	assert.Equal(t, []string{"A", "B"}, cfg.Mirror.Albums)
	assert.Equal(t, "/out", cfg.Output.BaseDirectory)
	assert.Equal(t, 8, cfg.Download.Concurrency)
	assert.False(t, cfg.Mirror.DryRun)
	assert.Equal(t, "warn", cfg.Logging.Level)
	// Empty values never clobber
	assert.Equal(t, string(mirror.PaginationTruncate), cfg.Mirror.Pagination)

	cfg.MergeCommandLineFlags(nil)
	assert.Equal(t, "jdoe", cfg.Mirror.User)
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.SmugMug.Session = "secret"
	cfg.Mirror.Albums = []string{"Trip"}
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &raw))
	assert.Contains(t, raw, "smugmug")
	assert.Contains(t, raw, "rate_limit")

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, cfg, loaded)
}

func TestLoad(t *testing.T) {
	t.Run("precedence order", func(t *testing.T) {
		isolate(t)
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		content := `
smugmug:
  session: file-session
mirror:
  user: file-user
output:
  base_directory: /file/output
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		t.Setenv("SMUGMIRROR_SESSION", "env-session")
		t.Setenv("SMUGMIRROR_OUTPUT_DIR", "/env/output")

		cfg, err := Load(path, map[string]interface{}{"session": "flag-session"})
		require.NoError(t, err)

		assert.Equal(t, "flag-session", cfg.SmugMug.Session)
		assert.Equal(t, "/env/output", cfg.Output.BaseDirectory)
		assert.Equal(t, "file-user", cfg.Mirror.User)
	})

	t.Run("validation failure", func(t *testing.T) {
		isolate(t)
		cfg, err := Load("", map[string]interface{}{"pagination": "sometimes"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration validation failed")
		assert.Nil(t, cfg)
	})

	t.Run("loads .env file", func(t *testing.T) {
		dir := isolate(t)
		t.Setenv("SMUGMIRROR_USER", "")
		require.NoError(t, os.Unsetenv("SMUGMIRROR_USER"))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SMUGMIRROR_USER=dotenv-user\n"), 0644))

		cfg, err := Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, "dotenv-user", cfg.Mirror.User)
	})
}

func TestDerivedSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mirror.User = "jdoe"
	cfg.Mirror.Albums = []string{"Trip"}
	cfg.Output.BaseDirectory = "/data/photos/"
	cfg.Download.Concurrency = 3
	cfg.SmugMug.Session = "tok"

	opts := cfg.MirrorOptions("run-1")
	assert.Equal(t, "jdoe", opts.User)
	assert.Equal(t, filepath.FromSlash("/data/photos/"), opts.OutputRoot)
	assert.Equal(t, []string{"Trip"}, opts.AlbumFilter)
	assert.Equal(t, 3, opts.Concurrency)
	assert.Equal(t, "run-1", opts.RunID)
	assert.NoError(t, opts.Validate())

	// The options own their album slice
	opts.AlbumFilter[0] = "changed"
	assert.Equal(t, "Trip", cfg.Mirror.Albums[0])

	client := cfg.ClientConfig()
	assert.Equal(t, "tok", client.Session)
	assert.Equal(t, smugmug.DefaultEndpoint, client.Endpoint)

	store, err := cfg.StorageOptions()
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), store.DirPerm)
	assert.Equal(t, os.FileMode(0644), store.FilePerm)

	policy, err := cfg.RetryPolicy(nil)
	require.NoError(t, err)
	assert.Equal(t, retry.DefaultMaxAttempts, policy.MaxAttempts)
	assert.Zero(t, policy.Backoff.NextDelay(1))

	limiter, err := cfg.Limiter()
	require.NoError(t, err)
	assert.Nil(t, limiter)

	cfg.RateLimit.RequestsPerMinute = 30
	limiter, err = cfg.Limiter()
	require.NoError(t, err)
	_, ok := limiter.(*ratelimit.TokenBucket)
	assert.True(t, ok)

	logCfg := cfg.LoggerConfig("run-1", true)
	assert.Equal(t, "info", logCfg.Level)
	assert.True(t, logCfg.NoColor)
	assert.Equal(t, "run-1", logCfg.RunID)
}
