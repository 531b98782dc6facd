package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	t.Run("loads every field", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{
			"data_source":         "mongodb://localhost/users",
			"min_password_length": 10,
			"hash_algorithm":      "argon2id",
			"bcrypt_cost":         11,
			"argon2_time":         2,
			"argon2_memory_kib":   32768,
			"argon2_threads":      2,
			"operation_timeout":   "1500ms",
			"log_level":           "warn",
		})

		cfg := &Config{}
		parseJson(cfg, []string{"-config", path})

		assert.Equal(t, "mongodb://localhost/users", cfg.DataSource)
		assert.Equal(t, 10, cfg.MinPasswordLength)
		assert.Equal(t, "argon2id", cfg.HashAlgorithm)
		assert.Equal(t, 11, cfg.BcryptCost)
		assert.Equal(t, uint32(2), cfg.Argon2Time)
		assert.Equal(t, uint32(32768), cfg.Argon2MemoryKiB)
		assert.Equal(t, uint8(2), cfg.Argon2Threads)
		assert.Equal(t, 1500*time.Millisecond, cfg.OperationTimeout)
		assert.Equal(t, "warn", cfg.LogLevel)
	})

	t.Run("partial file keeps other values", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{"log_level": "debug"})

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg, []string{"-c", path})

		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "userstore.db", cfg.DataSource)
		assert.Equal(t, 5*time.Second, cfg.OperationTimeout)
	})

	t.Run("no config flag, no changes", func(t *testing.T) {
		cfg := &Config{DataSource: "keep.db", MinPasswordLength: 3}
		parseJson(cfg, []string{"-d", "other.db"})

		assert.Equal(t, "keep.db", cfg.DataSource)
		assert.Equal(t, 3, cfg.MinPasswordLength)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		require.Panics(t, func() { parseJson(&Config{}, []string{"-c", bad}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		require.Panics(t, func() {
			parseJson(&Config{}, []string{"-c", filepath.Join(t.TempDir(), "nope.json")})
		})
	})
}
