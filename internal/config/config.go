// Package config handles configuration for the user store, including
// defaults, JSON overlay, and command-line flags.
package config

import (
	"os"
	"time"
)

// Hash algorithm names accepted in HashAlgorithm.
const (
	HashBcrypt   = "bcrypt"
	HashArgon2id = "argon2id"
)

// Config holds runtime settings for the user store.
//
// Fields:
//   - DataSource: binding source; a sqlite file path, "memory:", a
//     postgres:// DSN or a mongodb:// URI.
//   - MinPasswordLength: shortest accepted password, in bytes.
//   - HashAlgorithm: "bcrypt" or "argon2id"; digests of either kind verify.
//   - BcryptCost: bcrypt work factor.
//   - Argon2Time / Argon2MemoryKiB / Argon2Threads: argon2id parameters.
//   - OperationTimeout: deadline around each store operation, 0 disables.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	DataSource        string
	MinPasswordLength int
	HashAlgorithm     string
	BcryptCost        int
	Argon2Time        uint32
	Argon2MemoryKiB   uint32
	Argon2Threads     uint8
	OperationTimeout  time.Duration
	LogLevel          string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.DataSource = "userstore.db"
	c.MinPasswordLength = 1
	c.HashAlgorithm = HashBcrypt
	c.BcryptCost = 10
	c.Argon2Time = 1
	c.Argon2MemoryKiB = 64 * 1024
	c.Argon2Threads = 4
	c.OperationTimeout = 5 * time.Second
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	return LoadConfigFrom(os.Args[1:])
}

// LoadConfigFrom is LoadConfig over an explicit argument list.
func LoadConfigFrom(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
