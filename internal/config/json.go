package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/userstore/internal/flagx"
	"github.com/dmitrijs2005/userstore/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Every field is
// optional; absent fields leave the current value untouched.
type JsonConfig struct {
	DataSource        *string         `json:"data_source"`
	MinPasswordLength *int            `json:"min_password_length"`
	HashAlgorithm     *string         `json:"hash_algorithm"`
	BcryptCost        *int            `json:"bcrypt_cost"`
	Argon2Time        *uint32         `json:"argon2_time"`
	Argon2MemoryKiB   *uint32         `json:"argon2_memory_kib"`
	Argon2Threads     *uint8          `json:"argon2_threads"`
	OperationTimeout  *timex.Duration `json:"operation_timeout"`
	LogLevel          *string         `json:"log_level"`
}

// parseJson overlays values from the file named by -c/-config in args.
// Without such a flag nothing is loaded. An unreadable file or invalid JSON
// panics, same as a malformed flag.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigFile(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.DataSource != nil {
		config.DataSource = *c.DataSource
	}
	if c.MinPasswordLength != nil {
		config.MinPasswordLength = *c.MinPasswordLength
	}
	if c.HashAlgorithm != nil {
		config.HashAlgorithm = *c.HashAlgorithm
	}
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	if c.Argon2Time != nil {
		config.Argon2Time = *c.Argon2Time
	}
	if c.Argon2MemoryKiB != nil {
		config.Argon2MemoryKiB = *c.Argon2MemoryKiB
	}
	if c.Argon2Threads != nil {
		config.Argon2Threads = *c.Argon2Threads
	}
	if c.OperationTimeout != nil {
		config.OperationTimeout = c.OperationTimeout.Duration
	}
	if c.LogLevel != nil {
		config.LogLevel = *c.LogLevel
	}
}
