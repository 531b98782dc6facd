package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/userstore/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   data source (file path, memory:, postgres://, mongodb://)
//	-m int      minimum password length
//	-x string   hash algorithm (bcrypt, argon2id)
//	-k int      bcrypt cost
//	-t int      operation timeout, seconds (0 disables)
//	-l string   log level
//
// Only the flags above are looked at, so the same argument list can be
// shared with other flag sets (e.g. -c for the JSON file).
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-d", "-m", "-x", "-k", "-t", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DataSource, "d", config.DataSource, "data source")
	fs.IntVar(&config.MinPasswordLength, "m", config.MinPasswordLength, "minimum password length")
	fs.StringVar(&config.HashAlgorithm, "x", config.HashAlgorithm, "hash algorithm (bcrypt, argon2id)")
	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")
	timeout := fs.Int("t", int(config.OperationTimeout.Seconds()), "operation timeout (in seconds)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.OperationTimeout = time.Duration(*timeout) * time.Second
		}
	})
}
