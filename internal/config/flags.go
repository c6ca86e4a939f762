package config

import (
	"flag"
	"io"
)

// parseFlags overlays command-line flags on top of whatever defaults and
// JSON already set. Flag defaults come from the current cfg values, so an
// unset flag changes nothing.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("authcore", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// Consumed by parseJSON before the flag set runs; declared here so
	// Parse does not reject it.
	var configFile string
	fs.StringVar(&configFile, "c", "", "path to JSON config file")
	fs.StringVar(&configFile, "config", "", "path to JSON config file")

	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "PostgreSQL DSN")
	fs.IntVar(&cfg.PoolSize, "pool-size", cfg.PoolSize, "database connections opened at startup")
	fs.DurationVar(&cfg.AcquireTimeout, "acquire-timeout", cfg.AcquireTimeout, "max wait for a free database connection")
	fs.DurationVar(&cfg.SessionLifetime, "session-lifetime", cfg.SessionLifetime, "validity of newly created sessions")

	return fs.Parse(args)
}
