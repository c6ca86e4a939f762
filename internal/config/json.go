package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// jsonConfig is the file-shaped view of Config. Durations are integer
// seconds. Pointer fields distinguish "absent" from "zero" so a partial file
// only overrides what it names.
type jsonConfig struct {
	DatabaseDSN            *string `json:"database_dsn"`
	PoolSize               *int    `json:"pool_size"`
	AcquireTimeoutSeconds  *int64  `json:"acquire_timeout_seconds"`
	SessionLifetimeSeconds *int64  `json:"session_lifetime_seconds"`
}

// parseJSON overlays values from the JSON file named by -c or -config, if
// any. Without either flag it is a no-op.
func parseJSON(cfg *Config, args []string) error {
	path := jsonPathFromArgs(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if jc.DatabaseDSN != nil {
		cfg.DatabaseDSN = *jc.DatabaseDSN
	}
	if jc.PoolSize != nil {
		cfg.PoolSize = *jc.PoolSize
	}
	if jc.AcquireTimeoutSeconds != nil {
		cfg.AcquireTimeout = time.Duration(*jc.AcquireTimeoutSeconds) * time.Second
	}
	if jc.SessionLifetimeSeconds != nil {
		cfg.SessionLifetime = time.Duration(*jc.SessionLifetimeSeconds) * time.Second
	}
	return nil
}

// jsonPathFromArgs scans args for -c/-config without disturbing the main
// flag set ("-c x", "-c=x", "--config x" all work).
func jsonPathFromArgs(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		for _, name := range []string{"-c", "--c", "-config", "--config"} {
			if arg == name {
				if i+1 < len(args) {
					return args[i+1]
				}
				return ""
			}
			if len(arg) > len(name)+1 && arg[:len(name)+1] == name+"=" {
				return arg[len(name)+1:]
			}
		}
	}
	return ""
}
