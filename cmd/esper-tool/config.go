package main

import (
	"os"
	"time"

	"github.com/hashicorp/go-envparse"
)

// loadEnvFile parses an env_file (KEY=VALUE per line, as go-envparse reads
// it) and applies its entries to the process environment, without
// overwriting anything already set — mirroring cmd/atlas/main.go's env_file
// handling, scoped down to "defaults a deployment may want to pin" rather
// than atlas's full config surface.
func loadEnvFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	m, err := envparse.Parse(f)
	if err != nil {
		return err
	}
	for k, v := range m {
		if _, exists := os.LookupEnv(k); !exists {
			os.Setenv(k, v)
		}
	}
	return nil
}

// envDuration overrides def with ESPER_<name> from the environment, if set
// and parseable.
func envDuration(name string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv("ESPER_" + name); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
