// Package config provides configuration management functionality.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process configuration for the simulator binaries. Command line
// flags take precedence over everything here.
type Config struct {
	LogLevel  string
	LogPretty bool
	// PhysicsBackend reports whether the state-vector photon backend is
	// available to this process.
	PhysicsBackend bool
	Workers        int
	Seed           int64
}

// Load reads configuration from the environment, after loading any .env files
// given in files (or ./.env if none are given). Missing .env files are skipped;
// any other failure to read or parse one is returned.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	return &Config{
		LogLevel:       getEnv("BB84_LOG_LEVEL", "info"),
		LogPretty:      getEnvAsBool("BB84_LOG_PRETTY", false),
		PhysicsBackend: getEnvAsBool("BB84_PHYSICS_BACKEND", true),
		Workers:        getEnvAsInt("BB84_WORKERS", runtime.NumCPU()),
		Seed:           getEnvAsInt64("BB84_SEED", time.Now().UnixNano()),
	}, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
