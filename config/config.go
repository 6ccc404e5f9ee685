// Package config loads Master configuration from a YAML file, a .env
// file and the process environment, in that order of increasing
// precedence; cmd/tasqd applies CLI flags on top — the same layering the
// rest of the example pack's services use for small daemons.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tasqio/tasq/router"
)

// Config is the Master's full configuration surface.
type Config struct {
	Host           string                `yaml:"host"`
	IngressPort    int                   `yaml:"ingress_port"`
	EgressPort     int                   `yaml:"egress_port"`
	Workers        int                   `yaml:"workers"`
	Policy         router.Policy         `yaml:"policy"`
	Debug          bool                  `yaml:"debug"`
	ResultTimeout  time.Duration         `yaml:"result_timeout"`
	CompletionMode router.CompletionMode `yaml:"completion_mode"`
}

// Default returns the configuration the distilled spec names as its
// defaults: 5 workers, round-robin routing.
func Default() Config {
	return Config{
		Host:          "127.0.0.1",
		IngressPort:   5555,
		EgressPort:    5556,
		Workers:       5,
		Policy:        router.RoundRobin,
		Debug:          false,
		ResultTimeout:  30 * time.Second,
		CompletionMode: router.DeferredMode,
	}
}

// LoadFile merges YAML file contents at path into cfg. A missing file is
// not an error — the caller may be relying on environment or flags
// alone.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// LoadEnv merges a .env file (if present) into the process environment,
// then overlays TASQ_-prefixed environment variables onto cfg. Unset
// variables leave the existing value untouched, so this can be layered
// on top of LoadFile.
func LoadEnv(envFile string, cfg *Config) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	if v := os.Getenv("TASQ_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("TASQ_INGRESS_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: TASQ_INGRESS_PORT: %w", err)
		}
		cfg.IngressPort = p
	}
	if v := os.Getenv("TASQ_EGRESS_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: TASQ_EGRESS_PORT: %w", err)
		}
		cfg.EgressPort = p
	}
	if v := os.Getenv("TASQ_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: TASQ_WORKERS: %w", err)
		}
		cfg.Workers = n
	}
	if v := os.Getenv("TASQ_POLICY"); v != "" {
		cfg.Policy = router.Policy(v)
	}
	if v := os.Getenv("TASQ_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: TASQ_DEBUG: %w", err)
		}
		cfg.Debug = b
	}
	if v := os.Getenv("TASQ_RESULT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: TASQ_RESULT_TIMEOUT: %w", err)
		}
		cfg.ResultTimeout = d
	}
	if v := os.Getenv("TASQ_COMPLETION_MODE"); v != "" {
		switch v {
		case "deferred":
			cfg.CompletionMode = router.DeferredMode
		case "immediate":
			cfg.CompletionMode = router.ImmediateMode
		default:
			return fmt.Errorf("config: TASQ_COMPLETION_MODE: unknown value %q", v)
		}
	}

	return nil
}

// Validate rejects configurations the rest of the module can't serve.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("config: host must not be empty")
	}
	if c.IngressPort <= 0 || c.EgressPort <= 0 {
		return fmt.Errorf("config: ingress and egress ports must be positive")
	}
	if c.IngressPort == c.EgressPort {
		return fmt.Errorf("config: ingress and egress ports must differ")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("config: workers must be positive")
	}
	switch c.Policy {
	case router.RoundRobin, router.Random, router.SmallestMailbox:
	default:
		return fmt.Errorf("config: unknown routing policy %q", c.Policy)
	}
	switch c.CompletionMode {
	case router.DeferredMode, router.ImmediateMode:
	default:
		return fmt.Errorf("config: unknown completion mode %d", c.CompletionMode)
	}
	return nil
}
