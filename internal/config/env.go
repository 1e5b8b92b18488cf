package config

import (
	"fmt"
	"os"
	"strconv"
)

// envVarPrefix is the prefix for all bendlens environment variables.
const envVarPrefix = "BENDLENS_"

type envFieldType int

const (
	envTypeString envFieldType = iota
	envTypeInt
)

type envMapping struct {
	typ    envFieldType
	target func(c *Config) any
}

// envMappings maps environment variable names (without prefix) to fields.
var envMappings = map[string]envMapping{
	"LOG_LEVEL":    {envTypeString, func(c *Config) any { return &c.LogLevel }},
	"GRAMMAR":      {envTypeString, func(c *Config) any { return &c.Grammar }},
	"WORKERS":      {envTypeInt, func(c *Config) any { return &c.Workers }},
	"SYMBOL_STORE": {envTypeString, func(c *Config) any { return &c.SymbolStore }},
	"METRICS_ADDR": {envTypeString, func(c *Config) any { return &c.MetricsAddr }},
}

// LoadFromEnv applies BENDLENS_* environment overrides to cfg.
func LoadFromEnv(cfg *Config) error {
	return ApplyEnv(cfg, os.Getenv)
}

// ApplyEnv applies overrides read through getenv. Unset or empty variables
// leave the field alone.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if cfg == nil {
		return nil
	}
	for suffix, m := range envMappings {
		name := envVarPrefix + suffix
		value := getenv(name)
		if value == "" {
			continue
		}
		switch m.typ {
		case envTypeString:
			*m.target(cfg).(*string) = value
		case envTypeInt:
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("config: %s: invalid integer %q", name, value)
			}
			*m.target(cfg).(*int) = n
		}
	}
	return nil
}
