// Package config loads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every variable read by the admin processes.
const EnvPrefix = "FEATUREADMIN_"

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ParseEnvWithLookup loads configuration using lookup instead of the
// process environment. Tests use it to avoid mutating os env.
func ParseEnvWithLookup(target any, lookup func(string) (string, bool)) error {
	if lookup == nil {
		return ParseEnv(target)
	}
	environ := make(map[string]string)
	for _, key := range envKeys(target) {
		if value, ok := lookup(key); ok {
			environ[key] = value
		}
	}
	if err := env.ParseWithOptions(target, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func envKeys(target any) []string {
	params, err := env.GetFieldParams(target)
	if err != nil {
		return nil
	}
	keys := make([]string, 0, len(params))
	for _, param := range params {
		if param.Key != "" {
			keys = append(keys, param.Key)
		}
	}
	return keys
}
