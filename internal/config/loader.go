package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses configuration from a YAML file. Missing keys fall
// back to Defaults. `${VAR}` placeholders are expanded from the environment
// before parsing.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	expanded := expandEnvVars(string(data))

	cfg := Defaults()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", absPath, err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR} placeholders with environment values.
// Unset variables are left as-is so validation can report them.
func expandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Service.LogLevel] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}

	if cfg.Batch.DefaultCapacity < 1 {
		return fmt.Errorf("batch.default_capacity must be at least 1 (got %d)", cfg.Batch.DefaultCapacity)
	}
	if cfg.Batch.FileWorkers < 1 {
		return fmt.Errorf("batch.file_workers must be at least 1 (got %d)", cfg.Batch.FileWorkers)
	}
	if cfg.Batch.OutputDir == "" {
		return fmt.Errorf("batch.output_dir is required")
	}

	if cfg.Journal.Enabled && cfg.Journal.Path == "" {
		return fmt.Errorf("journal.path is required when the journal is enabled")
	}

	if cfg.API.Enabled {
		if cfg.API.Listen == "" {
			return fmt.Errorf("api.listen is required when the API is enabled")
		}
		if envVarPattern.MatchString(cfg.API.APIKey) {
			matches := envVarPattern.FindStringSubmatch(cfg.API.APIKey)
			if len(matches) > 1 {
				return fmt.Errorf("api.api_key: environment variable ${%s} is not set", matches[1])
			}
			return fmt.Errorf("api.api_key: unresolved environment variable")
		}
	}

	return nil
}
