package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes YAML content over base and validates the result.
//
// Keys absent from content keep their base value; unknown keys are rejected.
func Parse(content string, base Config) (Config, []Warning, error) {
	cfg := base

	if strings.TrimSpace(content) != "" {
		dec := yaml.NewDecoder(strings.NewReader(content))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, nil, err
		}
	}

	argv, err := parseArgv(cfg.Power.ShutdownCmd)
	if err != nil {
		return Config{}, nil, fmt.Errorf("power.shutdown_cmd: %w", err)
	}
	cfg.Power.ShutdownArgv = argv

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}
