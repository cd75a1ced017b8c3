package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// applyOverlay reads a flat YAML file of env-style keys and exports each
// entry into the process environment when the corresponding variable is
// unset or empty. Environment variables always win over file values.
func applyOverlay(path string) error {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("op=config.applyOverlay path=%s: %w", path, err)
	}
	values := map[string]any{}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("op=config.applyOverlay path=%s: %w", path, err)
	}
	for key, value := range values {
		if value == nil {
			continue
		}
		name := strings.ToUpper(strings.TrimSpace(key))
		if name == "" || os.Getenv(name) != "" {
			continue
		}
		if err := os.Setenv(name, fmt.Sprint(value)); err != nil {
			return fmt.Errorf("op=config.applyOverlay key=%s: %w", name, err)
		}
	}
	return nil
}
