package config

import (
	"fmt"
	"strings"
)

// ConfigError reports configuration that fails validation for a run mode. It
// is fatal: commands must not start on a configuration that failed validation.
type ConfigError struct {
	Mode     string
	Problems []string
}

func (e *ConfigError) Error() string {
	if len(e.Problems) == 0 {
		return fmt.Sprintf("config: invalid %s configuration", e.Mode)
	}
	return fmt.Sprintf("config: invalid %s configuration: %s", e.Mode, strings.Join(e.Problems, "; "))
}
