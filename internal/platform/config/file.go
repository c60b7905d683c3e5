package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// ParseFile overlays values from a TOML file onto target. Only keys present
// in the file are assigned, so defaults and environment values survive.
func ParseFile(path string, target any) error {
	if _, err := toml.DecodeFile(path, target); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
