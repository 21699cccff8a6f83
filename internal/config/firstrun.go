package config

import (
	"os"
)

// IsFirstRun reports whether no global config file exists yet.
func IsFirstRun() bool {
	_, err := os.Stat(GlobalConfigPath())
	return os.IsNotExist(err)
}

// WriteDefaults creates the global config file with default settings
// when it does not exist yet.
func WriteDefaults() error {
	if !IsFirstRun() {
		return nil
	}
	cfg := NewConfig()
	applyDefaults(cfg)
	return Save(cfg)
}
