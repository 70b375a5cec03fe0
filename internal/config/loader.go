package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. POOLGOVD_STORAGE_BACKEND.
	EnvPrefix = "POOLGOVD"

	// ConfigFileEnv names the config file when no path is passed.
	ConfigFileEnv = EnvPrefix + "_CONF"
)

// ErrConfigNotFound is returned when the named config file does not exist.
var ErrConfigNotFound = errors.New("config file does not exist")

// LoadConfig builds the configuration from, in increasing priority:
//  1. built-in defaults
//  2. the config file at path, or at $POOLGOVD_CONF when path is empty
//  3. POOLGOVD_<SECTION>_<KEY> environment variables
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(ConfigFileEnv)
	}

	v := newViper()
	if path != "" {
		if err := readConfigFile(v, path); err != nil {
			return nil, fmt.Errorf("failed to load main config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.configPath = path

	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

// newViper returns a viper instance with defaults and env overrides bound.
// Every key has a default, so AutomaticEnv sees all of them on Unmarshal.
func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// readConfigFile merges the file at path into v. Files without an
// extension are read as TOML.
func readConfigFile(v *viper.Viper, path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}

	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("toml")
	}
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}
