// Package config resolves CLI settings from a YAML file, the environment and
// an optional .env file.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"pdc/internal/nodetype"
)

// Environment keys read by Load.
const (
	EnvTarget      = "PDC_TARGET"
	EnvBitDepth    = "PDC_BIT_DEPTH"
	EnvChannelsIn  = "PDC_CHANNELS_IN"
	EnvChannelsOut = "PDC_CHANNELS_OUT"
	EnvDiagFormat  = "PDC_DIAG_FORMAT"
)

// Config holds the resolved CLI configuration.
type Config struct {
	Settings   nodetype.Settings
	DiagFormat string
}

// Options locate the configuration sources. Empty paths are skipped; a
// missing EnvFile is not an error, a missing SettingsPath is.
type Options struct {
	SettingsPath string
	EnvFile      string
}

// Load starts from nodetype.DefaultSettings, applies the settings file, then
// the environment. Process environment wins over the .env file.
func Load(opts Options) (*Config, error) {
	cfg := &Config{Settings: nodetype.DefaultSettings(), DiagFormat: "text"}
	if opts.SettingsPath != "" {
		if err := cfg.readSettings(opts.SettingsPath); err != nil {
			return nil, err
		}
	}

	dotenv := map[string]string{}
	if opts.EnvFile != "" {
		values, err := godotenv.Read(opts.EnvFile)
		switch {
		case err == nil:
			dotenv = values
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, errors.Wrapf(err, "read %s", opts.EnvFile)
		}
	}
	if err := cfg.applyEnv(func(key string) string {
		if value := os.Getenv(key); value != "" {
			return value
		}
		return dotenv[key]
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readSettings(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read settings")
	}
	if err := yaml.Unmarshal(data, &c.Settings); err != nil {
		return errors.Wrapf(err, "decode settings %s", path)
	}
	return nil
}

func (c *Config) applyEnv(getEnv func(string) string) error {
	if value := getEnv(EnvTarget); value != "" {
		c.Settings.Target = nodetype.Target(value)
	}
	if value := getEnv(EnvDiagFormat); value != "" {
		c.DiagFormat = value
	}
	ints := []struct {
		key string
		dst *int
	}{
		{EnvBitDepth, &c.Settings.Audio.BitDepth},
		{EnvChannelsIn, &c.Settings.Audio.ChannelCount.In},
		{EnvChannelsOut, &c.Settings.Audio.ChannelCount.Out},
	}
	for _, entry := range ints {
		value := getEnv(entry.key)
		if value == "" {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return errors.Errorf("%s: %q is not an integer", entry.key, value)
		}
		*entry.dst = n
	}
	return nil
}
