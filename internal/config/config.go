// Package config loads arangoq settings from a YAML file and ARANGOQ_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. ARANGOQ_ARANGO_DATABASE.
const EnvPrefix = "ARANGOQ"

// DefaultFile is read from the working directory when no file is named.
const DefaultFile = "arangoq.yaml"

// Config holds the CLI settings.
type Config struct {
	Arango   Arango `mapstructure:"arango"`
	Profiles string `mapstructure:"profiles"` // search profile file; empty uses the built-in profiles
	History  string `mapstructure:"history"`  // SQLite history path; empty disables recording
}

// Arango holds the connection settings used by provisioning.
type Arango struct {
	Endpoints []string `mapstructure:"endpoints"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Database  string   `mapstructure:"database"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Arango: Arango{
			Endpoints: []string{"http://localhost:8529"},
			Username:  "root",
			Database:  "_system",
		},
	}
}

// Load reads path, then overlays environment variables. An empty path
// reads DefaultFile if it exists. A named file must exist.
func Load(path string) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("arango.endpoints", def.Arango.Endpoints)
	v.SetDefault("arango.username", def.Arango.Username)
	v.SetDefault("arango.password", def.Arango.Password)
	v.SetDefault("arango.database", def.Arango.Database)
	v.SetDefault("profiles", def.Profiles)
	v.SetDefault("history", def.History)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultFile, ".yaml"))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
