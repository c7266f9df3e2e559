// Package config loads the agent configuration from /etc/driftd/driftd.yaml,
// overridable by flag and by DRIFTD_* environment variables. Endpoint
// sections are optional; a missing section leaves its module unconfigured.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/driftworks/driftd/internal/imc"
	"github.com/driftworks/driftd/internal/modjk"
	"github.com/driftworks/driftd/internal/mssql"
	"github.com/driftworks/driftd/internal/notify/mattermost"
)

const (
	defaultAddr        = "127.0.0.1:8099"
	defaultLogLevel    = "info"
	defaultLogFormat   = "json"
	defaultHistoryPath = "/var/lib/driftd/driftd.db"
	defaultConfigDir   = "/etc/driftd"
)

// Config is the full agent configuration.
type Config struct {
	Server     Server                  `mapstructure:"server"`
	Log        Log                     `mapstructure:"log"`
	History    History                 `mapstructure:"history"`
	IMC        *imc.Config             `mapstructure:"imc"`
	MSSQL      *mssql.Config           `mapstructure:"mssql"`
	ModJK      map[string]modjk.Config `mapstructure:"modjk"`
	Mattermost *mattermost.Config      `mapstructure:"mattermost"`
}

// Server holds the local HTTP API settings.
type Server struct {
	Addr string `mapstructure:"addr"`
}

// Log holds the logging settings.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// History holds the run store settings.
type History struct {
	Path string `mapstructure:"path"`
}

// Load reads the configuration. An explicit file wins over the default
// search path; a missing file in the search path is fine and leaves defaults
// plus environment overrides in effect.
func Load(file string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(defaultConfigDir)
		v.AddConfigPath(".")
		v.SetConfigName("driftd")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("DRIFTD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", defaultAddr)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.format", defaultLogFormat)
	v.SetDefault("history.path", defaultHistoryPath)
}
