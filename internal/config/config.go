package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix         = "PRODUCTS"
	configFileEnvName = "PRODUCTS_CONFIG_FILE"
)

type Metrics struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
}

type RateLimit struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type Config struct {
	Service     string    `mapstructure:"service"`
	HTTPAddr    string    `mapstructure:"http_addr"`
	LogLevel    string    `mapstructure:"log_level"`
	DatabaseURL string    `mapstructure:"database_url"`
	Metrics     Metrics   `mapstructure:"metrics"`
	RateLimit   RateLimit `mapstructure:"rate_limit"`
}

// Load resolves configuration from defaults, an optional YAML file, PRODUCTS_*
// environment variables and command line flags, in increasing priority.
func Load(args []string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	fs := pflag.NewFlagSet("product", pflag.ContinueOnError)
	configFile := fs.String("config", "", "path to a YAML config file")
	fs.String("http-addr", "", "listen address")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("database-url", "", "postgres URL; empty selects the in-memory store")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	for key, flag := range map[string]string{
		"http_addr":    "http-addr",
		"log_level":    "log-level",
		"database_url": "database-url",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := configFilePath(*configFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service", "product")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("database_url", "")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.token", "")
	v.SetDefault("rate_limit.rps", 0)
	v.SetDefault("rate_limit.burst", 0)
}

func configFilePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(configFileEnvName)
}

func (c Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http_addr: required"))
	}
	if c.RateLimit.RPS < 0 {
		errs = append(errs, errors.New("rate_limit.rps: must not be negative"))
	}
	if c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("rate_limit.burst: must not be negative"))
	}
	return errors.Join(errs...)
}

// UsesPostgres reports whether a database URL was configured.
func (c Config) UsesPostgres() bool {
	return c.DatabaseURL != ""
}
