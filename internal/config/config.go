package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hec-growth-lab/tfp-cli/internal/decomp"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Decomp DecompConfig `yaml:"decomp" mapstructure:"decomp"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Ingest IngestConfig `yaml:"ingest" mapstructure:"ingest"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// DecompConfig configures the decomposition pipeline.
type DecompConfig struct {
	Economy     string `yaml:"economy" mapstructure:"economy"`
	Method      string `yaml:"method" mapstructure:"method"`
	BaseYear    int    `yaml:"base_year" mapstructure:"base_year"`
	Window      int    `yaml:"window" mapstructure:"window"`
	Parallelism int    `yaml:"parallelism" mapstructure:"parallelism"`
}

// FetchConfig configures source-table downloads.
type FetchConfig struct {
	CacheDir       string `yaml:"cache_dir" mapstructure:"cache_dir"`
	UserAgent      string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs    int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSecond  int    `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	StatCanBaseURL string `yaml:"statcan_base_url" mapstructure:"statcan_base_url"`
	BEABaseURL     string `yaml:"bea_base_url" mapstructure:"bea_base_url"`
}

// IngestConfig configures source-table parsing.
type IngestConfig struct {
	MappingFile string `yaml:"mapping_file" mapstructure:"mapping_file"`
	Charset     string `yaml:"charset" mapstructure:"charset"`
	SheetName   string `yaml:"sheet_name" mapstructure:"sheet_name"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TFP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "tfp.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("decomp.economy", "CA")
	v.SetDefault("decomp.method", string(decomp.MethodTornqvist))
	v.SetDefault("decomp.base_year", 1961)
	v.SetDefault("decomp.window", 2)
	v.SetDefault("decomp.parallelism", 0)
	v.SetDefault("fetch.cache_dir", "/tmp/tfp-cache")
	v.SetDefault("fetch.user_agent", "tfp-cli/1.0")
	v.SetDefault("fetch.timeout_secs", 120)
	v.SetDefault("fetch.rate_per_second", 2)
	v.SetDefault("fetch.statcan_base_url", "https://www150.statcan.gc.ca")
	v.SetDefault("fetch.bea_base_url", "https://apps.bea.gov")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for the given run mode. Modes: decompose,
// fetch, serve.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "decompose":
		problems = append(problems, c.validateDecomp()...)
		problems = append(problems, c.validateStore()...)
	case "fetch":
		if c.Fetch.CacheDir == "" {
			problems = append(problems, "fetch.cache_dir is required")
		}
		if c.Fetch.TimeoutSecs < 1 {
			problems = append(problems, "fetch.timeout_secs must be >= 1")
		}
		if c.Fetch.RatePerSecond < 1 {
			problems = append(problems, "fetch.rate_per_second must be >= 1")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
		problems = append(problems, c.validateDecomp()...)
		problems = append(problems, c.validateStore()...)
	default:
		return &ConfigError{Mode: mode, Problems: []string{fmt.Sprintf("unknown mode %q", mode)}}
	}

	if len(problems) > 0 {
		return &ConfigError{Mode: mode, Problems: problems}
	}
	return nil
}

func (c *Config) validateDecomp() []string {
	var problems []string
	if c.Decomp.Economy != "CA" && c.Decomp.Economy != "US" {
		problems = append(problems, "decomp.economy must be CA or US")
	}
	if !decomp.Method(c.Decomp.Method).Valid() {
		problems = append(problems, "decomp.method must be tornqvist or logdiff")
	}
	if c.Decomp.Window < 1 {
		problems = append(problems, "decomp.window must be >= 1")
	}
	if c.Decomp.Parallelism < 0 {
		problems = append(problems, "decomp.parallelism must be >= 0")
	}
	return problems
}

func (c *Config) validateStore() []string {
	var problems []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}
	return problems
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
