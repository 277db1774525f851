package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Collector CollectorConfig `yaml:"collector" mapstructure:"collector"`
	Match     MatchConfig     `yaml:"match" mapstructure:"match"`
	Stats     StatsConfig     `yaml:"stats" mapstructure:"stats"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// CollectorConfig configures platform search collection.
type CollectorConfig struct {
	UserAgent         string   `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs       int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSecond float64  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int      `yaml:"burst" mapstructure:"burst"`
	Concurrency       int      `yaml:"concurrency" mapstructure:"concurrency"`
	Limit             int      `yaml:"limit" mapstructure:"limit"`
	Platforms         []string `yaml:"platforms" mapstructure:"platforms"`

	// Retry and circuit knobs; zero keeps the library defaults.
	RetryMaxAttempts        int `yaml:"retry_max_attempts" mapstructure:"retry_max_attempts"`
	RetryBackoffMs          int `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
	RetryMaxBackoffMs       int `yaml:"retry_max_backoff_ms" mapstructure:"retry_max_backoff_ms"`
	CircuitFailureThreshold int `yaml:"circuit_failure_threshold" mapstructure:"circuit_failure_threshold"`
	CircuitResetSecs        int `yaml:"circuit_reset_secs" mapstructure:"circuit_reset_secs"`
}

// MatchConfig configures cross-platform product matching.
type MatchConfig struct {
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"`
}

// StatsConfig configures the statistical engine. An empty OutlierMethod
// keeps the combined three-method outlier report; naming one of iqr,
// z_score, or modified_z_score selects that method alone, with ZThreshold
// overriding its cutoff when positive.
type StatsConfig struct {
	Confidence    float64 `yaml:"confidence" mapstructure:"confidence"`
	Seed          uint64  `yaml:"seed" mapstructure:"seed"`
	OutlierMethod string  `yaml:"outlier_method" mapstructure:"outlier_method"`
	ZThreshold    float64 `yaml:"z_threshold" mapstructure:"z_threshold"`
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

// Validate checks the fields required for the given command mode plus the
// shared bounds. Collected problems are reported together.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "search", "history":
		if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
		if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
			problems = append(problems, "store.driver must be sqlite or postgres")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0")
		}
	case "analyze", "compare", "stats":
		// file-based modes need no backend
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Match.Threshold <= 0 || c.Match.Threshold > 1 {
		problems = append(problems, "match.threshold must be in (0, 1]")
	}
	if c.Stats.Confidence <= 0 || c.Stats.Confidence >= 1 {
		problems = append(problems, "stats.confidence must be in (0, 1)")
	}
	switch c.Stats.OutlierMethod {
	case "", "iqr", "z_score", "modified_z_score":
	default:
		problems = append(problems, "stats.outlier_method must be iqr, z_score, or modified_z_score")
	}
	if c.Stats.ZThreshold < 0 {
		problems = append(problems, "stats.z_threshold must be >= 0")
	}
	if c.Collector.Concurrency < 1 || c.Collector.Concurrency > 20 {
		problems = append(problems, "collector.concurrency must be between 1 and 20")
	}
	if c.Collector.RequestsPerSecond <= 0 {
		problems = append(problems, "collector.requests_per_second must be > 0")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PRICEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "pricewatch.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("collector.user_agent", "pricewatch/1.0")
	v.SetDefault("collector.timeout_secs", 30)
	v.SetDefault("collector.requests_per_second", 2)
	v.SetDefault("collector.burst", 2)
	v.SetDefault("collector.concurrency", 3)
	v.SetDefault("collector.limit", 20)
	v.SetDefault("collector.platforms", []string{"amazon", "ebay", "walmart"})
	v.SetDefault("collector.retry_max_attempts", 3)
	v.SetDefault("collector.retry_backoff_ms", 500)
	v.SetDefault("collector.retry_max_backoff_ms", 30000)
	v.SetDefault("collector.circuit_failure_threshold", 5)
	v.SetDefault("collector.circuit_reset_secs", 30)
	v.SetDefault("match.threshold", 0.8)
	v.SetDefault("stats.confidence", 0.95)
	v.SetDefault("stats.seed", 1)
	v.SetDefault("stats.outlier_method", "")
	v.SetDefault("stats.z_threshold", 0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
