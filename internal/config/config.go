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
	Input     InputConfig     `yaml:"input" mapstructure:"input"`
	Variants  VariantConfig   `yaml:"variants" mapstructure:"variants"`
	Capture   CaptureConfig   `yaml:"capture" mapstructure:"capture"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Results   ResultsConfig   `yaml:"results" mapstructure:"results"`
	Run       RunConfig       `yaml:"run" mapstructure:"run"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// InputConfig locates the work-item spreadsheet.
type InputConfig struct {
	Path  string `yaml:"path" mapstructure:"path"`
	Sheet int    `yaml:"sheet" mapstructure:"sheet"`
}

// VariantConfig names the query parameter and the two values under test.
type VariantConfig struct {
	Param  string `yaml:"param" mapstructure:"param"`
	ValueA string `yaml:"value_a" mapstructure:"value_a"`
	ValueB string `yaml:"value_b" mapstructure:"value_b"`
}

// CaptureConfig configures the headless browser sessions.
type CaptureConfig struct {
	WindowWidth    int     `yaml:"window_width" mapstructure:"window_width"`
	WindowHeight   int     `yaml:"window_height" mapstructure:"window_height"`
	NavTimeoutSecs int     `yaml:"nav_timeout_secs" mapstructure:"nav_timeout_secs"`
	SettleMs       int     `yaml:"settle_ms" mapstructure:"settle_ms"`
	MaxAttempts    int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	RetryDelayMs   int     `yaml:"retry_delay_ms" mapstructure:"retry_delay_ms"`
	NavPerSecond   float64 `yaml:"nav_per_second" mapstructure:"nav_per_second"`
	UserAgent      string  `yaml:"user_agent" mapstructure:"user_agent"`
	SelectorsFile  string  `yaml:"selectors_file" mapstructure:"selectors_file"`
}

// AnthropicConfig holds Anthropic API settings for the ranking judge.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ResultsConfig sets where artifacts land.
type ResultsConfig struct {
	Dir            string `yaml:"dir" mapstructure:"dir"`
	ScreenshotsDir string `yaml:"screenshots_dir" mapstructure:"screenshots_dir"`
	HistoryDB      string `yaml:"history_db" mapstructure:"history_db"`
}

// RunConfig configures the coordinator.
type RunConfig struct {
	Workers      int `yaml:"workers" mapstructure:"workers"`
	DeadlineMins int `yaml:"deadline_mins" mapstructure:"deadline_mins"`
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
	v.SetEnvPrefix("RANKTEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("input.sheet", 0)
	v.SetDefault("variants.param", "opt_seg")
	v.SetDefault("variants.value_a", "5")
	v.SetDefault("variants.value_b", "6")
	v.SetDefault("capture.window_width", 1920)
	v.SetDefault("capture.window_height", 1080)
	v.SetDefault("capture.nav_timeout_secs", 30)
	v.SetDefault("capture.settle_ms", 3000)
	v.SetDefault("capture.max_attempts", 3)
	v.SetDefault("capture.retry_delay_ms", 2000)
	v.SetDefault("capture.nav_per_second", 1.0)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 4000)
	v.SetDefault("results.dir", "results")
	v.SetDefault("results.screenshots_dir", "screenshots")
	v.SetDefault("results.history_db", "ranktest.db")
	v.SetDefault("run.workers", 6)
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
