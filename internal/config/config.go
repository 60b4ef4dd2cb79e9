// Package config loads runtime options from (in increasing priority)
// built-in defaults, an optional subtran.yaml, SUBTRAN_* environment
// variables and command-line flags. Validation failures are fatal
// before the pipeline starts: a bad option never produces a half
// translated file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// ConfigError reports an invalid option or language code. It aborts
// the run before any file is parsed or any backend called.
type ConfigError struct {
	Option string
	Msg    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Option, e.Msg)
}

// ServiceOptions carries per-backend settings.
type ServiceOptions struct {
	Credentials      string   `mapstructure:"credentials"`
	ProjectID        string   `mapstructure:"project_id"`
	OllamaURL        string   `mapstructure:"ollama_url"`
	OllamaModels     []string `mapstructure:"ollama_models"`
	OpenRouterKey    string   `mapstructure:"openrouter_key"`
	OpenRouterModels []string `mapstructure:"openrouter_models"`
	MyMemoryEmail    string   `mapstructure:"mymemory_email"`
}

// Options is the full runtime configuration.
type Options struct {
	Service        string         `mapstructure:"service"`
	MaxBatchSize   int            `mapstructure:"max_batch_size"`
	MaxBatchChars  int            `mapstructure:"max_batch_chars"`
	MaxConcurrency int            `mapstructure:"max_concurrency"`
	RetryCount     int            `mapstructure:"retry_count"`
	RetryDelay     time.Duration  `mapstructure:"retry_delay"`
	RateLimit      float64        `mapstructure:"rate_limit"`
	FailurePolicy  string         `mapstructure:"failure_policy"`
	DBPath         string         `mapstructure:"db"`
	NoCache        bool           `mapstructure:"no_cache"`
	Services       ServiceOptions `mapstructure:"services"`
}

// Load reads options from defaults, the optional config file and the
// environment. cfgFile may be empty to rely on the search path.
func Load(cfgFile string) (*Options, error) {
	v := viper.New()

	v.SetDefault("service", "google")
	v.SetDefault("max_batch_size", 10)
	v.SetDefault("max_batch_chars", 4000)
	v.SetDefault("max_concurrency", 4)
	v.SetDefault("retry_count", 3)
	v.SetDefault("retry_delay", 500*time.Millisecond)
	v.SetDefault("rate_limit", 0.0)
	v.SetDefault("failure_policy", "keep-source")
	v.SetDefault("db", "./data/subtran.db")
	v.SetDefault("services.ollama_url", "http://localhost:11434")

	v.SetEnvPrefix("SUBTRAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, &ConfigError{Option: "config file", Msg: err.Error()}
		}
	} else {
		v.SetConfigName("subtran")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/subtran")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, &ConfigError{Option: "config file", Msg: err.Error()}
			}
		}
	}

	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return nil, &ConfigError{Option: "config", Msg: err.Error()}
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &opts, nil
}

// Validate checks option values. Language codes are validated
// separately because they arrive as CLI arguments.
func (o *Options) Validate() error {
	if o.MaxBatchSize <= 0 {
		return &ConfigError{Option: "max_batch_size", Msg: "must be positive"}
	}
	if o.MaxConcurrency <= 0 {
		return &ConfigError{Option: "max_concurrency", Msg: "must be positive"}
	}
	if o.RetryCount <= 0 {
		return &ConfigError{Option: "retry_count", Msg: "must be at least 1 (1 = no retries)"}
	}
	if o.RateLimit < 0 {
		return &ConfigError{Option: "rate_limit", Msg: "must not be negative"}
	}
	switch o.FailurePolicy {
	case "keep-source", "mark-failed":
	default:
		return &ConfigError{Option: "failure_policy", Msg: fmt.Sprintf("%q (want keep-source or mark-failed)", o.FailurePolicy)}
	}
	return nil
}

// ValidateLanguage checks a BCP 47 / ISO 639 language code. "auto" is
// accepted for source languages.
func ValidateLanguage(option, code string) error {
	if code == "auto" {
		return nil
	}
	if _, err := language.Parse(code); err != nil {
		return &ConfigError{Option: option, Msg: fmt.Sprintf("%q is not a valid language code", code)}
	}
	return nil
}
