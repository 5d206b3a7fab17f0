// Package config provides Viper-based hierarchical configuration management
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Environments a run can target.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// EnvPrefix prefixes every environment variable read through Viper.
const EnvPrefix = "FETL"

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Environment string `mapstructure:"environment" yaml:"environment"`

	Fio struct {
		Token   string `mapstructure:"token" yaml:"-"`
		BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	} `mapstructure:"fio" yaml:"fio"`

	Air struct {
		InboxDir string `mapstructure:"inbox_dir" yaml:"inbox_dir"`
		Password string `mapstructure:"password" yaml:"-"`
	} `mapstructure:"air" yaml:"air"`

	Ledger struct {
		Backend         string `mapstructure:"backend" yaml:"backend"`
		Directory       string `mapstructure:"directory" yaml:"directory"`
		SheetIDDev      string `mapstructure:"sheet_id_dev" yaml:"sheet_id_dev"`
		SheetIDProd     string `mapstructure:"sheet_id_prod" yaml:"sheet_id_prod"`
		CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`
	} `mapstructure:"ledger" yaml:"ledger"`

	AI struct {
		Provider    string        `mapstructure:"provider" yaml:"provider"`
		APIKey      string        `mapstructure:"api_key" yaml:"-"` // Never serialize API key
		ModelDev    string        `mapstructure:"model_dev" yaml:"model_dev"`
		ModelProd   string        `mapstructure:"model_prod" yaml:"model_prod"`
		PromptsFile string        `mapstructure:"prompts_file" yaml:"prompts_file"`
		MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
		Backoff     time.Duration `mapstructure:"backoff" yaml:"backoff"`
		ContextRows int           `mapstructure:"context_rows" yaml:"context_rows"`
	} `mapstructure:"ai" yaml:"ai"`

	Federation struct {
		WhitelistedAccounts []string `mapstructure:"whitelisted_accounts" yaml:"whitelisted_accounts"`
		InvestmentKeywords  []string `mapstructure:"investment_keywords" yaml:"investment_keywords"`
	} `mapstructure:"federation" yaml:"federation"`

	Report struct {
		Output string `mapstructure:"output" yaml:"output"`
	} `mapstructure:"report" yaml:"report"`

	Backup struct {
		Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
		Directory string `mapstructure:"directory" yaml:"directory"`
		Bucket    string `mapstructure:"bucket" yaml:"bucket"`
		Prefix    string `mapstructure:"prefix" yaml:"prefix"`
	} `mapstructure:"backup" yaml:"backup"`
}

// legacyEnv maps configuration keys to the unprefixed variable names of
// existing .env files. The prefixed name always wins.
var legacyEnv = map[string]string{
	"fio.token":            "FIO_TOKEN",
	"air.password":         "AIR_ATTACHMENT_PASSWORD",
	"ai.api_key":           "GEMINI_API_KEY",
	"ledger.sheet_id_dev":  "GOOGLE_SHEET_ID_DEV",
	"ledger.sheet_id_prod": "GOOGLE_SHEET_ID_PROD",
}

// listEnv maps list keys to their legacy variable names. Values are a JSON
// array or a comma separated list.
var listEnv = map[string]string{
	"federation.whitelisted_accounts": "WHITELISTED_ACCOUNTS",
	"federation.investment_keywords":  "WHITELISTED_INVESTMENT_KEYWORDS",
}

// InitializeConfig loads defaults, then the config file, then environment
// variables. An explicit configFile must exist; otherwise config.yaml is
// looked up in $HOME/.finance-etl, .finance-etl and the working directory.
func InitializeConfig(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.finance-etl")
		v.AddConfigPath(".finance-etl")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless given explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// 5. Legacy variable names
	for key, legacy := range legacyEnv {
		if err := v.BindEnv(key, prefixed(key), legacy); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", legacy, err)
		}
	}
	for key, legacy := range listEnv {
		raw, ok := lookupFirst(prefixed(key), legacy)
		if !ok {
			continue
		}
		list, err := ParseList(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", legacy, err)
		}
		v.Set(key, list)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("environment", EnvDevelopment)

	// Source defaults
	v.SetDefault("fio.base_url", "https://fioapi.fio.cz/v1/rest")
	v.SetDefault("air.inbox_dir", "attachments")

	// Ledger defaults
	v.SetDefault("ledger.backend", "sheets")
	v.SetDefault("ledger.directory", "ledger")
	v.SetDefault("ledger.credentials_file", "service-account.json")

	// AI defaults
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model_dev", "gemini-1.5-flash")
	v.SetDefault("ai.model_prod", "gemini-1.5-pro")
	v.SetDefault("ai.max_attempts", 3)
	v.SetDefault("ai.backoff", "1s")
	v.SetDefault("ai.context_rows", 150)

	v.SetDefault("federation.whitelisted_accounts", []string{})
	v.SetDefault("federation.investment_keywords", []string{})

	v.SetDefault("report.output", "email-body.html")

	v.SetDefault("backup.enabled", false)
	v.SetDefault("backup.directory", "backups")
	v.SetDefault("backup.bucket", "")
	v.SetDefault("backup.prefix", "")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	// Validate log level
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	// Validate log format
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if err := ValidateEnvironment(config.Environment); err != nil {
		return err
	}

	if config.Ledger.Backend != "sheets" && config.Ledger.Backend != "csv" {
		return fmt.Errorf("invalid ledger.backend: %s (must be 'sheets' or 'csv')", config.Ledger.Backend)
	}

	if config.AI.Provider != "gemini" && config.AI.Provider != "genai" {
		return fmt.Errorf("invalid ai.provider: %s (must be 'gemini' or 'genai')", config.AI.Provider)
	}

	if config.AI.MaxAttempts < 1 || config.AI.MaxAttempts > 10 {
		return fmt.Errorf("ai.max_attempts must be between 1 and 10, got: %d", config.AI.MaxAttempts)
	}

	if config.AI.Backoff < 0 {
		return fmt.Errorf("ai.backoff must not be negative, got: %s", config.AI.Backoff)
	}

	if config.AI.ContextRows < 0 {
		return fmt.Errorf("ai.context_rows must be >= 0, got: %d", config.AI.ContextRows)
	}

	return nil
}

// ValidateEnvironment checks an environment name.
func ValidateEnvironment(env string) error {
	if env != EnvDevelopment && env != EnvProduction {
		return fmt.Errorf("invalid environment: %s (must be '%s' or '%s')", env, EnvDevelopment, EnvProduction)
	}
	return nil
}

// ParseList reads a JSON array of strings or a comma separated list.
// Blank entries are dropped.
func ParseList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	var items []string
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, err
		}
	} else {
		items = strings.Split(raw, ",")
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out, nil
}

func prefixed(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func lookupFirst(names ...string) (string, bool) {
	for _, name := range names {
		if value, ok := os.LookupEnv(name); ok {
			return value, true
		}
	}
	return "", false
}
