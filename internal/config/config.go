package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Log        LogConfig        `mapstructure:"log"`
	Gmail      GmailConfig      `mapstructure:"gmail"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Scan       ScanConfig       `mapstructure:"scan"`
	Resumes    ResumesConfig    `mapstructure:"resumes"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// ResumesConfig holds where resume files live. Resume paths outside Dir are rejected.
type ResumesConfig struct {
	Dir string `mapstructure:"dir"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type GmailConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	TokenFile       string        `mapstructure:"token_file"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	Query           string        `mapstructure:"query"`
	MaxResults      int64         `mapstructure:"max_results"`
}

type LLMConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type ClassifierConfig struct {
	// Kind is "keyword" or "llm".
	Kind string `mapstructure:"kind"`
}

type NotifyConfig struct {
	ResponseAlerts bool   `mapstructure:"response_alerts"`
	Channel        string `mapstructure:"channel"`
	WebhookURL     string `mapstructure:"webhook_url"`
}

type ScanConfig struct {
	Enabled     bool              `mapstructure:"enabled"`
	Interval    time.Duration     `mapstructure:"interval"`
	Sources     []SourceConfig    `mapstructure:"sources"`
	Preferences SearchPreferences `mapstructure:"preferences"`
}

type SourceConfig struct {
	Name string `mapstructure:"name"`
	File string `mapstructure:"file"`
}

// SearchPreferences filters scanned listings before they are stored.
type SearchPreferences struct {
	Keywords        []string `mapstructure:"keywords"`
	ExcludeKeywords []string `mapstructure:"exclude_keywords"`
	Locations       []string `mapstructure:"locations"`
	MinSalary       int      `mapstructure:"min_salary"`
}

// Load reads .env, then defaults, an optional config file and JOBTRACKER_* env vars.
func Load(configFile string) (Config, error) {
	// .env is optional; real env vars win over it.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("JOBTRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	switch strings.ToLower(c.Database.Driver) {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Gmail.Enabled && c.Gmail.PollInterval <= 0 {
		return errors.New("gmail.poll_interval must be positive")
	}
	if c.Scan.Enabled && c.Scan.Interval <= 0 {
		return errors.New("scan.interval must be positive")
	}
	if c.Resumes.Dir == "" {
		return errors.New("resumes.dir is required")
	}
	switch c.Classifier.Kind {
	case "keyword", "llm":
	default:
		return fmt.Errorf("unsupported classifier kind %q", c.Classifier.Kind)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "jobtracker.sqlite")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("gmail.enabled", false)
	v.SetDefault("gmail.credentials_file", "credential.json")
	v.SetDefault("gmail.token_file", "token.json")
	v.SetDefault("gmail.poll_interval", time.Minute)
	v.SetDefault("gmail.query", "subject:(application OR interview OR update OR offer OR rejected OR status) newer_than:7d")
	v.SetDefault("gmail.max_results", 50)
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("classifier.kind", "keyword")
	v.SetDefault("notify.response_alerts", false)
	v.SetDefault("notify.channel", "")
	v.SetDefault("notify.webhook_url", "")
	v.SetDefault("scan.enabled", false)
	v.SetDefault("scan.interval", 6*time.Hour)
	v.SetDefault("resumes.dir", "resumes")
}
