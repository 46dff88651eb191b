package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone        = "UTC"
	defaultCredentialsPath = "credentials.json"

	configPathEnv      = "WALLABAG_ENHANCER_CONFIG"
	credentialsPathEnv = "WALLABAG_CREDENTIALS_FILE"
	clientSecretEnv    = "CLIENT_SECRET"
	clientIDEnv        = "CLIENT_ID"
	usernameEnv        = "USERNAME"
	passwordEnv        = "PASSWORD"
	hostEnv            = "WALLABAG_HOST"
	logLevelEnv        = "LOG_LEVEL"
	workersEnv         = "WORKERS"
	telegramTokenEnv   = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv  = "TELEGRAM_CHAT_ID"

	// unsetRetries marks a maxRetries key absent from the settings file, so
	// an explicit 0 can switch retries off.
	unsetRetries = -1
)

// Config holds high-level settings required across the application.
type Config struct {
	Credentials   Credentials        `yaml:"-"`
	Wallabag      WallabagConfig     `yaml:"wallabag"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Fetch         FetchConfig        `yaml:"fetch"`
	Enhancers     []string           `yaml:"enhancers"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// Credentials are the five values needed to obtain a wallabag token.
type Credentials struct {
	ClientSecret string `yaml:"client_secret"`
	ClientID     string `yaml:"client_id"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Host         string `yaml:"host"`
}

// WallabagConfig tunes calls to the wallabag API.
type WallabagConfig struct {
	PerPage        int           `yaml:"perPage"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	MaxRetries     int           `yaml:"maxRetries"`
	BackoffInitial time.Duration `yaml:"backoffInitial"`
	BackoffMax     time.Duration `yaml:"backoffMax"`
}

// PipelineConfig bounds per-article concurrency.
type PipelineConfig struct {
	Workers        int           `yaml:"workers"`
	RateLimitRPS   float64       `yaml:"rateLimitRps"`
	ArticleTimeout time.Duration `yaml:"articleTimeout"`
}

// FetchConfig describes the client enhancers use for auxiliary pages.
type FetchConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	UserAgent      string        `yaml:"userAgent"`
	MaxRetries     int           `yaml:"maxRetries"`
	BackoffInitial time.Duration `yaml:"backoffInitial"`
	BackoffMax     time.Duration `yaml:"backoffMax"`
	// MaxContentLength caps text extracted by the readability enhancer.
	MaxContentLength int `yaml:"maxContentLength"`
}

// SchedulerConfig defines when scheduled runs happen.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Enabled reports whether both token and chat are set.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// LoggingConfig selects log level and output format (text|json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the optional YAML settings file, then credentials, then applies
// environment overrides. The settings path may be given explicitly; otherwise
// it comes from the environment.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		var fileCfg Config
		fileCfg.Wallabag.MaxRetries = unsetRetries
		fileCfg.Fetch.MaxRetries = unsetRetries
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	creds, err := loadCredentials()
	if err != nil {
		return Config{}, err
	}
	cfg.Credentials = creds

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg, nil
}

// loadCredentials prefers the credentials file when it exists and falls back
// to the process environment otherwise. The file is JSON, which yaml.v3 reads
// as a YAML subset.
func loadCredentials() (Credentials, error) {
	path := os.Getenv(credentialsPathEnv)
	if path == "" {
		path = defaultCredentialsPath
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		var creds Credentials
		if err := yaml.Unmarshal(raw, &creds); err != nil {
			return Credentials{}, fmt.Errorf("parse credentials %s: %w", path, err)
		}
		return creds, nil
	case errors.Is(err, fs.ErrNotExist):
		return Credentials{
			ClientSecret: os.Getenv(clientSecretEnv),
			ClientID:     os.Getenv(clientIDEnv),
			Username:     os.Getenv(usernameEnv),
			Password:     os.Getenv(passwordEnv),
			Host:         os.Getenv(hostEnv),
		}, nil
	default:
		return Credentials{}, fmt.Errorf("read credentials %s: %w", path, err)
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(workersEnv); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			c.Pipeline.Workers = n
		} else {
			log.Printf("config: ignoring invalid %s=%q", workersEnv, v)
		}
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Wallabag.PerPage > 0 {
		base.Wallabag.PerPage = override.Wallabag.PerPage
	}
	if override.Wallabag.RequestTimeout > 0 {
		base.Wallabag.RequestTimeout = override.Wallabag.RequestTimeout
	}
	if override.Wallabag.MaxRetries >= 0 {
		base.Wallabag.MaxRetries = override.Wallabag.MaxRetries
	}
	if override.Wallabag.BackoffInitial > 0 {
		base.Wallabag.BackoffInitial = override.Wallabag.BackoffInitial
	}
	if override.Wallabag.BackoffMax > 0 {
		base.Wallabag.BackoffMax = override.Wallabag.BackoffMax
	}

	if override.Pipeline.Workers > 0 {
		base.Pipeline.Workers = override.Pipeline.Workers
	}
	if override.Pipeline.RateLimitRPS > 0 {
		base.Pipeline.RateLimitRPS = override.Pipeline.RateLimitRPS
	}
	if override.Pipeline.ArticleTimeout > 0 {
		base.Pipeline.ArticleTimeout = override.Pipeline.ArticleTimeout
	}

	if override.Fetch.Timeout > 0 {
		base.Fetch.Timeout = override.Fetch.Timeout
	}
	if override.Fetch.UserAgent != "" {
		base.Fetch.UserAgent = override.Fetch.UserAgent
	}
	if override.Fetch.MaxRetries >= 0 {
		base.Fetch.MaxRetries = override.Fetch.MaxRetries
	}
	if override.Fetch.BackoffInitial > 0 {
		base.Fetch.BackoffInitial = override.Fetch.BackoffInitial
	}
	if override.Fetch.BackoffMax > 0 {
		base.Fetch.BackoffMax = override.Fetch.BackoffMax
	}
	if override.Fetch.MaxContentLength > 0 {
		base.Fetch.MaxContentLength = override.Fetch.MaxContentLength
	}

	if len(override.Enhancers) > 0 {
		base.Enhancers = override.Enhancers
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Wallabag: WallabagConfig{
			PerPage:        3000,
			RequestTimeout: 60 * time.Second,
			MaxRetries:     2,
			BackoffInitial: 500 * time.Millisecond,
			BackoffMax:     5 * time.Second,
		},
		Pipeline: PipelineConfig{
			Workers:        4,
			ArticleTimeout: 2 * time.Minute,
		},
		Fetch: FetchConfig{
			Timeout:          20 * time.Second,
			UserAgent:        "WallabagEnhancer/1.0",
			MaxRetries:       1,
			BackoffInitial:   500 * time.Millisecond,
			BackoffMax:       5 * time.Second,
			MaxContentLength: 20000,
		},
		Enhancers: []string{"youtube"},
		Scheduler: SchedulerConfig{CronExpression: "0 * * * *", Timezone: defaultTimezone, location: tz},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
	}
}
