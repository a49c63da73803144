package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrInvalidConfig marks configuration problems that must stop the process at startup.
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds the runtime configuration of the bot.
type Config struct {
	BotToken    string  `env:"TELEGRAM_BOT_TOKEN,required,notEmpty"`
	BotDebug    bool    `env:"TELEGRAM_DEBUG" envDefault:"false"`
	PollTimeout int     `env:"TELEGRAM_POLL_TIMEOUT" envDefault:"30"`
	AdminIDs    []int64 `env:"ADMIN_CHAT_IDS" envSeparator:","`

	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"csv"`
	CSVPath        string `env:"APPLICATIONS_CSV_PATH" envDefault:"scholarship_applications.csv"`
	SQLiteDSN      string `env:"SQLITE_DSN" envDefault:"scholarship.db"`

	HTTPAddr  string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	Workers   int    `env:"WORKERS" envDefault:"8"`

	MacroCRM MacroCRM `envPrefix:"MACROCRM_"`
}

type MacroCRM struct {
	Domain    string `env:"DOMAIN"`
	AppSecret string `env:"APP_SECRET"`
	BaseURL   string `env:"BASE_URL"`
	Action    string `env:"ACTION"`
}

func (m MacroCRM) Enabled() bool {
	return strings.TrimSpace(m.Domain) != "" && strings.TrimSpace(m.AppSecret) != ""
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("%w: load .env: %w", ErrInvalidConfig, err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, cfg.validate()
}

// Parse builds a Config from an explicit environment, ignoring the process one.
func Parse(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	c.BotToken = strings.TrimSpace(c.BotToken)
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))

	var problems []string
	if c.BotToken == "" {
		problems = append(problems, "TELEGRAM_BOT_TOKEN is blank")
	}
	switch c.StorageBackend {
	case BackendCSV, BackendSQLite, BackendMemory:
	default:
		problems = append(problems, fmt.Sprintf("STORAGE_BACKEND %q is not one of csv, sqlite, memory", c.StorageBackend))
	}
	if c.Workers <= 0 {
		problems = append(problems, "WORKERS must be positive")
	}
	if c.PollTimeout < 0 {
		problems = append(problems, "TELEGRAM_POLL_TIMEOUT must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
