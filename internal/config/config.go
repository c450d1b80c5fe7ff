// Package config loads bot settings from the environment, reading a .env file
// first when one is present.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	TransportSlack   = "slack"
	TransportDiscord = "discord"
	TransportConsole = "console"
)

// ErrMissingToken is returned when the selected transport has no token.
var ErrMissingToken = errors.New("missing token")

type Config struct {
	Env       string `env:"ENV" envDefault:"development"`
	BotName   string `env:"BOT_NAME" envDefault:"headroom"`
	Transport string `env:"TRANSPORT" envDefault:"slack"`

	SlackBotToken string `env:"SLACK_API_TOKEN"`
	SlackAppToken string `env:"SLACK_APP_TOKEN"`
	DiscordToken  string `env:"DISCORD_TOKEN"`

	StoragePath  string        `env:"STORAGE_PATH" envDefault:"datastore.json"`
	HistoryLimit int           `env:"HISTORY_LIMIT" envDefault:"20"`
	Cooldown     time.Duration `env:"COMMAND_COOLDOWN" envDefault:"2s"`
	PostRate     float64       `env:"POST_RATE" envDefault:"1"`
	PostBurst    int           `env:"POST_BURST" envDefault:"3"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile   string `env:"LOG_FILE"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"true"`
}

// Load reads .env (if any) and the process environment.
func Load() (*Config, error) {
	return load("")
}

// LoadFor is Load with the transport forced, whatever TRANSPORT says.
func LoadFor(transport string) (*Config, error) {
	return load(transport)
}

func load(transport string) (*Config, error) {
	loadedEnv := godotenv.Load() == nil

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if transport != "" {
		cfg.Transport = transport
	}
	if err := cfg.Validate(); err != nil {
		if !loadedEnv {
			return nil, fmt.Errorf("%w (no .env file found, using system environment only)", err)
		}
		return nil, err
	}
	return &cfg, nil
}

// FromMap parses a config from an explicit environment, ignoring the process one.
func FromMap(environ map[string]string) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Environment: environ})
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected transport has what it needs.
func (c *Config) Validate() error {
	c.Transport = strings.ToLower(strings.TrimSpace(c.Transport))

	switch c.Transport {
	case TransportSlack:
		if c.SlackBotToken == "" {
			return fmt.Errorf("SLACK_API_TOKEN: %w", ErrMissingToken)
		}
		if c.SlackAppToken == "" {
			return fmt.Errorf("SLACK_APP_TOKEN: %w", ErrMissingToken)
		}
		if !strings.HasPrefix(c.SlackAppToken, "xapp-") {
			return errors.New("SLACK_APP_TOKEN must have the prefix \"xapp-\"")
		}
	case TransportDiscord:
		if c.DiscordToken == "" {
			return fmt.Errorf("DISCORD_TOKEN: %w", ErrMissingToken)
		}
	case TransportConsole:
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}

	if c.HistoryLimit < 1 {
		return fmt.Errorf("HISTORY_LIMIT must be positive, got %d", c.HistoryLimit)
	}
	if c.PostRate <= 0 || c.PostBurst < 1 {
		return fmt.Errorf("POST_RATE and POST_BURST must be positive")
	}
	return nil
}

// IsProduction reports whether ENV names a production deployment.
func (c *Config) IsProduction() bool { return c.Env == "production" || c.Env == "prod" }
