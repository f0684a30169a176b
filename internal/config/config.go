package config

import (
	"ctchen222/tateti/internal/bot"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultJWTSecret = "my_super_secret_key"

type Config struct {
	HTTPAddr  string        `yaml:"http-addr" env:"HTTP_ADDR" env-default:":8080"`
	LogLevel  string        `yaml:"log-level" env:"LOG_LEVEL" env-default:"debug"`
	Redis     Redis         `yaml:"redis"`
	SQLite    SQLite        `yaml:"sqlite"`
	JWTSecret string        `yaml:"jwt-secret" env:"JWT_SECRET" env-default:"my_super_secret_key"`
	Otel      Otel          `yaml:"otel"`
	Bot       Bot           `yaml:"bot"`
	Session   SessionConfig `yaml:"session"`
}

type Redis struct {
	ConnString string `yaml:"conn-string" env:"REDIS_CONNSTRING" env-default:"localhost:6379"`
}

type SQLite struct {
	Path string `yaml:"path" env:"SQLITE_PATH" env-default:"./tateti.db"`
}

type Otel struct {
	Endpoint string `yaml:"endpoint" env:"OTEL_ENDPOINT" env-default:"otel-collector:4317"`
	Enabled  bool   `yaml:"enabled" env:"OTEL_ENABLED" env-default:"true"`
	Stdout   bool   `yaml:"stdout" env:"OTEL_STDOUT" env-default:"false"`
}

type Bot struct {
	Delay      time.Duration `yaml:"delay" env:"BOT_DELAY" env-default:"1s"`
	Difficulty string        `yaml:"difficulty" env:"BOT_DIFFICULTY" env-default:"hard"`
}

type SessionConfig struct {
	TTL time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"24h"`
}

// Load reads the YAML file at path, if it exists, and overlays environment
// variables. An empty path reads the environment only.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	if path != "" && fileExists(path) {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is Load that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Difficulty is the bot difficulty new sessions start with.
func (c *Config) Difficulty() bot.Difficulty {
	return bot.ParseDifficulty(c.Bot.Difficulty)
}

// DefaultSecret reports whether the JWT secret was left at its built-in value.
func (c *Config) DefaultSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

func (c *Config) validate() error {
	var errs []error
	if c.Bot.Delay < 0 {
		errs = append(errs, fmt.Errorf("bot delay must not be negative, got %s", c.Bot.Delay))
	}
	if c.Session.TTL < 0 {
		errs = append(errs, fmt.Errorf("session ttl must not be negative, got %s", c.Session.TTL))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret must not be empty"))
	}
	return errors.Join(errs...)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
