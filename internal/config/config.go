// Package config loads service settings from YAML, a local .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Server holds HTTP listener settings.
type Server struct {
	Port        string `yaml:"port"`
	FrontendURL string `yaml:"frontend_url"`
}

type Database struct {
	URL string `yaml:"url"`
}

// Auth configures token signing.
type Auth struct {
	JWTSecret          string `yaml:"jwt_secret"`
	JWTExpirationHours int    `yaml:"jwt_expiration_hours"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MarketData selects and configures the quote provider.
type MarketData struct {
	Provider          string `yaml:"provider"`
	TwelveDataAPIKey  string `yaml:"twelve_data_api_key"`
	TwelveDataBaseURL string `yaml:"twelve_data_base_url"`
	BinanceBaseURL    string `yaml:"binance_base_url"`
	AlpacaAPIKey      string `yaml:"alpaca_api_key"`
	AlpacaAPISecret   string `yaml:"alpaca_api_secret"`
}

// Notifications configures push delivery of new signals.
type Notifications struct {
	FirebaseCredentialsPath string `yaml:"firebase_credentials_path"`
	CooldownSeconds         int    `yaml:"cooldown_seconds"`
}

// Config is the full service configuration.
type Config struct {
	Env           string        `yaml:"env"`
	Server        Server        `yaml:"server"`
	Database      Database      `yaml:"database"`
	Auth          Auth          `yaml:"auth"`
	Log           Log           `yaml:"log"`
	MarketData    MarketData    `yaml:"market_data"`
	Notifications Notifications `yaml:"notifications"`
}

const minSecretLength = 32

var providers = map[string]bool{"twelvedata": true, "binance": true, "alpaca": true}

func Default() *Config {
	return &Config{
		Env:    "development",
		Server: Server{Port: "8000", FrontendURL: "http://localhost:3000"},
		Auth:   Auth{JWTExpirationHours: 24},
		Log:    Log{Level: "info", Format: "json"},
		MarketData: MarketData{
			Provider:          "twelvedata",
			TwelveDataBaseURL: "https://api.twelvedata.com",
			BinanceBaseURL:    "https://api.binance.com",
		},
		Notifications: Notifications{CooldownSeconds: 300},
	}
}

// LoadDotEnv populates the environment from .env when one exists.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads path (optional) over the defaults and then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("APP_ENV", &c.Env)
	str("PORT", &c.Server.Port)
	str("FRONTEND_URL", &c.Server.FrontendURL)
	str("DATABASE_URL", &c.Database.URL)
	str("JWT_SECRET_KEY", &c.Auth.JWTSecret)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("MARKET_DATA_PROVIDER", &c.MarketData.Provider)
	str("TWELVE_DATA_API_KEY", &c.MarketData.TwelveDataAPIKey)
	str("ALPACA_API_KEY", &c.MarketData.AlpacaAPIKey)
	str("ALPACA_API_SECRET", &c.MarketData.AlpacaAPISecret)
	str("FIREBASE_CREDENTIALS_PATH", &c.Notifications.FirebaseCredentialsPath)

	if v, ok := lookup("JWT_EXPIRATION_HOURS"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("JWT_EXPIRATION_HOURS: %w", err)
		}
		c.Auth.JWTExpirationHours = n
	}
	return nil
}

// Validate reports the first setting that would stop the service from running correctly.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server port is required")
	}
	if len(c.Auth.JWTSecret) < minSecretLength {
		return fmt.Errorf("jwt secret must be at least %d characters", minSecretLength)
	}
	if c.Auth.JWTExpirationHours <= 0 {
		return errors.New("jwt expiration must be positive")
	}
	if !providers[c.MarketData.Provider] {
		return fmt.Errorf("unknown market data provider %q", c.MarketData.Provider)
	}
	if c.MarketData.Provider == "alpaca" && (c.MarketData.AlpacaAPIKey == "" || c.MarketData.AlpacaAPISecret == "") {
		return errors.New("alpaca provider requires api key and secret")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
