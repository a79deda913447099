package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig      `yaml:"server" validate:"required"`
	Station StationConfig     `yaml:"station"`
	Polling PollingConfig     `yaml:"polling"`
	Feeds   map[string]string `yaml:"feeds" validate:"required,min=1,dive,url"`
}

type ServerConfig struct {
	Port int `yaml:"port" validate:"min=1,max=65535"`
}

// StationConfig selects the station the board watches. An explicit ID wins;
// latitude/longitude are only consulted when ID is empty.
type StationConfig struct {
	ID        string  `yaml:"id"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

type PollingConfig struct {
	Interval     time.Duration `yaml:"interval"`
	MinGap       time.Duration `yaml:"min_gap"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	MaxBackoff   time.Duration `yaml:"max_backoff"`
	StaleAfter   time.Duration `yaml:"stale_after"`
	BlankAfter   time.Duration `yaml:"blank_after"`
	MaxArrivals  int           `yaml:"max_arrivals"`
	APIKey       string        `yaml:"api_key"`
}

// Load reads the YAML config, applies environment overrides (a .env file is
// honored when present) and fills defaults. A broken config is fatal to the
// caller; there is nothing sensible to display without one.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	v := validator.New()
	if err := v.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyEnv keeps compatibility with the env-file options the display has
// always understood: STATION_ID, LATITUDE, LONGITUDE, REFRESH_INTERVAL,
// MAX_ARRIVALS and MTA_API_KEY.
func (c *Config) applyEnv() {
	if v := os.Getenv("STATION_ID"); v != "" {
		c.Station.ID = v
	}
	if v := os.Getenv("LATITUDE"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			c.Station.Latitude = lat
		}
	}
	if v := os.Getenv("LONGITUDE"); v != "" {
		if lon, err := strconv.ParseFloat(v, 64); err == nil {
			c.Station.Longitude = lon
		}
	}
	if v := os.Getenv("REFRESH_INTERVAL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.Polling.Interval = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("MAX_ARRIVALS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Polling.MaxArrivals = n
		}
	}
	if v := os.Getenv("MTA_API_KEY"); v != "" {
		c.Polling.APIKey = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Polling.Interval == 0 {
		c.Polling.Interval = 30 * time.Second
	}
	if c.Polling.MinGap == 0 {
		c.Polling.MinGap = 2 * time.Second
	}
	if c.Polling.FetchTimeout == 0 {
		c.Polling.FetchTimeout = 10 * time.Second
	}
	if c.Polling.MaxBackoff == 0 {
		c.Polling.MaxBackoff = 5 * time.Minute
	}
	if c.Polling.StaleAfter == 0 {
		c.Polling.StaleAfter = 3 * time.Minute
	}
	if c.Polling.BlankAfter == 0 {
		c.Polling.BlankAfter = 5 * time.Minute
	}
	if c.Polling.MaxArrivals == 0 {
		c.Polling.MaxArrivals = 8
	}
}
