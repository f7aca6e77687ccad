package bot

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "partybot/core/config"
	coredatabase "partybot/core/database"
)

// ChannelsConfig names the community surfaces users are asked to join.
// References accept @usernames or numeric chat ids.
type ChannelsConfig struct {
	Channel  string `yaml:"channel" envconfig:"CHANNEL_USERNAME"`
	Channel2 string `yaml:"channel_2" envconfig:"CHANNEL_USERNAME_2"`
	Chat     string `yaml:"chat" envconfig:"CHAT_USERNAME"`
}

// BroadcastConfig schedules the weekly poster broadcast and the companion
// re-engagement job. Weekday follows time.Weekday (Sunday = 0).
type BroadcastConfig struct {
	Weekday       int    `yaml:"weekday" envconfig:"WEEKLY_DAY"`
	Hour          int    `yaml:"hour" envconfig:"WEEKLY_HOUR"`
	Minute        int    `yaml:"minute" envconfig:"WEEKLY_MINUTE"`
	Timezone      string `yaml:"timezone" envconfig:"BROADCAST_TZ"`
	MissThreshold int    `yaml:"miss_threshold" envconfig:"REENGAGE_MISS_THRESHOLD"`
	ReengageText  string `yaml:"reengage_text" envconfig:"REENGAGE_TEXT"`
}

// StorageConfig locates durable poster photo storage.
type StorageConfig struct {
	PostersDir string `yaml:"posters_dir" envconfig:"POSTERS_DIR"`
}

// APIConfig configures the read-only HTTP API.
type APIConfig struct {
	Listen string `yaml:"listen" envconfig:"API_LISTEN"`
}

// Config aggregates core bot settings with the application-specific ones.
type Config struct {
	Core      coreconfig.Config   `yaml:",inline"`
	Database  coredatabase.Config `yaml:"database"`
	Channels  ChannelsConfig      `yaml:"channels"`
	Broadcast BroadcastConfig     `yaml:"broadcast"`
	Storage   StorageConfig       `yaml:"storage"`
	API       APIConfig           `yaml:"api"`
}

// CoreConfig exposes the embedded core section for the shared runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Core
}

// Location resolves the broadcast time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Broadcast.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: load timezone %q: %w", c.Broadcast.Timezone, err)
	}
	return loc, nil
}

// LoadConfig reads configuration from a YAML file and environment variables.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	applyDefaults(&cfg)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	if err := normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	cfg.Broadcast = BroadcastConfig{
		Weekday:       int(time.Friday),
		Hour:          18,
		Minute:        0,
		Timezone:      "Europe/Moscow",
		MissThreshold: 3,
		ReengageText:  "We miss you! Check out the upcoming parties with /menu.",
	}
	cfg.Storage.PostersDir = "./posters"
	cfg.API.Listen = ":8080"
}

func normalize(cfg *Config) error {
	b := cfg.Broadcast
	if b.Weekday < 0 || b.Weekday > 6 {
		return fmt.Errorf("broadcast.weekday must be in [0,6], got %d", b.Weekday)
	}
	if b.Hour < 0 || b.Hour > 23 {
		return fmt.Errorf("broadcast.hour must be in [0,23], got %d", b.Hour)
	}
	if b.Minute < 0 || b.Minute > 59 {
		return fmt.Errorf("broadcast.minute must be in [0,59], got %d", b.Minute)
	}
	if _, err := cfg.Location(); err != nil {
		return err
	}
	if cfg.Storage.PostersDir == "" {
		return fmt.Errorf("storage.posters_dir is required")
	}
	return nil
}
