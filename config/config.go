package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all service settings, loaded from the environment (optionally
// seeded from a .env file). BOT_TOKEN is the only required value.
type Config struct {
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`
	AdminID  int64  `envconfig:"ADMIN_ID" default:"0"` // 0 disables inactivity alerts

	DatabasePath string `envconfig:"DATABASE_PATH" default:"./data/valen.db"`
	TimezoneName string `envconfig:"TIMEZONE" default:"Africa/Cairo"`

	MorningTime             string `envconfig:"MORNING_TIME" default:"10:00"`
	EveningTime             string `envconfig:"EVENING_TIME" default:"22:00"`
	InactivityCheckTime     string `envconfig:"INACTIVITY_CHECK_TIME" default:"09:00"`
	InactivityThresholdDays int    `envconfig:"INACTIVITY_THRESHOLD_DAYS" default:"3"`

	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	ServerPort string `envconfig:"SERVER_PORT" default:"8080"`

	// Optional CalDAV mirror of reminder schedules. Disabled when empty.
	CalDAVURL      string `envconfig:"CALDAV_URL" default:""`
	CalDAVUsername string `envconfig:"CALDAV_USERNAME" default:""`
	CalDAVPassword string `envconfig:"CALDAV_PASSWORD" default:""`
	CalDAVCalendar string `envconfig:"CALDAV_CALENDAR" default:""`

	Timezone *time.Location `ignored:"true"`
}

func Load() (*Config, error) {
	// A missing .env is fine; real environment variables always win.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	tz, err := time.LoadLocation(cfg.TimezoneName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Timezone = tz

	clocks := map[string]string{
		"MORNING_TIME":          cfg.MorningTime,
		"EVENING_TIME":          cfg.EveningTime,
		"INACTIVITY_CHECK_TIME": cfg.InactivityCheckTime,
	}
	for name, value := range clocks {
		if _, err := time.Parse("15:04", value); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if cfg.InactivityThresholdDays < 1 {
		return nil, fmt.Errorf("INACTIVITY_THRESHOLD_DAYS must be at least 1")
	}

	return &cfg, nil
}

// AdminConfigured reports whether inactivity alerts have a recipient.
func (c *Config) AdminConfigured() bool {
	return c.AdminID != 0
}
