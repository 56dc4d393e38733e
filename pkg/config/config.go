package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"

	"github.com/snippymart/whatsapp-bot/pkg/hours"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	InstanceID  string `env:"INSTANCE_ID"`
	VerifyToken string `env:"VERIFY_TOKEN,required"`

	AdminPhones   []string `env:"ADMIN_PHONES,required" envSeparator:","`
	CommandPrefix string   `env:"COMMAND_PREFIX" envDefault:"/"`

	OutboundURL   string `env:"OUTBOUND_URL,required"`
	OutboundToken string `env:"OUTBOUND_TOKEN"`
	CatalogURL    string `env:"CATALOG_URL,required"`
	GenerateURL   string `env:"GENERATE_URL,required"`
	RedisURL      string `env:"REDIS_URL"`

	DedupTTLSeconds       int    `env:"DEDUP_TTL_SECONDS" envDefault:"60"`
	DedupSweepSeconds     int    `env:"DEDUP_SWEEP_SECONDS" envDefault:"300"`
	SessionTTLMinutes     int    `env:"SESSION_TTL_MINUTES" envDefault:"720"`
	TranscriptTTLMinutes  int    `env:"TRANSCRIPT_TTL_MINUTES" envDefault:"30"`
	HandoffTTLMinutes     int    `env:"HANDOFF_TTL_MINUTES" envDefault:"120"`
	TranscriptMaxTurns    int    `env:"TRANSCRIPT_MAX_TURNS" envDefault:"8"`
	HoursWindows          string `env:"HOURS_WINDOWS" envDefault:"09:00-13:00,15:00-19:00"`
	HoursPollSeconds      int    `env:"HOURS_POLL_SECONDS" envDefault:"60"`
	CatalogRefreshMinutes int    `env:"CATALOG_REFRESH_MINUTES" envDefault:"15"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = generateInstanceID()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type requiredField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredField {
	return []requiredField{
		{name: "VERIFY_TOKEN", value: c.VerifyToken},
		{name: "OUTBOUND_URL", value: c.OutboundURL},
		{name: "CATALOG_URL", value: c.CatalogURL},
		{name: "GENERATE_URL", value: c.GenerateURL},
	}
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if len(c.AdminPhones) == 0 {
		return fmt.Errorf("ADMIN_PHONES must list at least one admin")
	}
	if c.CommandPrefix == "" {
		return fmt.Errorf("COMMAND_PREFIX must not be empty")
	}
	for _, v := range []struct {
		name  string
		value int
	}{
		{"DEDUP_TTL_SECONDS", c.DedupTTLSeconds},
		{"DEDUP_SWEEP_SECONDS", c.DedupSweepSeconds},
		{"SESSION_TTL_MINUTES", c.SessionTTLMinutes},
		{"TRANSCRIPT_TTL_MINUTES", c.TranscriptTTLMinutes},
		{"HANDOFF_TTL_MINUTES", c.HandoffTTLMinutes},
		{"TRANSCRIPT_MAX_TURNS", c.TranscriptMaxTurns},
		{"HOURS_POLL_SECONDS", c.HoursPollSeconds},
		{"CATALOG_REFRESH_MINUTES", c.CatalogRefreshMinutes},
	} {
		if v.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", v.name, v.value)
		}
	}
	if c.DedupSweepSeconds < c.DedupTTLSeconds {
		return fmt.Errorf("DEDUP_SWEEP_SECONDS must not be shorter than DEDUP_TTL_SECONDS")
	}
	if _, err := hours.ParseWindows(c.HoursWindows); err != nil {
		return fmt.Errorf("HOURS_WINDOWS is invalid: %w", err)
	}
	return nil
}

// IsAdmin reports whether senderID is a configured admin phone.
func (c *Config) IsAdmin(senderID string) bool {
	for _, p := range c.AdminPhones {
		if p == senderID {
			return true
		}
	}
	return false
}

func (c *Config) DedupTTL() time.Duration {
	return time.Duration(c.DedupTTLSeconds) * time.Second
}

func (c *Config) DedupSweepInterval() time.Duration {
	return time.Duration(c.DedupSweepSeconds) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c *Config) TranscriptTTL() time.Duration {
	return time.Duration(c.TranscriptTTLMinutes) * time.Minute
}

func (c *Config) HandoffTTL() time.Duration {
	return time.Duration(c.HandoffTTLMinutes) * time.Minute
}

func (c *Config) HoursPollInterval() time.Duration {
	return time.Duration(c.HoursPollSeconds) * time.Second
}

func (c *Config) CatalogRefresh() time.Duration {
	return time.Duration(c.CatalogRefreshMinutes) * time.Minute
}

func generateInstanceID() string {
	hostname, err := os.Hostname()
	if err != nil {
		return uuid.New().String()
	}
	return hostname + "-" + uuid.New().String()[:8]
}
