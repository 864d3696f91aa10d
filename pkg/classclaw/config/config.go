// Package config defines all configuration structures for the ClassClaw
// assistant and loads them from YAML with .env and environment-variable
// expansion.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jholhewres/classclaw/pkg/classclaw/channels/discord"
	"github.com/jholhewres/classclaw/pkg/classclaw/channels/telegram"
	"github.com/jholhewres/classclaw/pkg/classclaw/store"
)

// Config holds all assistant configuration.
type Config struct {
	// Name is the assistant name shown in replies (e.g. "ClassClaw").
	Name string `yaml:"name"`

	// Handle is the bot's platform handle without the @ (e.g. "classclaw_bot").
	Handle string `yaml:"handle"`

	// HandleSuffix is the handle suffix users often omit (default "_bot"):
	// "@classclaw" addresses a bot whose handle is "classclaw_bot".
	HandleSuffix string `yaml:"handle_suffix"`

	// Incantation is the invocation phrase stripped from addressed messages
	// (e.g. "save us").
	Incantation string `yaml:"incantation"`

	// RequireIncantation additionally requires the incantation phrase to be
	// present for a message to count as addressed. Off by default: a bare
	// mention is enough.
	RequireIncantation bool `yaml:"require_incantation"`

	// Model is the LLM model used for intent classification.
	Model string `yaml:"model"`

	// API configures the LLM provider endpoint.
	API APIConfig `yaml:"api"`

	// Timezone is the deployment's local timezone (e.g. "Europe/Berlin").
	// Empty means the process-local zone.
	Timezone string `yaml:"timezone"`

	// Store configures the record store.
	Store store.Config `yaml:"store"`

	// Digest configures digest windows and the daily broadcast.
	Digest DigestConfig `yaml:"digest"`

	// Channel selects the active transport: "telegram" or "discord".
	Channel string `yaml:"channel"`

	// Channels configures the individual transports.
	Channels ChannelsConfig `yaml:"channels"`

	// Logging configures the logger.
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures the LLM provider endpoint.
type APIConfig struct {
	// Provider overrides URL-based provider detection ("openai", "google").
	Provider string `yaml:"provider"`

	// BaseURL is the API base URL.
	BaseURL string `yaml:"base_url"`

	// APIKey is the API key. Prefer ${VAR} references, .env, or the OS
	// keyring over plaintext here.
	APIKey string `yaml:"api_key"`

	// TimeoutSeconds bounds each classification call.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// DigestConfig configures digest windows and the scheduled broadcast.
type DigestConfig struct {
	// AssignmentsWindowDays is the inclusive look-ahead for assignments in
	// the on-demand digest.
	AssignmentsWindowDays int `yaml:"assignments_window_days"`

	// EventsWindowDays is the inclusive look-ahead for events in the
	// on-demand digest. 0 excludes events from digests entirely.
	EventsWindowDays int `yaml:"events_window_days"`

	// ScheduleTime is the daily broadcast wall-clock time as "HH:MM".
	ScheduleTime string `yaml:"schedule_time"`

	// IncludeTomorrowDue also lists assignments due tomorrow in the daily
	// broadcast, marked distinctly from due-today ones.
	IncludeTomorrowDue bool `yaml:"include_tomorrow_due"`

	// BroadcastChatID is the fixed destination for the daily broadcast.
	BroadcastChatID string `yaml:"broadcast_chat_id"`
}

// ChannelsConfig configures the individual transports.
type ChannelsConfig struct {
	Telegram telegram.Config `yaml:"telegram"`
	Discord  discord.Config  `yaml:"discord"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `yaml:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:         "ClassClaw",
		Handle:       "classclaw_bot",
		HandleSuffix: "_bot",
		Incantation:  "save us",
		Model:        "gemini-2.0-flash",
		API: APIConfig{
			TimeoutSeconds: 30,
		},
		Store: store.Config{
			Path: "./data/classclaw.db",
		},
		Digest: DigestConfig{
			AssignmentsWindowDays: 7,
			EventsWindowDays:      14,
			ScheduleTime:          "06:00",
			IncludeTomorrowDue:    true,
		},
		Channel: "telegram",
		Channels: ChannelsConfig{
			Telegram: telegram.DefaultConfig(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks config invariants that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	if c.Handle == "" {
		return fmt.Errorf("handle is required")
	}
	switch c.Channel {
	case "telegram", "discord":
	default:
		return fmt.Errorf("unknown channel %q (want telegram or discord)", c.Channel)
	}
	if _, _, err := c.Digest.ScheduleHourMinute(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone, defaulting to time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ScheduleHourMinute parses the "HH:MM" broadcast time.
func (d DigestConfig) ScheduleHourMinute() (hour, minute int, err error) {
	parts := strings.SplitN(d.ScheduleTime, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid schedule_time %q (want HH:MM)", d.ScheduleTime)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid schedule_time hour %q", parts[0])
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid schedule_time minute %q", parts[1])
	}
	return hour, minute, nil
}
