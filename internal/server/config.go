package server

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/holdem/internal/bot"
	"github.com/lox/holdem/internal/game"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server ServerSettings `hcl:"server,block"`
	Rooms  []RoomConfig   `hcl:"room,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`

	// Rooms with no humans and no activity for IdleTimeout are closed. The
	// check runs every CleanupInterval.
	IdleTimeout     string `hcl:"idle_timeout,optional"`
	CleanupInterval string `hcl:"cleanup_interval,optional"`
	StatsInterval   string `hcl:"stats_interval,optional"`
}

// RoomConfig defines a room's table rules. Rooms not listed in the file are
// created on demand with the "default" room's settings, or the built-in
// defaults when there is none.
type RoomConfig struct {
	Name          string   `hcl:"name,label"`
	SmallBlind    int      `hcl:"small_blind,optional"`
	BigBlind      int      `hcl:"big_blind,optional"`
	BetIncrement  int      `hcl:"bet_increment,optional"`
	StartingStack int      `hcl:"starting_stack,optional"`
	BotStack      int      `hcl:"bot_stack,optional"`
	MaxSeats      int      `hcl:"max_seats,optional"`
	TurnTimeout   string   `hcl:"turn_timeout,optional"`
	BotThinkMin   string   `hcl:"bot_think_min,optional"`
	BotThinkMax   string   `hcl:"bot_think_max,optional"`
	HandInterval  string   `hcl:"hand_interval,optional"`
	AutoStart     *bool    `hcl:"auto_start,optional"`
	Bots          int      `hcl:"bots,optional"`
	BotStyles     []string `hcl:"bot_styles,optional"`
}

const defaultRoom = "default"

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	cfg := &ServerConfig{
		Server: ServerSettings{
			Address:         "localhost",
			Port:            8080,
			LogLevel:        "info",
			IdleTimeout:     "30m",
			CleanupInterval: "5m",
			StatsInterval:   "1h",
		},
		Rooms: []RoomConfig{{Name: defaultRoom}},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadServerConfig loads server configuration from an HCL file. A missing
// file yields the defaults.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *ServerConfig) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.IdleTimeout == "" {
		c.Server.IdleTimeout = "30m"
	}
	if c.Server.CleanupInterval == "" {
		c.Server.CleanupInterval = "5m"
	}
	if c.Server.StatsInterval == "" {
		c.Server.StatsInterval = "1h"
	}

	def := game.DefaultConfig()
	for i := range c.Rooms {
		r := &c.Rooms[i]
		if r.SmallBlind == 0 {
			r.SmallBlind = def.SmallBlind
		}
		if r.BigBlind == 0 {
			r.BigBlind = r.SmallBlind * 2
		}
		if r.BetIncrement == 0 {
			r.BetIncrement = r.SmallBlind
		}
		if r.StartingStack == 0 {
			r.StartingStack = r.BigBlind * 50 // 50 big blinds
		}
		if r.BotStack == 0 {
			r.BotStack = r.StartingStack * 2
		}
		if r.MaxSeats == 0 {
			r.MaxSeats = def.MaxSeats
		}
		if r.TurnTimeout == "" {
			r.TurnTimeout = def.TurnTimeout.String()
		}
		if r.BotThinkMin == "" {
			r.BotThinkMin = def.BotThinkMin.String()
		}
		if r.BotThinkMax == "" {
			r.BotThinkMax = def.BotThinkMax.String()
		}
		if r.HandInterval == "" {
			r.HandInterval = def.HandInterval.String()
		}
		if r.AutoStart == nil {
			auto := def.AutoStart
			r.AutoStart = &auto
		}
	}
}

// Validate returns the first problem found in the configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Server.LogLevel, err)
	}
	for name, v := range map[string]string{
		"idle_timeout":     c.Server.IdleTimeout,
		"cleanup_interval": c.Server.CleanupInterval,
		"stats_interval":   c.Server.StatsInterval,
	} {
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			return fmt.Errorf("server: %s must be a positive duration, got %q", name, v)
		}
	}

	seen := make(map[string]bool)
	for _, room := range c.Rooms {
		if seen[room.Name] {
			return fmt.Errorf("room %s: defined twice", room.Name)
		}
		seen[room.Name] = true
		cfg, err := room.GameConfig()
		if err != nil {
			return err
		}
		if room.Bots < 0 || room.Bots >= cfg.MaxSeats {
			return fmt.Errorf("room %s: bots must be between 0 and %d", room.Name, cfg.MaxSeats-1)
		}
		for _, style := range room.BotStyles {
			if _, err := bot.ParseArchetype(style); err != nil {
				return fmt.Errorf("room %s: %w", room.Name, err)
			}
		}
	}
	return nil
}

// GameConfig converts the room settings into table rules.
func (r RoomConfig) GameConfig() (game.Config, error) {
	cfg := game.Config{
		SmallBlind:    r.SmallBlind,
		BigBlind:      r.BigBlind,
		BetIncrement:  r.BetIncrement,
		StartingStack: r.StartingStack,
		BotStack:      r.BotStack,
		MaxSeats:      r.MaxSeats,
		AutoStart:     r.AutoStart == nil || *r.AutoStart,
	}
	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"turn_timeout", r.TurnTimeout, &cfg.TurnTimeout},
		{"bot_think_min", r.BotThinkMin, &cfg.BotThinkMin},
		{"bot_think_max", r.BotThinkMax, &cfg.BotThinkMax},
		{"hand_interval", r.HandInterval, &cfg.HandInterval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return game.Config{}, fmt.Errorf("room %s: %s: %w", r.Name, d.name, err)
		}
		*d.dst = v
	}
	if err := cfg.Validate(); err != nil {
		return game.Config{}, fmt.Errorf("room %s: %w", r.Name, err)
	}
	return cfg, nil
}

// Styles returns the archetypes for the room's configured bots. Bots beyond
// the listed styles get a random personality.
func (r RoomConfig) Styles() []bot.Archetype {
	var out []bot.Archetype
	for i := range r.Bots {
		style := bot.Balanced
		if i < len(r.BotStyles) {
			style, _ = bot.ParseArchetype(r.BotStyles[i])
		}
		out = append(out, style)
	}
	return out
}

// ServerAddress returns the full listen address
func (c *ServerConfig) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// Room returns the configuration for a room name. Unknown names get the
// "default" room's settings.
func (c *ServerConfig) Room(name string) RoomConfig {
	var fallback *RoomConfig
	for i, room := range c.Rooms {
		if room.Name == name {
			return room
		}
		if room.Name == defaultRoom {
			fallback = &c.Rooms[i]
		}
	}
	if fallback != nil {
		r := *fallback
		r.Name = name
		return r
	}
	r := RoomConfig{Name: name}
	tmp := ServerConfig{Rooms: []RoomConfig{r}}
	tmp.applyDefaults()
	return tmp.Rooms[0]
}

// duration parses a server-level interval that Validate has already checked.
func duration(v string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
