package game

import (
	"fmt"
	"time"
)

// Config holds the table rules. It is passed by value into every hand and bot
// engine and never modified after construction.
type Config struct {
	SmallBlind    int
	BigBlind      int
	BetIncrement  int // raise sizes are rounded to multiples of this
	StartingStack int
	BotStack      int
	MaxSeats      int

	TurnTimeout  time.Duration
	BotThinkMin  time.Duration
	BotThinkMax  time.Duration
	HandInterval time.Duration
	AutoStart    bool
}

// DefaultConfig returns the standard table: 10/20 blinds, 1000 chip stacks,
// six seats and a thirty second turn clock.
func DefaultConfig() Config {
	return Config{
		SmallBlind:    10,
		BigBlind:      20,
		BetIncrement:  10,
		StartingStack: 1000,
		BotStack:      2000,
		MaxSeats:      6,
		TurnTimeout:   30 * time.Second,
		BotThinkMin:   time.Second,
		BotThinkMax:   3 * time.Second,
		HandInterval:  5 * time.Second,
		AutoStart:     true,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.SmallBlind <= 0:
		return fmt.Errorf("small blind must be positive, got %d", c.SmallBlind)
	case c.BigBlind <= c.SmallBlind:
		return fmt.Errorf("big blind (%d) must be greater than small blind (%d)", c.BigBlind, c.SmallBlind)
	case c.BetIncrement <= 0:
		return fmt.Errorf("bet increment must be positive, got %d", c.BetIncrement)
	case c.StartingStack < c.BigBlind:
		return fmt.Errorf("starting stack (%d) must cover the big blind (%d)", c.StartingStack, c.BigBlind)
	case c.BotStack < c.BigBlind:
		return fmt.Errorf("bot stack (%d) must cover the big blind (%d)", c.BotStack, c.BigBlind)
	case c.MaxSeats < 2 || c.MaxSeats > 10:
		return fmt.Errorf("max seats must be between 2 and 10, got %d", c.MaxSeats)
	case c.TurnTimeout <= 0:
		return fmt.Errorf("turn timeout must be positive, got %s", c.TurnTimeout)
	case c.BotThinkMin < 0 || c.BotThinkMax < c.BotThinkMin:
		return fmt.Errorf("bot think range %s..%s is invalid", c.BotThinkMin, c.BotThinkMax)
	case c.HandInterval < 0:
		return fmt.Errorf("hand interval must not be negative, got %s", c.HandInterval)
	}
	return nil
}
