package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/joho/godotenv"
	"github.com/lox/holdem/internal/server"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Config   string           `short:"c" default:"holdem-server.hcl" env:"HOLDEM_CONFIG" help:"Path to HCL configuration file"`
	Addr     string           `short:"a" env:"HOLDEM_ADDR" help:"Address to bind to (overrides config)"`
	Port     int              `short:"p" env:"HOLDEM_PORT" help:"Port to listen on (overrides config)"`
	LogLevel string           `short:"l" env:"HOLDEM_LOG_LEVEL" help:"Log level (overrides config)"`
}

func (c *CLI) Run() error {
	cfg, err := server.LoadServerConfig(c.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	level, _ := log.ParseLevel(cfg.Server.LogLevel)
	logger.SetLevel(level)

	rooms := make([]string, len(cfg.Rooms))
	for i, r := range cfg.Rooms {
		rooms[i] = r.Name
	}
	logger.Info("Starting holdem server", "addr", cfg.ServerAddress(), "version", version, "rooms", rooms)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.NewServer(cfg, quartz.NewReal(), logger).Run(ctx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

func main() {
	// A missing .env is fine; flags and the config file still apply.
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("holdem-server"),
		kong.Description("Texas Hold'em rooms over WebSocket"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)
	ctx.FatalIfErrorf(ctx.Run())
}
