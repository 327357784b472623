package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/joho/godotenv"
	"github.com/muesli/termenv"
	"golang.org/x/sync/errgroup"

	"github.com/lox/holdem/internal/bot"
	"github.com/lox/holdem/internal/game"
	"github.com/lox/holdem/internal/randutil"
	"github.com/lox/holdem/internal/session"
	"github.com/lox/holdem/internal/tui"
)

const humanSeat = "you"

var version = "dev"

type CLI struct {
	Version    kong.VersionFlag `short:"v" help:"Show version"`
	Name       string           `short:"n" default:"Player" env:"HOLDEM_NAME" help:"Your name at the table"`
	Bots       int              `short:"b" default:"5" help:"Number of bot opponents"`
	Style      []string         `short:"s" help:"Bot styles in seat order (tag, lag, nit, fish, rock, maniac, random)"`
	Seed       int64            `env:"HOLDEM_SEED" help:"Deterministic RNG seed, 0 for random"`
	SmallBlind int              `default:"5" help:"Small blind"`
	BigBlind   int              `default:"10" help:"Big blind"`
	Stack      int              `default:"1000" help:"Starting stack"`
	Timeout    time.Duration    `default:"30s" help:"Time allowed per decision"`
	LogFile    string           `default:"holdem.log" help:"Where to write the debug log"`
	LogLevel   string           `default:"info" enum:"debug,info,warn,error" help:"Log level"`
	NoColor    bool             `help:"Disable colors"`
}

func (c *CLI) Run() error {
	if c.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	styles := make([]bot.Archetype, 0, len(c.Style))
	for _, s := range c.Style {
		a, err := bot.ParseArchetype(s)
		if err != nil {
			return err
		}
		styles = append(styles, a)
	}

	cfg := game.DefaultConfig()
	cfg.SmallBlind = c.SmallBlind
	cfg.BigBlind = c.BigBlind
	cfg.BetIncrement = c.SmallBlind
	cfg.StartingStack = c.Stack
	cfg.BotStack = c.Stack
	cfg.TurnTimeout = c.Timeout
	if c.Bots < 1 || c.Bots > cfg.MaxSeats-1 {
		return fmt.Errorf("bots must be between 1 and %d", cfg.MaxSeats-1)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs go to a file.
	logFile, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	logger := log.NewWithOptions(logFile, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	seed := randutil.Seed(c.Seed)
	logger.Info("Starting offline game", "seed", seed, "bots", c.Bots, "version", version)

	bridge := tui.NewBridge(logger)
	sess, err := session.New("offline", cfg,
		session.WithClock(quartz.NewReal()),
		session.WithRand(randutil.New(seed)),
		session.WithLogger(logger),
		session.WithObserver(bridge),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	sessCtx, stopSession := context.WithCancel(gctx)
	g.Go(func() error {
		return sess.Run(sessCtx)
	})
	g.Go(func() error {
		defer stopSession()
		if err := seat(gctx, sess, c.Name, c.Bots, styles); err != nil {
			return err
		}
		return tui.Run(gctx, tui.New(sess, bridge, humanSeat, logger))
	})
	if err := g.Wait(); err != nil {
		return err
	}

	st := sess.State()
	fmt.Printf("Played %d hands.\n", st.HandsPlayed)
	for _, s := range st.Seats {
		if s.ID == humanSeat {
			fmt.Printf("You finished with $%d.\n", s.Stack)
		}
	}
	return nil
}

// seat joins the human and fills the rest of the table with bots; listed
// styles are used first, the rest get random personalities.
func seat(ctx context.Context, sess *session.Session, name string, bots int, styles []bot.Archetype) error {
	if err := sess.Join(ctx, humanSeat, name); err != nil {
		return err
	}
	for i := range bots {
		style := bot.Balanced
		if i < len(styles) {
			style = styles[i]
		}
		if _, err := sess.AddBot(ctx, style); err != nil {
			return fmt.Errorf("adding bot: %w", err)
		}
	}
	return nil
}

func main() {
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("holdem"),
		kong.Description("Play Texas Hold'em against bots in your terminal"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)
	ctx.FatalIfErrorf(ctx.Run())
}
