package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/holdem/internal/game"
)

// CommandKind says what a line typed by the player asks for.
type CommandKind int

const (
	CommandAction CommandKind = iota // a move in the current hand
	CommandStart                     // deal the next hand now
	CommandBots                      // seat more bots
	CommandHelp
	CommandQuit
)

// Command is one parsed input line.
type Command struct {
	Kind   CommandKind
	Action game.Action
	Count  int // bots to add
}

// ParseCommand reads a line such as "call", "raise 60" or "allin". Raise
// amounts are the total to raise to. Legality is left to the session.
func ParseCommand(input string) (Command, error) {
	fields := strings.Fields(strings.ToLower(input))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("type an action, or 'help'")
	}
	verb, args := fields[0], fields[1:]

	action := func(t game.ActionType) (Command, error) {
		if len(args) > 0 {
			return Command{}, fmt.Errorf("%s takes no amount", t)
		}
		return Command{Kind: CommandAction, Action: game.Action{Type: t}}, nil
	}

	switch verb {
	case "f", "fold":
		return action(game.Fold)
	case "k", "x", "check":
		return action(game.Check)
	case "c", "call":
		return action(game.Call)
	case "a", "allin", "all-in", "shove":
		return action(game.AllIn)
	case "r", "raise", "bet":
		if len(args) > 0 && args[0] == "to" {
			args = args[1:]
		}
		if len(args) != 1 {
			return Command{}, fmt.Errorf("usage: raise <total>")
		}
		amount, err := strconv.Atoi(strings.TrimPrefix(args[0], "$"))
		if err != nil || amount <= 0 {
			return Command{}, fmt.Errorf("invalid raise amount %q", args[0])
		}
		return Command{Kind: CommandAction, Action: game.RaiseTo(amount)}, nil
	case "s", "start", "deal":
		return Command{Kind: CommandStart}, nil
	case "bots", "bot":
		n := 1
		if len(args) > 0 {
			v, err := strconv.Atoi(args[0])
			if err != nil || v <= 0 {
				return Command{}, fmt.Errorf("invalid bot count %q", args[0])
			}
			n = v
		}
		return Command{Kind: CommandBots, Count: n}, nil
	case "h", "help", "?":
		return Command{Kind: CommandHelp}, nil
	case "q", "quit", "exit":
		return Command{Kind: CommandQuit}, nil
	}
	return Command{}, fmt.Errorf("unknown command %q", verb)
}

const helpText = "Commands: fold (f), check (k), call (c), raise <total> (r), allin (a), start (s), bots [n], quit (q)"
