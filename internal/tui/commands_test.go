package tui

import (
	"testing"

	"github.com/lox/holdem/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input string
		want  Command
	}{
		{"fold", Command{Kind: CommandAction, Action: game.Action{Type: game.Fold}}},
		{"F", Command{Kind: CommandAction, Action: game.Action{Type: game.Fold}}},
		{"check", Command{Kind: CommandAction, Action: game.Action{Type: game.Check}}},
		{"x", Command{Kind: CommandAction, Action: game.Action{Type: game.Check}}},
		{"  call ", Command{Kind: CommandAction, Action: game.Action{Type: game.Call}}},
		{"raise 60", Command{Kind: CommandAction, Action: game.RaiseTo(60)}},
		{"raise to $120", Command{Kind: CommandAction, Action: game.RaiseTo(120)}},
		{"r 40", Command{Kind: CommandAction, Action: game.RaiseTo(40)}},
		{"allin", Command{Kind: CommandAction, Action: game.Action{Type: game.AllIn}}},
		{"all-in", Command{Kind: CommandAction, Action: game.Action{Type: game.AllIn}}},
		{"start", Command{Kind: CommandStart}},
		{"bots", Command{Kind: CommandBots, Count: 1}},
		{"bots 3", Command{Kind: CommandBots, Count: 3}},
		{"help", Command{Kind: CommandHelp}},
		{"quit", Command{Kind: CommandQuit}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseCommand(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommandErrors(t *testing.T) {
	t.Parallel()
	for _, input := range []string{"", "raise", "raise lots", "raise -5", "call 20", "bots zero", "dance"} {
		_, err := ParseCommand(input)
		assert.Error(t, err, "input %q", input)
	}
}
