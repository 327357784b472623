package game

import (
	"fmt"
	"strings"

	"github.com/lox/holdem/internal/deck"
)

// FormatOptions controls how events are rendered as text.
type FormatOptions struct {
	ShowHands   bool   // include evaluated hands at showdown
	Perspective string // seat ID rendered as "You"
	Pretty      bool   // suit glyphs instead of letters
}

// Formatter turns events into single-line, human-readable text for the
// terminal UI and logs.
type Formatter struct {
	opts  FormatOptions
	names func(seatID string) string
}

// NewFormatter creates a formatter. names resolves seat IDs to display names;
// nil prints the IDs.
func NewFormatter(opts FormatOptions, names func(seatID string) string) *Formatter {
	if names == nil {
		names = func(id string) string { return id }
	}
	return &Formatter{opts: opts, names: names}
}

// Name resolves a seat ID the way the formatter prints it.
func (f *Formatter) Name(seatID string) string { return f.name(seatID) }

func (f *Formatter) name(seatID string) string {
	if f.opts.Perspective != "" && seatID == f.opts.Perspective {
		return "You"
	}
	return f.names(seatID)
}

// Format renders any event. Unknown events return "".
func (f *Formatter) Format(event GameEvent) string {
	switch e := event.(type) {
	case HandStartEvent:
		return fmt.Sprintf("Hand #%d • %d players • %s has the button", e.HandNumber, len(e.Seats), f.name(e.Dealer))
	case BlindsPostedEvent:
		return fmt.Sprintf("%s posts small blind $%d, %s posts big blind $%d",
			f.name(e.SmallBlind), e.SmallAmount, f.name(e.BigBlind), e.BigAmount)
	case ActionEvent:
		return f.FormatAction(e.Record)
	case PhaseChangedEvent:
		return f.FormatPhase(e.Phase, e.Board)
	case HandCompleteEvent:
		return f.FormatOutcome(e.Outcome)
	case HandAbortedEvent:
		return fmt.Sprintf("Hand aborted, stacks restored (%s)", e.Reason)
	case SeatEliminatedEvent:
		return fmt.Sprintf("%s is eliminated", f.name(e.SeatID))
	}
	return ""
}

// FormatAction renders one action log entry.
func (f *Formatter) FormatAction(r ActionRecord) string {
	who := f.name(r.SeatID)
	switch r.Action.Type {
	case Fold:
		if r.Timeout {
			return who + ": times out and folds"
		}
		return who + ": folds"
	case Check:
		if r.Timeout {
			return who + ": times out and checks"
		}
		return who + ": checks"
	case Call:
		if r.Status == StatusAllIn {
			return fmt.Sprintf("%s: calls $%d and is all-in (pot $%d)", who, r.Chips, r.PotTo)
		}
		return fmt.Sprintf("%s: calls $%d (pot $%d)", who, r.Chips, r.PotTo)
	case Raise:
		return fmt.Sprintf("%s: raises to $%d (pot $%d)", who, r.BetTo, r.PotTo)
	case AllIn:
		return fmt.Sprintf("%s: goes all-in for $%d (pot $%d)", who, r.Chips, r.PotTo)
	}
	return fmt.Sprintf("%s: %s", who, r.Action)
}

// FormatPhase renders a street header with the board.
func (f *Formatter) FormatPhase(p Phase, board []deck.Card) string {
	name := strings.ToUpper(p.String())
	if len(board) == 0 {
		return fmt.Sprintf("*** %s ***", name)
	}
	if p == Turn || p == River {
		last := len(board) - 1
		return fmt.Sprintf("*** %s *** [%s] [%s]", name, f.cards(board[:last]), f.cards(board[last:]))
	}
	return fmt.Sprintf("*** %s *** [%s]", name, f.cards(board))
}

// FormatOutcome renders the payouts, one line per pot.
func (f *Formatter) FormatOutcome(o Outcome) string {
	if o.Aborted {
		return "Hand aborted, stacks restored"
	}
	var b strings.Builder
	for i, pot := range o.Pots {
		if i > 0 {
			b.WriteString("\n")
		}
		label := "Pot"
		if i > 0 {
			label = fmt.Sprintf("Side pot %d", i)
		}
		names := make([]string, len(pot.Winners))
		for n, id := range pot.Winners {
			names[n] = f.name(id)
			if f.opts.ShowHands && o.Showdown {
				if h, ok := o.Hands[id]; ok {
					names[n] += " with " + h.Category.String()
				}
			}
		}
		fmt.Fprintf(&b, "%s $%d: %s", label, pot.Amount, strings.Join(names, ", "))
	}
	return b.String()
}

func (f *Formatter) cards(cards []deck.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		if f.opts.Pretty {
			parts[i] = c.Pretty()
		} else {
			parts[i] = c.String()
		}
	}
	return strings.Join(parts, " ")
}
