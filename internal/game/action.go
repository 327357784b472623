package game

import (
	"errors"
	"fmt"
	"strings"
)

// ActionType enumerates the moves a seat can make on its turn.
type ActionType int

const (
	Fold ActionType = iota
	Check
	Call
	Raise
	AllIn
)

// ActionTypes lists every action in the order the decision engine weighs them.
var ActionTypes = [...]ActionType{Fold, Check, Call, Raise, AllIn}

func (a ActionType) String() string {
	switch a {
	case Fold:
		return "fold"
	case Check:
		return "check"
	case Call:
		return "call"
	case Raise:
		return "raise"
	case AllIn:
		return "allin"
	default:
		return "unknown"
	}
}

// MarshalText encodes the action by name.
func (a ActionType) MarshalText() ([]byte, error) {
	if a < Fold || a > AllIn {
		return nil, fmt.Errorf("invalid action type %d", int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText accepts the names produced by String plus a few aliases.
func (a *ActionType) UnmarshalText(text []byte) error {
	t, err := ParseActionType(string(text))
	if err != nil {
		return err
	}
	*a = t
	return nil
}

// ParseActionType parses an action name such as "raise" or "all-in".
func ParseActionType(s string) (ActionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fold", "f":
		return Fold, nil
	case "check", "k":
		return Check, nil
	case "call", "c":
		return Call, nil
	case "raise", "bet", "r":
		return Raise, nil
	case "allin", "all-in", "all_in", "a":
		return AllIn, nil
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// Action is a seat's move. Amount is only meaningful for Raise, where it is
// the total the seat's round bet is raised to.
type Action struct {
	Type   ActionType `json:"type"`
	Amount int        `json:"amount,omitempty"`
}

// RaiseTo builds a raise to a total round bet of amount.
func RaiseTo(amount int) Action {
	return Action{Type: Raise, Amount: amount}
}

func (a Action) String() string {
	if a.Type == Raise {
		return fmt.Sprintf("raise to %d", a.Amount)
	}
	return a.Type.String()
}

// ValidAction describes one legal move for the acting seat. For Call and
// AllIn, Min and Max are the chips that would be added; for Raise they bound
// the raise-to total.
type ValidAction struct {
	Type ActionType `json:"type"`
	Min  int        `json:"min,omitempty"`
	Max  int        `json:"max,omitempty"`
}

// ActionRecord is one entry of a hand's action log.
type ActionRecord struct {
	Seq     int        `json:"seq"`
	SeatID  string     `json:"seatId"`
	Phase   Phase      `json:"phase"`
	Action  Action     `json:"action"`
	Chips   int        `json:"chips"`   // chips actually moved into the pot
	BetTo   int        `json:"betTo"`   // the seat's round bet afterwards
	PotTo   int        `json:"potTo"`   // the pot afterwards
	Timeout bool       `json:"timeout,omitempty"`
	Status  SeatStatus `json:"status"`
}

// RejectReason is a stable, client-visible reason code.
type RejectReason string

const (
	ReasonHandComplete  RejectReason = "hand_complete"
	ReasonStaleHand     RejectReason = "stale_hand"
	ReasonUnknownSeat   RejectReason = "unknown_seat"
	ReasonNotYourTurn   RejectReason = "not_your_turn"
	ReasonSeatNotActive RejectReason = "seat_not_active"
	ReasonInvalidAction RejectReason = "invalid_action"
	ReasonCannotCheck   RejectReason = "cannot_check"
	ReasonNothingToCall RejectReason = "nothing_to_call"
	ReasonRaiseTooSmall RejectReason = "raise_too_small"
	ReasonRaiseTooLarge RejectReason = "raise_too_large"
	ReasonNoChips       RejectReason = "no_chips"
)

// RejectedError is returned when a submitted action is illegal. The hand is
// left untouched and the seat may submit again.
type RejectedError struct {
	Reason RejectReason
	Detail string
}

func (e *RejectedError) Error() string {
	if e.Detail == "" {
		return "action rejected: " + string(e.Reason)
	}
	return fmt.Sprintf("action rejected: %s: %s", e.Reason, e.Detail)
}

func reject(reason RejectReason, format string, args ...any) *RejectedError {
	return &RejectedError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// ReasonOf extracts the reject reason from err, or "" if err is not a rejection.
func ReasonOf(err error) RejectReason {
	var re *RejectedError
	if errors.As(err, &re) {
		return re.Reason
	}
	return ""
}
