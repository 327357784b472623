// Package game implements the authoritative Texas Hold'em betting state
// machine.
//
// A Table holds the seats that persist between hands and rotates the button.
// Each deal is a Hand, which posts the blinds, deals the hole cards and then
// stops whenever a seat must decide:
//
//	table := game.NewTable(game.DefaultConfig(), randutil.New(42), bus, logger)
//	_ = table.AddSeat(game.NewSeat("a", "Alice", 1000, false))
//	_ = table.AddSeat(game.NewSeat("b", "Bob", 1000, false))
//	hand, _ := table.NewHand("h1")
//	err := hand.Submit(hand.ActingSeat(), game.Action{Type: game.Call})
//
// Submit is the only way chips move. Illegal actions return a *RejectedError
// with a stable reason code and leave the hand untouched. After every applied
// action the pot equals the sum of all contributions; a broken invariant or
// an exhausted deck aborts the hand and restores every stack.
//
// Hands are not safe for concurrent use. The session package serializes all
// calls onto one goroutine per room.
package game
