package bot

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/lox/holdem/internal/evaluator"
	"github.com/lox/holdem/internal/game"
)

// adaptAfter is the number of decisions an engine makes before it starts
// adjusting its personality, and the size of its results window.
const adaptAfter = 20

// Decision is an engine's chosen action and a short explanation.
type Decision struct {
	Action    game.Action
	Rationale string
	Fallback  bool
}

// Engine decides for one bot seat. It owns the bot's personality and its
// models of every other seat. It is not safe for concurrent use; the session
// goroutine calls Decide and OnEvent.
type Engine struct {
	seatID      string
	cfg         game.Config
	personality Personality
	models      map[string]*OpponentModel
	cache       *evaluator.Cache
	rng         *rand.Rand
	logger      *log.Logger

	decisions  int
	aggressive bool   // raised or shoved in the current hand
	results    []bool // won or lost, for recent hands played aggressively
}

// NewEngine creates an engine for seatID.
func NewEngine(seatID string, cfg game.Config, p Personality, rng *rand.Rand, logger *log.Logger) *Engine {
	return &Engine{
		seatID:      seatID,
		cfg:         cfg,
		personality: p.clamped(),
		models:      make(map[string]*OpponentModel),
		cache:       evaluator.NewCache(),
		rng:         rng,
		logger:      logger.WithPrefix("bot").With("seat", seatID),
	}
}

// Personality returns the current traits.
func (e *Engine) Personality() Personality { return e.personality }

// Decisions counts the decisions made so far.
func (e *Engine) Decisions() int { return e.decisions }

// Model returns the model of another seat, if any action was observed.
func (e *Engine) Model(seatID string) (*OpponentModel, bool) {
	m, ok := e.models[seatID]
	return m, ok
}

// Decide picks an action for the seat whose private view is given. It never
// fails: any panic in the decision path is logged and the conservative
// fallback is returned instead.
func (e *Engine) Decide(view game.PrivateView) (d Decision) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("Decision failed, using fallback", "error", r)
			d = Fallback(view)
		}
	}()
	if len(view.ValidActions) == 0 {
		panic(fmt.Sprintf("no valid actions for seat %s", view.SeatID))
	}

	d = e.decide(view)
	e.decisions++
	if d.Action.Type == game.Raise || d.Action.Type == game.AllIn {
		e.aggressive = true
	}
	e.logger.Debug("Decision made", "action", d.Action, "rationale", d.Rationale)
	return d
}

func (e *Engine) decide(view game.PrivateView) Decision {
	sit := e.analyze(view)

	w, band := baseWeights(sit.Strength, e.personality)
	var applied []string
	for _, adj := range adjustments {
		if adj.condition(sit) {
			w.scale(adj.factors)
			applied = append(applied, adj.name)
		}
	}
	bluff := e.rng.Float64() < e.personality.BluffFrequency
	if bluff {
		w.scale(bluffFactors)
		applied = append(applied, "bluff")
	}

	legal := make(map[game.ActionType]game.ValidAction, len(view.ValidActions))
	for _, va := range view.ValidActions {
		legal[va.Type] = va
	}
	for _, t := range game.ActionTypes {
		if _, ok := legal[t]; !ok {
			w[t] = 0
		}
	}

	choice, ok := e.pick(w)
	if !ok {
		choice = game.Fold
		if _, legalFold := legal[game.Fold]; !legalFold {
			choice = view.ValidActions[0].Type
		}
	}

	action := game.Action{Type: choice}
	if choice == game.Raise {
		action = e.sizeRaise(sit, legal[game.Raise])
	}

	e.logger.Debug("Situation",
		"phase", sit.Phase,
		"strength", fmt.Sprintf("%.2f", sit.Strength),
		"potential", fmt.Sprintf("%.2f", sit.Potential),
		"potOdds", fmt.Sprintf("%.2f", sit.PotOdds),
		"impliedOdds", fmt.Sprintf("%.2f", sit.ImpliedOdds),
		"position", fmt.Sprintf("%.2f", sit.Position),
		"band", band)

	return Decision{Action: action, Rationale: rationale(action.Type, sit, bluff, applied)}
}

// pick normalises w and selects an action by cumulative lookup against one
// uniform draw.
func (e *Engine) pick(w weights) (game.ActionType, bool) {
	total := w.total()
	if total <= 0 {
		return game.Fold, false
	}
	u := e.rng.Float64()
	cum := 0.0
	for _, t := range game.ActionTypes {
		if w[t] == 0 {
			continue
		}
		cum += w[t] / total
		if u <= cum {
			return t, true
		}
	}
	return game.Fold, false
}

// sizeRaise chooses a raise-to amount by strength band, clamps it to the legal
// range and rounds it to the bet increment. A raise that would use the whole
// stack becomes an all-in.
func (e *Engine) sizeRaise(s Situation, va game.ValidAction) game.Action {
	minTo, maxTo := va.Min, va.Max
	base := float64(minTo)
	half := float64(s.CurrentBet) + float64(s.Pot)/2
	scaled := float64(s.CurrentBet) + float64(s.Pot)*e.personality.Aggression

	var target float64
	switch {
	case s.Strength > 0.8:
		target = max(half, base)
	case s.Strength > 0.6:
		target = max(base, half*0.7)
	default:
		target = max(base, scaled)
	}

	amount := int(target)
	if inc := e.cfg.BetIncrement; inc > 0 {
		amount = int(math.Round(target/float64(inc))) * inc
	}
	amount = max(amount, minTo)
	if amount >= maxTo {
		return game.Action{Type: game.AllIn}
	}
	return game.RaiseTo(amount)
}

// Fallback is the conservative rule used when the engine cannot decide:
// check when free, call when it costs at most a tenth of the stack, fold
// otherwise.
func Fallback(view game.PrivateView) Decision {
	stack := 0
	if view.Seat >= 0 && view.Seat < len(view.Seats) {
		stack = view.Seats[view.Seat].Stack
	}
	d := Decision{Action: game.Action{Type: game.Fold}, Rationale: "fallback: fold", Fallback: true}
	switch {
	case view.CallAmount <= 0:
		d.Action, d.Rationale = game.Action{Type: game.Check}, "fallback: check"
	case float64(view.CallAmount) <= float64(stack)*0.1:
		d.Action, d.Rationale = game.Action{Type: game.Call}, "fallback: cheap call"
	}
	return d
}

func rationale(t game.ActionType, s Situation, bluff bool, applied []string) string {
	var reason string
	switch t {
	case game.Fold:
		switch {
		case s.Strength < 0.3:
			reason = "weak hand"
		case s.PotOdds > s.Strength*1.5:
			reason = "bad pot odds"
		default:
			reason = "playing it safe"
		}
	case game.Check:
		reason = "pot control"
	case game.Call:
		if s.PotOdds < s.Strength {
			reason = "good pot odds"
		} else {
			reason = "passive play"
		}
	case game.Raise:
		switch {
		case s.Strength > 0.7:
			reason = "strong hand"
		case bluff:
			reason = "bluff"
		default:
			reason = "aggressive play"
		}
	case game.AllIn:
		switch {
		case s.Strength > 0.8:
			reason = "very strong hand"
		case s.StackRatio < 0.2:
			reason = "short stacked"
		default:
			reason = "desperate shove"
		}
	}
	if len(applied) > 0 {
		reason += " (" + strings.Join(applied, ", ") + ")"
	}
	return reason
}

// OnEvent keeps the opponent models current. Every other seat's action is
// observed, whether or not this bot is acting.
func (e *Engine) OnEvent(event game.GameEvent) {
	switch ev := event.(type) {
	case game.HandStartEvent:
		e.cache.Reset()
		e.aggressive = false
	case game.ActionEvent:
		if ev.Record.SeatID == e.seatID {
			return
		}
		m, ok := e.models[ev.Record.SeatID]
		if !ok {
			m = NewOpponentModel(ev.Record.SeatID)
			e.models[ev.Record.SeatID] = m
		}
		m.Observe(ev.Record.Action.Type)
	}
}

// Adapt drifts the personality after a hand. Hands where the bot raised or
// shoved are scored won or lost; once enough decisions have been made the
// win rate of those hands nudges aggression and bluff frequency.
func (e *Engine) Adapt(won bool) {
	if e.aggressive {
		e.results = append(e.results, won)
		if len(e.results) > adaptAfter {
			e.results = e.results[len(e.results)-adaptAfter:]
		}
	}
	e.aggressive = false
	if e.decisions < adaptAfter || len(e.results) == 0 {
		return
	}

	wins := 0
	for _, r := range e.results {
		if r {
			wins++
		}
	}
	rate := float64(wins) / float64(len(e.results))

	p := &e.personality
	switch {
	case rate > 0.6:
		p.Aggression = clamp(p.Aggression+0.1, 0.1, 0.9)
	case rate < 0.3:
		p.Aggression = clamp(p.Aggression-0.1, 0.1, 0.9)
	}
	p.BluffFrequency = clamp(p.BluffFrequency+(rate-0.5)*0.1, 0, 0.3)
	e.logger.Debug("Personality adapted", "successRate", rate, "personality", e.personality)
}
