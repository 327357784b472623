package bot

import "github.com/lox/holdem/internal/game"

// weights holds one probability weight per action, indexed by game.ActionType.
type weights [len(game.ActionTypes)]float64

func (w *weights) scale(m weights) {
	for i := range w {
		w[i] *= m[i]
	}
}

func (w weights) total() float64 {
	t := 0.0
	for _, v := range w {
		t += v
	}
	return t
}

// mult builds a multiplier vector that leaves unlisted actions unchanged.
func mult(fold, check, call, raise, allIn float64) weights {
	return weights{game.Fold: fold, game.Check: check, game.Call: call, game.Raise: raise, game.AllIn: allIn}
}

// baseWeights returns the starting distribution for the strength band.
func baseWeights(strength float64, p Personality) (weights, int) {
	switch {
	case strength < p.FoldThreshold:
		return weights{game.Fold: 0.60, game.Check: 0.15, game.Call: 0.25}, 0
	case strength < 0.4:
		return weights{game.Fold: 0.20, game.Check: 0.15, game.Call: 0.50, game.Raise: 0.15}, 1
	case strength < 0.7:
		return weights{game.Fold: 0.05, game.Check: 0.15, game.Call: 0.35, game.Raise: 0.45}, 2
	default:
		return weights{game.Fold: 0.02, game.Check: 0.05, game.Call: 0.18, game.Raise: 0.60, game.AllIn: 0.15}, 3
	}
}

// adjustment is one situational rule. Rules are applied in order and their
// multipliers compound.
type adjustment struct {
	name      string
	condition func(s Situation) bool
	factors   weights
}

// adjustments is the fixed rule order: pot odds, position, aggressive
// opponents, stack-to-pot. The bluff trigger is applied last by the engine
// because it needs a random draw.
var adjustments = []adjustment{
	{
		name:      "good pot odds",
		condition: func(s Situation) bool { return s.PotOdds > 0 && s.Strength/s.PotOdds > 1.5 },
		factors:   mult(0.5, 1, 1.5, 1.3, 1),
	},
	{
		name:      "poor pot odds",
		condition: func(s Situation) bool { return s.PotOdds > 0 && s.Strength/s.PotOdds < 0.7 },
		factors:   mult(1.5, 1, 0.7, 0.5, 1),
	},
	{
		name:      "late position",
		condition: func(s Situation) bool { return s.Position > 0.7 },
		factors:   mult(1, 1, 1.1, 1.2, 1),
	},
	{
		name:      "early position",
		condition: func(s Situation) bool { return s.Position < 0.3 },
		factors:   mult(1.1, 1, 1, 0.8, 1),
	},
	{
		name:      "aggressive table",
		condition: func(s Situation) bool { return s.AggressiveOpponents > 1 },
		factors:   mult(1.2, 1, 1, 0.8, 1),
	},
	{
		name:      "short stack",
		condition: func(s Situation) bool { return s.StackRatio < 0.2 },
		factors:   mult(1, 1, 1, 0.5, 2),
	},
}

var bluffFactors = mult(0.3, 1, 1, 2, 1.5)
