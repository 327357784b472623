package bot

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Personality holds the traits that bias a bot's decisions. Every trait is in
// [0,1]. Traits are fixed for the duration of a hand and drift between hands
// through Engine.Adapt.
type Personality struct {
	BluffFrequency float64 `json:"bluffFrequency"`
	FoldThreshold  float64 `json:"foldThreshold"`
	Aggression     float64 `json:"aggression"`

	// RiskTolerance and Adaptability describe the archetype for logs and
	// observers. No decision reads them; Adapt drifts by fixed steps.
	RiskTolerance float64 `json:"riskTolerance"`
	Adaptability  float64 `json:"adaptability"`
}

func (p Personality) String() string {
	return fmt.Sprintf("bluff=%.2f fold<%.2f aggr=%.2f risk=%.2f adapt=%.2f",
		p.BluffFrequency, p.FoldThreshold, p.Aggression, p.RiskTolerance, p.Adaptability)
}

func (p Personality) clamped() Personality {
	p.BluffFrequency = clamp(p.BluffFrequency, 0, 1)
	p.FoldThreshold = clamp(p.FoldThreshold, 0, 1)
	p.Aggression = clamp(p.Aggression, 0, 1)
	p.RiskTolerance = clamp(p.RiskTolerance, 0, 1)
	p.Adaptability = clamp(p.Adaptability, 0, 1)
	return p
}

// RandomPersonality draws a balanced personality.
func RandomPersonality(rng *rand.Rand) Personality {
	return Personality{
		BluffFrequency: rng.Float64() * 0.3,
		FoldThreshold:  0.1 + rng.Float64()*0.2,
		Aggression:     0.3 + rng.Float64()*0.4,
		RiskTolerance:  rng.Float64(),
		Adaptability:   rng.Float64() * 0.6,
	}
}

// Archetype is a named playing style.
type Archetype int

const (
	Balanced Archetype = iota
	TightAggressive
	LooseAggressive
	TightPassive
	LoosePassive
	Maniac
	Rock
)

// Archetypes lists the named styles a roster draws from.
var Archetypes = []Archetype{TightAggressive, LooseAggressive, TightPassive, LoosePassive, Maniac, Rock}

func (a Archetype) String() string {
	switch a {
	case Balanced:
		return "balanced"
	case TightAggressive:
		return "tight-aggressive"
	case LooseAggressive:
		return "loose-aggressive"
	case TightPassive:
		return "tight-passive"
	case LoosePassive:
		return "loose-passive"
	case Maniac:
		return "maniac"
	case Rock:
		return "rock"
	default:
		return "unknown"
	}
}

// ParseArchetype accepts the names produced by String, plus short forms
// like "tag" and "lag".
func ParseArchetype(s string) (Archetype, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "balanced", "random", "":
		return Balanced, nil
	case "tight-aggressive", "tag":
		return TightAggressive, nil
	case "loose-aggressive", "lag":
		return LooseAggressive, nil
	case "tight-passive", "nit":
		return TightPassive, nil
	case "loose-passive", "fish", "calling-station":
		return LoosePassive, nil
	case "maniac":
		return Maniac, nil
	case "rock":
		return Rock, nil
	}
	return Balanced, fmt.Errorf("unknown archetype %q", s)
}

// Personality returns the archetype's traits, with a little per-bot jitter
// from rng so two bots of the same style do not play identically.
func (a Archetype) Personality(rng *rand.Rand) Personality {
	var p Personality
	switch a {
	case TightAggressive:
		p = Personality{BluffFrequency: 0.10, FoldThreshold: 0.30, Aggression: 0.70, RiskTolerance: 0.50, Adaptability: 0.40}
	case LooseAggressive:
		p = Personality{BluffFrequency: 0.25, FoldThreshold: 0.15, Aggression: 0.80, RiskTolerance: 0.70, Adaptability: 0.40}
	case TightPassive:
		p = Personality{BluffFrequency: 0.02, FoldThreshold: 0.35, Aggression: 0.30, RiskTolerance: 0.20, Adaptability: 0.20}
	case LoosePassive:
		p = Personality{BluffFrequency: 0.05, FoldThreshold: 0.12, Aggression: 0.35, RiskTolerance: 0.40, Adaptability: 0.20}
	case Maniac:
		p = Personality{BluffFrequency: 0.30, FoldThreshold: 0.05, Aggression: 1.00, RiskTolerance: 0.95, Adaptability: 0.10}
	case Rock:
		p = Personality{BluffFrequency: 0.01, FoldThreshold: 0.40, Aggression: 0.25, RiskTolerance: 0.10, Adaptability: 0.30}
	default:
		return RandomPersonality(rng)
	}
	jitter := func(v float64) float64 { return v + (rng.Float64()-0.5)*0.04 }
	p.BluffFrequency = jitter(p.BluffFrequency)
	p.FoldThreshold = jitter(p.FoldThreshold)
	p.Aggression = jitter(p.Aggression)
	return p.clamped()
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
