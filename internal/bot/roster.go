package bot

import (
	"math/rand/v2"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/lox/holdem/internal/game"
	"github.com/lox/holdem/internal/randutil"
)

var botNames = []string{
	"AlphaBot", "BetaMind", "GammaAI", "DeltaChip", "EpsilonCard",
	"ZetaBluff", "EtaFold", "ThetaCall", "IotaRaise", "KappaAll",
	"LambdaTight", "MuLoose", "NuAggressive", "XiPassive", "OmicronSmart",
	"PiRandom", "RhoCalculated", "SigmaStrong", "TauWeak", "UpsilonMedium",
}

// Bot is a computer-controlled seat.
type Bot struct {
	ID        string
	Name      string
	Archetype Archetype
	Engine    *Engine
}

// Seat creates the table seat for the bot.
func (b *Bot) Seat(stack int) *game.Seat {
	return game.NewSeat(b.ID, b.Name, stack, true)
}

// Roster hands out bots with unique names and a random archetype.
type Roster struct {
	cfg    game.Config
	rng    *rand.Rand
	logger *log.Logger
	used   map[string]bool
}

// NewRoster creates a roster. Each bot gets its own random stream split from
// rng.
func NewRoster(cfg game.Config, rng *rand.Rand, logger *log.Logger) *Roster {
	return &Roster{cfg: cfg, rng: rng, logger: logger, used: make(map[string]bool)}
}

// New creates a bot with a random archetype.
func (r *Roster) New() *Bot {
	return r.NewWithArchetype(Archetypes[r.rng.IntN(len(Archetypes))])
}

// NewWithArchetype creates a bot with the given style.
func (r *Roster) NewWithArchetype(a Archetype) *Bot {
	name := r.name()
	id := "bot-" + uuid.NewString()[:8]
	rng := randutil.Child(r.rng)
	b := &Bot{
		ID:        id,
		Name:      name,
		Archetype: a,
		Engine:    NewEngine(id, r.cfg, a.Personality(rng), rng, r.logger),
	}
	r.logger.Info("Bot created", "name", name, "id", id, "style", a)
	return b
}

// Release returns a bot's name to the pool.
func (r *Roster) Release(name string) {
	delete(r.used, name)
}

func (r *Roster) name() string {
	free := slices.DeleteFunc(slices.Clone(botNames), func(n string) bool { return r.used[n] })
	if len(free) == 0 {
		clear(r.used)
		free = botNames
	}
	name := free[r.rng.IntN(len(free))]
	r.used[name] = true
	return name
}
