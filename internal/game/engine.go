package game

import (
	"errors"
	"log/slog"
	"math/rand"

	"ouro/internal/balance"
	"ouro/internal/catalog"
)

var (
	ErrUnknownUpgrade     = errors.New("unknown upgrade")
	ErrUnknownArchetype   = errors.New("unknown archetype")
	ErrUnknownAscension   = errors.New("unknown ascension upgrade")
	ErrNotEnoughKnowledge = errors.New("not enough knowledge")
	ErrAlreadyUnlocked    = errors.New("upgrade already unlocked")
	ErrMaxedOut           = errors.New("already at max level")
	ErrCorruptRecord      = errors.New("corrupt save record")
)

type ArchetypePolicy string

const (
	PolicyOffer  ArchetypePolicy = "offer"
	PolicySelect ArchetypePolicy = "select"
)

// Engine holds the immutable tables and the random source every system
// shares. All state lives in RunState and MetaState and is passed in.
type Engine struct {
	bal    balance.Table
	cat    *catalog.Catalog
	rng    *rand.Rand
	log    *slog.Logger
	policy ArchetypePolicy
}

type EngineOptions struct {
	Balance balance.Table
	Catalog *catalog.Catalog
	Seed    int64
	Policy  ArchetypePolicy
	Logger  *slog.Logger
}

func NewEngine(opts EngineOptions) *Engine {
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Policy == "" {
		opts.Policy = PolicyOffer
	}
	return &Engine{
		bal:    opts.Balance,
		cat:    opts.Catalog,
		rng:    rand.New(rand.NewSource(opts.Seed)),
		log:    opts.Logger,
		policy: opts.Policy,
	}
}

func (e *Engine) Balance() balance.Table {
	return e.bal
}

func (e *Engine) Catalog() *catalog.Catalog {
	return e.cat
}

func (e *Engine) Policy() ArchetypePolicy {
	return e.policy
}

// upgradeSum adds value*level over every owned upgrade with the given effect.
func (e *Engine) upgradeSum(s *RunState, effect catalog.Effect) float64 {
	total := 0.0
	for _, id := range catalog.SortedLevels(s.UpgradeLevels) {
		lvl := s.UpgradeLevels[id]
		def, ok := e.cat.Upgrade(id)
		if !ok || lvl <= 0 || def.Effect != effect {
			continue
		}
		total += def.ValuePerLevel * float64(lvl)
	}
	return total
}

// upgradeProduct multiplies (1 + value*level) over every owned upgrade with
// the given effect.
func (e *Engine) upgradeProduct(s *RunState, effect catalog.Effect) float64 {
	mult := 1.0
	for _, id := range catalog.SortedLevels(s.UpgradeLevels) {
		lvl := s.UpgradeLevels[id]
		def, ok := e.cat.Upgrade(id)
		if !ok || lvl <= 0 || def.Effect != effect {
			continue
		}
		mult *= 1 + def.ValuePerLevel*float64(lvl)
	}
	return mult
}

func (e *Engine) ascensionSum(s *RunState, effect catalog.AscensionEffect) float64 {
	total := 0.0
	for _, id := range catalog.SortedLevels(s.AscensionLevels) {
		lvl := s.AscensionLevels[id]
		def, ok := e.cat.AscensionUpgrade(id)
		if !ok || lvl <= 0 || def.Effect != effect {
			continue
		}
		total += def.ValuePerLevel * float64(lvl)
	}
	return total
}

func (e *Engine) ascensionProduct(s *RunState, effect catalog.AscensionEffect) float64 {
	mult := 1.0
	for _, id := range catalog.SortedLevels(s.AscensionLevels) {
		lvl := s.AscensionLevels[id]
		def, ok := e.cat.AscensionUpgrade(id)
		if !ok || lvl <= 0 || def.Effect != effect {
			continue
		}
		mult *= 1 + def.ValuePerLevel*float64(lvl)
	}
	return mult
}

func (e *Engine) archetype(s *RunState) (catalog.ArchetypeDef, bool) {
	if s.ArchetypeID == "" {
		return catalog.ArchetypeDef{}, false
	}
	return e.cat.Archetype(s.ArchetypeID)
}

func (e *Engine) debuffModifier(s *RunState, kind catalog.DebuffKind) float64 {
	if !s.HasDebuff(kind) {
		return 1.0
	}
	def, ok := e.cat.Debuff(kind)
	if !ok {
		return 1.0
	}
	return def.Modifier
}

func (e *Engine) totalOwnedLevels(s *RunState) int {
	total := 0
	for _, lvl := range s.UpgradeLevels {
		if lvl > 0 {
			total += lvl
		}
	}
	return total
}

func (e *Engine) isCosmic(s *RunState) bool {
	return s.StageIndex >= e.bal.Session.CosmicStageIndex
}
