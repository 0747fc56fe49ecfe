// Package monster implements battle units: species data, damage, leveling
// and evolution.
package monster

import (
	"errors"
	"fmt"
	"math"

	"monsterbattle/internal/element"
	"monsterbattle/internal/stats"
)

var ErrInvalidLevel = errors.New("level must be at least 1")

// Monster is one living battle unit. hp may drop to zero or below, which
// means the monster has fainted.
type Monster struct {
	species       *Species
	mode          StatMode
	provider      stats.Provider
	table         *element.Table
	level         int
	originalLevel int
	hp            int
}

// New creates a monster of sp at level with full HP. The species' element
// must exist in table.
func New(sp *Species, level int, mode StatMode, table *element.Table) (*Monster, error) {
	if sp == nil {
		return nil, ErrUnknownSpecies
	}
	if level < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	provider, err := sp.Provider(mode)
	if err != nil {
		return nil, err
	}
	if table == nil || !table.Has(sp.Element) {
		return nil, fmt.Errorf("species %s: %w: %s", sp.Name, element.ErrUnknownElement, sp.Element)
	}
	m := &Monster{
		species:       sp,
		mode:          mode,
		provider:      provider,
		table:         table,
		level:         level,
		originalLevel: level,
	}
	m.hp = m.MaxHP()
	return m, nil
}

func (m *Monster) Species() *Species  { return m.species }
func (m *Monster) Name() string       { return m.species.Name }
func (m *Monster) Element() string    { return m.species.Element }
func (m *Monster) Mode() StatMode     { return m.mode }
func (m *Monster) Level() int         { return m.level }
func (m *Monster) OriginalLevel() int { return m.originalLevel }
func (m *Monster) HP() int            { return m.hp }
func (m *Monster) SetHP(hp int)       { m.hp = hp }

// Stats returns the stats for the current level.
func (m *Monster) Stats() stats.Stats { return m.provider.At(m.level) }

func (m *Monster) Speed() int { return m.Stats().Speed }
func (m *Monster) MaxHP() int { return m.Stats().MaxHP }

func (m *Monster) Alive() bool { return m.hp > 0 }
func (m *Monster) Dead() bool  { return !m.Alive() }

// Damage is the HP an attacker with attack deals to a defender with
// defense, scaled by the element multiplier and rounded up.
func Damage(attack, defense int, multiplier float64) int {
	a, d := float64(attack), float64(defense)
	var raw float64
	switch {
	case d < a/2:
		raw = a - d
	case d < a:
		raw = a*5/8 - d/4
	default:
		raw = a / 4
	}
	return int(math.Ceil(raw * multiplier))
}

// Attack hits other, lowering its HP. Only other is modified.
func (m *Monster) Attack(other *Monster) {
	mult := m.table.MustEffectiveness(m.Element(), other.Element())
	other.hp -= Damage(m.Stats().Attack, other.Stats().Defense, mult)
}

// LevelUp raises the level by one and keeps the damage already taken, so
// HP grows with max HP. HP is not clamped.
func (m *Monster) LevelUp() {
	taken := m.MaxHP() - m.hp
	m.level++
	m.hp = m.MaxHP() - taken
}

// ReadyToEvolve reports whether the monster has leveled since it was
// created and its species has an evolution.
func (m *Monster) ReadyToEvolve() bool {
	return m.level > m.originalLevel && m.species.evolvesTo != nil
}

// Evolve returns a new monster of the evolved species at the current level
// carrying the same damage taken. It returns m itself when the species has
// no evolution, or when the target has no stats for m's mode or an element
// outside m's table; NewCatalog and Catalog.Validate reject both. The
// evolved monster counts as created at the current level.
func (m *Monster) Evolve() *Monster {
	next := m.species.evolvesTo
	if next == nil {
		return m
	}
	provider, err := next.Provider(m.mode)
	if err != nil || !m.table.Has(next.Element) {
		return m
	}
	taken := m.MaxHP() - m.hp
	evolved := &Monster{
		species:       next,
		mode:          m.mode,
		provider:      provider,
		table:         m.table,
		level:         m.level,
		originalLevel: m.level,
	}
	evolved.hp = evolved.MaxHP() - taken
	return evolved
}

// Factory returns a recipe that creates a fresh copy of this monster as it
// was when created.
func (m *Monster) Factory() Factory {
	return Factory{Species: m.species, Level: m.originalLevel, Mode: m.mode, Table: m.table}
}

func (m *Monster) String() string {
	return fmt.Sprintf("LV.%d %s, %d/%d HP", m.level, m.Name(), m.hp, m.MaxHP())
}

// Factory creates fresh monsters of one species.
type Factory struct {
	Species *Species
	Level   int
	Mode    StatMode
	Table   *element.Table
}

// New creates a fresh monster at full HP.
func (f Factory) New() (*Monster, error) {
	return New(f.Species, f.Level, f.Mode, f.Table)
}

// Spawner creates monsters by species name.
type Spawner struct {
	Catalog *Catalog
	Table   *element.Table
	Mode    StatMode
}

// Factory returns a factory for the named species at level.
func (s Spawner) Factory(name string, level int) (Factory, error) {
	sp, err := s.Catalog.Get(name)
	if err != nil {
		return Factory{}, err
	}
	return s.FactoryFor(sp, level), nil
}

// FactoryFor returns a factory for sp at level.
func (s Spawner) FactoryFor(sp *Species, level int) Factory {
	return Factory{Species: sp, Level: level, Mode: s.Mode, Table: s.Table}
}

// Spawn creates a monster of the named species at level.
func (s Spawner) Spawn(name string, level int) (*Monster, error) {
	f, err := s.Factory(name, level)
	if err != nil {
		return nil, err
	}
	return f.New()
}
