package monster

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"monsterbattle/internal/element"
	"monsterbattle/internal/stats"
)

var (
	ErrUnknownSpecies   = errors.New("unknown species")
	ErrDuplicateSpecies = errors.New("duplicate species")
	ErrUnknownEvolution = errors.New("unknown evolution target")
	ErrMissingStats     = errors.New("species has no stats for mode")
)

// StatMode selects which stat block a monster uses.
type StatMode int

const (
	SimpleStats StatMode = iota
	ComplexStats
)

func (m StatMode) String() string {
	switch m {
	case SimpleStats:
		return "simple"
	case ComplexStats:
		return "complex"
	default:
		return fmt.Sprintf("StatMode(%d)", int(m))
	}
}

// ParseStatMode accepts "simple" or "complex"; empty means simple.
func ParseStatMode(s string) (StatMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "simple":
		return SimpleStats, nil
	case "complex":
		return ComplexStats, nil
	default:
		return 0, fmt.Errorf("unknown stat mode %q", s)
	}
}

// Species is the shared data of every monster of one kind.
type Species struct {
	Name        string
	Description string
	Element     string
	Evolution   string // name of the evolved species, empty if none
	Spawnable   bool

	Simple  *stats.Simple
	Complex *stats.Complex

	evolvesTo *Species
}

// EvolvesTo returns the resolved evolution, or nil. Only species built
// through a Catalog have their evolution resolved.
func (s *Species) EvolvesTo() *Species { return s.evolvesTo }

// Provider returns the stat provider for mode.
func (s *Species) Provider(mode StatMode) (stats.Provider, error) {
	switch mode {
	case SimpleStats:
		if s.Simple != nil {
			return *s.Simple, nil
		}
	case ComplexStats:
		if s.Complex != nil {
			return s.Complex, nil
		}
	}
	return nil, fmt.Errorf("%w: %s (%s)", ErrMissingStats, s.Name, mode)
}

func nameKey(name string) string { return element.Key(name) }

// Catalog is the ordered, read-only list of known species.
type Catalog struct {
	species []*Species
	byName  map[string]*Species
}

// NewCatalog indexes species by name and resolves evolution targets. An
// evolution target must have a stat block for every mode its source has.
func NewCatalog(species []*Species) (*Catalog, error) {
	c := &Catalog{
		species: make([]*Species, 0, len(species)),
		byName:  make(map[string]*Species, len(species)),
	}
	for _, sp := range species {
		if sp == nil || strings.TrimSpace(sp.Name) == "" {
			return nil, fmt.Errorf("%w: species without a name", ErrUnknownSpecies)
		}
		k := nameKey(sp.Name)
		if _, dup := c.byName[k]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSpecies, sp.Name)
		}
		if sp.Simple == nil && sp.Complex == nil {
			return nil, fmt.Errorf("%w: %s has neither simple nor complex stats", ErrMissingStats, sp.Name)
		}
		c.byName[k] = sp
		c.species = append(c.species, sp)
	}
	for _, sp := range c.species {
		if sp.Evolution == "" {
			continue
		}
		target, ok := c.byName[nameKey(sp.Evolution)]
		if !ok {
			return nil, fmt.Errorf("%w: %s evolves into %s", ErrUnknownEvolution, sp.Name, sp.Evolution)
		}
		if (sp.Simple != nil && target.Simple == nil) || (sp.Complex != nil && target.Complex == nil) {
			return nil, fmt.Errorf("%w: %s evolves into %s, which lacks its stat modes",
				ErrMissingStats, sp.Name, target.Name)
		}
		sp.evolvesTo = target
	}
	return c, nil
}

// Validate checks that every species' element exists in table.
func (c *Catalog) Validate(table *element.Table) error {
	for _, sp := range c.species {
		if !table.Has(sp.Element) {
			return fmt.Errorf("species %s: %w: %s", sp.Name, element.ErrUnknownElement, sp.Element)
		}
	}
	return nil
}

// Get looks a species up by name, ignoring case.
func (c *Catalog) Get(name string) (*Species, error) {
	sp, ok := c.byName[nameKey(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSpecies, name)
	}
	return sp, nil
}

// All returns every species in catalog order.
func (c *Catalog) All() []*Species {
	out := make([]*Species, len(c.species))
	copy(out, c.species)
	return out
}

// Spawnable returns the species that may be placed on a team, in catalog order.
func (c *Catalog) Spawnable() []*Species {
	var out []*Species
	for _, sp := range c.species {
		if sp.Spawnable {
			out = append(out, sp)
		}
	}
	return out
}

// Len is the number of species.
func (c *Catalog) Len() int { return len(c.species) }

type catalogFile struct {
	Species []speciesFile `yaml:"species"`
}

type speciesFile struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Element     string        `yaml:"element"`
	Evolution   string        `yaml:"evolution"`
	Spawnable   bool          `yaml:"spawnable"`
	Simple      *stats.Simple `yaml:"simple"`
	Complex     *formulaFile  `yaml:"complex"`
}

type formulaFile struct {
	Attack  string `yaml:"attack"`
	Defense string `yaml:"defense"`
	Speed   string `yaml:"speed"`
	MaxHP   string `yaml:"max_hp"`
}

// ParseCatalog decodes a YAML species list.
func ParseCatalog(b []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	species := make([]*Species, 0, len(f.Species))
	for _, sf := range f.Species {
		sp := &Species{
			Name:        sf.Name,
			Description: sf.Description,
			Element:     sf.Element,
			Evolution:   sf.Evolution,
			Spawnable:   sf.Spawnable,
			Simple:      sf.Simple,
		}
		if sf.Complex != nil {
			c, err := stats.NewComplex(sf.Complex.Attack, sf.Complex.Defense, sf.Complex.Speed, sf.Complex.MaxHP)
			if err != nil {
				return nil, fmt.Errorf("species %s: %w", sf.Name, err)
			}
			sp.Complex = c
		}
		species = append(species, sp)
	}
	return NewCatalog(species)
}

// LoadCatalog loads a species catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	cleanPath := filepath.Clean(path)
	b, err := os.ReadFile(cleanPath) //nolint:gosec // path is cleaned and validated
	if err != nil {
		return nil, err
	}
	c, err := ParseCatalog(b)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return c, nil
}
