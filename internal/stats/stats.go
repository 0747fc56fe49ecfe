// Package stats computes a monster's attack, defense, speed and max HP,
// either from fixed values or from level-dependent formulas.
package stats

// Stats is a snapshot of a monster's combat attributes at one level.
type Stats struct {
	Attack  int
	Defense int
	Speed   int
	MaxHP   int
}

// Provider returns the stats of a monster at the given level.
type Provider interface {
	At(level int) Stats
}

// Simple is a Provider with constant stats.
type Simple struct {
	Attack  int `yaml:"attack" json:"attack"`
	Defense int `yaml:"defense" json:"defense"`
	Speed   int `yaml:"speed" json:"speed"`
	MaxHP   int `yaml:"max_hp" json:"max_hp"`
}

// At ignores level.
func (s Simple) At(int) Stats {
	return Stats{Attack: s.Attack, Defense: s.Defense, Speed: s.Speed, MaxHP: s.MaxHP}
}

// Complex evaluates one Formula per stat.
type Complex struct {
	Attack  Formula
	Defense Formula
	Speed   Formula
	MaxHP   Formula
}

// NewComplex compiles the four formulas. Each formula is a whitespace
// separated token string such as "level 2 * 10 +".
func NewComplex(attack, defense, speed, maxHP string) (*Complex, error) {
	var c Complex
	for _, f := range []struct {
		name string
		src  string
		dst  *Formula
	}{
		{"attack", attack, &c.Attack},
		{"defense", defense, &c.Defense},
		{"speed", speed, &c.Speed},
		{"max_hp", maxHP, &c.MaxHP},
	} {
		compiled, err := ParseFormula(f.src)
		if err != nil {
			return nil, fmtStatErr(f.name, err)
		}
		*f.dst = compiled
	}
	return &c, nil
}

func (c *Complex) At(level int) Stats {
	return Stats{
		Attack:  c.Attack.Eval(level),
		Defense: c.Defense.Eval(level),
		Speed:   c.Speed.Eval(level),
		MaxHP:   c.MaxHP.Eval(level),
	}
}
