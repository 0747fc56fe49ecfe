package battle

import "monsterbattle/internal/monster"

// Fighter is one side's state at the end of a turn.
type Fighter struct {
	Name      string `json:"name"`
	Element   string `json:"element"`
	Level     int    `json:"level"`
	HP        int    `json:"hp"`
	MaxHP     int    `json:"max_hp"`
	Action    Action `json:"action"`
	Remaining int    `json:"remaining"` // monsters left in the roster
}

// TurnReport describes one resolved turn. The fighters are the active
// monsters after replacements and evolutions were applied.
type TurnReport struct {
	Turn   int     `json:"turn"`
	A      Fighter `json:"a"`
	B      Fighter `json:"b"`
	Result Result  `json:"result"`
}

func snapshot(m *monster.Monster, act Action, remaining int) Fighter {
	return Fighter{
		Name:      m.Name(),
		Element:   m.Element(),
		Level:     m.Level(),
		HP:        m.HP(),
		MaxHP:     m.MaxHP(),
		Action:    act,
		Remaining: remaining,
	}
}
