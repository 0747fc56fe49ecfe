package battle

import (
	"fmt"
	"strings"

	"monsterbattle/internal/monster"
)

// Action is what a side does on its turn. The zero value is not a valid
// action.
type Action int

const (
	ActionAttack Action = iota + 1
	ActionSwap
	ActionSpecial
)

func (a Action) Valid() bool { return a >= ActionAttack && a <= ActionSpecial }

func (a Action) String() string {
	switch a {
	case ActionAttack:
		return "attack"
	case ActionSwap:
		return "swap"
	case ActionSpecial:
		return "special"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

func (a Action) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Action) UnmarshalText(b []byte) error {
	v, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// ParseAction accepts attack, swap or special in any case.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "attack":
		return ActionAttack, nil
	case "swap":
		return ActionSwap, nil
	case "special":
		return ActionSpecial, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

// Result is the state of a session after a turn.
type Result int

const (
	Ongoing Result = iota
	SideAWins
	SideBWins
	Draw
)

func (r Result) Terminal() bool { return r != Ongoing }

func (r Result) String() string {
	switch r {
	case Ongoing:
		return "ongoing"
	case SideAWins:
		return "side_a_wins"
	case SideBWins:
		return "side_b_wins"
	case Draw:
		return "draw"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

func (r Result) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Result) UnmarshalText(b []byte) error {
	for _, v := range []Result{Ongoing, SideAWins, SideBWins, Draw} {
		if string(b) == v.String() {
			*r = v
			return nil
		}
	}
	return fmt.Errorf("unknown result %q", b)
}

// Chooser picks a side's action from its active monster and the enemy's.
type Chooser interface {
	ChooseAction(self, enemy *monster.Monster) Action
}

// ChooserFunc adapts a function to Chooser.
type ChooserFunc func(self, enemy *monster.Monster) Action

func (f ChooserFunc) ChooseAction(self, enemy *monster.Monster) Action { return f(self, enemy) }

// DefaultChooser attacks when at least as fast or at least as healthy as
// the enemy and swaps otherwise.
var DefaultChooser Chooser = ChooserFunc(func(self, enemy *monster.Monster) Action {
	if self.Speed() >= enemy.Speed() || self.HP() >= enemy.HP() {
		return ActionAttack
	}
	return ActionSwap
})

// Always returns a chooser that picks a regardless of the monsters.
func Always(a Action) Chooser {
	return ChooserFunc(func(_, _ *monster.Monster) Action { return a })
}
