package team

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"monsterbattle/internal/monster"
)

var (
	ErrEmptyRoster    = errors.New("roster is empty")
	ErrTeamFull       = errors.New("team is full")
	ErrUnknownMode    = errors.New("unknown team mode")
	ErrUnknownSortKey = errors.New("unknown sort key")
)

// Mode is the insert/withdraw discipline of a roster.
type Mode int

const (
	Front    Mode = iota // last in, first out
	Back                 // first in, first out
	Optimise             // ordered by a stat
)

func (m Mode) String() string {
	switch m {
	case Front:
		return "front"
	case Back:
		return "back"
	case Optimise:
		return "optimise"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "front":
		return Front, nil
	case "back":
		return Back, nil
	case "optimise", "optimize":
		return Optimise, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// SortKey is the stat an Optimise roster orders by.
type SortKey int

const (
	ByHP SortKey = iota
	ByAttack
	ByDefense
	BySpeed
	ByLevel
)

func (k SortKey) String() string {
	switch k {
	case ByHP:
		return "hp"
	case ByAttack:
		return "attack"
	case ByDefense:
		return "defense"
	case BySpeed:
		return "speed"
	case ByLevel:
		return "level"
	default:
		return fmt.Sprintf("SortKey(%d)", int(k))
	}
}

func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hp":
		return ByHP, nil
	case "attack":
		return ByAttack, nil
	case "defense", "defence":
		return ByDefense, nil
	case "speed":
		return BySpeed, nil
	case "level":
		return ByLevel, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
	}
}

func (k SortKey) value(m *monster.Monster) int {
	switch k {
	case ByAttack:
		return m.Stats().Attack
	case ByDefense:
		return m.Stats().Defense
	case BySpeed:
		return m.Speed()
	case ByLevel:
		return m.Level()
	default:
		return m.HP()
	}
}

// Roster is a bounded container of monsters with a fixed policy.
type Roster interface {
	Insert(m *monster.Monster) error
	// Withdraw removes the next monster according to the policy.
	Withdraw() (*monster.Monster, error)
	// Special reorders the roster without changing its members.
	Special()
	Len() int
	// Members lists the monsters in the order they would be withdrawn.
	Members() []*monster.Monster
}

// NewRoster returns an empty roster for mode holding at most capacity monsters.
func NewRoster(mode Mode, key SortKey, capacity int) (Roster, error) {
	switch mode {
	case Front:
		return &stackRoster{capacity: capacity}, nil
	case Back:
		return &queueRoster{capacity: capacity}, nil
	case Optimise:
		if key < ByHP || key > ByLevel {
			return nil, fmt.Errorf("%w: %d", ErrUnknownSortKey, int(key))
		}
		return &sortedRoster{capacity: capacity, key: key, descending: true}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}
}

// stackRoster withdraws the most recently inserted monster first. The top
// of the stack is the end of items.
type stackRoster struct {
	items    []*monster.Monster
	capacity int
}

func (r *stackRoster) Insert(m *monster.Monster) error {
	if len(r.items) >= r.capacity {
		return ErrTeamFull
	}
	r.items = append(r.items, m)
	return nil
}

func (r *stackRoster) Withdraw() (*monster.Monster, error) {
	if len(r.items) == 0 {
		return nil, ErrEmptyRoster
	}
	return r.pop(), nil
}

func (r *stackRoster) pop() *monster.Monster {
	m := r.items[len(r.items)-1]
	r.items[len(r.items)-1] = nil
	r.items = r.items[:len(r.items)-1]
	return m
}

// Special reverses the top three monsters (the top two if only two remain).
func (r *stackRoster) Special() {
	if len(r.items) < 2 {
		return
	}
	popped := []*monster.Monster{r.pop(), r.pop()}
	if len(r.items) >= 1 {
		popped = append(popped, r.pop())
	}
	r.items = append(r.items, popped...)
}

func (r *stackRoster) Len() int { return len(r.items) }

func (r *stackRoster) Members() []*monster.Monster {
	out := make([]*monster.Monster, 0, len(r.items))
	for i := len(r.items) - 1; i >= 0; i-- {
		out = append(out, r.items[i])
	}
	return out
}

// queueRoster withdraws the earliest inserted monster first.
type queueRoster struct {
	items    []*monster.Monster
	capacity int
}

func (r *queueRoster) Insert(m *monster.Monster) error {
	if len(r.items) >= r.capacity {
		return ErrTeamFull
	}
	r.items = append(r.items, m)
	return nil
}

func (r *queueRoster) Withdraw() (*monster.Monster, error) {
	if len(r.items) == 0 {
		return nil, ErrEmptyRoster
	}
	m := r.items[0]
	r.items[0] = nil
	r.items = r.items[1:]
	return m, nil
}

// Special moves the back half, reversed, ahead of the front half. The front
// half holds floor(n/2) monsters and keeps its order.
func (r *queueRoster) Special() {
	half := len(r.items) / 2
	front, back := r.items[:half], r.items[half:]
	out := make([]*monster.Monster, 0, len(r.items))
	for i := len(back) - 1; i >= 0; i-- {
		out = append(out, back[i])
	}
	out = append(out, front...)
	r.items = out
}

func (r *queueRoster) Len() int { return len(r.items) }

func (r *queueRoster) Members() []*monster.Monster {
	out := make([]*monster.Monster, len(r.items))
	copy(out, r.items)
	return out
}

type keyed struct {
	m   *monster.Monster
	key int
}

// sortedRoster keeps monsters ascending by the key they had when inserted.
// While descending it withdraws the largest key, otherwise the smallest.
type sortedRoster struct {
	items      []keyed
	capacity   int
	key        SortKey
	descending bool
}

func (r *sortedRoster) Insert(m *monster.Monster) error {
	if len(r.items) >= r.capacity {
		return ErrTeamFull
	}
	k := r.key.value(m)
	// After any equal keys, so ties keep insertion order.
	i := sort.Search(len(r.items), func(i int) bool { return r.items[i].key > k })
	r.items = append(r.items, keyed{})
	copy(r.items[i+1:], r.items[i:])
	r.items[i] = keyed{m: m, key: k}
	return nil
}

func (r *sortedRoster) Withdraw() (*monster.Monster, error) {
	if len(r.items) == 0 {
		return nil, ErrEmptyRoster
	}
	if r.descending {
		last := len(r.items) - 1
		m := r.items[last].m
		r.items = r.items[:last]
		return m, nil
	}
	m := r.items[0].m
	r.items = r.items[1:]
	return m, nil
}

// Special flips the withdraw direction.
func (r *sortedRoster) Special() { r.descending = !r.descending }

func (r *sortedRoster) Len() int { return len(r.items) }

func (r *sortedRoster) Members() []*monster.Monster {
	out := make([]*monster.Monster, 0, len(r.items))
	if r.descending {
		for i := len(r.items) - 1; i >= 0; i-- {
			out = append(out, r.items[i].m)
		}
		return out
	}
	for _, it := range r.items {
		out = append(out, it.m)
	}
	return out
}
