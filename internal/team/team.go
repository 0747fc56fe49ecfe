// Package team manages a side's monsters: the roster policies, how a team
// is first built and how it is regenerated between matches.
package team

import (
	"errors"
	"fmt"
	"strings"

	"monsterbattle/internal/monster"
)

// DefaultLimit is the maximum number of monsters on a team.
const DefaultLimit = 6

var (
	ErrTeamSize      = errors.New("invalid team size")
	ErrNotSpawnable  = errors.New("species cannot be spawned")
	ErrNoSpawnable   = errors.New("catalog has no spawnable species")
	ErrInvalidChoice = errors.New("invalid selection")
)

// Options configures a team's roster.
type Options struct {
	Mode    Mode
	SortKey SortKey // Optimise only
	Limit   int     // DefaultLimit when zero
}

func (o Options) limit() int {
	if o.Limit <= 0 {
		return DefaultLimit
	}
	return o.Limit
}

// Team is a roster plus the species it was built from.
type Team struct {
	opts     Options
	roster   Roster
	original []monster.Factory
	frozen   bool
}

func newTeam(opts Options) (*Team, error) {
	r, err := NewRoster(opts.Mode, opts.SortKey, opts.limit())
	if err != nil {
		return nil, err
	}
	return &Team{opts: opts, roster: r}, nil
}

// Add inserts m. Until the team is frozen, m's species is also recorded
// as part of the original composition.
func (t *Team) Add(m *monster.Monster) error {
	if err := t.roster.Insert(m); err != nil {
		return err
	}
	if !t.frozen {
		t.original = append(t.original, m.Factory())
	}
	return nil
}

// Retrieve withdraws the next monster.
func (t *Team) Retrieve() (*monster.Monster, error) {
	return t.roster.Withdraw()
}

// Special applies the roster's reordering.
func (t *Team) Special() { t.roster.Special() }

func (t *Team) Len() int                    { return t.roster.Len() }
func (t *Team) Mode() Mode                  { return t.opts.Mode }
func (t *Team) SortKey() SortKey            { return t.opts.SortKey }
func (t *Team) Limit() int                  { return t.opts.limit() }
func (t *Team) Members() []*monster.Monster { return t.roster.Members() }
func (t *Team) Frozen() bool                { return t.frozen }

// Original returns the species the team was built from, in insertion order.
func (t *Team) Original() []monster.Factory {
	out := make([]monster.Factory, len(t.original))
	copy(out, t.original)
	return out
}

// Freeze fixes the original composition. Later Adds no longer record.
func (t *Team) Freeze() { t.frozen = true }

// Regenerate discards the current members and refills the roster with
// fresh monsters of the original species at their creation level. An
// Optimise roster's direction is reset.
func (t *Team) Regenerate() error {
	fresh := make([]*monster.Monster, 0, len(t.original))
	for _, f := range t.original {
		m, err := f.New()
		if err != nil {
			return fmt.Errorf("regenerating %s: %w", f.Species.Name, err)
		}
		fresh = append(fresh, m)
	}
	r, err := NewRoster(t.opts.Mode, t.opts.SortKey, t.opts.limit())
	if err != nil {
		return err
	}
	for _, m := range fresh {
		if err := r.Insert(m); err != nil {
			return err
		}
	}
	t.roster = r
	return nil
}

func (t *Team) String() string {
	names := make([]string, 0, t.Len())
	for _, m := range t.Members() {
		names = append(names, m.String())
	}
	return fmt.Sprintf("%s[%s]", t.opts.Mode, strings.Join(names, "; "))
}
