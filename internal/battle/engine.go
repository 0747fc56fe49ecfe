// Package battle resolves matches between two teams one turn at a time.
package battle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"monsterbattle/internal/monster"
	"monsterbattle/internal/team"
)

var (
	ErrInvalidAction = errors.New("invalid action")
	ErrSessionOver   = errors.New("battle already finished")
)

// Side is one participant: its team and how it picks actions. A nil
// Chooser uses DefaultChooser.
type Side struct {
	Team    *team.Team
	Chooser Chooser
}

// Engine creates battle sessions. The zero value is ready to use.
type Engine struct {
	Logger *slog.Logger
	// OnTurn, if set, receives a report after every resolved turn.
	OnTurn func(TurnReport)
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

type fighter struct {
	label   string
	team    *team.Team
	chooser Chooser
	active  *monster.Monster
}

// Session is one match in progress.
type Session struct {
	engine *Engine
	sides  [2]*fighter
	turn   int
	result Result
}

// NewSession withdraws the first active monster of each side. Both teams
// must be non-empty.
func (e *Engine) NewSession(a, b Side) (*Session, error) {
	s := &Session{engine: e}
	for i, sd := range []Side{a, b} {
		label := "A"
		if i == 1 {
			label = "B"
		}
		if sd.Team == nil || sd.Team.Len() == 0 {
			return nil, fmt.Errorf("side %s: %w", label, team.ErrEmptyRoster)
		}
		ch := sd.Chooser
		if ch == nil {
			ch = DefaultChooser
		}
		s.sides[i] = &fighter{label: label, team: sd.Team, chooser: ch}
	}
	for _, f := range s.sides {
		m, err := f.team.Retrieve()
		if err != nil {
			return nil, fmt.Errorf("side %s: %w", f.label, err)
		}
		f.active = m
	}
	return s, nil
}

func (s *Session) Turn() int      { return s.turn }
func (s *Session) Result() Result { return s.result }

// Active returns both sides' current monsters.
func (s *Session) Active() (a, b *monster.Monster) {
	return s.sides[0].active, s.sides[1].active
}

// ProcessTurn resolves one turn and returns Ongoing or the final result.
// An invalid action from either chooser aborts the turn before anything
// changes.
func (s *Session) ProcessTurn() (Result, error) {
	if s.result.Terminal() {
		return s.result, ErrSessionOver
	}
	a, b := s.sides[0], s.sides[1]

	acts := [2]Action{
		a.chooser.ChooseAction(a.active, b.active),
		b.chooser.ChooseAction(b.active, a.active),
	}
	for i, act := range acts {
		if !act.Valid() {
			return Ongoing, fmt.Errorf("side %s: %w: %v", s.sides[i].label, ErrInvalidAction, act)
		}
	}
	s.turn++

	for i, f := range s.sides {
		if acts[i] == ActionAttack {
			continue
		}
		if err := f.switchOut(acts[i] == ActionSpecial); err != nil {
			return Ongoing, err
		}
	}

	s.exchange(acts[0] == ActionAttack, acts[1] == ActionAttack)

	if a.active.Alive() && b.active.Alive() {
		a.active.SetHP(a.active.HP() - 1)
		b.active.SetHP(b.active.HP() - 1)
	}

	res, err := s.settle()
	if err != nil {
		return Ongoing, err
	}
	s.result = res
	s.report(acts)
	return res, nil
}

// switchOut returns the active monster to the roster and withdraws the
// next one, reordering the roster in between for a special.
func (f *fighter) switchOut(special bool) error {
	if err := f.team.Add(f.active); err != nil {
		return fmt.Errorf("side %s: %w", f.label, err)
	}
	if special {
		f.team.Special()
	}
	m, err := f.team.Retrieve()
	if err != nil {
		return fmt.Errorf("side %s: %w", f.label, err)
	}
	f.active = m
	return nil
}

// exchange performs the attacks. The faster monster strikes first and the
// other retaliates only if it survived; on equal speed both strike.
func (s *Session) exchange(attackA, attackB bool) {
	if !attackA && !attackB {
		return
	}
	a, b := s.sides[0].active, s.sides[1].active
	sa, sb := a.Speed(), b.Speed()
	switch {
	case sa > sb:
		if attackA {
			a.Attack(b)
		}
		if attackB && b.Alive() {
			b.Attack(a)
		}
	case sb > sa:
		if attackB {
			b.Attack(a)
		}
		if attackA && a.Alive() {
			a.Attack(b)
		}
	default:
		if attackA {
			a.Attack(b)
		}
		if attackB {
			b.Attack(a)
		}
	}
}

func (s *Session) settle() (Result, error) {
	a, b := s.sides[0], s.sides[1]
	aliveA, aliveB := a.active.Alive(), b.active.Alive()
	emptyA, emptyB := a.team.Len() == 0, b.team.Len() == 0

	switch {
	case aliveA && aliveB:
		return Ongoing, nil
	case !aliveA && !aliveB:
		switch {
		case emptyA && emptyB:
			return Draw, nil
		case emptyA:
			return SideBWins, nil
		case emptyB:
			return SideAWins, nil
		}
		if err := a.replace(); err != nil {
			return Ongoing, err
		}
		if err := b.replace(); err != nil {
			return Ongoing, err
		}
		return Ongoing, nil
	case aliveA:
		if emptyB {
			return SideAWins, nil
		}
		if err := b.replace(); err != nil {
			return Ongoing, err
		}
		a.promote()
		return Ongoing, nil
	default:
		if emptyA {
			return SideBWins, nil
		}
		if err := a.replace(); err != nil {
			return Ongoing, err
		}
		b.promote()
		return Ongoing, nil
	}
}

func (f *fighter) replace() error {
	m, err := f.team.Retrieve()
	if err != nil {
		return fmt.Errorf("side %s: %w", f.label, err)
	}
	f.active = m
	return nil
}

// promote levels up the surviving monster and evolves it when eligible.
func (f *fighter) promote() {
	f.active.LevelUp()
	if f.active.ReadyToEvolve() {
		f.active = f.active.Evolve()
	}
}

func (s *Session) report(acts [2]Action) {
	a, b := s.sides[0], s.sides[1]
	rep := TurnReport{
		Turn:   s.turn,
		A:      snapshot(a.active, acts[0], a.team.Len()),
		B:      snapshot(b.active, acts[1], b.team.Len()),
		Result: s.result,
	}
	s.engine.logger().Debug("turn resolved",
		"turn", rep.Turn,
		"a", a.active.String(), "a_action", acts[0],
		"b", b.active.String(), "b_action", acts[1],
		"result", rep.Result)
	if s.engine.OnTurn != nil {
		s.engine.OnTurn(rep)
	}
}

// Run processes turns until the match ends or ctx is cancelled.
func (s *Session) Run(ctx context.Context) (Result, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Ongoing, err
		}
		res, err := s.ProcessTurn()
		if err != nil {
			return Ongoing, err
		}
		if res.Terminal() {
			s.engine.logger().Info("battle finished", "result", res, "turns", s.turn)
			return res, nil
		}
	}
}

// Battle runs a full match between a and b. It stops early only if ctx is
// cancelled or a chooser returns an invalid action.
func (e *Engine) Battle(ctx context.Context, a, b Side) (Result, error) {
	s, err := e.NewSession(a, b)
	if err != nil {
		return Ongoing, err
	}
	e.logger().Debug("battle started", "a", a.Team.String(), "b", b.Team.String())
	return s.Run(ctx)
}
