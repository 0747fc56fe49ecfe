// Package tower runs the battle tower: a player team with a number of lives
// fights a rotating queue of random enemy teams until either side runs out.
package tower

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"monsterbattle/internal/battle"
	"monsterbattle/internal/monster"
	"monsterbattle/internal/team"
)

const (
	MinLives = 2
	MaxLives = 10
)

var (
	ErrNoTeam       = errors.New("player team not set")
	ErrNoBattles    = errors.New("no battles remaining")
	ErrInvalidLives = errors.New("invalid lives range")
)

// Options configures a tower. Zero lives take the package defaults. Enemy
// teams normally use a Back roster.
type Options struct {
	MinLives  int
	MaxLives  int
	EnemyTeam team.Options
	Logger    *slog.Logger
}

func (o Options) lives() (lo, hi int, err error) {
	lo, hi = o.MinLives, o.MaxLives
	if lo == 0 {
		lo = MinLives
	}
	if hi == 0 {
		hi = MaxLives
	}
	if lo < 1 || hi < lo {
		return 0, 0, fmt.Errorf("%w: %d..%d", ErrInvalidLives, lo, hi)
	}
	return lo, hi, nil
}

type enemy struct {
	id    int
	team  *team.Team
	lives int
}

// Enemy is a queued enemy team.
type Enemy struct {
	ID      int      `json:"id"`
	Lives   int      `json:"lives"`
	Species []string `json:"species"`
}

// Outcome records one tower battle.
type Outcome struct {
	Battle      int           `json:"battle"`
	Result      battle.Result `json:"result"`
	Turns       int           `json:"turns"`
	EnemyID     int           `json:"enemy_id"`
	Player      []string      `json:"player"`
	Enemy       []string      `json:"enemy"`
	PlayerLives int           `json:"player_lives"`
	EnemyLives  int           `json:"enemy_lives"`
}

// Tower is not safe for concurrent use.
type Tower struct {
	engine  *battle.Engine
	spawner monster.Spawner
	rng     *rand.Rand
	opts    Options
	lo, hi  int
	logger  *slog.Logger

	player        *team.Team
	playerChooser battle.Chooser
	playerLives   int

	queue   []*enemy
	nextID  int
	history []Outcome
}

// New creates an empty tower. Enemy teams are drawn from spawner using rng.
func New(engine *battle.Engine, spawner monster.Spawner, rng *rand.Rand, opts Options) (*Tower, error) {
	lo, hi, err := opts.lives()
	if err != nil {
		return nil, err
	}
	if engine == nil {
		engine = &battle.Engine{Logger: opts.Logger}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Tower{engine: engine, spawner: spawner, rng: rng, opts: opts, lo: lo, hi: hi, logger: logger}, nil
}

func (t *Tower) rollLives() int { return t.lo + t.rng.IntN(t.hi-t.lo+1) }

// SetPlayer sets the player's team and rolls its lives. A nil chooser uses
// battle.DefaultChooser.
func (t *Tower) SetPlayer(tm *team.Team, chooser battle.Chooser) {
	t.player = tm
	t.playerChooser = chooser
	t.playerLives = t.rollLives()
}

// GenerateEnemies queues n random enemy teams, each with its own lives.
// The first generated team fights first.
func (t *Tower) GenerateEnemies(n int) error {
	for range n {
		tm, err := team.NewRandom(t.opts.EnemyTeam, t.spawner, t.rng)
		if err != nil {
			return fmt.Errorf("generating enemy team: %w", err)
		}
		t.queue = append(t.queue, &enemy{id: t.nextID, team: tm, lives: t.rollLives()})
		t.nextID++
	}
	return nil
}

// BattlesRemaining reports whether the player has lives left and there is
// still an enemy to fight.
func (t *Tower) BattlesRemaining() bool {
	return t.player != nil && t.playerLives > 0 && len(t.queue) > 0
}

// NextBattle regenerates the player and the next enemy, fights them and
// settles lives. An enemy with lives left rejoins the back of the queue.
func (t *Tower) NextBattle(ctx context.Context) (Outcome, error) {
	if t.player == nil {
		return Outcome{}, ErrNoTeam
	}
	if !t.BattlesRemaining() {
		return Outcome{}, ErrNoBattles
	}
	e := t.queue[0]

	if err := t.player.Regenerate(); err != nil {
		return Outcome{}, fmt.Errorf("player: %w", err)
	}
	if err := e.team.Regenerate(); err != nil {
		return Outcome{}, fmt.Errorf("enemy %d: %w", e.id, err)
	}

	s, err := t.engine.NewSession(
		battle.Side{Team: t.player, Chooser: t.playerChooser},
		battle.Side{Team: e.team},
	)
	if err != nil {
		return Outcome{}, err
	}
	res, err := s.Run(ctx)
	if err != nil {
		return Outcome{}, err
	}

	switch res {
	case battle.SideAWins:
		e.lives--
	case battle.SideBWins:
		t.playerLives--
	default:
		e.lives--
		t.playerLives--
	}

	t.queue = t.queue[1:]
	if e.lives > 0 {
		t.queue = append(t.queue, e)
	}

	out := Outcome{
		Battle:      len(t.history) + 1,
		Result:      res,
		Turns:       s.Turn(),
		EnemyID:     e.id,
		Player:      speciesNames(t.player),
		Enemy:       speciesNames(e.team),
		PlayerLives: t.playerLives,
		EnemyLives:  e.lives,
	}
	t.history = append(t.history, out)
	t.logger.Info("tower battle",
		"battle", out.Battle, "enemy", e.id, "result", res,
		"player_lives", t.playerLives, "enemy_lives", e.lives)
	return out, nil
}

// Run fights battles until none remain and returns this call's outcomes.
func (t *Tower) Run(ctx context.Context) ([]Outcome, error) {
	if t.player == nil {
		return nil, ErrNoTeam
	}
	var outs []Outcome
	for t.BattlesRemaining() {
		out, err := t.NextBattle(ctx)
		if err != nil {
			return outs, err
		}
		outs = append(outs, out)
	}
	return outs, nil
}

func (t *Tower) PlayerLives() int   { return t.playerLives }
func (t *Tower) Player() *team.Team { return t.player }

// Enemies returns the queue, next opponent first.
func (t *Tower) Enemies() []Enemy {
	out := make([]Enemy, 0, len(t.queue))
	for _, e := range t.queue {
		out = append(out, Enemy{ID: e.id, Lives: e.lives, Species: speciesNames(e.team)})
	}
	return out
}

// History returns every outcome so far.
func (t *Tower) History() []Outcome {
	out := make([]Outcome, len(t.history))
	copy(out, t.history)
	return out
}

func speciesNames(tm *team.Team) []string {
	orig := tm.Original()
	names := make([]string, 0, len(orig))
	for _, f := range orig {
		names = append(names, f.Species.Name)
	}
	return names
}
