package battle

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monsterbattle/internal/element"
	"monsterbattle/internal/monster"
	"monsterbattle/internal/team"
	"monsterbattle/internal/testutil"
)

func teamOf(t *testing.T, tbl *element.Table, mode team.Mode, species ...*monster.Species) *team.Team {
	t.Helper()
	tm, err := team.NewProvided(team.Options{Mode: mode}, testutil.Factories(tbl, species...))
	require.NoError(t, err)
	return tm
}

func neutral(name string, attack, defense, speed, hp int) *monster.Species {
	return testutil.Species(name, testutil.Neutral, attack, defense, speed, hp)
}

func session(t *testing.T, e *Engine, a, b Side) *Session {
	t.Helper()
	s, err := e.NewSession(a, b)
	require.NoError(t, err)
	return s
}

func TestBattle_FasterKillsBeforeRetaliation(t *testing.T) {
	tbl := testutil.Table(t)
	x := neutral("X", 3, 1, 10, 5)
	y := neutral("Y", 3, 1, 5, 1)
	e := &Engine{}
	s := session(t, e,
		Side{Team: teamOf(t, tbl, team.Back, x), Chooser: Always(ActionAttack)},
		Side{Team: teamOf(t, tbl, team.Back, y), Chooser: Always(ActionAttack)},
	)

	res, err := s.ProcessTurn()
	require.NoError(t, err)
	assert.Equal(t, SideAWins, res)

	activeA, activeB := s.Active()
	assert.Equal(t, 5, activeA.HP(), "Y never retaliates")
	assert.Equal(t, -1, activeB.HP())
	assert.Equal(t, 1, s.Turn())
}

func TestProcessTurn_SlowerRetaliatesThenChip(t *testing.T) {
	tbl := testutil.Table(t)
	s := session(t, &Engine{},
		Side{Team: teamOf(t, tbl, team.Back, neutral("fast", 4, 4, 10, 20)), Chooser: Always(ActionAttack)},
		Side{Team: teamOf(t, tbl, team.Back, neutral("slow", 4, 4, 5, 20)), Chooser: Always(ActionAttack)},
	)

	res, err := s.ProcessTurn()
	require.NoError(t, err)
	assert.Equal(t, Ongoing, res)

	a, b := s.Active()
	// 1 damage each way, then 1 chip each.
	assert.Equal(t, 18, a.HP())
	assert.Equal(t, 18, b.HP())
}

func TestProcessTurn_SpeedTieBothAttack(t *testing.T) {
	tbl := testutil.Table(t)
	s := session(t, &Engine{},
		Side{Team: teamOf(t, tbl, team.Back, neutral("a", 10, 1, 5, 5)), Chooser: Always(ActionAttack)},
		Side{Team: teamOf(t, tbl, team.Back, neutral("b", 10, 1, 5, 5)), Chooser: Always(ActionAttack)},
	)

	res, err := s.ProcessTurn()
	require.NoError(t, err)
	assert.Equal(t, Draw, res, "both faint with empty rosters")

	a, b := s.Active()
	assert.Equal(t, -4, a.HP())
	assert.Equal(t, -4, b.HP())
}

func TestProcessTurn_SwapSkipsAttack(t *testing.T) {
	tbl := testutil.Table(t)
	a1 := neutral("a1", 4, 4, 9, 20)
	a2 := neutral("a2", 4, 4, 9, 20)
	b1 := neutral("b1", 8, 2, 1, 20)
	teamA := teamOf(t, tbl, team.Back, a1, a2)
	s := session(t, &Engine{},
		Side{Team: teamA, Chooser: Always(ActionSwap)},
		Side{Team: teamOf(t, tbl, team.Back, b1), Chooser: Always(ActionAttack)},
	)

	res, err := s.ProcessTurn()
	require.NoError(t, err)
	assert.Equal(t, Ongoing, res)

	a, b := s.Active()
	assert.Equal(t, "a2", a.Name())
	assert.Equal(t, 15, a.HP(), "4 from b1 plus chip")
	assert.Equal(t, 19, b.HP(), "only chip")

	benched := teamA.Members()
	require.Len(t, benched, 1)
	assert.Equal(t, "a1", benched[0].Name())
	assert.Equal(t, 20, benched[0].HP())
}

func TestProcessTurn_SpecialReordersWithActiveInRoster(t *testing.T) {
	tbl := testutil.Table(t)
	// Front team: a3 starts active, a2 then a1 on the stack.
	teamA := teamOf(t, tbl, team.Front, neutral("a1", 1, 1, 1, 50), neutral("a2", 1, 1, 1, 50), neutral("a3", 1, 1, 1, 50))
	s := session(t, &Engine{},
		Side{Team: teamA, Chooser: Always(ActionSpecial)},
		Side{Team: teamOf(t, tbl, team.Front, neutral("b", 1, 1, 1, 50)), Chooser: Always(ActionSwap)},
	)

	_, err := s.ProcessTurn()
	require.NoError(t, err)

	a, b := s.Active()
	assert.Equal(t, "a1", a.Name())
	assert.Equal(t, []string{"a2", "a3"}, []string{teamA.Members()[0].Name(), teamA.Members()[1].Name()})
	assert.Equal(t, "b", b.Name(), "swapping with an empty roster brings the same monster back")
	assert.Equal(t, 49, a.HP())
	assert.Equal(t, 49, b.HP())
}

func TestProcessTurn_SurvivorLevelsAndEvolves(t *testing.T) {
	tbl := testutil.Table(t)
	pup := neutral("Pup", 10, 1, 10, 10)
	pup.Evolution = "Dog"
	dog := neutral("Dog", 20, 5, 12, 30)
	testutil.Catalog(t, pup, dog)

	s := session(t, &Engine{},
		Side{Team: teamOf(t, tbl, team.Back, pup), Chooser: Always(ActionAttack)},
		Side{Team: teamOf(t, tbl, team.Back, neutral("w1", 1, 1, 1, 1), neutral("w2", 1, 1, 1, 1)), Chooser: Always(ActionAttack)},
	)

	res, err := s.ProcessTurn()
	require.NoError(t, err)
	assert.Equal(t, Ongoing, res)

	a, b := s.Active()
	assert.Equal(t, "Dog", a.Name())
	assert.Equal(t, 2, a.Level())
	assert.Equal(t, 30, a.HP())
	assert.Equal(t, 2, a.OriginalLevel())
	assert.Equal(t, "w2", b.Name())

	res, err = s.ProcessTurn()
	require.NoError(t, err)
	assert.Equal(t, SideAWins, res)
	a, _ = s.Active()
	assert.Equal(t, 2, a.Level(), "no level when the loser has no replacement")
}

func TestProcessTurn_BothFaint(t *testing.T) {
	tbl := testutil.Table(t)
	killer := func(name string) *monster.Species { return neutral(name, 10, 1, 5, 5) }
	tests := []struct {
		name   string
		a, b   []*monster.Species
		want   Result
		active [2]string
	}{
		{"both replace", []*monster.Species{killer("a1"), killer("a2")}, []*monster.Species{killer("b1"), killer("b2")}, Ongoing, [2]string{"a2", "b2"}},
		{"only A has more", []*monster.Species{killer("a1"), killer("a2")}, []*monster.Species{killer("b1")}, SideAWins, [2]string{"a1", "b1"}},
		{"only B has more", []*monster.Species{killer("a1")}, []*monster.Species{killer("b1"), killer("b2")}, SideBWins, [2]string{"a1", "b1"}},
		{"neither", []*monster.Species{killer("a1")}, []*monster.Species{killer("b1")}, Draw, [2]string{"a1", "b1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := session(t, &Engine{},
				Side{Team: teamOf(t, tbl, team.Back, tt.a...), Chooser: Always(ActionAttack)},
				Side{Team: teamOf(t, tbl, team.Back, tt.b...), Chooser: Always(ActionAttack)},
			)
			res, err := s.ProcessTurn()
			require.NoError(t, err)
			assert.Equal(t, tt.want, res)
			a, b := s.Active()
			assert.Equal(t, tt.active, [2]string{a.Name(), b.Name()})
		})
	}
}

func TestProcessTurn_InvalidActionMutatesNothing(t *testing.T) {
	tbl := testutil.Table(t)
	teamA := teamOf(t, tbl, team.Back, neutral("a1", 5, 1, 5, 10), neutral("a2", 5, 1, 5, 10))
	s := session(t, &Engine{},
		Side{Team: teamA, Chooser: Always(ActionSwap)},
		Side{Team: teamOf(t, tbl, team.Back, neutral("b", 5, 1, 5, 10)), Chooser: Always(Action(0))},
	)

	_, err := s.ProcessTurn()
	require.ErrorIs(t, err, ErrInvalidAction)

	a, b := s.Active()
	assert.Equal(t, "a1", a.Name())
	assert.Equal(t, 10, a.HP())
	assert.Equal(t, 10, b.HP())
	assert.Equal(t, 1, teamA.Len())
	assert.Equal(t, 0, s.Turn())
}

func TestProcessTurn_AfterFinish(t *testing.T) {
	tbl := testutil.Table(t)
	s := session(t, &Engine{},
		Side{Team: teamOf(t, tbl, team.Back, neutral("x", 9, 1, 9, 9)), Chooser: Always(ActionAttack)},
		Side{Team: teamOf(t, tbl, team.Back, neutral("y", 1, 1, 1, 1)), Chooser: Always(ActionAttack)},
	)
	res, err := s.ProcessTurn()
	require.NoError(t, err)
	require.Equal(t, SideAWins, res)

	res, err = s.ProcessTurn()
	assert.ErrorIs(t, err, ErrSessionOver)
	assert.Equal(t, SideAWins, res)
}

func TestNewSession_EmptyTeam(t *testing.T) {
	tbl := testutil.Table(t)
	empty := teamOf(t, tbl, team.Back, neutral("gone", 1, 1, 1, 1))
	_, err := empty.Retrieve()
	require.NoError(t, err)

	_, err = (&Engine{}).NewSession(Side{Team: empty}, Side{Team: teamOf(t, tbl, team.Back, neutral("b", 1, 1, 1, 1))})
	assert.ErrorIs(t, err, team.ErrEmptyRoster)

	_, err = (&Engine{}).NewSession(Side{}, Side{})
	assert.ErrorIs(t, err, team.ErrEmptyRoster)
}

func TestEngine_OnTurnReports(t *testing.T) {
	tbl := testutil.Table(t)
	var reports []TurnReport
	e := &Engine{OnTurn: func(r TurnReport) { reports = append(reports, r) }}

	res, err := e.Battle(context.Background(),
		Side{Team: teamOf(t, tbl, team.Back, neutral("a", 4, 4, 10, 6))},
		Side{Team: teamOf(t, tbl, team.Back, neutral("b", 4, 4, 5, 6))},
	)
	require.NoError(t, err)
	require.NotEmpty(t, reports)

	last := reports[len(reports)-1]
	assert.Equal(t, res, last.Result)
	for i, r := range reports {
		assert.Equal(t, i+1, r.Turn)
		if i < len(reports)-1 {
			assert.Equal(t, Ongoing, r.Result)
		}
	}
	assert.Equal(t, "a", reports[0].A.Name)
	assert.Equal(t, ActionAttack, reports[0].A.Action)
	assert.Equal(t, 0, reports[0].B.Remaining)
}

func TestEngine_BattleCancelled(t *testing.T) {
	tbl := testutil.Table(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Engine{}).Battle(ctx,
		Side{Team: teamOf(t, tbl, team.Back, neutral("a", 1, 1, 1, 5))},
		Side{Team: teamOf(t, tbl, team.Back, neutral("b", 1, 1, 1, 5))},
	)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_BattleAlwaysTerminates(t *testing.T) {
	tbl, err := element.LoadCSV("../../data/type_effectiveness.csv")
	require.NoError(t, err)
	cat, err := monster.LoadCatalog("../../data/species.yaml")
	require.NoError(t, err)
	require.NoError(t, cat.Validate(tbl))

	modes := []team.Options{
		{Mode: team.Front},
		{Mode: team.Back},
		{Mode: team.Optimise, SortKey: team.ByHP},
		{Mode: team.Optimise, SortKey: team.BySpeed},
	}
	choosers := []Chooser{DefaultChooser, Always(ActionAttack), Always(ActionSwap), Always(ActionSpecial)}

	for _, stat := range []monster.StatMode{monster.SimpleStats, monster.ComplexStats} {
		sp := monster.Spawner{Catalog: cat, Table: tbl, Mode: stat}
		for seed := uint64(1); seed <= 25; seed++ {
			rng := rand.New(rand.NewPCG(seed, uint64(stat)))
			a, err := team.NewRandom(modes[rng.IntN(len(modes))], sp, rng)
			require.NoError(t, err)
			b, err := team.NewRandom(modes[rng.IntN(len(modes))], sp, rng)
			require.NoError(t, err)

			turns := 0
			e := &Engine{OnTurn: func(TurnReport) { turns++ }}
			res, err := e.Battle(context.Background(),
				Side{Team: a, Chooser: choosers[rng.IntN(len(choosers))]},
				Side{Team: b, Chooser: choosers[rng.IntN(len(choosers))]},
			)
			require.NoError(t, err)
			assert.True(t, res.Terminal(), "seed %d", seed)
			assert.Less(t, turns, 10000, "seed %d", seed)
		}
	}
}

func TestDefaultChooser(t *testing.T) {
	tbl := testutil.Table(t)
	mk := func(speed, hp int) *monster.Monster {
		return testutil.Monster(t, tbl, neutral("m", 1, 1, speed, hp))
	}
	assert.Equal(t, ActionAttack, DefaultChooser.ChooseAction(mk(5, 1), mk(5, 10)))
	assert.Equal(t, ActionAttack, DefaultChooser.ChooseAction(mk(1, 10), mk(5, 10)))
	assert.Equal(t, ActionSwap, DefaultChooser.ChooseAction(mk(1, 5), mk(5, 10)))
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction(" Special ")
	require.NoError(t, err)
	assert.Equal(t, ActionSpecial, a)
	_, err = ParseAction("run")
	assert.ErrorIs(t, err, ErrInvalidAction)
	assert.False(t, Action(0).Valid())
}

func TestTurnReport_JSON(t *testing.T) {
	in := TurnReport{
		Turn:   3,
		A:      Fighter{Name: "a", Action: ActionSpecial},
		B:      Fighter{Name: "b", Action: ActionSwap},
		Result: SideBWins,
	}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"side_b_wins"`)

	var out TurnReport
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)

	var r Result
	assert.Error(t, r.UnmarshalText([]byte("stalemate")))
}
