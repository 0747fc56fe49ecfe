package tower

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"monsterbattle/internal/battle"
)

// Summary totals one tower run.
type Summary struct {
	Index       int  `json:"index"`
	Battles     int  `json:"battles"`
	Wins        int  `json:"wins"`
	Losses      int  `json:"losses"`
	Draws       int  `json:"draws"`
	Turns       int  `json:"turns"`
	PlayerLives int  `json:"player_lives"`
	EnemiesLeft int  `json:"enemies_left"`
	Cleared     bool `json:"cleared"`
}

// Summarize totals the outcomes of a finished tower.
func Summarize(index int, t *Tower) Summary {
	s := Summary{Index: index, PlayerLives: t.PlayerLives(), EnemiesLeft: len(t.queue)}
	for _, o := range t.history {
		s.Battles++
		s.Turns += o.Turns
		switch o.Result {
		case battle.SideAWins:
			s.Wins++
		case battle.SideBWins:
			s.Losses++
		default:
			s.Draws++
		}
	}
	s.Cleared = s.EnemiesLeft == 0
	return s
}

// RunMany builds n towers with build and runs them with at most limit in
// flight. Towers share nothing but what build gives them, so build must
// hand each tower its own random source. The first error cancels the rest.
func RunMany(ctx context.Context, n, limit int, build func(i int) (*Tower, error)) ([]Summary, error) {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	out := make([]Summary, n)
	for i := range n {
		g.Go(func() error {
			t, err := build(i)
			if err != nil {
				return fmt.Errorf("tower %d: %w", i, err)
			}
			if _, err := t.Run(ctx); err != nil {
				return fmt.Errorf("tower %d: %w", i, err)
			}
			out[i] = Summarize(i, t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
