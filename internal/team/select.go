package team

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"

	"monsterbattle/internal/monster"
)

// NewProvided builds a team from factories, inserted in the given order.
// Every species must be spawnable and the count must be within 1..limit;
// nothing is inserted otherwise.
func NewProvided(opts Options, factories []monster.Factory) (*Team, error) {
	if n := len(factories); n == 0 || n > opts.limit() {
		return nil, fmt.Errorf("%w: %d monsters, want 1 to %d", ErrTeamSize, n, opts.limit())
	}
	for _, f := range factories {
		if f.Species == nil {
			return nil, monster.ErrUnknownSpecies
		}
		if !f.Species.Spawnable {
			return nil, fmt.Errorf("%w: %s", ErrNotSpawnable, f.Species.Name)
		}
	}
	monsters := make([]*monster.Monster, 0, len(factories))
	for _, f := range factories {
		m, err := f.New()
		if err != nil {
			return nil, err
		}
		monsters = append(monsters, m)
	}
	return build(opts, monsters)
}

// NewRandom builds a team of 1..limit monsters, each drawn uniformly from
// the spawnable species at level 1.
func NewRandom(opts Options, spawner monster.Spawner, rng *rand.Rand) (*Team, error) {
	pool := spawner.Catalog.Spawnable()
	if len(pool) == 0 {
		return nil, ErrNoSpawnable
	}
	size := rng.IntN(opts.limit()) + 1
	monsters := make([]*monster.Monster, 0, size)
	for range size {
		sp := pool[rng.IntN(len(pool))]
		m, err := spawner.FactoryFor(sp, 1).New()
		if err != nil {
			return nil, err
		}
		monsters = append(monsters, m)
	}
	return build(opts, monsters)
}

// NewManual prompts on out and reads answers from in: first the team size,
// then one 1-based catalog index per member. Invalid answers and species
// that cannot be spawned are asked again.
func NewManual(opts Options, spawner monster.Spawner, in io.Reader, out io.Writer) (*Team, error) {
	p := prompter{in: bufio.NewScanner(in), out: out}
	limit := opts.limit()

	var size int
	for {
		n, err := p.askInt("Enter team size: ")
		if err != nil {
			return nil, err
		}
		if n >= 1 && n <= limit {
			size = n
			break
		}
		fmt.Fprintf(out, "Please enter an integer between 1 and %d\n", limit)
	}

	all := spawner.Catalog.All()
	fmt.Fprintln(out, "MONSTERS Are:")
	for i, sp := range all {
		mark := "[x]"
		if sp.Spawnable {
			mark = "[ok]"
		}
		fmt.Fprintf(out, "%d: %s %s\n", i+1, sp.Name, mark)
	}

	monsters := make([]*monster.Monster, 0, size)
	for len(monsters) < size {
		n, err := p.askInt("Which monster are you spawning? ")
		if err != nil {
			return nil, err
		}
		if n < 1 || n > len(all) {
			fmt.Fprintf(out, "Enter a number between 1 and %d\n", len(all))
			continue
		}
		sp := all[n-1]
		if !sp.Spawnable {
			fmt.Fprintln(out, "This monster cannot be spawned.")
			continue
		}
		m, err := spawner.FactoryFor(sp, 1).New()
		if err != nil {
			return nil, err
		}
		monsters = append(monsters, m)
		fmt.Fprintf(out, "%s was added to the team.\n", sp.Name)
	}
	return build(opts, monsters)
}

func build(opts Options, monsters []*monster.Monster) (*Team, error) {
	t, err := newTeam(opts)
	if err != nil {
		return nil, err
	}
	for _, m := range monsters {
		if err := t.Add(m); err != nil {
			return nil, err
		}
	}
	t.Freeze()
	return t, nil
}

type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// askInt prompts until a line parses as an integer.
func (p prompter) askInt(prompt string) (int, error) {
	for {
		fmt.Fprint(p.out, prompt)
		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return 0, err
			}
			return 0, fmt.Errorf("%w: input ended", ErrInvalidChoice)
		}
		n, err := strconv.Atoi(strings.TrimSpace(p.in.Text()))
		if err == nil {
			return n, nil
		}
		fmt.Fprintln(p.out, "Enter a number.")
	}
}
