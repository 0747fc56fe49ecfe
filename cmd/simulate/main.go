// simulate runs many battle towers in parallel and prints one summary line
// per tower.
//
//	go run ./cmd/simulate -towers 100 -parallel 8 -seed 1
//	go run ./cmd/simulate -team Flamikin,Aquariuma -mode optimise -sort speed
//	go run ./cmd/simulate -manual
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"text/tabwriter"

	"monsterbattle/internal/battle"
	"monsterbattle/internal/config"
	"monsterbattle/internal/monster"
	"monsterbattle/internal/script"
	"monsterbattle/internal/team"
	"monsterbattle/internal/tower"
)

type flags struct {
	config   string
	towers   int
	parallel int
	seed     uint64
	team     string
	mode     string
	sortKey  string
	manual   bool
	chooser  string
	verbose  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var f flags
	flag.StringVar(&f.config, "config", config.Path("config/server.yaml"), "config file")
	flag.IntVar(&f.towers, "towers", 10, "number of towers to run")
	flag.IntVar(&f.parallel, "parallel", runtime.NumCPU(), "towers in flight at once")
	flag.Uint64Var(&f.seed, "seed", 0, "base seed; 0 uses the config seed or a random one")
	flag.StringVar(&f.team, "team", "", "comma separated species for the player; random when empty")
	flag.StringVar(&f.mode, "mode", "", "player roster mode: front, back or optimise")
	flag.StringVar(&f.sortKey, "sort", "", "optimise sort key: hp, attack, defense, speed or level")
	flag.BoolVar(&f.manual, "manual", false, "pick the player's team interactively")
	flag.StringVar(&f.chooser, "chooser", "", "player chooser script; overrides the config")
	flag.BoolVar(&f.verbose, "v", false, "log every battle")
	flag.Parse()

	os.Exit(run(ctx, f, os.Stdin, os.Stdout))
}

func run(ctx context.Context, f flags, in io.Reader, out io.Writer) int {
	cfg, err := config.Load(f.config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	spawner, err := cfg.Spawner()
	if err != nil {
		fmt.Fprintf(os.Stderr, "data: %v\n", err)
		return 1
	}
	opts, err := playerOptions(cfg, f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "player: %v\n", err)
		return 1
	}
	towerOpts, err := cfg.TowerOptions(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tower: %v\n", err)
		return 1
	}

	// A fixed team is rebuilt from the same factories for every tower.
	var factories []monster.Factory
	switch {
	case f.manual:
		tm, err := team.NewManual(opts, spawner, in, out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "team: %v\n", err)
			return 1
		}
		factories = tm.Original()
	case f.team != "":
		for _, name := range strings.Split(f.team, ",") {
			fac, err := spawner.Factory(strings.TrimSpace(name), 1)
			if err != nil {
				fmt.Fprintf(os.Stderr, "team: %v\n", err)
				return 1
			}
			factories = append(factories, fac)
		}
	}

	scriptPath := cfg.ChooserScript
	if f.chooser != "" {
		scriptPath = f.chooser
	}

	seed := f.seed
	if seed == 0 {
		seed = cfg.Seed
	}
	if seed == 0 {
		seed = rand.Uint64()
	}

	build := func(i int) (*tower.Tower, error) {
		s := seed + uint64(i)
		rng := rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))

		var player *team.Team
		var err error
		if factories != nil {
			player, err = team.NewProvided(opts, factories)
		} else {
			player, err = team.NewRandom(opts, spawner, rng)
		}
		if err != nil {
			return nil, err
		}

		var chooser battle.Chooser
		if scriptPath != "" {
			c, err := script.Load(scriptPath, script.Options{Name: fmt.Sprintf("tower-%d", i), Logger: logger})
			if err != nil {
				return nil, err
			}
			chooser = c
		}

		t, err := tower.New(&battle.Engine{Logger: logger}, spawner, rng, towerOpts)
		if err != nil {
			return nil, err
		}
		t.SetPlayer(player, chooser)
		if err := t.GenerateEnemies(cfg.Tower.EnemyTeams); err != nil {
			return nil, err
		}
		return t, nil
	}

	summaries, err := tower.RunMany(ctx, f.towers, f.parallel, build)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulate: %v\n", err)
		return 1
	}
	printSummaries(out, seed, summaries)
	return 0
}

func playerOptions(cfg config.Config, f flags) (team.Options, error) {
	opts, err := cfg.PlayerTeam()
	if err != nil {
		return opts, err
	}
	if f.mode != "" {
		if opts.Mode, err = team.ParseMode(f.mode); err != nil {
			return opts, err
		}
	}
	if f.sortKey != "" {
		if opts.SortKey, err = team.ParseSortKey(f.sortKey); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func printSummaries(out io.Writer, seed uint64, summaries []tower.Summary) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "tower\tbattles\twins\tlosses\tdraws\tturns\tlives\tenemies left\tcleared\t")
	cleared := 0
	for _, s := range summaries {
		if s.Cleared {
			cleared++
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%t\t\n",
			s.Index, s.Battles, s.Wins, s.Losses, s.Draws, s.Turns, s.PlayerLives, s.EnemiesLeft, s.Cleared)
	}
	_ = tw.Flush()
	fmt.Fprintf(out, "\nseed %d: %d of %d towers cleared\n", seed, cleared, len(summaries))
}
