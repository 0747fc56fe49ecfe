// checkdata loads the species catalog and effectiveness table in both stat
// modes and spawns every species at a few levels to catch bad formulas.
// Usage: go run scripts/checkdata.go [config.yaml]
package main

import (
	"fmt"
	"os"

	"monsterbattle/internal/config"
	"monsterbattle/internal/monster"
)

var levels = []int{1, 2, 5, 10, 50}

func main() {
	code := run()
	if code != 0 {
		os.Exit(code)
	}
}

func run() int {
	path := config.Path("config/server.yaml")
	if len(os.Args) == 2 {
		path = os.Args[1]
	} else if len(os.Args) > 2 {
		fmt.Fprintf(os.Stderr, "usage: go run scripts/checkdata.go [config.yaml]\n")
		return 1
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	failed := 0
	for _, mode := range []monster.StatMode{monster.SimpleStats, monster.ComplexStats} {
		cfg.StatMode = mode.String()
		spawner, err := cfg.Spawner()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", mode, err)
			return 1
		}
		for _, sp := range spawner.Catalog.All() {
			for _, lvl := range levels {
				m, err := spawner.FactoryFor(sp, lvl).New()
				if err != nil {
					fmt.Fprintf(os.Stderr, "%s: %s level %d: %v\n", mode, sp.Name, lvl, err)
					failed++
					break
				}
				if m.MaxHP() < 1 {
					fmt.Fprintf(os.Stderr, "%s: %s level %d: max hp %d\n", mode, sp.Name, lvl, m.MaxHP())
					failed++
				}
			}
		}
		fmt.Printf("%s: %d species, %d elements\n", mode, spawner.Catalog.Len(), spawner.Table.Len())
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d problems\n", failed)
		return 1
	}
	return 0
}
