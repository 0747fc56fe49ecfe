// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"monsterbattle/internal/element"
	"monsterbattle/internal/monster"
	"monsterbattle/internal/stats"
)

// Elements used by the fixture table.
const (
	Fire    = "Fire"
	Water   = "Water"
	Grass   = "Grass"
	Neutral = "Neutral"
)

// Table returns a small effectiveness table. Fire, Water and Grass form the
// usual triangle (2x / 0.5x); Neutral is 1x against and from everything.
func Table(t testing.TB) *element.Table {
	t.Helper()
	tbl, err := element.NewTable(
		[]string{Fire, Water, Grass, Neutral},
		[]float64{
			0.5, 0.5, 2, 1,
			2, 0.5, 0.5, 1,
			0.5, 2, 0.5, 1,
			1, 1, 1, 1,
		},
	)
	if err != nil {
		t.Fatalf("fixture table: %v", err)
	}
	return tbl
}

// Species returns a spawnable species with simple stats.
func Species(name, elem string, attack, defense, speed, maxHP int) *monster.Species {
	return &monster.Species{
		Name:      name,
		Element:   elem,
		Spawnable: true,
		Simple:    &stats.Simple{Attack: attack, Defense: defense, Speed: speed, MaxHP: maxHP},
	}
}

// Catalog indexes species, failing the test on error.
func Catalog(t testing.TB, species ...*monster.Species) *monster.Catalog {
	t.Helper()
	c, err := monster.NewCatalog(species)
	if err != nil {
		t.Fatalf("fixture catalog: %v", err)
	}
	return c
}

// Monster creates a level 1 simple-stat monster of sp.
func Monster(t testing.TB, tbl *element.Table, sp *monster.Species) *monster.Monster {
	t.Helper()
	m, err := monster.New(sp, 1, monster.SimpleStats, tbl)
	if err != nil {
		t.Fatalf("fixture monster %s: %v", sp.Name, err)
	}
	return m
}

// Factories returns level 1 simple-stat factories for species.
func Factories(tbl *element.Table, species ...*monster.Species) []monster.Factory {
	out := make([]monster.Factory, 0, len(species))
	for _, sp := range species {
		out = append(out, monster.Factory{Species: sp, Level: 1, Mode: monster.SimpleStats, Table: tbl})
	}
	return out
}
