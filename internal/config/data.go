package config

import (
	"fmt"
	"log/slog"

	"monsterbattle/internal/element"
	"monsterbattle/internal/monster"
	"monsterbattle/internal/tower"
)

// Spawner loads the effectiveness table and species catalog and checks
// that every species element is in the table.
func (c Config) Spawner() (monster.Spawner, error) {
	mode, err := c.Stats()
	if err != nil {
		return monster.Spawner{}, err
	}
	table, err := element.LoadCSV(c.EffectivenessPath)
	if err != nil {
		return monster.Spawner{}, err
	}
	catalog, err := monster.LoadCatalog(c.SpeciesPath)
	if err != nil {
		return monster.Spawner{}, err
	}
	if err := catalog.Validate(table); err != nil {
		return monster.Spawner{}, fmt.Errorf("%s: %w", c.SpeciesPath, err)
	}
	return monster.Spawner{Catalog: catalog, Table: table, Mode: mode}, nil
}

// TowerOptions returns the tower settings with logger attached.
func (c Config) TowerOptions(logger *slog.Logger) (tower.Options, error) {
	enemy, err := c.EnemyTeam()
	if err != nil {
		return tower.Options{}, err
	}
	return tower.Options{
		MinLives:  c.Tower.MinLives,
		MaxLives:  c.Tower.MaxLives,
		EnemyTeam: enemy,
		Logger:    logger,
	}, nil
}
