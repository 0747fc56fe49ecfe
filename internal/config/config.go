// Package config loads the YAML configuration shared by the binaries.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"monsterbattle/internal/monster"
	"monsterbattle/internal/team"
)

// EnvPath names the environment variable that overrides the config path.
const EnvPath = "MONSTERBATTLE_CONFIG"

var ErrInvalid = errors.New("invalid config")

// Config holds everything the server and simulator need.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"` // debug, info, warn, error

	// Data
	SpeciesPath       string `yaml:"species_path"`
	EffectivenessPath string `yaml:"effectiveness_path"`
	StatMode          string `yaml:"stat_mode"` // simple or complex
	TeamLimit         int    `yaml:"team_limit"`
	Seed              uint64 `yaml:"seed"` // 0 picks a random seed

	Tower TowerConfig `yaml:"tower"`

	// ChooserScript is an optional JS file deciding the player's actions.
	ChooserScript string `yaml:"chooser_script"`
	// ChooserDir holds the scripts web clients may pick by name.
	ChooserDir    string `yaml:"chooser_dir"`

	// Web
	MaxSessions int `yaml:"max_sessions"`
}

// TowerConfig configures battle towers.
type TowerConfig struct {
	EnemyTeams int    `yaml:"enemy_teams"`
	MinLives   int    `yaml:"min_lives"`
	MaxLives   int    `yaml:"max_lives"`
	TeamMode   string `yaml:"team_mode"`   // roster mode of enemy teams
	PlayerMode string `yaml:"player_mode"` // roster mode of the player's team
	SortKey    string `yaml:"sort_key"`    // for optimise rosters
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		ListenAddr:        ":8080",
		LogLevel:          "info",
		SpeciesPath:       "data/species.yaml",
		EffectivenessPath: "data/type_effectiveness.csv",
		StatMode:          "simple",
		TeamLimit:         team.DefaultLimit,
		Tower: TowerConfig{
			EnemyTeams: 3,
			MinLives:   2,
			MaxLives:   10,
			TeamMode:   "back",
			PlayerMode: "back",
			SortKey:    "hp",
		},
		ChooserDir:  "data/choosers",
		MaxSessions: 256,
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Path returns $MONSTERBATTLE_CONFIG if set, otherwise fallback.
func Path(fallback string) string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return fallback
}

// Validate checks the enumerated and numeric fields.
func (c Config) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if _, err := c.Stats(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.TeamLimit < 1 {
		return fmt.Errorf("%w: team_limit %d", ErrInvalid, c.TeamLimit)
	}
	if c.Tower.EnemyTeams < 0 {
		return fmt.Errorf("%w: tower.enemy_teams %d", ErrInvalid, c.Tower.EnemyTeams)
	}
	if c.Tower.MinLives < 1 || c.Tower.MaxLives < c.Tower.MinLives {
		return fmt.Errorf("%w: tower lives %d..%d", ErrInvalid, c.Tower.MinLives, c.Tower.MaxLives)
	}
	if _, err := c.EnemyTeam(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := c.PlayerTeam(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level.
func (c Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
}

func (c Config) Stats() (monster.StatMode, error) { return monster.ParseStatMode(c.StatMode) }

// EnemyTeam returns the roster options for tower enemies.
func (c Config) EnemyTeam() (team.Options, error) {
	return c.teamOptions(c.Tower.TeamMode)
}

// PlayerTeam returns the roster options for the player's team.
func (c Config) PlayerTeam() (team.Options, error) {
	return c.teamOptions(c.Tower.PlayerMode)
}

func (c Config) teamOptions(mode string) (team.Options, error) {
	m, err := team.ParseMode(mode)
	if err != nil {
		return team.Options{}, err
	}
	opts := team.Options{Mode: m, Limit: c.TeamLimit}
	if m == team.Optimise {
		k, err := team.ParseSortKey(c.Tower.SortKey)
		if err != nil {
			return team.Options{}, err
		}
		opts.SortKey = k
	}
	return opts, nil
}
