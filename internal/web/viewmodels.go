package web

import (
	"monsterbattle/internal/stats"
	"monsterbattle/internal/tower"
)

// SpeciesView is a catalog entry as served to clients.
type SpeciesView struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Element     string        `json:"element"`
	Evolution   string        `json:"evolution,omitempty"`
	Spawnable   bool          `json:"spawnable"`
	Stats       *stats.Simple `json:"stats,omitempty"`
}

// IndexViewModel contains data for rendering the landing page.
type IndexViewModel struct {
	Species []SpeciesView
}

// TowerView is the JSON form of a run.
type TowerView struct {
	ID               string          `json:"id"`
	Player           []string        `json:"player"`
	PlayerLives      int             `json:"player_lives"`
	BattlesRemaining bool            `json:"battles_remaining"`
	Enemies          []tower.Enemy   `json:"enemies"`
	History          []tower.Outcome `json:"history"`
}

// NextBattleView answers POST /towers/{id}/next.
type NextBattleView struct {
	Outcome tower.Outcome `json:"outcome"`
	Tower   TowerView     `json:"tower"`
}

func (s *Server) speciesViews() []SpeciesView {
	all := s.Catalog.All()
	out := make([]SpeciesView, 0, len(all))
	for _, sp := range all {
		out = append(out, SpeciesView{
			Name:        sp.Name,
			Description: sp.Description,
			Element:     sp.Element,
			Evolution:   sp.Evolution,
			Spawnable:   sp.Spawnable,
			Stats:       sp.Simple,
		})
	}
	return out
}

// towerView must be called with run.mu held.
func towerView(run *Run) TowerView {
	t := run.Tower
	var player []string
	if p := t.Player(); p != nil {
		for _, f := range p.Original() {
			player = append(player, f.Species.Name)
		}
	}
	return TowerView{
		ID:               run.ID,
		Player:           player,
		PlayerLives:      t.PlayerLives(),
		BattlesRemaining: t.BattlesRemaining(),
		Enemies:          t.Enemies(),
		History:          t.History(),
	}
}
