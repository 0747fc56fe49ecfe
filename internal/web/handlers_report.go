package web

import (
	"fmt"
	"net/http"

	"monsterbattle/internal/report"
)

// GET /towers/{id}/report.pdf
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	run.mu.Lock()
	view := towerView(run)
	run.mu.Unlock()

	pdf, err := report.Generate(report.Input{
		Title:       "Battle Tower " + shortID(run.ID),
		Player:      view.Player,
		PlayerLives: view.PlayerLives,
		Outcomes:    view.History,
		Enemies:     view.Enemies,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="tower-%s.pdf"`, shortID(run.ID)))
	if _, err := w.Write(pdf); err != nil {
		s.logger().Debug("write report", "err", err)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
