// Package web serves the battle tower over HTTP: a JSON API for towers,
// PDF reports and a websocket that streams a battle turn by turn.
package web

import (
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"monsterbattle/internal/battle"
	"monsterbattle/internal/monster"
	"monsterbattle/internal/session"
	"monsterbattle/internal/team"
	"monsterbattle/internal/tower"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Settings are the tower defaults for new runs.
type Settings struct {
	EnemyTeams int
	Player     team.Options
	Tower      tower.Options
}

type Server struct {
	Catalog  *monster.Catalog
	Spawner  monster.Spawner
	Store    session.Store[*Run]
	Settings Settings
	// Chooser decides for the player when a request names none. Nil uses
	// battle.DefaultChooser.
	Chooser battle.Chooser
	// ChooserDir holds the *.js scripts a request may name.
	ChooserDir string
	Logger     *slog.Logger
	// Seed returns the seed for runs that do not supply one.
	Seed func() uint64
}

// Run is a live tower shared between requests.
type Run struct {
	mu      sync.Mutex
	ID      string
	Tower   *tower.Tower
	Created time.Time
}

func (s *Server) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Server) seed() uint64 {
	if s.Seed == nil {
		return rand.Uint64()
	}
	return s.Seed()
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Get("/", s.handleIndex)
		r.Get("/species", s.handleSpecies)
		r.Post("/towers", s.handleCreateTower)
		r.Get("/towers/{id}", s.handleGetTower)
		r.Post("/towers/{id}/next", s.handleNextBattle)
		r.Get("/towers/{id}/report.pdf", s.handleReport)
		r.Get("/choosers", s.handleListChoosers)
		r.Get("/choosers/{name}", s.handleChooserSource)
	})
	r.Get("/battles/live", s.handleLive)
	return r
}

// requestLogger logs each request once it completes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger().Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	vm := IndexViewModel{Species: s.speciesViews()}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, "index.html", vm); err != nil {
		s.logger().Error("render index", "err", err)
		http.Error(w, "failed to render template", http.StatusInternalServerError)
	}
}

func (s *Server) handleSpecies(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.speciesViews())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger().Debug("write json", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
