package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"monsterbattle/internal/battle"
	"monsterbattle/internal/monster"
	"monsterbattle/internal/script"
	"monsterbattle/internal/team"
	"monsterbattle/internal/tower"
)

const (
	maxEnemyTeams = 50
	maxBodyBytes  = 1 << 16
)

var errBadRequest = errors.New("bad request")

// createTowerRequest is the body of POST /towers. Every field is optional.
type createTowerRequest struct {
	Team    []string `json:"team"`     // species names; random when empty
	Mode    string   `json:"mode"`     // front, back or optimise
	SortKey string   `json:"sort_key"` // optimise only
	Enemies *int     `json:"enemies"`
	Seed    uint64   `json:"seed"`
	Chooser string   `json:"chooser"` // script name in ChooserDir
}

// POST /towers
func (s *Server) handleCreateTower(w http.ResponseWriter, r *http.Request) {
	var req createTowerRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	run, err := s.newRun(req)
	if err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}
	if err := s.Store.Put(r.Context(), run.ID, run); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to save tower")
		return
	}
	s.logger().Info("tower created", "id", run.ID, "player_lives", run.Tower.PlayerLives())

	run.mu.Lock()
	view := towerView(run)
	run.mu.Unlock()
	w.Header().Set("Location", "/towers/"+run.ID)
	s.writeJSON(w, http.StatusCreated, view)
}

func (s *Server) newRun(req createTowerRequest) (*Run, error) {
	seed := req.Seed
	if seed == 0 {
		seed = s.seed()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	opts, err := s.playerOptions(req)
	if err != nil {
		return nil, err
	}
	player, err := s.buildTeam(opts, req.Team, rng)
	if err != nil {
		return nil, err
	}
	chooser, err := s.resolveChooser(req.Chooser)
	if err != nil {
		return nil, err
	}

	n := s.Settings.EnemyTeams
	if req.Enemies != nil {
		n = *req.Enemies
	}
	if n < 0 || n > maxEnemyTeams {
		return nil, fmt.Errorf("%w: enemies must be between 0 and %d", errBadRequest, maxEnemyTeams)
	}

	engine := &battle.Engine{Logger: s.logger()}
	towerOpts := s.Settings.Tower
	towerOpts.Logger = s.logger()
	t, err := tower.New(engine, s.Spawner, rng, towerOpts)
	if err != nil {
		return nil, err
	}
	t.SetPlayer(player, chooser)
	if err := t.GenerateEnemies(n); err != nil {
		return nil, err
	}
	return &Run{ID: s.Store.NewID(), Tower: t, Created: time.Now()}, nil
}

func (s *Server) playerOptions(req createTowerRequest) (team.Options, error) {
	opts := s.Settings.Player
	if req.Mode != "" {
		m, err := team.ParseMode(req.Mode)
		if err != nil {
			return opts, err
		}
		opts.Mode = m
	}
	if req.SortKey != "" {
		k, err := team.ParseSortKey(req.SortKey)
		if err != nil {
			return opts, err
		}
		opts.SortKey = k
	}
	return opts, nil
}

// buildTeam makes a provided team from names, or a random one.
func (s *Server) buildTeam(opts team.Options, names []string, rng *rand.Rand) (*team.Team, error) {
	if len(names) == 0 {
		return team.NewRandom(opts, s.Spawner, rng)
	}
	factories := make([]monster.Factory, 0, len(names))
	for _, name := range names {
		f, err := s.Spawner.Factory(strings.TrimSpace(name), 1)
		if err != nil {
			return nil, err
		}
		factories = append(factories, f)
	}
	return team.NewProvided(opts, factories)
}

func (s *Server) resolveChooser(name string) (battle.Chooser, error) {
	if name == "" {
		return s.Chooser, nil
	}
	path, ok := s.chooserScriptPath(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown chooser %q", errBadRequest, name)
	}
	c, err := script.Load(path, script.Options{Logger: s.logger()})
	if err != nil {
		return nil, fmt.Errorf("%w: chooser %q: %w", errBadRequest, name, err)
	}
	return c, nil
}

// lookupRun finds the run named in the URL, answering 404 itself.
func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*Run, bool) {
	id := chi.URLParam(r, "id")
	run, ok, err := s.Store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load tower")
		return nil, false
	}
	if !ok {
		s.writeError(w, http.StatusNotFound, "tower not found")
		return nil, false
	}
	return run, true
}

// GET /towers/{id}
func (s *Server) handleGetTower(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	run.mu.Lock()
	view := towerView(run)
	run.mu.Unlock()
	s.writeJSON(w, http.StatusOK, view)
}

// POST /towers/{id}/next
func (s *Server) handleNextBattle(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	run.mu.Lock()
	defer run.mu.Unlock()

	out, err := run.Tower.NextBattle(r.Context())
	if err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, NextBattleView{Outcome: out, Tower: towerView(run)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, monster.ErrUnknownSpecies),
		errors.Is(err, team.ErrNotSpawnable),
		errors.Is(err, team.ErrTeamSize),
		errors.Is(err, team.ErrUnknownMode),
		errors.Is(err, team.ErrUnknownSortKey):
		return http.StatusBadRequest
	case errors.Is(err, tower.ErrNoBattles):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
