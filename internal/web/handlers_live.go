package web

import (
	"context"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"monsterbattle/internal/battle"
	"monsterbattle/internal/team"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// LiveMessage is one frame of a spectated battle.
type LiveMessage struct {
	Type   string             `json:"type"` // start, turn, result or error
	A      []string           `json:"a,omitempty"`
	B      []string           `json:"b,omitempty"`
	Turn   *battle.TurnReport `json:"turn,omitempty"`
	Result *battle.Result     `json:"result,omitempty"`
	Turns  int                `json:"turns,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// GET /battles/live?a=Flamikin,Vineon&b=&mode=back&seed=7
//
// Teams are built before upgrading so bad input gets a plain 400. An empty
// side is random.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	seed := s.seed()
	if v := q.Get("seed"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid seed")
			return
		}
		seed = n
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	opts := s.Settings.Player
	if v := q.Get("mode"); v != "" {
		m, err := team.ParseMode(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts.Mode = m
	}
	a, err := s.buildTeam(opts, splitNames(q.Get("a")), rng)
	if err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}
	b, err := s.buildTeam(opts, splitNames(q.Get("b")), rng)
	if err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		s.logger().Debug("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	send := func(m LiveMessage) {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(m); err != nil {
			s.logger().Debug("spectator gone", "err", err)
			cancel()
		}
	}

	send(LiveMessage{Type: "start", A: originalNames(a), B: originalNames(b)})
	turns := 0
	engine := &battle.Engine{
		Logger: s.logger(),
		OnTurn: func(rep battle.TurnReport) {
			turns = rep.Turn
			send(LiveMessage{Type: "turn", Turn: &rep})
		},
	}
	res, err := engine.Battle(ctx, battle.Side{Team: a, Chooser: s.Chooser}, battle.Side{Team: b})
	if err != nil {
		if ctx.Err() == nil {
			send(LiveMessage{Type: "error", Error: err.Error()})
		}
		return
	}
	send(LiveMessage{Type: "result", Result: &res, Turns: turns})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, res.String()),
		time.Now().Add(writeWait))
}

func splitNames(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func originalNames(t *team.Team) []string {
	orig := t.Original()
	out := make([]string, 0, len(orig))
	for _, f := range orig {
		out = append(out, f.Species.Name)
	}
	return out
}
