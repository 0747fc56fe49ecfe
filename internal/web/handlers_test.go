package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monsterbattle/internal/battle"
	"monsterbattle/internal/monster"
	"monsterbattle/internal/session"
	"monsterbattle/internal/team"
	"monsterbattle/internal/testutil"
	"monsterbattle/internal/tower"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	tbl := testutil.Table(t)
	titan := testutil.Species("Titan", testutil.Neutral, 100, 100, 100, 100)
	weakling := testutil.Species("Weakling", testutil.Neutral, 1, 1, 1, 1)
	locked := testutil.Species("Sealed", testutil.Fire, 5, 5, 5, 5)
	locked.Spawnable = false
	catalog := testutil.Catalog(t, titan, weakling, locked)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "brave.js"),
		[]byte(`function choose(self, enemy) { return "attack"; }`), 0o600))

	return &Server{
		Catalog: catalog,
		Spawner: monster.Spawner{Catalog: catalog, Table: tbl, Mode: monster.SimpleStats},
		Store:   session.NewMemoryStore[*Run](0),
		Settings: Settings{
			EnemyTeams: 2,
			Player:     team.Options{Mode: team.Back},
			Tower: tower.Options{
				MinLives:  2,
				MaxLives:  2,
				EnemyTeam: team.Options{Mode: team.Back, Limit: 1},
			},
		},
		ChooserDir: dir,
		Seed:       func() uint64 { return 42 },
	}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func createTower(t *testing.T, h http.Handler, body string) TowerView {
	t.Helper()
	rr := do(t, h, http.MethodPost, "/towers", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var view TowerView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, "/towers/"+view.ID, rr.Header().Get("Location"))
	return view
}

func TestHandleIndex(t *testing.T) {
	h := testServer(t).Routes()
	rr := do(t, h, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	body := rr.Body.String()
	assert.Contains(t, body, "Titan")
	assert.Contains(t, body, `class="locked"`)
}

func TestHandleSpecies(t *testing.T) {
	h := testServer(t).Routes()
	rr := do(t, h, http.MethodGet, "/species", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var got []SpeciesView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 3)
	byName := map[string]SpeciesView{}
	for _, v := range got {
		byName[v.Name] = v
	}
	assert.False(t, byName["Sealed"].Spawnable)
	require.NotNil(t, byName["Titan"].Stats)
	assert.Equal(t, 100, byName["Titan"].Stats.Attack)
}

func TestTower_PlayUntilFinished(t *testing.T) {
	h := testServer(t).Routes()
	view := createTower(t, h, `{"team": ["Titan"], "enemies": 2}`)
	assert.Equal(t, []string{"Titan"}, view.Player)
	assert.Equal(t, 2, view.PlayerLives)
	require.Len(t, view.Enemies, 2)
	assert.True(t, view.BattlesRemaining)

	battles := 0
	for ; battles < 100; battles++ {
		rr := do(t, h, http.MethodPost, "/towers/"+view.ID+"/next", "")
		if rr.Code == http.StatusConflict {
			break
		}
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var next NextBattleView
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &next))
		assert.Equal(t, battles+1, next.Outcome.Battle)
		assert.True(t, next.Outcome.Result.Terminal())
		assert.Equal(t, next.Outcome.PlayerLives, next.Tower.PlayerLives)
	}
	require.Positive(t, battles)

	rr := do(t, h, http.MethodGet, "/towers/"+view.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var final TowerView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &final))
	assert.False(t, final.BattlesRemaining)
	assert.True(t, final.PlayerLives == 0 || len(final.Enemies) == 0)
	assert.Len(t, final.History, battles)
}

func TestCreateTower_EmptyBodyUsesDefaults(t *testing.T) {
	h := testServer(t).Routes()
	view := createTower(t, h, "")
	assert.NotEmpty(t, view.Player)
	assert.Len(t, view.Enemies, 2)
}

func TestCreateTower_BadRequests(t *testing.T) {
	h := testServer(t).Routes()
	tests := []struct {
		name string
		body string
	}{
		{"unknown field", `{"colour": "red"}`},
		{"malformed", `{"team": [`},
		{"unknown species", `{"team": ["Nobody"]}`},
		{"not spawnable", `{"team": ["Sealed"]}`},
		{"too many", `{"team": ["Titan","Titan","Titan","Titan","Titan","Titan","Titan"]}`},
		{"unknown mode", `{"mode": "sideways"}`},
		{"unknown sort key", `{"mode": "optimise", "sort_key": "luck"}`},
		{"negative enemies", `{"enemies": -1}`},
		{"too many enemies", `{"enemies": 51}`},
		{"unknown chooser", `{"chooser": "coward"}`},
		{"chooser traversal", `{"chooser": "../brave"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/towers", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			assert.Contains(t, rr.Body.String(), `"error"`)
		})
	}
}

func TestCreateTower_ScriptChooser(t *testing.T) {
	h := testServer(t).Routes()
	view := createTower(t, h, `{"team": ["Titan"], "chooser": "brave"}`)

	rr := do(t, h, http.MethodPost, "/towers/"+view.ID+"/next", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestUnknownTower(t *testing.T) {
	h := testServer(t).Routes()
	for _, path := range []string{"/towers/nope", "/towers/nope/report.pdf"} {
		rr := do(t, h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rr.Code, path)
	}
	rr := do(t, h, http.MethodPost, "/towers/nope/next", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleReport(t *testing.T) {
	h := testServer(t).Routes()
	view := createTower(t, h, `{"team": ["Titan"]}`)
	do(t, h, http.MethodPost, "/towers/"+view.ID+"/next", "")

	rr := do(t, h, http.MethodGet, "/towers/"+view.ID+"/report.pdf", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "tower-"+shortID(view.ID)+".pdf")
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF-")))
}

func TestChoosers(t *testing.T) {
	h := testServer(t).Routes()

	rr := do(t, h, http.MethodGet, "/choosers", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var names []string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &names))
	assert.Equal(t, []string{"brave"}, names)

	rr = do(t, h, http.MethodGet, "/choosers/brave", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, contentTypeJS, rr.Header().Get("Content-Type"))
	assert.Equal(t, assetCacheControl, rr.Header().Get("Cache-Control"))
	assert.Contains(t, rr.Body.String(), "function choose")

	rr = do(t, h, http.MethodGet, "/choosers/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestChooserScriptPath(t *testing.T) {
	s := &Server{ChooserDir: "scripts"}
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"brave", filepath.Join("scripts", "brave.js"), true},
		{"brave.js", filepath.Join("scripts", "brave.js"), true},
		{"", "", false},
		{"..", "", false},
		{"../secret", "", false},
		{"a/b", "", false},
		{`a\b`, "", false},
		{"/etc/passwd", "", false},
	}
	for _, tt := range tests {
		got, ok := s.chooserScriptPath(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, ok := (&Server{}).chooserScriptPath("brave")
	assert.False(t, ok, "no directory configured")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(team.ErrTeamSize))
	assert.Equal(t, http.StatusConflict, statusFor(tower.ErrNoBattles))
	assert.Equal(t, http.StatusInternalServerError, statusFor(os.ErrClosed))
}

func TestHandleLive(t *testing.T) {
	srv := httptest.NewServer(testServer(t).Routes())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/battles/live?a=Titan&b=Weakling&seed=7"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msgs []LiveMessage
	for {
		var m LiveMessage
		if err := conn.ReadJSON(&m); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "read: %v", err)
			break
		}
		msgs = append(msgs, m)
	}

	require.Len(t, msgs, 3)
	assert.Equal(t, "start", msgs[0].Type)
	assert.Equal(t, []string{"Titan"}, msgs[0].A)
	assert.Equal(t, []string{"Weakling"}, msgs[0].B)

	assert.Equal(t, "turn", msgs[1].Type)
	require.NotNil(t, msgs[1].Turn)
	assert.Equal(t, 1, msgs[1].Turn.Turn)

	last := msgs[2]
	assert.Equal(t, "result", last.Type)
	require.NotNil(t, last.Result)
	assert.Equal(t, battle.SideAWins, *last.Result)
	assert.Equal(t, 1, last.Turns)
}

func TestHandleLive_BadInput(t *testing.T) {
	h := testServer(t).Routes()
	for _, q := range []string{"?a=Nobody", "?seed=x", "?mode=sideways"} {
		rr := do(t, h, http.MethodGet, "/battles/live"+q, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
}
