package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/numberduel/apps/go-server/internal/config"
	"github.com/robalobadob/numberduel/apps/go-server/internal/game"
	"github.com/robalobadob/numberduel/apps/go-server/internal/match"
	"github.com/robalobadob/numberduel/apps/go-server/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		ClientOrigin:     "http://localhost:5173",
		JWTSecret:        "test_secret",
		TokenTTL:         time.Hour,
		AllowFixedSecret: true,
		DefaultRound:     game.DefaultConfig(),
	}
}

// neverFire keeps the computer "thinking" forever.
func neverFire(time.Duration, func()) func() bool { return func() bool { return true } }

type harness struct {
	t   *testing.T
	srv *Server
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	return &harness{t: t, srv: New(store.NewMemoryStore(), testConfig(), opts...)}
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.srv.Router().ServeHTTP(rec, req)
	return rec
}

func (h *harness) newMatch(body any) newMatchRes {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/match/new", "", body)
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	var res newMatchRes
	require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var e errorRes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e.Error
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestNewMatch_DefaultsAndToken(t *testing.T) {
	h := newHarness(t)
	res := h.newMatch(nil)

	assert.NotEmpty(t, res.MatchID)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, game.StateActive, res.Round.State)
	assert.Equal(t, game.Human, res.Round.Turn)
	assert.Equal(t, 1, res.Round.Min)
	assert.Equal(t, 100, res.Round.Max)
	assert.Equal(t, 12, res.Round.AttemptsLeft)
	assert.Nil(t, res.Round.Secret)
}

func TestNewMatch_InvalidConfiguration(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/match/new", "", map[string]int{"min": 10, "max": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_configuration", decodeError(t, rec))
}

func TestMatchRoutes_RequireMatchingToken(t *testing.T) {
	h := newHarness(t)
	a := h.newMatch(nil)
	b := h.newMatch(nil)

	rec := h.do(http.MethodGet, "/match/"+a.MatchID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodGet, "/match/"+a.MatchID, b.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodGet, "/match/"+a.MatchID, "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodGet, "/match/"+a.MatchID, a.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuess_HumanWins(t *testing.T) {
	h := newHarness(t)
	m := h.newMatch(map[string]int{"min": 1, "max": 100, "maxAttempts": 12, "secret": 50})

	rec := h.do(http.MethodPost, "/match/"+m.MatchID+"/guess", m.Token, map[string]string{"guess": "50"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res guessRes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, game.OutcomeWin, res.Outcome.Kind)
	assert.Equal(t, 1, res.Round.AttemptsUsed)
	assert.Equal(t, game.StateWon, res.Round.State)
	require.NotNil(t, res.Round.Secret)
	assert.Equal(t, 50, *res.Round.Secret)

	rec = h.do(http.MethodPost, "/match/"+m.MatchID+"/guess", m.Token, map[string]string{"guess": "50"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "round_inactive", decodeError(t, rec))
}

func TestGuess_NumericBodyAccepted(t *testing.T) {
	h := newHarness(t)
	m := h.newMatch(map[string]int{"secret": 7, "min": 1, "max": 10, "maxAttempts": 1})

	rec := h.do(http.MethodPost, "/match/"+m.MatchID+"/guess", m.Token, map[string]int{"guess": 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res guessRes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, game.OutcomeExhausted, res.Outcome.Kind)
	require.NotNil(t, res.Outcome.Secret)
	assert.Equal(t, 7, *res.Outcome.Secret)
}

func TestGuess_ValidationErrors(t *testing.T) {
	h := newHarness(t, WithMatchOptions(match.WithScheduler(neverFire)))
	m := h.newMatch(map[string]int{"secret": 42})
	path := "/match/" + m.MatchID + "/guess"

	rec := h.do(http.MethodPost, path, m.Token, map[string]string{"guess": "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "not_a_number", decodeError(t, rec))

	rec = h.do(http.MethodPost, path, m.Token, map[string]string{"guess": "101"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "out_of_range", decodeError(t, rec))

	rec = h.do(http.MethodPost, path, m.Token, map[string]string{"guess": "90"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodPost, path, m.Token, map[string]string{"guess": "10"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "not_your_turn", decodeError(t, rec))

	rec = h.do(http.MethodGet, "/match/"+m.MatchID, m.Token, nil)
	var snap match.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, 1, snap.AttemptsUsed)
}

func TestGuess_ComputerRepliesAfterDelay(t *testing.T) {
	h := newHarness(t, WithMatchOptions(match.WithThinkDelay(time.Millisecond)))
	m := h.newMatch(map[string]int{"secret": 42})

	rec := h.do(http.MethodPost, "/match/"+m.MatchID+"/guess", m.Token, map[string]string{"guess": "90"})
	require.Equal(t, http.StatusOK, rec.Code)

	require.Eventually(t, func() bool {
		rec := h.do(http.MethodGet, "/match/"+m.MatchID, m.Token, nil)
		var snap match.Snapshot
		if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
			return false
		}
		return snap.AttemptsUsed == 2 && snap.Turn == game.Human
	}, time.Second, 5*time.Millisecond)
}

func TestNewRound_ResetsMatch(t *testing.T) {
	h := newHarness(t, WithMatchOptions(match.WithScheduler(neverFire)))
	m := h.newMatch(map[string]int{"secret": 42})

	rec := h.do(http.MethodPost, "/match/"+m.MatchID+"/guess", m.Token, map[string]string{"guess": "90"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodPost, "/match/"+m.MatchID+"/round", m.Token, map[string]int{"min": 1, "max": 10})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res roundRes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, uint64(2), res.Round.Generation)
	assert.Equal(t, 0, res.Round.AttemptsUsed)
	assert.Equal(t, game.Human, res.Round.Turn)
	assert.Equal(t, 10, res.Round.Max)
	assert.Empty(t, res.Round.Log)
}

func TestDeleteMatch_ReleasesMatch(t *testing.T) {
	h := newHarness(t, WithMatchOptions(match.WithScheduler(neverFire)))
	m := h.newMatch(map[string]int{"secret": 42})
	ts := httptest.NewServer(h.srv.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/match/" + m.MatchID + "/events?token=" + m.Token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev match.Event
	require.NoError(t, conn.ReadJSON(&ev))

	rec := h.do(http.MethodDelete, "/match/"+m.MatchID, m.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)

	rec = h.do(http.MethodGet, "/match/"+m.MatchID, m.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = h.do(http.MethodPost, "/match/"+m.MatchID+"/guess", m.Token, map[string]string{"guess": "10"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownMatch(t *testing.T) {
	h := newHarness(t)
	tok, _, err := h.srv.signToken("nope")
	require.NoError(t, err)
	rec := h.do(http.MethodGet, "/match/nope", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimiter_NilPassesThrough(t *testing.T) {
	var l *RateLimiter
	called := false
	h := l.Middleware("guess")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	assert.True(t, called)

	l = NewRateLimiter("", "", 0, 1, time.Minute)
	called = false
	l.Middleware("guess")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	assert.True(t, called)
	assert.NoError(t, l.Close())
}

func TestEvents_StreamsOutcomes(t *testing.T) {
	h := newHarness(t, WithMatchOptions(match.WithThinkDelay(time.Millisecond)))
	ts := httptest.NewServer(h.srv.Router())
	defer ts.Close()

	m := h.newMatch(map[string]int{"secret": 42})
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/match/" + m.MatchID + "/events?token=" + m.Token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var ev match.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, match.EventSnapshot, ev.Type)

	rec := h.do(http.MethodPost, "/match/"+m.MatchID+"/guess", m.Token, map[string]string{"guess": "90"})
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, match.EventOutcome, ev.Type)
	assert.Equal(t, 1, ev.Round.AttemptsUsed)

	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, match.EventOutcome, ev.Type)
	assert.Equal(t, 2, ev.Round.AttemptsUsed)
	assert.Equal(t, game.Human, ev.Round.Turn)
}
