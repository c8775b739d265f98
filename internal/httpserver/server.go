// internal/httpserver/server.go
//
// HTTP server wiring for the Number Duel backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, request log).
//   - Public endpoints: "/", "/health", "/metrics".
//   - Match endpoints: POST /match/new (issues a match token), and token-gated
//     POST /match/{id}/round, POST /match/{id}/guess, GET /match/{id},
//     DELETE /match/{id}, GET /match/{id}/events (WebSocket).
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so the token cookie works).
//   - The events route sits outside the timeout group; it holds a hijacked
//     connection for as long as the client listens.
//   - withMatch checks the match token before the match is looked up.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numberduel/apps/go-server/internal/config"
	"github.com/robalobadob/numberduel/apps/go-server/internal/game"
	"github.com/robalobadob/numberduel/apps/go-server/internal/match"
	"github.com/robalobadob/numberduel/apps/go-server/internal/store"
)

// Server bundles router, match store and configuration.
type Server struct {
	r         *chi.Mux
	store     store.Store
	cfg       *config.Config
	limiter   *RateLimiter
	matchOpts []match.Option
}

// Option customizes a Server.
type Option func(*Server)

// WithMatchOptions appends options applied to every new match.
func WithMatchOptions(opts ...match.Option) Option {
	return func(s *Server) { s.matchOpts = append(s.matchOpts, opts...) }
}

// WithRateLimiter installs a guess rate limiter.
func WithRateLimiter(l *RateLimiter) Option {
	return func(s *Server) { s.limiter = l }
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, cfg *config.Config, opts ...Option) *Server {
	s := &Server{r: chi.NewRouter(), store: st, cfg: cfg}
	s.matchOpts = []match.Option{match.WithThinkDelay(cfg.ThinkDelay)}
	for _, o := range opts {
		o(s)
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)
	s.r.Use(chimw.Recoverer)
	s.r.Use(s.cors)

	s.r.Handle("/metrics", promhttp.Handler())

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(jsonContentType)

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"numberduel-go","endpoints":["/health","/metrics","POST /match/new","POST /match/{id}/round","POST /match/{id}/guess","GET /match/{id}","DELETE /match/{id}","GET /match/{id}/events"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		})

		r.Post("/match/new", s.handleNewMatch)
	})

	// Token-gated match routes.
	s.r.Route("/match/{id}", func(r chi.Router) {
		r.Use(s.withMatch)
		r.Get("/events", s.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(10 * time.Second))
			r.Use(jsonContentType)
			r.Get("/", s.handleGetMatch)
			r.Delete("/", s.handleDeleteMatch)
			r.Post("/round", s.handleNewRound)
			r.With(s.limiter.Middleware("guess")).Post("/guess", s.handleGuess)
		})
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", r.URL.Path)
	})

	return s
}

// Router exposes the internal router; main mounts it on an http.Server.
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Debug().
				Str("requestId", chimw.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		}()
		next.ServeHTTP(ww, r)
	})
}

// ------------------------------ MATCH --------------------------------------

// roundReq is the body of POST /match/new and POST /match/{id}/round.
// Omitted fields take the configured defaults.
type roundReq struct {
	Min         *int `json:"min"`
	Max         *int `json:"max"`
	MaxAttempts *int `json:"maxAttempts"`
	Secret      *int `json:"secret"` // honored only with ALLOW_FIXED_SECRET=true
}

func (req roundReq) config(def game.Config) game.Config {
	cfg := def
	if req.Min != nil {
		cfg.Min = *req.Min
	}
	if req.Max != nil {
		cfg.Max = *req.Max
	}
	if req.MaxAttempts != nil {
		cfg.MaxAttempts = *req.MaxAttempts
	}
	return cfg
}

type newMatchRes struct {
	MatchID string         `json:"matchId"`
	Token   string         `json:"token"`
	Round   match.Snapshot `json:"round"`
}

type roundRes struct {
	Round match.Snapshot `json:"round"`
}

// handleNewMatch creates a match, starts its first round and issues a token for it.
func (s *Server) handleNewMatch(w http.ResponseWriter, r *http.Request) {
	var req roundReq
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}

	m := match.New(s.matchOpts...)
	if err := s.startRound(m, req); err != nil {
		m.Close()
		writeGameError(w, err)
		return
	}
	if err := s.store.Save(r.Context(), m); err != nil {
		m.Close()
		log.Error().Err(err).Msg("save match")
		writeError(w, http.StatusInternalServerError, "save_failed", "")
		return
	}

	tok, exp, err := s.signToken(m.ID())
	if err != nil {
		log.Error().Err(err).Str("matchId", m.ID()).Msg("sign token")
		writeError(w, http.StatusInternalServerError, "sign_failed", "")
		return
	}
	s.setTokenCookie(w, r, tok, exp)
	log.Info().Str("matchId", m.ID()).Msg("match created")

	_ = json.NewEncoder(w).Encode(newMatchRes{MatchID: m.ID(), Token: tok, Round: m.Snapshot()})
}

// handleNewRound starts a fresh round, abandoning any pending computer move.
func (s *Server) handleNewRound(w http.ResponseWriter, r *http.Request) {
	m := matchFrom(r)
	var req roundReq
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	if err := s.startRound(m, req); err != nil {
		writeGameError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(roundRes{Round: m.Snapshot()})
}

func (s *Server) startRound(m *match.Match, req roundReq) error {
	cfg := req.config(s.cfg.DefaultRound)
	if req.Secret != nil && s.cfg.AllowFixedSecret {
		_, err := m.StartWithSecret(cfg, *req.Secret)
		return err
	}
	_, err := m.Start(cfg)
	return err
}

// guessReq accepts the raw text typed by the player. A JSON number is taken
// as its literal text.
type guessReq struct {
	Guess json.RawMessage `json:"guess"`
}

func (g guessReq) raw() string {
	var s string
	if err := json.Unmarshal(g.Guess, &s); err == nil {
		return s
	}
	return string(g.Guess)
}

type guessRes struct {
	Outcome game.Outcome   `json:"outcome"`
	Round   match.Snapshot `json:"round"`
}

// handleGuess validates and submits the human's guess.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	m := matchFrom(r)
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	out, err := m.SubmitHuman(req.raw())
	if err != nil {
		writeGameError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(guessRes{Outcome: out, Round: m.Snapshot()})
}

// handleGetMatch returns the current snapshot for polling clients.
func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(matchFrom(r).Snapshot())
}

// handleDeleteMatch releases the match: its pending computer move is
// cancelled and open event streams are closed.
func (s *Server) handleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	m := matchFrom(r)
	if err := s.store.Delete(r.Context(), m.ID()); err != nil {
		log.Error().Err(err).Str("matchId", m.ID()).Msg("delete match")
		writeError(w, http.StatusInternalServerError, "delete_failed", "")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: tokenCookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	log.Info().Str("matchId", m.ID()).Msg("match deleted")
	_, _ = w.Write([]byte(`{"ok":true}`))
}

// ------------------------------- errors ------------------------------------

type errorRes struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError writes a JSON error body with the given status.
func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorRes{Error: code, Message: msg})
}

// writeGameError maps engine and match errors onto HTTP statuses.
func writeGameError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, game.ErrInvalidConfiguration):
		status, code = http.StatusBadRequest, "invalid_configuration"
	case errors.Is(err, game.ErrNotANumber):
		status, code = http.StatusBadRequest, "not_a_number"
	case errors.Is(err, game.ErrOutOfRange):
		status, code = http.StatusBadRequest, "out_of_range"
	case errors.Is(err, game.ErrRoundInactive):
		status, code = http.StatusConflict, "round_inactive"
	case errors.Is(err, game.ErrNotYourTurn):
		status, code = http.StatusConflict, "not_your_turn"
	case errors.Is(err, match.ErrClosed):
		status, code = http.StatusGone, "match_closed"
	default:
		log.Error().Err(err).Msg("unexpected game error")
	}
	writeError(w, status, code, err.Error())
}

// decodeOptional decodes a JSON body if one was sent.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}
