// internal/httpserver/token.go
//
// Match tokens: an HS256 JWT naming the match a client may drive.
// Issued by POST /match/new, accepted as "Authorization: Bearer <token>",
// as the token cookie, or as ?token= (browsers cannot set headers on WebSocket upgrades).

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/robalobadob/numberduel/apps/go-server/internal/match"
	"github.com/robalobadob/numberduel/apps/go-server/internal/store"
)

const tokenCookieName = "numberduel_token"

var errBadToken = errors.New("invalid token")

// signToken creates a token for matchID that expires after cfg.TokenTTL.
func (s *Server) signToken(matchID string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.cfg.TokenTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"mid": matchID,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	})
	ss, err := t.SignedString([]byte(s.cfg.JWTSecret))
	return ss, exp, err
}

// matchIDFromToken verifies tok and returns the match it was issued for.
func (s *Server) matchIDFromToken(tok string) (string, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return "", errBadToken
	}
	mid, _ := claims["mid"].(string)
	if mid == "" {
		return "", errBadToken
	}
	return mid, nil
}

// setTokenCookie writes the token cookie with appropriate security attributes.
func (s *Server) setTokenCookie(w http.ResponseWriter, r *http.Request, token string, exp time.Time) {
	secure := r.TLS != nil
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// bearerOrCookie extracts a token from the Authorization header, the ?token=
// query parameter, or the token cookie, in that order.
func bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if q := r.URL.Query().Get("token"); q != "" {
		return q
	}
	if c, err := r.Cookie(tokenCookieName); err == nil {
		return c.Value
	}
	return ""
}

// ctxMatchKey is the context key type for the resolved *match.Match.
type ctxMatchKey struct{}

// withMatch enforces a token for the {id} in the URL and loads the match.
func (s *Server) withMatch(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		tok := bearerOrCookie(r)
		if tok == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing token")
			return
		}
		mid, err := s.matchIDFromToken(tok)
		if err != nil || mid != id {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}
		m, err := s.store.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "not_found", "")
				return
			}
			writeError(w, http.StatusInternalServerError, "store_failed", "")
			return
		}
		ctx := context.WithValue(r.Context(), ctxMatchKey{}, m)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// matchFrom returns the match placed in the request context by withMatch.
func matchFrom(r *http.Request) *match.Match {
	m, _ := r.Context().Value(ctxMatchKey{}).(*match.Match)
	return m
}
