package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/graph-kpi-dashboard/internal/errors"
	"github.com/jrsteele09/graph-kpi-dashboard/sessions"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeySession stores the authenticated dashboard session
const ContextKeySession ContextKey = "session"

// RequireSession is middleware for HTML routes. Requests without a valid session are sent to the login page.
func (s *Server) RequireSession() func(http.HandlerFunc) http.HandlerFunc {
	return s.requireSession(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
	})
}

// RequireAPISession is middleware for API routes. Requests without a valid session are refused.
func (s *Server) RequireAPISession() func(http.HandlerFunc) http.HandlerFunc {
	return s.requireSession(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
	})
}

func (s *Server) requireSession(reject http.HandlerFunc) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			sessionID, ok := s.signedCookie(r, sessionCookieName)
			if !ok {
				reject(w, r)
				return
			}

			// Get evicts sessions that fell out of the validity window
			session, err := s.sessions.Get(sessionID)
			if err != nil {
				if errors.Is(err, errors.ErrSessionExpired) {
					log.Debug().Str("session_id", sessionID).Msg("Session expired")
				}
				reject(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, session)
			next(w, r.WithContext(ctx))
		}
	}
}

func sessionFromContext(ctx context.Context) *sessions.Session {
	session, _ := ctx.Value(ContextKeySession).(*sessions.Session)
	return session
}
