package server

import (
	"net/http"

	"github.com/jrsteele09/graph-kpi-dashboard/server/authflowrepo"
	"github.com/jrsteele09/graph-kpi-dashboard/sessions"
	"github.com/rs/zerolog/log"
)

// stateLength is the number of random bytes in the login state parameter
const stateLength = 32

// LoginHandler starts the authorization code flow. The optional usecase query
// parameter asks for the extra scopes of that use case.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		useCase := r.URL.Query().Get("usecase")
		now := sessions.NowTimeFunc()

		// Abandoned logins never reach the callback
		s.authState.PurgeOlderThan(now.Add(-authflowrepo.DefaultMaxAge))

		state := generateRandomString(stateLength)
		err := s.authState.Upsert(state, &authflowrepo.AuthFlowState{
			UseCase:   useCase,
			ReturnURL: RouteDashboard,
			CreatedAt: now,
		})
		if err != nil {
			log.Err(err).Msg("Login: failed to store auth state")
			http.Error(w, "failed to start login", http.StatusInternalServerError)
			return
		}

		s.setSignedCookie(w, r, authStateCookieName, state, int(authflowrepo.DefaultMaxAge.Seconds()))
		http.Redirect(w, r, s.identity.AuthCodeURL(state, useCase), http.StatusFound)
	}
}

// LogoutHandler forgets the browser's session.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessionID, ok := s.signedCookie(r, sessionCookieName); ok {
			if err := s.sessions.Delete(sessionID); err != nil {
				log.Err(err).Msg("Logout: failed to delete session")
			}
		}
		s.setSignedCookie(w, r, sessionCookieName, "", -1)
		http.Redirect(w, r, RouteDashboard, http.StatusSeeOther)
	}
}
