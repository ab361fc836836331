package server

import (
	"fmt"
	"net/http"

	"github.com/jrsteele09/graph-kpi-dashboard/internal/errors"
	"github.com/jrsteele09/graph-kpi-dashboard/sessions"
	"github.com/rs/zerolog/log"
)

// OAuthCallbackHandler trades the authorization code for a bearer token and opens a session for it.
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := r.FormValue("state")
		code := r.FormValue("code")
		errorParam := r.FormValue("error")
		errorDesc := r.FormValue("error_description")

		// Check for authorization errors
		if errorParam != "" {
			http.Error(w, fmt.Sprintf("Authorization failed: %s - %s", errorParam, errorDesc), http.StatusBadRequest)
			return
		}

		if code == "" {
			http.Error(w, "There was no authorization code provided in the query. No Bearer token can be requested", http.StatusBadRequest)
			return
		}

		// The state must be the one this browser was given by the login redirect
		cookieState, ok := s.signedCookie(r, authStateCookieName)
		if !ok || state == "" || cookieState != state {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}
		authState, err := s.authState.Get(state)
		if err != nil {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}

		// Clean up state after use
		if err := s.authState.Delete(state); err != nil {
			log.Err(err).Msg("Callback: failed to delete auth state")
		}
		s.setSignedCookie(w, r, authStateCookieName, "", -1)

		bearerToken, err := s.identity.Exchange(r.Context(), code)
		if err != nil {
			log.Err(err).Msg("Callback: token exchange failed")
			http.Error(w, "Token exchange failed", http.StatusBadGateway)
			return
		}

		session, err := sessions.Create(r.Context(), s.sessions, s.decoder, bearerToken, "")
		if err != nil {
			log.Err(err).Msg("Callback: failed to create session")
			http.Error(w, "Received credential was rejected", statusForError(err))
			return
		}

		log.Info().Str("subject", session.Decoded.SubjectID).Str("use_case", authState.UseCase).Msg("User logged in")
		s.setSignedCookie(w, r, sessionCookieName, session.ID, 0)
		http.Redirect(w, r, authState.ReturnURL, http.StatusSeeOther)
	}
}

// statusForError maps the error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, errors.ErrMalformedCredential), errors.Is(err, errors.ErrUntrustedCredential):
		return http.StatusUnauthorized
	case errors.Is(err, errors.ErrInsufficientCapability):
		return http.StatusForbidden
	case errors.Is(err, errors.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
