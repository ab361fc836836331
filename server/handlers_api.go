package server

import (
	"net/http"

	"github.com/jrsteele09/graph-kpi-dashboard/capabilities"
	"github.com/jrsteele09/graph-kpi-dashboard/directory"
	"github.com/jrsteele09/graph-kpi-dashboard/sessions"
	"github.com/rs/zerolog/log"
)

// AppTokenHandler logs the application in with its own credentials. The resulting
// session is stored under the client id and replaces any earlier application session.
func (s *Server) AppTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bearerToken, err := s.identity.ApplicationToken(r.Context())
		if err != nil {
			log.Err(err).Msg("AppToken: application login failed")
			http.Error(w, "Application login failed", statusForError(err))
			return
		}

		session, err := sessions.Create(r.Context(), s.sessions, s.decoder, bearerToken, s.identity.ClientID())
		if err != nil {
			log.Err(err).Msg("AppToken: failed to create application session")
			http.Error(w, "Application credential was rejected", statusForError(err))
			return
		}

		caps := session.Capabilities()
		log.Info().Bool("tenant_metrics", caps.TenantMetricsEnabled).Msg("Application logged in")

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Successful"))
	}
}

// UserUpdateHandler sets the mobile phone of the session's subject. A missing phone parameter is a no-op.
func (s *Server) UserUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())
		if session == nil {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		if err := session.Capabilities().Require(capabilities.EditableProfile); err != nil {
			log.Warn().Err(err).Str("subject", session.Decoded.SubjectID).Msg("Refused user update")
			http.Error(w, "Refused UpdateUser: Permissions missing!", http.StatusForbidden)
			return
		}

		phone := r.URL.Query().Get("phone")
		if phone == "" {
			w.WriteHeader(http.StatusOK)
			return
		}

		update := directory.UserUpdate{MobilePhone: &phone}
		if err := s.directory.UpdateUser(r.Context(), session.BearerToken, session.Decoded.SubjectID, update); err != nil {
			log.Err(err).Msg("UserUpdate: directory update failed")
			http.Error(w, "Update failed", statusForError(err))
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}
