package server

import (
	"fmt"
	"net/http"

	"github.com/jrsteele09/graph-kpi-dashboard/directory"
	"github.com/jrsteele09/graph-kpi-dashboard/kpi"
	"github.com/jrsteele09/graph-kpi-dashboard/sessions"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type DashboardData struct {
	AppName         string
	User            directory.User
	EditableUser    bool
	UserKPIsEnabled bool
	TenantEnabled   bool
	UserKPIs        kpi.PerUserMetrics
	Tenant          kpi.TenantMetrics
}

// DashboardHandler renders the profile of the logged in user together with whichever
// KPIs the user's and the application's capabilities allow.
func (s *Server) DashboardHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("index.html")
	if err != nil {
		panic("Failed to parse index template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())
		if session == nil {
			http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
			return
		}

		user, err := s.directory.Me(r.Context(), session.BearerToken)
		if err != nil {
			log.Err(err).Msg("Dashboard: failed to load profile")
			http.Error(w, "Failed to load your profile", statusForError(err))
			return
		}

		caps := session.Capabilities()
		appSession := s.tenantSession()

		data := DashboardData{
			AppName:         s.config.GetAppName(),
			User:            user,
			EditableUser:    caps.EditableProfile,
			UserKPIsEnabled: caps.PersonalMetricsEnabled,
			TenantEnabled:   appSession != nil,
		}

		g, gctx := errgroup.WithContext(r.Context())
		if data.UserKPIsEnabled {
			g.Go(func() error {
				var err error
				data.UserKPIs, err = s.aggregator.PerUser(gctx, session)
				return err
			})
		}
		if data.TenantEnabled {
			g.Go(func() error {
				var err error
				data.Tenant, err = s.aggregator.TenantFromDirectory(gctx, appSession)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			log.Err(err).Msg("Dashboard: failed to aggregate KPIs")
			http.Error(w, "Failed to gather KPIs", statusForError(err))
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			log.Err(err).Msg("Failed to render dashboard template")
		}
	}
}

// tenantSession returns the application session if it is logged in and may read tenant metrics.
func (s *Server) tenantSession() *sessions.Session {
	appSession, err := s.sessions.Get(s.identity.ClientID())
	if err != nil {
		return nil
	}
	if !appSession.Capabilities().TenantMetricsEnabled {
		return nil
	}
	return appSession
}

func formatMinutes(m float64) string {
	return fmt.Sprintf("%.0f", m)
}
