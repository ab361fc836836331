// Package server serves the KPI dashboard: login redirects, the token callback,
// the rendered dashboard and the profile update API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/graph-kpi-dashboard/directory"
	"github.com/jrsteele09/graph-kpi-dashboard/internal/config"
	"github.com/jrsteele09/graph-kpi-dashboard/kpi"
	"github.com/jrsteele09/graph-kpi-dashboard/server/authflowrepo"
	"github.com/jrsteele09/graph-kpi-dashboard/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Authenticator acquires bearer credentials from the identity provider.
type Authenticator interface {
	ClientID() string
	AuthCodeURL(state, useCase string) string
	Exchange(ctx context.Context, code string) (string, error)
	ApplicationToken(ctx context.Context) (string, error)
}

// Services are the collaborators the Server is built from.
type Services struct {
	Sessions  sessions.Registry
	Decoder   sessions.Decoder
	Identity  Authenticator
	Directory directory.Gateway
	AuthFlows authflowrepo.Repo
	Metrics   *Metrics
	Gatherer  prometheus.Gatherer
}

type Server struct {
	env        string // Environment (e.g., "DEV", "PROD")
	mux        *http.ServeMux
	routes     []string
	config     config.Config
	sessions   sessions.Registry
	decoder    sessions.Decoder
	identity   Authenticator
	directory  directory.Gateway
	aggregator *kpi.Aggregator
	authState  authflowrepo.Repo
	metrics    *Metrics
	gatherer   prometheus.Gatherer
	cookies    *cookieSigner
}

func New(config config.Config, svc Services) (*Server, error) {
	if svc.Sessions == nil || svc.Decoder == nil || svc.Identity == nil || svc.Directory == nil {
		return nil, fmt.Errorf("[Server New] sessions, decoder, identity and directory are required")
	}
	if svc.AuthFlows == nil {
		svc.AuthFlows = authflowrepo.NewInMemoryRepo()
	}
	if svc.Metrics == nil {
		reg := prometheus.NewRegistry()
		svc.Metrics = NewMetrics(reg, svc.Sessions)
		svc.Gatherer = reg
	}
	if svc.Gatherer == nil {
		svc.Gatherer = prometheus.DefaultGatherer
	}

	secret := config.GetCookieSecret()
	if secret == "" {
		// Cookies signed with a random key do not survive a restart
		log.Warn().Msg("COOKIE_SECRET is not set, generating a random cookie key")
		secret = generateRandomString(32)
	}

	s := &Server{
		env:       config.GetEnv(),
		mux:       http.NewServeMux(),
		config:    config,
		sessions:  svc.Sessions,
		decoder:   svc.Decoder,
		identity:  svc.Identity,
		directory: svc.Directory,
		aggregator: kpi.NewAggregator(svc.Directory,
			kpi.WithFanoutLimit(config.GetTenantFanoutLimit()),
			kpi.WithRecorder(svc.Metrics),
		),
		authState: svc.AuthFlows,
		metrics:   svc.Metrics,
		gatherer:  svc.Gatherer,
		cookies:   newCookieSigner(secret),
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
