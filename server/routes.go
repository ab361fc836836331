package server

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteDashboard+"{$}", ChainMiddleware(s.DashboardHandler(), s.HTMLMiddleWare(s.RequireSession())...))

	// LOGIN
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.HTMLMiddleWare()...))

	// API routes
	s.RegisterRouteHandler("GET "+RouteAPIAppToken, ChainMiddleware(s.AppTokenHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIUserUpdate, ChainMiddleware(s.UserUpdateHandler(), s.APIMiddleware(s.RequireAPISession())...))

	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	s.RegisterRouteHandler("GET "+RouteStaticCSS, ChainMiddleware(staticFileHandler(), s.HTMLMiddleWare(s.CacheMiddleware)...))
}
