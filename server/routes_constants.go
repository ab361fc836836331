package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteDashboard = "/"

	// Auth Routes - Login & Logout
	RouteLogin      = "/login"
	RouteAuthLogout = "/auth/logout"
	RouteCallback   = "/api/callback"

	// API Routes
	RouteAPIAppToken   = "/api/appToken"
	RouteAPIUserUpdate = "/api/user/update"

	RouteMetrics = "/metrics"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
)
