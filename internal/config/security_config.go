package config

import "time"

type SecurityConfig interface {
	GetCookieSecret() string
	GetSessionCleanupInterval() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetCookieSecret returns the cookie signing secret. Empty means one is generated at startup.
func (Security) GetCookieSecret() string {
	return GetEnv("COOKIE_SECRET", "")
}

func (Security) GetSessionCleanupInterval() time.Duration {
	return GetEnvDuration("SESSION_CLEANUP_INTERVAL", 1*time.Minute)
}
