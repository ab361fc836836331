package config

import "time"

type Config interface {
	EnvConfig
	IdentityConfig
	DirectoryConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type IdentityConfig interface {
	GetTenantID() string
	GetClientID() string
	GetClientSecret() string
	GetRedirectURL() string
	GetAuthorityURL() string
	GetIssuerURL() string
	GetJWKSURL() string
	GetTrustedKeysPEM() string
}

type DirectoryConfig interface {
	GetGraphBaseURL() string
	GetGraphScope() string
	GetDirectoryPageSize() int
	GetTenantFanoutLimit() int
	GetUpstreamTimeout() time.Duration
}

type mainConfig struct {
	EnvVars
	Identity
	Directory
	Security
}

func New() Config {
	return mainConfig{}
}
