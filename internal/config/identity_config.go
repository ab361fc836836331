package config

import (
	"fmt"
	"strings"
)

type Identity struct{}

var _ IdentityConfig = Identity{}

// GetTenantID is a tenant id, a verified domain or "common"
func (Identity) GetTenantID() string {
	return GetEnv("TENANT_ID", "common")
}

func (Identity) GetClientID() string {
	return GetEnv("CLIENT_ID", "")
}

func (Identity) GetClientSecret() string {
	return GetEnv("CLIENT_SECRET", "")
}

func (Identity) GetRedirectURL() string {
	return GetEnv("REDIRECT_URL", "http://localhost:3500/api/callback")
}

func (Identity) GetAuthorityURL() string {
	return strings.TrimSuffix(GetEnv("AUTHORITY_URL", "https://login.microsoftonline.com"), "/")
}

// GetIssuerURL returns the OIDC issuer used to discover signing keys.
func (i Identity) GetIssuerURL() string {
	return GetEnv("ISSUER_URL", fmt.Sprintf("%s/%s/v2.0", i.GetAuthorityURL(), i.GetTenantID()))
}

// GetJWKSURL overrides the jwks_uri from the discovery document when set
func (Identity) GetJWKSURL() string {
	return GetEnv("JWKS_URL", "")
}

// GetTrustedKeysPEM returns PEM encoded public keys. When set, remote key discovery is skipped.
func (Identity) GetTrustedKeysPEM() string {
	return GetEnv("TRUSTED_KEYS_PEM", "")
}
