package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/graph-kpi-dashboard/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, v := range []string{"PORT", "TENANT_ID", "AUTHORITY_URL", "ISSUER_URL", "DIRECTORY_PAGE_SIZE", "TENANT_FANOUT_LIMIT", "UPSTREAM_TIMEOUT", "SESSION_CLEANUP_INTERVAL"} {
		t.Setenv(v, "")
	}
	c := config.New()

	require.Equal(t, ":3500", c.GetPort())
	require.Equal(t, "common", c.GetTenantID())
	require.Equal(t, "https://login.microsoftonline.com/common/v2.0", c.GetIssuerURL())
	require.Equal(t, 100, c.GetDirectoryPageSize())
	require.Equal(t, 8, c.GetTenantFanoutLimit())
	require.Equal(t, 30*time.Second, c.GetUpstreamTimeout())
	require.Equal(t, time.Minute, c.GetSessionCleanupInterval())
}

func TestOverrides(t *testing.T) {
	t.Setenv("PORT", ":9000")
	t.Setenv("AUTHORITY_URL", "https://login.example.com/")
	t.Setenv("TENANT_ID", "contoso")
	t.Setenv("TENANT_FANOUT_LIMIT", "3")
	t.Setenv("UPSTREAM_TIMEOUT", "5s")
	c := config.New()

	require.Equal(t, ":9000", c.GetPort())
	require.Equal(t, "https://login.example.com", c.GetAuthorityURL())
	require.Equal(t, "https://login.example.com/contoso/v2.0", c.GetIssuerURL())
	require.Equal(t, 3, c.GetTenantFanoutLimit())
	require.Equal(t, 5*time.Second, c.GetUpstreamTimeout())
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("DIRECTORY_PAGE_SIZE", "lots")
	t.Setenv("TENANT_FANOUT_LIMIT", "-1")
	t.Setenv("UPSTREAM_TIMEOUT", "soon")
	c := config.New()

	require.Equal(t, 100, c.GetDirectoryPageSize())
	require.Equal(t, 8, c.GetTenantFanoutLimit())
	require.Equal(t, 30*time.Second, c.GetUpstreamTimeout())
}
