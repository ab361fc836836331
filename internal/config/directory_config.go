package config

import (
	"strings"
	"time"
)

type Directory struct{}

var _ DirectoryConfig = Directory{}

func (Directory) GetGraphBaseURL() string {
	return strings.TrimSuffix(GetEnv("GRAPH_BASE_URL", "https://graph.microsoft.com/v1.0"), "/")
}

// GetGraphScope is the client credentials scope for the application login
func (Directory) GetGraphScope() string {
	return GetEnv("GRAPH_SCOPE", "https://graph.microsoft.com/.default")
}

// GetDirectoryPageSize caps user listings to a single page.
func (Directory) GetDirectoryPageSize() int {
	return GetEnvInt("DIRECTORY_PAGE_SIZE", 100)
}

// GetTenantFanoutLimit bounds concurrent mailbox lookups during tenant aggregation
func (Directory) GetTenantFanoutLimit() int {
	return GetEnvInt("TENANT_FANOUT_LIMIT", 8)
}

func (Directory) GetUpstreamTimeout() time.Duration {
	return GetEnvDuration("UPSTREAM_TIMEOUT", 30*time.Second)
}
