package identity_test

import (
	"github.com/jrsteele09/graph-kpi-dashboard/identity"
	"github.com/jrsteele09/graph-kpi-dashboard/internal/config"
)

type testConfig struct {
	config.Identity
	config.Directory
}

var _ identity.Config = testConfig{}
