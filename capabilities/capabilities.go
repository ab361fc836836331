// Package capabilities derives the operations a credential may perform from its granted scopes.
package capabilities

import (
	"fmt"

	"github.com/jrsteele09/graph-kpi-dashboard/credential"
	"github.com/jrsteele09/graph-kpi-dashboard/internal/errors"
)

// Scope names as they appear, lower-cased, in a decoded credential
const (
	ScopeUserRead        = "user.read"
	ScopeUserReadWrite   = "user.readwrite"
	ScopeUserReadAll     = "user.read.all"
	ScopeFilesReadAll    = "files.read.all"
	ScopeGroupReadAll    = "group.read.all"
	ScopeMailRead        = "mail.read"
	ScopeAuditLogReadAll = "auditlog.read.all"
	ScopeCalendarsRead   = "calendars.read"
)

type Capability int

const (
	LoggedIn Capability = iota
	EditableProfile
	TenantMetrics
	PersonalMetrics
)

func (c Capability) String() string {
	switch c {
	case LoggedIn:
		return "logged_in"
	case EditableProfile:
		return "editable_profile"
	case TenantMetrics:
		return "tenant_metrics"
	case PersonalMetrics:
		return "personal_metrics"
	default:
		return fmt.Sprintf("capability(%d)", int(c))
	}
}

// requiredScopes is the rule table. LoggedIn needs no scope: a decoded credential is enough.
var requiredScopes = map[Capability][]string{
	LoggedIn:        nil,
	EditableProfile: {ScopeUserReadWrite},
	TenantMetrics:   {ScopeUserReadAll, ScopeFilesReadAll, ScopeGroupReadAll, ScopeMailRead, ScopeAuditLogReadAll},
	PersonalMetrics: {ScopeCalendarsRead, ScopeMailRead},
}

// Required returns the scopes that must all be granted for c.
func Required(c Capability) []string {
	return append([]string(nil), requiredScopes[c]...)
}

// Capabilities is an immutable snapshot derived from a credential's scopes.
type Capabilities struct {
	LoggedIn               bool
	EditableProfile        bool
	TenantMetricsEnabled   bool
	PersonalMetricsEnabled bool
}

// Evaluate is pure; absent scopes simply yield false.
func Evaluate(scopes credential.ScopeSet) Capabilities {
	return Capabilities{
		LoggedIn:               true,
		EditableProfile:        scopes.HasAll(requiredScopes[EditableProfile]...),
		TenantMetricsEnabled:   scopes.HasAll(requiredScopes[TenantMetrics]...),
		PersonalMetricsEnabled: scopes.HasAll(requiredScopes[PersonalMetrics]...),
	}
}

func (c Capabilities) Has(capability Capability) bool {
	switch capability {
	case LoggedIn:
		return c.LoggedIn
	case EditableProfile:
		return c.EditableProfile
	case TenantMetrics:
		return c.TenantMetricsEnabled
	case PersonalMetrics:
		return c.PersonalMetricsEnabled
	default:
		return false
	}
}

// Require returns ErrInsufficientCapability when capability is not granted.
// Callers check this before invoking a gated aggregation.
func (c Capabilities) Require(capability Capability) error {
	if !c.Has(capability) {
		return fmt.Errorf("[capabilities Require] %s: %w", capability, errors.ErrInsufficientCapability)
	}
	return nil
}
