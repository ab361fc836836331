package credential

import (
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/graph-kpi-dashboard/internal/utils"
)

// Claims is the access token payload issued by the identity provider.
// Delegated (user) tokens carry "scp", application tokens carry "roles".
type Claims struct {
	jwt.RegisteredClaims
	ObjectID       string   `json:"oid,omitempty"`             // Directory object id of the subject
	Name           string   `json:"name,omitempty"`            // Display name (delegated tokens)
	AppDisplayName string   `json:"app_displayname,omitempty"` // Display name of the calling application
	AppID          string   `json:"appid,omitempty"`           // Client id of the calling application
	UniqueName     string   `json:"unique_name,omitempty"`
	GivenName      string   `json:"given_name,omitempty"`
	FamilyName     string   `json:"family_name,omitempty"`
	IPAddr         string   `json:"ipaddr,omitempty"`
	Scope          string   `json:"scp,omitempty"`   // Space separated delegated scopes
	Roles          []string `json:"roles,omitempty"` // Application permissions
}

// Decoded is the immutable view of a credential the rest of the dashboard works with.
type Decoded struct {
	Expiry        time.Time
	SubjectID     string
	DisplayName   string
	AppID         string
	UniqueName    string
	GrantedScopes ScopeSet
}

// ScopeSet holds lower-cased scope names. A decoded credential never carries a nil set.
type ScopeSet map[string]struct{}

// NewScopeSet lower-cases and de-duplicates scopes, ignoring blanks.
func NewScopeSet(scopes ...string) ScopeSet {
	set := make(ScopeSet, len(scopes))
	for _, s := range scopes {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		set[s] = struct{}{}
	}
	return set
}

// Has is case-insensitive.
func (s ScopeSet) Has(scope string) bool {
	_, ok := s[strings.ToLower(scope)]
	return ok
}

// HasAll reports whether every scope is granted. An empty argument list is trivially satisfied.
func (s ScopeSet) HasAll(scopes ...string) bool {
	for _, scope := range scopes {
		if !s.Has(scope) {
			return false
		}
	}
	return true
}

// Sorted returns the scopes in lexical order, mostly for logging and rendering.
func (s ScopeSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for scope := range s {
		out = append(out, scope)
	}
	sort.Strings(out)
	return out
}

// grantedScopes applies the extraction order: scp, then roles, then nothing.
func (c *Claims) grantedScopes() ScopeSet {
	switch {
	case c.Scope != "":
		return NewScopeSet(strings.Fields(c.Scope)...)
	case len(c.Roles) > 0:
		return NewScopeSet(c.Roles...)
	default:
		return NewScopeSet()
	}
}

func (c *Claims) subjectID() string {
	return utils.FirstNonEmpty(c.ObjectID, c.Subject)
}

func (c *Claims) displayName() string {
	return utils.FirstNonEmpty(c.Name, c.AppDisplayName)
}
