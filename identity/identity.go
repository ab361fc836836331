// Package identity acquires bearer credentials from the identity provider for users
// (authorization code flow) and for the application itself (client credentials flow).
package identity

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/graph-kpi-dashboard/capabilities"
	"github.com/jrsteele09/graph-kpi-dashboard/internal/config"
	"github.com/jrsteele09/graph-kpi-dashboard/internal/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

// Login use cases that ask the user to consent to extra scopes
const (
	UseCaseUserKPIs = "userKPIs"
	UseCaseEditing  = "editing"
)

const applicationTokenKey = "application"

// Config is the subset of the application configuration the identity client needs.
type Config interface {
	config.IdentityConfig
	GetGraphScope() string
}

// Settings describes the registered application and the provider's endpoints.
type Settings struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	AppScopes    []string
}

// SettingsFromConfig derives the v2.0 endpoints of the configured tenant.
func SettingsFromConfig(cfg Config) Settings {
	base := fmt.Sprintf("%s/%s/oauth2/v2.0", cfg.GetAuthorityURL(), cfg.GetTenantID())
	return Settings{
		ClientID:     cfg.GetClientID(),
		ClientSecret: cfg.GetClientSecret(),
		RedirectURL:  cfg.GetRedirectURL(),
		AuthURL:      base + "/authorize",
		TokenURL:     base + "/token",
		AppScopes:    []string{cfg.GetGraphScope()},
	}
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for token endpoint calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Client talks to the identity provider's authorize and token endpoints.
type Client struct {
	clientID   string
	user       *oauth2.Config
	app        *clientcredentials.Config
	httpClient *http.Client

	// de-duplicates concurrent application logins
	appGroup singleflight.Group
}

func New(s Settings, opts ...Option) *Client {
	c := &Client{
		clientID: s.ClientID,
		user: &oauth2.Config{
			ClientID:     s.ClientID,
			ClientSecret: s.ClientSecret,
			RedirectURL:  s.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   s.AuthURL,
				TokenURL:  s.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		app: &clientcredentials.Config{
			ClientID:     s.ClientID,
			ClientSecret: s.ClientSecret,
			TokenURL:     s.TokenURL,
			Scopes:       s.AppScopes,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ClientID doubles as the id of the application session.
func (c *Client) ClientID() string {
	return c.clientID
}

// ScopesFor returns the scopes requested for a login use case. Every login asks for user.read.
func ScopesFor(useCase string) []string {
	scopes := []string{capabilities.ScopeUserRead}
	switch useCase {
	case UseCaseUserKPIs:
		scopes = append(scopes, capabilities.Required(capabilities.PersonalMetrics)...)
	case UseCaseEditing:
		scopes = append(scopes, capabilities.Required(capabilities.EditableProfile)...)
	}
	return scopes
}

// AuthCodeURL builds the authorize redirect. Any use case forces the consent prompt
// so that newly requested scopes are granted.
func (c *Client) AuthCodeURL(state, useCase string) string {
	cfg := *c.user
	cfg.Scopes = ScopesFor(useCase)

	opts := []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("response_mode", "query")}
	if useCase != "" {
		opts = append(opts, oauth2.SetAuthURLParam("prompt", "consent"))
	}
	return cfg.AuthCodeURL(state, opts...)
}

// Exchange trades an authorization code for the user's access token.
func (c *Client) Exchange(ctx context.Context, code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("[identity Exchange] no authorization code provided")
	}

	token, err := c.user.Exchange(c.withHTTPClient(ctx), code)
	if err != nil {
		return "", fmt.Errorf("[identity Exchange] %w: %v", errors.ErrUpstream, err)
	}
	return token.AccessToken, nil
}

// ApplicationToken acquires an application token with the client credentials grant.
// Concurrent callers share one token request. The shared request is detached from
// any single caller's cancellation; a cancelled caller stops waiting on its own.
func (c *Client) ApplicationToken(ctx context.Context) (string, error) {
	flight := c.appGroup.DoChan(applicationTokenKey, func() (interface{}, error) {
		token, err := c.app.Token(c.withHTTPClient(context.WithoutCancel(ctx)))
		if err != nil {
			return "", err
		}
		return token.AccessToken, nil
	})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("[identity ApplicationToken] %w", ctx.Err())
	case result := <-flight:
		if result.Err != nil {
			return "", fmt.Errorf("[identity ApplicationToken] %w: %v", errors.ErrUpstream, result.Err)
		}
		return result.Val.(string), nil
	}
}

func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	if c.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}
