package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/graph-kpi-dashboard/credential"
	"github.com/jrsteele09/graph-kpi-dashboard/directory"
	"github.com/jrsteele09/graph-kpi-dashboard/internal/config"
	"github.com/jrsteele09/graph-kpi-dashboard/internal/errors"
	"github.com/jrsteele09/graph-kpi-dashboard/server"
	"github.com/jrsteele09/graph-kpi-dashboard/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const testClientID = "app-client-id"

var tenantRoles = []string{"User.Read.All", "Files.Read.All", "Group.Read.All", "Mail.Read", "AuditLog.Read.All"}

// fakeIdentity hands out pre-minted tokens instead of talking to a provider
type fakeIdentity struct {
	codes    map[string]string
	appToken string
	appErr   error
}

func (f *fakeIdentity) ClientID() string { return testClientID }

func (f *fakeIdentity) AuthCodeURL(state, useCase string) string {
	q := url.Values{"state": {state}}
	if useCase != "" {
		q.Set("usecase", useCase)
	}
	return "https://login.example.com/authorize?" + q.Encode()
}

func (f *fakeIdentity) Exchange(_ context.Context, code string) (string, error) {
	token, ok := f.codes[code]
	if !ok {
		return "", errors.ErrUpstream
	}
	return token, nil
}

func (f *fakeIdentity) ApplicationToken(context.Context) (string, error) {
	return f.appToken, f.appErr
}

type fakeDirectory struct {
	mu      sync.Mutex
	me      directory.User
	users   []directory.User
	events  []directory.Event
	sent    map[string]int
	signIn  directory.SignIn
	updates map[string]directory.UserUpdate
}

var _ directory.Gateway = (*fakeDirectory)(nil)

func (f *fakeDirectory) Me(context.Context, string) (directory.User, error) { return f.me, nil }

func (f *fakeDirectory) UpdateUser(_ context.Context, _ string, userID string, update directory.UserUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updates == nil {
		f.updates = map[string]directory.UserUpdate{}
	}
	f.updates[userID] = update
	return nil
}

func (f *fakeDirectory) CalendarEvents(context.Context, string) ([]directory.Event, error) {
	return f.events, nil
}

func (f *fakeDirectory) SentMailCount(_ context.Context, _ string, userID string) (int, error) {
	return f.sent[userID], nil
}

func (f *fakeDirectory) ListUsers(context.Context, string) ([]directory.User, error) {
	return f.users, nil
}

func (f *fakeDirectory) CountUsers(context.Context, string) (int, error) { return len(f.users), nil }

func (f *fakeDirectory) LatestSignIn(context.Context, string) (directory.SignIn, error) {
	return f.signIn, nil
}

type testEnv struct {
	t        *testing.T
	server   *server.Server
	keys     *credential.KeyPair
	identity *fakeIdentity
	dir      *fakeDirectory
	registry *sessions.InMemoryRegistry
	reg      *prometheus.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("COOKIE_SECRET", "test-cookie-secret")
	t.Setenv("APP_NAME", "KPI Dashboard")

	kp, err := credential.GenerateRSAKeyPair("test-key", 2048)
	require.NoError(t, err)
	pemData, err := kp.ExportPublicKeyPEM()
	require.NoError(t, err)
	keySet, err := credential.NewStaticKeySet(pemData)
	require.NoError(t, err)
	decoder, err := credential.NewDecoder(keySet)
	require.NoError(t, err)

	env := &testEnv{
		t:        t,
		keys:     kp,
		identity: &fakeIdentity{codes: map[string]string{}},
		dir: &fakeDirectory{
			me: directory.User{ID: "oid-jane", DisplayName: "Jane Doe", Mail: "jane@example.com"},
		},
		registry: sessions.NewInMemoryRegistry(time.Minute),
		reg:      prometheus.NewRegistry(),
	}

	env.server, err = server.New(config.New(), server.Services{
		Sessions:  env.registry,
		Decoder:   decoder,
		Identity:  env.identity,
		Directory: env.dir,
		Metrics:   server.NewMetrics(env.reg, env.registry),
		Gatherer:  env.reg,
	})
	require.NoError(t, err)
	return env
}

// mint signs a token for the subject with the given delegated scopes
func (e *testEnv) mint(scp string, expiry time.Time) string {
	e.t.Helper()
	raw, err := e.keys.Sign(&credential.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(expiry)},
		ObjectID:         "oid-jane",
		Name:             "Jane Doe",
		Scope:            scp,
	})
	require.NoError(e.t, err)
	return raw
}

func (e *testEnv) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// login walks through /login and the callback and returns the session cookie.
func (e *testEnv) login(token, useCase string) *http.Cookie {
	e.t.Helper()
	target := "/login"
	if useCase != "" {
		target += "?usecase=" + useCase
	}
	rec := e.do(httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(e.t, http.StatusFound, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(e.t, err)
	state := location.Query().Get("state")
	stateCookie := findCookie(rec, "auth_state")
	require.NotNil(e.t, stateCookie)

	code := "code-" + state[:8]
	e.identity.codes[code] = token

	rec = e.do(httptest.NewRequest(http.MethodGet, "/api/callback?code="+code+"&state="+url.QueryEscape(state), nil), stateCookie)
	require.Equal(e.t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.Equal(e.t, "/", rec.Header().Get("Location"))

	sessionCookie := findCookie(rec, "s")
	require.NotNil(e.t, sessionCookie)
	return sessionCookie
}

func bodyOf(rec *httptest.ResponseRecorder) string {
	return strings.TrimSpace(rec.Body.String())
}

func (e *testEnv) mintApp(roles ...string) string {
	e.t.Helper()
	raw, err := e.keys.Sign(&credential.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		AppDisplayName:   "KPI Dashboard",
		AppID:            testClientID,
		Roles:            roles,
	})
	require.NoError(e.t, err)
	return raw
}
