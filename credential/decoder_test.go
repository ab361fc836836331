package credential_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/graph-kpi-dashboard/credential"
	"github.com/jrsteele09/graph-kpi-dashboard/internal/errors"
	"github.com/stretchr/testify/require"
)

const testKeyID = "test-key-1"

func newKeyPair(t *testing.T, keyID string) *credential.KeyPair {
	t.Helper()
	kp, err := credential.GenerateRSAKeyPair(keyID, 2048)
	require.NoError(t, err)
	return kp
}

func newDecoder(t *testing.T, kp *credential.KeyPair) *credential.Decoder {
	t.Helper()
	pemData, err := kp.ExportPublicKeyPEM()
	require.NoError(t, err)
	keys, err := credential.NewStaticKeySet(pemData)
	require.NoError(t, err)
	d, err := credential.NewDecoder(keys)
	require.NoError(t, err)
	return d
}

func mint(t *testing.T, kp *credential.KeyPair, claims credential.Claims) string {
	t.Helper()
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	}
	raw, err := kp.Sign(&claims)
	require.NoError(t, err)
	return raw
}

func TestDecode_Scopes(t *testing.T) {
	kp := newKeyPair(t, testKeyID)

	t.Run("scp claim is split and lower-cased", func(t *testing.T) {
		decoded, err := credential.Decode(mint(t, kp, credential.Claims{Scope: "Mail.Read  Calendars.Read mail.read"}))
		require.NoError(t, err)
		require.Equal(t, []string{"calendars.read", "mail.read"}, decoded.GrantedScopes.Sorted())
	})

	t.Run("roles claim used when scp is absent", func(t *testing.T) {
		decoded, err := credential.Decode(mint(t, kp, credential.Claims{Roles: []string{"User.Read.All", "AuditLog.Read.All"}}))
		require.NoError(t, err)
		require.Equal(t, []string{"auditlog.read.all", "user.read.all"}, decoded.GrantedScopes.Sorted())
	})

	t.Run("scp takes priority over roles", func(t *testing.T) {
		decoded, err := credential.Decode(mint(t, kp, credential.Claims{Scope: "User.Read", Roles: []string{"Mail.Read"}}))
		require.NoError(t, err)
		require.Equal(t, []string{"user.read"}, decoded.GrantedScopes.Sorted())
	})

	t.Run("no scope claims yields an empty non-nil set", func(t *testing.T) {
		decoded, err := credential.Decode(mint(t, kp, credential.Claims{}))
		require.NoError(t, err)
		require.NotNil(t, decoded.GrantedScopes)
		require.Empty(t, decoded.GrantedScopes)
	})
}

func TestDecode_Identity(t *testing.T) {
	kp := newKeyPair(t, testKeyID)
	exp := time.Unix(1893456000, 0)

	decoded, err := credential.Decode(mint(t, kp, credential.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "sub-1", ExpiresAt: jwt.NewNumericDate(exp)},
		ObjectID:         "oid-1",
		Name:             "Jane Doe",
		AppID:            "app-1",
	}))
	require.NoError(t, err)
	require.True(t, exp.Equal(decoded.Expiry))
	require.Equal(t, "oid-1", decoded.SubjectID)
	require.Equal(t, "Jane Doe", decoded.DisplayName)
	require.Equal(t, "app-1", decoded.AppID)

	t.Run("application token falls back to sub and app display name", func(t *testing.T) {
		decoded, err := credential.Decode(mint(t, kp, credential.Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "sub-2"},
			AppDisplayName:   "KPI Dashboard",
		}))
		require.NoError(t, err)
		require.Equal(t, "sub-2", decoded.SubjectID)
		require.Equal(t, "KPI Dashboard", decoded.DisplayName)
	})
}

func TestDecode_Malformed(t *testing.T) {
	for name, raw := range map[string]string{
		"empty":           "",
		"not a jwt":       "definitely-not-a-token",
		"bad payload":     "eyJhbGciOiJSUzI1NiJ9.bm90LWpzb24.c2ln",
		"wrong scp shape": "eyJhbGciOiJSUzI1NiJ9.eyJleHAiOjE4OTM0NTYwMDAsInNjcCI6NDJ9.c2ln",
		"missing exp":     "eyJhbGciOiJSUzI1NiJ9.eyJzY3AiOiJ1c2VyLnJlYWQifQ.c2ln",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := credential.Decode(raw)
			require.Error(t, err)
			require.True(t, errors.Is(err, errors.ErrMalformedCredential))
		})
	}
}

func TestDecoder_VerifiesSignature(t *testing.T) {
	trusted := newKeyPair(t, testKeyID)
	decoder := newDecoder(t, trusted)
	ctx := context.Background()

	t.Run("trusted key", func(t *testing.T) {
		decoded, err := decoder.Decode(ctx, mint(t, trusted, credential.Claims{Scope: "User.Read"}))
		require.NoError(t, err)
		require.True(t, decoded.GrantedScopes.Has("user.read"))
	})

	t.Run("unknown key", func(t *testing.T) {
		other := newKeyPair(t, "other-key")
		_, err := decoder.Decode(ctx, mint(t, other, credential.Claims{Scope: "User.Read"}))
		require.Error(t, err)
		require.True(t, errors.Is(err, errors.ErrUntrustedCredential))
	})

	t.Run("malformed token is reported as malformed", func(t *testing.T) {
		_, err := decoder.Decode(ctx, "garbage")
		require.True(t, errors.Is(err, errors.ErrMalformedCredential))
	})
}

func TestNewDecoder_RequiresKeys(t *testing.T) {
	_, err := credential.NewDecoder(nil)
	require.Error(t, err)
}

func TestParsePublicKeysPEM(t *testing.T) {
	a, b := newKeyPair(t, "a"), newKeyPair(t, "b")
	pemA, err := a.ExportPublicKeyPEM()
	require.NoError(t, err)
	pemB, err := b.ExportPublicKeyPEM()
	require.NoError(t, err)

	keys, err := credential.ParsePublicKeysPEM(pemA + pemB)
	require.NoError(t, err)
	require.Len(t, keys, 2)

	_, err = credential.ParsePublicKeysPEM("no pem here")
	require.Error(t, err)
}

func TestScopeSet(t *testing.T) {
	set := credential.NewScopeSet("Mail.Read", " ", "CALENDARS.READ")
	require.Len(t, set, 2)
	require.True(t, set.Has("mail.READ"))
	require.True(t, set.HasAll("mail.read", "calendars.read"))
	require.False(t, set.HasAll("mail.read", "user.read"))
	require.True(t, set.HasAll())
}
