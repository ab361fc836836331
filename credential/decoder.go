package credential

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/graph-kpi-dashboard/internal/errors"
)

// Decode extracts the payload of a signed token without checking its signature.
// Only use it for tokens that have already been verified, or in tests.
func Decode(rawToken string) (Decoded, error) {
	if strings.TrimSpace(rawToken) == "" {
		return Decoded{}, fmt.Errorf("[credential Decode] empty token: %w", errors.ErrMalformedCredential)
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rawToken, claims); err != nil {
		return Decoded{}, fmt.Errorf("[credential Decode] %w: %v", errors.ErrMalformedCredential, err)
	}

	if claims.ExpiresAt == nil {
		return Decoded{}, fmt.Errorf("[credential Decode] missing exp claim: %w", errors.ErrMalformedCredential)
	}

	return Decoded{
		Expiry:        claims.ExpiresAt.Time,
		SubjectID:     claims.subjectID(),
		DisplayName:   claims.displayName(),
		AppID:         claims.AppID,
		UniqueName:    claims.UniqueName,
		GrantedScopes: claims.grantedScopes(),
	}, nil
}

// Decoder verifies a credential's signature against a trusted key set and decodes it.
type Decoder struct {
	keys oidc.KeySet
}

// NewDecoder requires a key set: there is no unverified decoding mode.
func NewDecoder(keys oidc.KeySet) (*Decoder, error) {
	if keys == nil {
		return nil, fmt.Errorf("[credential NewDecoder] a trusted key set is required")
	}
	return &Decoder{keys: keys}, nil
}

// Decode fails with ErrMalformedCredential when the token cannot be parsed and
// ErrUntrustedCredential when its signature does not match a trusted key.
func (d *Decoder) Decode(ctx context.Context, rawToken string) (Decoded, error) {
	decoded, err := Decode(rawToken)
	if err != nil {
		return Decoded{}, err
	}

	if _, err := d.keys.VerifySignature(ctx, rawToken); err != nil {
		return Decoded{}, fmt.Errorf("[credential Decoder.Decode] %w: %v", errors.ErrUntrustedCredential, err)
	}

	return decoded, nil
}
