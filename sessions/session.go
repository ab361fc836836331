// Package sessions binds verified credentials to dashboard sessions and keeps them in a registry.
package sessions

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/jrsteele09/graph-kpi-dashboard/capabilities"
	"github.com/jrsteele09/graph-kpi-dashboard/credential"
	"github.com/jrsteele09/graph-kpi-dashboard/internal/errors"
)

// ValidityWindow is how long after the credential's expiry a session is still accepted.
const ValidityWindow = 1 * time.Hour

// idLength is the number of random bytes in a generated session id (256 bits).
const idLength = 32

// maxIDAttempts bounds id regeneration on registry collisions
const maxIDAttempts = 5

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Decoder turns a bearer token into a verified credential.
type Decoder interface {
	Decode(ctx context.Context, rawToken string) (credential.Decoded, error)
}

// Session is replaced, never mutated, when its owner re-authenticates.
type Session struct {
	ID          string
	BearerToken string
	Decoded     credential.Decoded
	CreatedAt   time.Time

	caps capabilities.Capabilities
}

// New decodes bearerToken and evaluates its capabilities once.
// An empty id is replaced by a freshly generated one.
func New(ctx context.Context, decoder Decoder, bearerToken, id string) (*Session, error) {
	decoded, err := decoder.Decode(ctx, bearerToken)
	if err != nil {
		return nil, fmt.Errorf("[sessions New] %w", err)
	}

	if id == "" {
		id = GenerateID()
	}

	return &Session{
		ID:          id,
		BearerToken: bearerToken,
		Decoded:     decoded,
		CreatedAt:   NowTimeFunc(),
		caps:        capabilities.Evaluate(decoded.GrantedScopes),
	}, nil
}

// IsValid is false once an hour or more has passed since the credential's expiry.
func (s *Session) IsValid() bool {
	return NowTimeFunc().Sub(s.Decoded.Expiry) < ValidityWindow
}

func (s *Session) Capabilities() capabilities.Capabilities {
	return s.caps
}

// GenerateID returns a cryptographically random base64url identifier.
func GenerateID() string {
	b := make([]byte, idLength)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// Create builds a session and stores it. A fixed id replaces any existing session
// under that id; otherwise ids are generated until one is free in the registry.
func Create(ctx context.Context, registry Registry, decoder Decoder, bearerToken, id string) (*Session, error) {
	s, err := New(ctx, decoder, bearerToken, id)
	if err != nil {
		return nil, err
	}

	if id != "" {
		if err := registry.Insert(s); err != nil {
			return nil, fmt.Errorf("[sessions Create] %w", err)
		}
		return s, nil
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		if attempt > 0 {
			s.ID = GenerateID()
		}
		err := registry.Add(s)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, errors.ErrSessionExists) {
			return nil, fmt.Errorf("[sessions Create] %w", err)
		}
	}
	return nil, fmt.Errorf("[sessions Create] %w", errors.ErrIDExhausted)
}
