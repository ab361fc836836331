// Package authflowrepo keeps the state of authorization code logins between the
// redirect to the identity provider and its callback.
package authflowrepo

import "time"

// DefaultMaxAge is how long a pending login may take before its state is discarded
const DefaultMaxAge = 10 * time.Minute

type AuthFlowState struct {
	UseCase   string
	ReturnURL string
	CreatedAt time.Time
}

type Repo interface {
	Upsert(state string, authState *AuthFlowState) error
	Get(state string) (*AuthFlowState, error)
	Delete(state string) error
	PurgeOlderThan(cutoff time.Time) int
}
