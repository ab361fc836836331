// Package directory reads profile, calendar, mailbox, user and audit facts from the
// remote directory API on behalf of a bearer credential.
package directory

import (
	"context"
	"time"
)

// Gateway is the directory API as seen by the dashboard. Every call is made with the
// bearer credential of the session it serves.
type Gateway interface {
	// Me returns the profile of the credential's subject
	Me(ctx context.Context, bearerToken string) (User, error)

	// UpdateUser patches the given user's profile
	UpdateUser(ctx context.Context, bearerToken, userID string, update UserUpdate) error

	// CalendarEvents returns every event visible to the credential's subject
	CalendarEvents(ctx context.Context, bearerToken string) ([]Event, error)

	// SentMailCount returns 0 without error when the user has no provisioned mailbox
	SentMailCount(ctx context.Context, bearerToken, userID string) (int, error)

	// ListUsers returns the first page of tenant users
	ListUsers(ctx context.Context, bearerToken string) ([]User, error)

	// CountUsers counts the first page of tenant users
	CountUsers(ctx context.Context, bearerToken string) (int, error)

	// LatestSignIn returns the most recent sign-in record, or the zero value if there is none
	LatestSignIn(ctx context.Context, bearerToken string) (SignIn, error)
}

type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Mail        string `json:"mail"`
	MobilePhone string `json:"mobilePhone"`
}

// UserUpdate only sends the fields that are set
type UserUpdate struct {
	MobilePhone *string `json:"mobilePhone,omitempty"`
}

type Event struct {
	Start time.Time
	End   time.Time
}

// Duration is zero for events that end before they start.
func (e Event) Duration() time.Duration {
	if e.End.Before(e.Start) {
		return 0
	}
	return e.End.Sub(e.Start)
}

type SignIn struct {
	UserDisplayName string
	CreatedAt       time.Time
}

// IsZero reports an empty audit feed.
func (s SignIn) IsZero() bool {
	return s.UserDisplayName == "" && s.CreatedAt.IsZero()
}
